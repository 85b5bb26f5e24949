// Package report renders certificate bodies from admin-managed templates.
package report

import (
	"strings"

	"certtrack/internal/types"
)

// DefaultFindings is substituted for {{findings}} when the engineer has not
// supplied any yet.
const DefaultFindings = "All primary checks completed. No critical deviations."

// Fields carries the substitution values for a template snippet.
type Fields struct {
	Client   string
	Location string
	Asset    string
	Engineer string
	Findings string
}

// FieldsFor builds substitution values from an inspection's joined display
// fields.
func FieldsFor(i *types.Inspection) Fields {
	return Fields{
		Client:   i.ClientName,
		Location: i.Location,
		Asset:    i.Asset,
		Engineer: i.EngineerName,
		Findings: DefaultFindings,
	}
}

// Render substitutes the {{client}}, {{location}}, {{asset}}, {{engineer}}
// and {{findings}} placeholders in snippet. Unknown placeholders are left
// untouched so admins can spot typos in their templates.
func Render(snippet string, f Fields) string {
	findings := f.Findings
	if findings == "" {
		findings = DefaultFindings
	}
	r := strings.NewReplacer(
		"{{client}}", f.Client,
		"{{location}}", f.Location,
		"{{asset}}", f.Asset,
		"{{engineer}}", f.Engineer,
		"{{findings}}", findings,
	)
	return r.Replace(snippet)
}
