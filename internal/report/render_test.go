package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"certtrack/internal/types"
)

func TestRender(t *testing.T) {
	snippet := "<p>Inspected {{asset}} at {{location}} for {{client}} by {{engineer}}.</p><p>{{findings}}</p>"
	got := Render(snippet, Fields{
		Client:   "Galaxy Metals",
		Location: "Mundra CFS",
		Asset:    "Shredded scrap lot",
		Engineer: "S. Rao",
		Findings: "No radioactive material detected.",
	})
	assert.Equal(t,
		"<p>Inspected Shredded scrap lot at Mundra CFS for Galaxy Metals by S. Rao.</p><p>No radioactive material detected.</p>",
		got)
}

func TestRenderDefaultFindings(t *testing.T) {
	got := Render("{{findings}}", Fields{})
	assert.Equal(t, DefaultFindings, got)
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	got := Render("{{client}} {{vessel}}", Fields{Client: "Acme"})
	assert.Equal(t, "Acme {{vessel}}", got)
}

func TestFieldsFor(t *testing.T) {
	i := &types.Inspection{
		ClientName:   "Acme",
		Location:     "Kandla",
		Asset:        "Lathe",
		EngineerName: "Rao",
	}
	f := FieldsFor(i)
	assert.Equal(t, "Acme", f.Client)
	assert.Equal(t, "Kandla", f.Location)
	assert.Equal(t, DefaultFindings, f.Findings)
}
