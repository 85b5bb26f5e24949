// Package types defines the domain entities and status enumerations shared
// across the store and server layers.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is a user's access level.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleEngineer   Role = "ENGINEER"
	RoleAccountant Role = "ACCOUNTANT"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleEngineer, RoleAccountant}

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	for _, v := range Roles {
		if v == r {
			return true
		}
	}
	return false
}

// InspectionType identifies the kind of certificate an inspection produces.
type InspectionType string

const (
	TypeScrapPSIC          InspectionType = "SCRAP_PSIC"
	TypeMachineryValuation InspectionType = "MACHINERY_VALUATION"
	TypeFitness            InspectionType = "FITNESS"
)

// InspectionTypes lists every valid inspection type.
var InspectionTypes = []InspectionType{TypeScrapPSIC, TypeMachineryValuation, TypeFitness}

// Prefix returns the public-ID prefix for the type (e.g. "PSIC/2026/0007").
func (t InspectionType) Prefix() string {
	switch t {
	case TypeScrapPSIC:
		return "PSIC"
	case TypeMachineryValuation:
		return "MV"
	case TypeFitness:
		return "FIT"
	}
	return "INS"
}

// ValidInspectionType reports whether t is a known inspection type.
func ValidInspectionType(t InspectionType) bool {
	for _, v := range InspectionTypes {
		if v == t {
			return true
		}
	}
	return false
}

// InspectionStatus tracks an inspection through its workflow.
type InspectionStatus string

const (
	InspectionPending         InspectionStatus = "PENDING"
	InspectionCompleted       InspectionStatus = "COMPLETED"
	InspectionInvoiced        InspectionStatus = "INVOICED"
	InspectionReportGenerated InspectionStatus = "REPORT_GENERATED"
)

// InspectionStatuses lists every valid inspection status, in display order.
var InspectionStatuses = []InspectionStatus{
	InspectionPending, InspectionCompleted, InspectionInvoiced, InspectionReportGenerated,
}

// ValidInspectionStatus reports whether s is a known inspection status.
func ValidInspectionStatus(s InspectionStatus) bool {
	for _, v := range InspectionStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// InvoiceStatus tracks invoice lifecycle.
type InvoiceStatus string

const (
	InvoiceDraft InvoiceStatus = "DRAFT"
	InvoiceSent  InvoiceStatus = "SENT"
	InvoicePaid  InvoiceStatus = "PAID"
)

// InvoiceStatuses lists every valid invoice status.
var InvoiceStatuses = []InvoiceStatus{InvoiceDraft, InvoiceSent, InvoicePaid}

// ReportStatus tracks report lifecycle.
type ReportStatus string

const (
	ReportDraft ReportStatus = "DRAFT"
	ReportFinal ReportStatus = "FINAL"
)

// CommissionStatus tracks CHA commission payout state.
type CommissionStatus string

const (
	CommissionDue     CommissionStatus = "DUE"
	CommissionPartial CommissionStatus = "PARTIAL"
	CommissionPaid    CommissionStatus = "PAID"
)

// CommissionStatuses lists every valid commission status.
var CommissionStatuses = []CommissionStatus{CommissionDue, CommissionPartial, CommissionPaid}

// User is an operator account. PasswordHash is a bcrypt hash.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Phone        string
	SignatureKey string
}

// Client is a billed customer.
type Client struct {
	ID             int64
	Name           string
	GSTNumber      string
	BillingAddress string
}

// CHA is a customs house agent who refers inspections for a commission.
// CommissionRate is a percentage (0..100).
type CHA struct {
	ID             int64
	Name           string
	Contact        string
	CommissionRate decimal.Decimal
}

// Inspection is the central workflow entity. EngineerID and CHAID are zero
// when unassigned. CommissionRateOverride, when non-nil, replaces the CHA's
// default rate for commission generation on this inspection only.
//
// PurchaseYear and OriginalCost are used by machinery valuations to derive
// the depreciated value; both are zero for other inspection types.
type Inspection struct {
	ID                     int64
	PublicID               string
	Type                   InspectionType
	Date                   time.Time
	ClientID               int64
	Location               string
	Asset                  string
	Status                 InspectionStatus
	EngineerID             int64
	CHAID                  int64
	CommissionRateOverride *decimal.Decimal
	PurchaseYear           int
	OriginalCost           decimal.Decimal
	CreatedAt              time.Time

	// Joined display fields, populated by list/detail queries.
	ClientName   string
	EngineerName string
	CHAName      string
}

// Report is the one-per-inspection certificate body.
type Report struct {
	ID           int64
	InspectionID int64
	Status       ReportStatus
	Body         string
	UpdatedAt    time.Time
}

// Invoice is the one-per-inspection bill. Total is derived:
// fee x (1 + tax/100), rounded to 2 places.
type Invoice struct {
	ID           int64
	InspectionID int64
	Fee          decimal.Decimal
	TaxPct       decimal.Decimal
	Total        decimal.Decimal
	Status       InvoiceStatus
	Notes        string
}

// Commission is the one-per-inspection CHA payout record.
type Commission struct {
	ID           int64
	InspectionID int64
	CHAID        int64
	Amount       decimal.Decimal
	Status       CommissionStatus

	// Joined display fields.
	CHAName            string
	InspectionPublicID string
	InspectionAsset    string
}

// ReportTemplate is an admin-managed snippet used to generate report bodies.
// HTMLSnippet may contain the placeholders {{client}}, {{location}},
// {{asset}}, {{engineer}} and {{findings}}.
type ReportTemplate struct {
	ID          int64
	Name        string
	Active      bool
	AIPrompt    string
	HTMLSnippet string
}

// Attachment is a file uploaded against an inspection. StoredName is the
// uuid-based name on disk; FileName is the original upload name.
type Attachment struct {
	ID           int64
	InspectionID int64
	FileName     string
	StoredName   string
	Size         int64
	UploadedBy   int64
	CreatedAt    time.Time
}

// AuditEntry is an append-only record of a mutation. Diff is a rendered
// field-level summary of what changed.
type AuditEntry struct {
	ID        int64
	ActorID   int64
	ActorName string
	Entity    string
	EntityID  int64
	Action    string
	Diff      string
	CreatedAt time.Time
}

// InvoiceTotal computes fee x (1 + taxPct/100) rounded to 2 places.
func InvoiceTotal(fee, taxPct decimal.Decimal) decimal.Decimal {
	hundred := decimal.NewFromInt(100)
	return fee.Mul(hundred.Add(taxPct)).Div(hundred).Round(2)
}

// CommissionAmount computes fee x rate/100 rounded to 2 places.
func CommissionAmount(fee, ratePct decimal.Decimal) decimal.Decimal {
	return fee.Mul(ratePct).Div(decimal.NewFromInt(100)).Round(2)
}
