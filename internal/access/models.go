package access

import "time"

// Sections of the CRM a permission applies to
const (
	SectionQuotes      = "quotes"
	SectionCustomers   = "customers"
	SectionTariffs     = "tariffs"
	SectionRouting     = "routing"
	SectionIncentives  = "incentives"
	SectionCompetitors = "competitors"
	SectionNotes       = "notes"
	SectionFleet       = "fleet"
	SectionImports     = "imports"
	SectionAccess      = "access"
)

// Sections lists every section in display order
var Sections = []string{
	SectionQuotes, SectionCustomers, SectionTariffs, SectionRouting, SectionIncentives,
	SectionCompetitors, SectionNotes, SectionFleet, SectionImports, SectionAccess,
}

// Actions written to the access log
const (
	ActionCreate = "create"
	ActionEdit   = "edit"
	ActionDelete = "delete"
)

// Permission grants viewing and editing one section. Editing implies viewing.
type Permission struct {
	Section string `json:"section" validate:"required,max=32"`
	CanView bool   `json:"can_view"`
	CanEdit bool   `json:"can_edit"`
}

// UserPermissions are the effective permissions of a user together with the
// overrides stored for them
type UserPermissions struct {
	UserID      string       `json:"user_id"`
	Role        string       `json:"role"`
	Permissions []Permission `json:"permissions"`
	Overrides   []Permission `json:"overrides"`
}

// UpdatePermissionsRequest replaces the overrides of the listed sections
type UpdatePermissionsRequest struct {
	Permissions []Permission `json:"permissions" validate:"required,min=1,dive"`
}

// LogEntry is one write request recorded in the access log
type LogEntry struct {
	ID            int64     `json:"id"`
	UserID        string    `json:"user_id"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	Action        string    `json:"action"`
	Section       string    `json:"section"`
	Method        string    `json:"method"`
	Route         string    `json:"route"`
	Status        int       `json:"status"`
	CorrelationID string    `json:"correlation_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// LogFilter narrows the access log. Zero values match every entry.
type LogFilter struct {
	UserID  string `form:"user_id" validate:"max=255"`
	Action  string `form:"action" validate:"omitempty,oneof=create edit delete"`
	Section string `form:"section" validate:"max=32"`
}
