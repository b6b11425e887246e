package domain

import "time"

// GigChangeType captures what changed in a history entry.
type GigChangeType string

const (
	ChangeTypeCreated   GigChangeType = "CREATED"
	ChangeTypeStatus    GigChangeType = "STATUS_CHANGE"
	ChangeTypeDetails   GigChangeType = "DETAILS_CHANGE"
	ChangeTypeApplicant GigChangeType = "APPLICANT_ADDED"
	ChangeTypeReconcile GigChangeType = "APPLICANTS_REBUILT"
)

// GigHistory is an immutable audit trail entry.
type GigHistory struct {
	ID          string
	GigID       string
	ChangedByID *string
	ChangeType  GigChangeType
	OldValue    map[string]any
	NewValue    map[string]any
	CreatedAt   time.Time
}
