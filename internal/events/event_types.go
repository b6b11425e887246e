package events

import (
	"time"

	"github.com/spec-kit/gig-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventGigCreated           EventType = "gig_created"
	EventGigUpdated           EventType = "gig_updated"
	EventGigClaimed           EventType = "gig_claimed"
	EventGigCompleted         EventType = "gig_completed"
	EventApplicationSubmitted EventType = "application_submitted"
	EventApplicationReviewed  EventType = "application_reviewed"
	EventFeedbackSubmitted    EventType = "feedback_submitted"
	EventApplicantsRebuilt    EventType = "applicants_rebuilt"
)

// GigEventTypes lists every event that reflects a change to a gig record.
var GigEventTypes = []EventType{
	EventGigCreated,
	EventGigUpdated,
	EventGigClaimed,
	EventGigCompleted,
	EventApplicationSubmitted,
	EventApplicantsRebuilt,
}

// Actor encapsulates actor metadata for an event. UserID is nil for
// system-initiated changes.
type Actor struct {
	UserID *string      `json:"user_id,omitempty"`
	Role   *domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	GigID     string    `json:"gig_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// GigCreatedPayload payload.
type GigCreatedPayload struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Location string `json:"location"`
}

// GigStatusChangedPayload payload.
type GigStatusChangedPayload struct {
	OldStatus domain.GigStatus `json:"old_status"`
	NewStatus domain.GigStatus `json:"new_status"`
	ClaimedBy *string          `json:"claimed_by,omitempty"`
}

// GigUpdatedPayload payload.
type GigUpdatedPayload struct {
	Fields []string `json:"fields"`
}

// ApplicationPayload payload.
type ApplicationPayload struct {
	ApplicationID string                   `json:"application_id"`
	ApplicantID   string                   `json:"applicant_id"`
	Status        domain.ApplicationStatus `json:"status"`
}

// FeedbackSubmittedPayload payload.
type FeedbackSubmittedPayload struct {
	FeedbackID string `json:"feedback_id"`
	ToUser     string `json:"to_user"`
	Rating     int    `json:"rating"`
}

// ApplicantsRebuiltPayload payload.
type ApplicantsRebuiltPayload struct {
	Before []string `json:"before"`
	After  []string `json:"after"`
}
