package domain

import "time"

// ApplicationStatus enumerates the poster's decision on an application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Application is a seeker's non-exclusive interest in a gig. At most one
// exists per (GigID, ApplicantID).
type Application struct {
	ID          string
	GigID       string
	ApplicantID string
	Message     string
	Status      ApplicationStatus
	AppliedAt   time.Time
	UpdatedAt   time.Time
}
