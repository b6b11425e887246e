package domain

import (
	"slices"
	"time"
)

// GigStatus enumerates lifecycle states for gigs.
type GigStatus string

const (
	GigStatusOpen      GigStatus = "open"
	GigStatusClaimed   GigStatus = "claimed"
	GigStatusCompleted GigStatus = "completed"
)

// PaymentKind describes how the payment amount is interpreted.
type PaymentKind string

const (
	PaymentHourly PaymentKind = "hourly"
	PaymentTotal  PaymentKind = "total"
)

// DurationUnit qualifies a gig's expected duration.
type DurationUnit string

const (
	DurationHours DurationUnit = "hours"
	DurationDays  DurationUnit = "days"
	DurationWeeks DurationUnit = "weeks"
)

// Gig is a single posted task.
//
// ClaimedBy is nil exactly when Status is open. PosterID never appears in
// Applicants. Applicants is a membership cache; Application records are the
// source of truth for per-applicant state.
type Gig struct {
	ID            string
	Title         string
	Description   string
	Category      string
	Subcategory   string
	Location      string
	PaymentAmount float64
	PaymentKind   PaymentKind
	Duration      int
	DurationUnit  DurationUnit
	TargetDate    *time.Time
	PosterID      string
	Status        GigStatus
	ClaimedBy     *string
	Applicants    []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// HasApplicant reports whether userID is in the applicant set.
func (g *Gig) HasApplicant(userID string) bool {
	return slices.Contains(g.Applicants, userID)
}

// IsClaimant reports whether userID holds the claim on the gig.
func (g *Gig) IsClaimant(userID string) bool {
	return g.ClaimedBy != nil && *g.ClaimedBy == userID
}

// Counterpart returns the other party of a claimed or completed gig.
func (g *Gig) Counterpart(userID string) (string, bool) {
	if g.ClaimedBy == nil {
		return "", false
	}
	switch userID {
	case g.PosterID:
		return *g.ClaimedBy, true
	case *g.ClaimedBy:
		return g.PosterID, true
	}
	return "", false
}

// allowedTransitions is the complete lifecycle graph. Completed is terminal.
var allowedTransitions = map[GigStatus][]GigStatus{
	GigStatusOpen:      {GigStatusClaimed},
	GigStatusClaimed:   {GigStatusCompleted},
	GigStatusCompleted: {},
}

// CanTransition reports whether a gig may move from current to next.
func CanTransition(current, next GigStatus) bool {
	return slices.Contains(allowedTransitions[current], next)
}

// ParseGigStatus validates a raw status value.
func ParseGigStatus(raw string) (GigStatus, bool) {
	status := GigStatus(raw)
	_, ok := allowedTransitions[status]
	return status, ok
}
