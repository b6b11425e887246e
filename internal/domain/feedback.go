package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// Feedback is an immutable post-completion rating from one gig party to the
// other. At most one exists per (GigID, FromUser).
type Feedback struct {
	ID        string
	GigID     string
	FromUser  string
	ToUser    string
	Rating    int
	Comment   string
	CreatedAt time.Time
}
