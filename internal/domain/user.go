package domain

import "time"

// Role distinguishes the two kinds of marketplace participants.
type Role string

const (
	RoleSeeker Role = "seeker"
	RolePoster Role = "poster"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleSeeker || r == RolePoster
}

// Rating is a derived reputation aggregate.
type Rating struct {
	Mean  float64
	Count int
}

// User is a marketplace participant. Rating and CompletedGigs are derived
// fields refreshed by the core; everything else is owned by profile edits.
type User struct {
	ID            string
	DisplayName   string
	Email         string
	PasswordHash  string
	Role          Role
	Skills        []string
	Bio           string
	Rating        Rating
	CompletedGigs int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
