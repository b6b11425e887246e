package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/gig-service/internal/domain"
)

var (
	// ErrNotFound is returned when the referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConditionFailed is returned when a conditional write found the record
	// in a state other than the one it asserted.
	ErrConditionFailed = errors.New("conditional write rejected")
	// ErrDuplicate is returned when a uniqueness constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrConstraint is returned when a write would break a record invariant.
	ErrConstraint = errors.New("constraint violation")
)

// Store bundles the record families the core persists.
type Store struct {
	Users        UserRepository
	Gigs         GigRepository
	Applications ApplicationRepository
	Feedback     FeedbackRepository
	History      GigHistoryRepository
}

// NewPostgresStore returns pgx-backed repositories sharing one pool.
func NewPostgresStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Users:        NewUserRepository(pool),
		Gigs:         NewGigRepository(pool),
		Applications: NewApplicationRepository(pool),
		Feedback:     NewFeedbackRepository(pool),
		History:      NewGigHistoryRepository(pool),
	}
}

// NormalizeTime brings every timestamp to the single representation used at
// the store boundary: UTC with microsecond precision.
func NormalizeTime(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Microsecond)
}

// Now returns the current normalized time.
func Now() time.Time {
	return NormalizeTime(time.Now())
}

func normalizeTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := NormalizeTime(*t)
	return &n
}

// GigFilter is an equality filter set over gigs. Nil fields match anything.
type GigFilter struct {
	Status    *domain.GigStatus
	Category  *string
	Location  *string
	PosterID  *string
	ClaimedBy *string
	Limit     int
}

// Matches reports whether gig satisfies every set field.
func (f GigFilter) Matches(gig *domain.Gig) bool {
	if f.Status != nil && gig.Status != *f.Status {
		return false
	}
	if f.Category != nil && gig.Category != *f.Category {
		return false
	}
	if f.Location != nil && gig.Location != *f.Location {
		return false
	}
	if f.PosterID != nil && gig.PosterID != *f.PosterID {
		return false
	}
	if f.ClaimedBy != nil && !gig.IsClaimant(*f.ClaimedBy) {
		return false
	}
	return true
}

// Signature is a stable key identifying filters with identical semantics.
func (f GigFilter) Signature() string {
	parts := make([]string, 0, 6)
	add := func(name string, val *string) {
		if val != nil {
			parts = append(parts, name+"="+*val)
		}
	}
	if f.Status != nil {
		status := string(*f.Status)
		add("status", &status)
	}
	add("category", f.Category)
	add("location", f.Location)
	add("poster", f.PosterID)
	add("claimed_by", f.ClaimedBy)
	parts = append(parts, fmt.Sprintf("limit=%d", f.Limit))
	return strings.Join(parts, "&")
}

// GigPatch is a field-level merge applied to a gig. Nil fields are left
// untouched.
type GigPatch struct {
	Title           *string
	Description     *string
	Category        *string
	Subcategory     *string
	Location        *string
	PaymentAmount   *float64
	PaymentKind     *domain.PaymentKind
	Duration        *int
	DurationUnit    *domain.DurationUnit
	TargetDate      *time.Time
	ClearTargetDate bool
	Status          *domain.GigStatus
	ClaimedBy       *string
	Applicants      *[]string
}

// Apply merges the patch into gig.
func (p GigPatch) Apply(gig *domain.Gig) {
	if p.Title != nil {
		gig.Title = *p.Title
	}
	if p.Description != nil {
		gig.Description = *p.Description
	}
	if p.Category != nil {
		gig.Category = *p.Category
	}
	if p.Subcategory != nil {
		gig.Subcategory = *p.Subcategory
	}
	if p.Location != nil {
		gig.Location = *p.Location
	}
	if p.PaymentAmount != nil {
		gig.PaymentAmount = *p.PaymentAmount
	}
	if p.PaymentKind != nil {
		gig.PaymentKind = *p.PaymentKind
	}
	if p.Duration != nil {
		gig.Duration = *p.Duration
	}
	if p.DurationUnit != nil {
		gig.DurationUnit = *p.DurationUnit
	}
	if p.ClearTargetDate {
		gig.TargetDate = nil
	} else if p.TargetDate != nil {
		gig.TargetDate = normalizeTimePtr(p.TargetDate)
	}
	if p.Status != nil {
		gig.Status = *p.Status
	}
	if p.ClaimedBy != nil {
		claimant := *p.ClaimedBy
		gig.ClaimedBy = &claimant
	}
	if p.Applicants != nil {
		gig.Applicants = append([]string{}, (*p.Applicants)...)
	}
}

// UserPatch is a field-level merge applied to a user.
type UserPatch struct {
	DisplayName   *string
	Bio           *string
	Skills        *[]string
	Rating        *domain.Rating
	CompletedGigs *int
}

// Apply merges the patch into user.
func (p UserPatch) Apply(user *domain.User) {
	if p.DisplayName != nil {
		user.DisplayName = *p.DisplayName
	}
	if p.Bio != nil {
		user.Bio = *p.Bio
	}
	if p.Skills != nil {
		user.Skills = append([]string{}, (*p.Skills)...)
	}
	if p.Rating != nil {
		user.Rating = *p.Rating
	}
	if p.CompletedGigs != nil {
		user.CompletedGigs = *p.CompletedGigs
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// mapPgError converts driver errors into the package sentinels.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
		case "23514", "23503":
			return fmt.Errorf("%w: %s", ErrConstraint, pgErr.ConstraintName)
		}
	}
	return err
}
