package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/gig-service/internal/domain"
)

// GigRepository encapsulates gig persistence.
type GigRepository interface {
	// Create stores a new gig, assigning ID and timestamps.
	Create(ctx context.Context, gig *domain.Gig) error
	GetByID(ctx context.Context, id string) (*domain.Gig, error)
	// List returns a snapshot of matching gigs, newest first.
	List(ctx context.Context, filter GigFilter) ([]domain.Gig, error)
	// Update merges patch into the gig unconditionally.
	Update(ctx context.Context, id string, patch GigPatch) (*domain.Gig, error)
	// UpdateIfStatus merges patch only if the gig's current status equals
	// expected, as one indivisible write. It returns ErrConditionFailed when
	// the status differs.
	UpdateIfStatus(ctx context.Context, id string, expected domain.GigStatus, patch GigPatch) (*domain.Gig, error)
}

type gigRepository struct {
	pool *pgxpool.Pool
}

// NewGigRepository instantiates repository.
func NewGigRepository(pool *pgxpool.Pool) GigRepository {
	return &gigRepository{pool: pool}
}

const gigColumns = `id, title, description, category, subcategory, location, payment_amount, payment_kind,
        duration, duration_unit, target_date, poster_id, status, claimed_by, applicants, created_at, updated_at`

func (r *gigRepository) Create(ctx context.Context, gig *domain.Gig) error {
	if gig.ID == "" {
		gig.ID = uuid.NewString()
	}
	now := Now()
	gig.CreatedAt, gig.UpdatedAt = now, now
	gig.TargetDate = normalizeTimePtr(gig.TargetDate)
	if gig.Applicants == nil {
		gig.Applicants = []string{}
	}
	const query = `
        INSERT INTO gigs (` + gigColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)`
	_, err := r.pool.Exec(ctx, query,
		gig.ID,
		gig.Title,
		gig.Description,
		gig.Category,
		gig.Subcategory,
		gig.Location,
		gig.PaymentAmount,
		gig.PaymentKind,
		gig.Duration,
		gig.DurationUnit,
		gig.TargetDate,
		gig.PosterID,
		gig.Status,
		gig.ClaimedBy,
		gig.Applicants,
		gig.CreatedAt,
		gig.UpdatedAt,
	)
	return mapPgError(err)
}

func (r *gigRepository) GetByID(ctx context.Context, id string) (*domain.Gig, error) {
	query := `SELECT ` + gigColumns + ` FROM gigs WHERE id=$1`
	gig, err := scanGig(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapPgError(err)
	}
	return gig, nil
}

func (r *gigRepository) List(ctx context.Context, filter GigFilter) ([]domain.Gig, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if filter.Location != nil {
		args = append(args, *filter.Location)
		clauses = append(clauses, fmt.Sprintf("location=$%d", len(args)))
	}
	if filter.PosterID != nil {
		args = append(args, *filter.PosterID)
		clauses = append(clauses, fmt.Sprintf("poster_id=$%d", len(args)))
	}
	if filter.ClaimedBy != nil {
		args = append(args, *filter.ClaimedBy)
		clauses = append(clauses, fmt.Sprintf("claimed_by=$%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM gigs WHERE %s ORDER BY created_at DESC, id DESC`,
		gigColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	result := []domain.Gig{}
	for rows.Next() {
		gig, err := scanGig(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *gig)
	}
	return result, mapPgError(rows.Err())
}

func (r *gigRepository) Update(ctx context.Context, id string, patch GigPatch) (*domain.Gig, error) {
	assignments, args := patch.sqlAssignments()
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE gigs SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(assignments, ", "), len(args), gigColumns)
	gig, err := scanGig(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapPgError(err)
	}
	return gig, nil
}

func (r *gigRepository) UpdateIfStatus(ctx context.Context, id string, expected domain.GigStatus, patch GigPatch) (*domain.Gig, error) {
	assignments, args := patch.sqlAssignments()
	args = append(args, id, expected)
	query := fmt.Sprintf(`UPDATE gigs SET %s WHERE id=$%d AND status=$%d RETURNING %s`,
		strings.Join(assignments, ", "), len(args)-1, len(args), gigColumns)
	gig, err := scanGig(r.pool.QueryRow(ctx, query, args...))
	if err == nil {
		return gig, nil
	}
	if err = mapPgError(err); err != ErrNotFound {
		return nil, err
	}
	// Zero rows: either the gig is missing or the status assertion failed.
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM gigs WHERE id=$1)`, id).Scan(&exists); err != nil {
		return nil, mapPgError(err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return nil, ErrConditionFailed
}

// sqlAssignments renders the patch as SET assignments. updated_at is always
// bumped so an empty patch is still a valid statement.
func (p GigPatch) sqlAssignments() ([]string, []any) {
	var (
		sets []string
		args []any
	)
	set := func(column string, val any) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if p.Title != nil {
		set("title", *p.Title)
	}
	if p.Description != nil {
		set("description", *p.Description)
	}
	if p.Category != nil {
		set("category", *p.Category)
	}
	if p.Subcategory != nil {
		set("subcategory", *p.Subcategory)
	}
	if p.Location != nil {
		set("location", *p.Location)
	}
	if p.PaymentAmount != nil {
		set("payment_amount", *p.PaymentAmount)
	}
	if p.PaymentKind != nil {
		set("payment_kind", *p.PaymentKind)
	}
	if p.Duration != nil {
		set("duration", *p.Duration)
	}
	if p.DurationUnit != nil {
		set("duration_unit", *p.DurationUnit)
	}
	if p.ClearTargetDate {
		sets = append(sets, "target_date=NULL")
	} else if p.TargetDate != nil {
		set("target_date", NormalizeTime(*p.TargetDate))
	}
	if p.Status != nil {
		set("status", *p.Status)
	}
	if p.ClaimedBy != nil {
		set("claimed_by", *p.ClaimedBy)
	}
	if p.Applicants != nil {
		set("applicants", *p.Applicants)
	}
	set("updated_at", Now())
	return sets, args
}

func scanGig(row rowScanner) (*domain.Gig, error) {
	var gig domain.Gig
	if err := row.Scan(
		&gig.ID,
		&gig.Title,
		&gig.Description,
		&gig.Category,
		&gig.Subcategory,
		&gig.Location,
		&gig.PaymentAmount,
		&gig.PaymentKind,
		&gig.Duration,
		&gig.DurationUnit,
		&gig.TargetDate,
		&gig.PosterID,
		&gig.Status,
		&gig.ClaimedBy,
		&gig.Applicants,
		&gig.CreatedAt,
		&gig.UpdatedAt,
	); err != nil {
		return nil, err
	}
	gig.CreatedAt = NormalizeTime(gig.CreatedAt)
	gig.UpdatedAt = NormalizeTime(gig.UpdatedAt)
	gig.TargetDate = normalizeTimePtr(gig.TargetDate)
	if gig.Applicants == nil {
		gig.Applicants = []string{}
	}
	return &gig, nil
}
