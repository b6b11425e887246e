package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/gig-service/internal/domain"
)

// ApplicationRepository stores seeker applications.
type ApplicationRepository interface {
	// Create registers the applicant on the gig's applicant set and stores the
	// application as one unit. The gig must be open, not posted by the
	// applicant, and not already list the applicant; otherwise
	// ErrConditionFailed. A second application for the same pair fails with
	// ErrDuplicate.
	Create(ctx context.Context, app *domain.Application) error
	GetByID(ctx context.Context, id string) (*domain.Application, error)
	ListByGig(ctx context.Context, gigID string) ([]domain.Application, error)
	ListByApplicant(ctx context.Context, applicantID string) ([]domain.Application, error)
	// UpdateStatusIf moves an application from expected to next.
	UpdateStatusIf(ctx context.Context, id string, expected, next domain.ApplicationStatus) (*domain.Application, error)
}

type applicationRepository struct {
	pool *pgxpool.Pool
}

// NewApplicationRepository builds repository.
func NewApplicationRepository(pool *pgxpool.Pool) ApplicationRepository {
	return &applicationRepository{pool: pool}
}

const applicationColumns = `id, gig_id, applicant_id, message, status, applied_at, updated_at`

func (r *applicationRepository) Create(ctx context.Context, app *domain.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	now := Now()
	app.AppliedAt, app.UpdatedAt = now, now

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            UPDATE gigs SET applicants = array_append(applicants, $2), updated_at = $3
            WHERE id = $1 AND status = 'open' AND poster_id <> $2 AND NOT ($2 = ANY(applicants))`,
			app.GigID, app.ApplicantID, now)
		if err != nil {
			return mapPgError(err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM gigs WHERE id=$1)`, app.GigID).Scan(&exists); err != nil {
				return mapPgError(err)
			}
			if !exists {
				return ErrNotFound
			}
			return ErrConditionFailed
		}

		_, err = tx.Exec(ctx, `
            INSERT INTO applications (`+applicationColumns+`)
            VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			app.ID,
			app.GigID,
			app.ApplicantID,
			app.Message,
			app.Status,
			app.AppliedAt,
			app.UpdatedAt,
		)
		return mapPgError(err)
	})
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	app, err := scanApplication(r.pool.QueryRow(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id=$1`, id))
	if err != nil {
		return nil, mapPgError(err)
	}
	return app, nil
}

func (r *applicationRepository) ListByGig(ctx context.Context, gigID string) ([]domain.Application, error) {
	return r.list(ctx, `SELECT `+applicationColumns+` FROM applications WHERE gig_id=$1 ORDER BY applied_at ASC`, gigID)
}

func (r *applicationRepository) ListByApplicant(ctx context.Context, applicantID string) ([]domain.Application, error) {
	return r.list(ctx, `SELECT `+applicationColumns+` FROM applications WHERE applicant_id=$1 ORDER BY applied_at DESC`, applicantID)
}

func (r *applicationRepository) UpdateStatusIf(ctx context.Context, id string, expected, next domain.ApplicationStatus) (*domain.Application, error) {
	app, err := scanApplication(r.pool.QueryRow(ctx, `
        UPDATE applications SET status=$1, updated_at=$2
        WHERE id=$3 AND status=$4
        RETURNING `+applicationColumns,
		next, Now(), id, expected))
	if err == nil {
		return app, nil
	}
	if err = mapPgError(err); err != ErrNotFound {
		return nil, err
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrConditionFailed
}

func (r *applicationRepository) list(ctx context.Context, query string, arg any) ([]domain.Application, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	result := []domain.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *app)
	}
	return result, mapPgError(rows.Err())
}

func scanApplication(row rowScanner) (*domain.Application, error) {
	var app domain.Application
	if err := row.Scan(
		&app.ID,
		&app.GigID,
		&app.ApplicantID,
		&app.Message,
		&app.Status,
		&app.AppliedAt,
		&app.UpdatedAt,
	); err != nil {
		return nil, err
	}
	app.AppliedAt = NormalizeTime(app.AppliedAt)
	app.UpdatedAt = NormalizeTime(app.UpdatedAt)
	return &app, nil
}
