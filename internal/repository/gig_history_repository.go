package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/gig-service/internal/domain"
)

// GigHistoryRepository stores audit entries.
type GigHistoryRepository interface {
	Create(ctx context.Context, history *domain.GigHistory) error
	ListByGig(ctx context.Context, gigID string) ([]domain.GigHistory, error)
}

type gigHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewGigHistoryRepository builds repository.
func NewGigHistoryRepository(pool *pgxpool.Pool) GigHistoryRepository {
	return &gigHistoryRepository{pool: pool}
}

func (r *gigHistoryRepository) Create(ctx context.Context, history *domain.GigHistory) error {
	if history.ID == "" {
		history.ID = uuid.NewString()
	}
	history.CreatedAt = Now()
	const query = `
        INSERT INTO gig_history (id, gig_id, changed_by_id, change_type, old_value, new_value, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := r.pool.Exec(ctx, query,
		history.ID,
		history.GigID,
		history.ChangedByID,
		history.ChangeType,
		history.OldValue,
		history.NewValue,
		history.CreatedAt,
	)
	return mapPgError(err)
}

func (r *gigHistoryRepository) ListByGig(ctx context.Context, gigID string) ([]domain.GigHistory, error) {
	const query = `
        SELECT id, gig_id, changed_by_id, change_type, old_value, new_value, created_at
        FROM gig_history WHERE gig_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, gigID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	result := []domain.GigHistory{}
	for rows.Next() {
		var history domain.GigHistory
		if err := rows.Scan(
			&history.ID,
			&history.GigID,
			&history.ChangedByID,
			&history.ChangeType,
			&history.OldValue,
			&history.NewValue,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		history.CreatedAt = NormalizeTime(history.CreatedAt)
		result = append(result, history)
	}
	return result, mapPgError(rows.Err())
}
