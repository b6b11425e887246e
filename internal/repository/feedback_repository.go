package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/gig-service/internal/domain"
)

// FeedbackRepository stores immutable feedback records.
type FeedbackRepository interface {
	// Create stores feedback. A second record for the same (gig, author)
	// fails with ErrDuplicate.
	Create(ctx context.Context, feedback *domain.Feedback) error
	ListByRecipient(ctx context.Context, userID string) ([]domain.Feedback, error)
	ListByGig(ctx context.Context, gigID string) ([]domain.Feedback, error)
}

type feedbackRepository struct {
	pool *pgxpool.Pool
}

// NewFeedbackRepository builds repository.
func NewFeedbackRepository(pool *pgxpool.Pool) FeedbackRepository {
	return &feedbackRepository{pool: pool}
}

const feedbackColumns = `id, gig_id, from_user, to_user, rating, comment, created_at`

func (r *feedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) error {
	if feedback.ID == "" {
		feedback.ID = uuid.NewString()
	}
	feedback.CreatedAt = Now()
	_, err := r.pool.Exec(ctx, `
        INSERT INTO feedback (`+feedbackColumns+`)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		feedback.ID,
		feedback.GigID,
		feedback.FromUser,
		feedback.ToUser,
		feedback.Rating,
		feedback.Comment,
		feedback.CreatedAt,
	)
	return mapPgError(err)
}

func (r *feedbackRepository) ListByRecipient(ctx context.Context, userID string) ([]domain.Feedback, error) {
	return r.list(ctx, `SELECT `+feedbackColumns+` FROM feedback WHERE to_user=$1 ORDER BY created_at DESC`, userID)
}

func (r *feedbackRepository) ListByGig(ctx context.Context, gigID string) ([]domain.Feedback, error) {
	return r.list(ctx, `SELECT `+feedbackColumns+` FROM feedback WHERE gig_id=$1 ORDER BY created_at ASC`, gigID)
}

func (r *feedbackRepository) list(ctx context.Context, query string, arg any) ([]domain.Feedback, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	result := []domain.Feedback{}
	for rows.Next() {
		var fb domain.Feedback
		if err := rows.Scan(
			&fb.ID,
			&fb.GigID,
			&fb.FromUser,
			&fb.ToUser,
			&fb.Rating,
			&fb.Comment,
			&fb.CreatedAt,
		); err != nil {
			return nil, err
		}
		fb.CreatedAt = NormalizeTime(fb.CreatedAt)
		result = append(result, fb)
	}
	return result, mapPgError(rows.Err())
}
