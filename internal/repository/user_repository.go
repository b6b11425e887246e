package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/gig-service/internal/domain"
)

// UserRepository defines persistence access for marketplace users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, id string, patch UserPatch) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, display_name, email, password_hash, role, skills, bio,
        rating_mean, rating_count, completed_gigs, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := Now()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Skills == nil {
		user.Skills = []string{}
	}
	_, err := r.pool.Exec(ctx, `
        INSERT INTO users (`+userColumns+`)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		user.ID,
		user.DisplayName,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.Skills,
		user.Bio,
		user.Rating.Mean,
		user.Rating.Count,
		user.CompletedGigs,
		user.CreatedAt,
		user.UpdatedAt,
	)
	return mapPgError(err)
}

func (r *userRepository) Update(ctx context.Context, id string, patch UserPatch) (*domain.User, error) {
	var (
		sets []string
		args []any
	)
	set := func(column string, val any) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if patch.DisplayName != nil {
		set("display_name", *patch.DisplayName)
	}
	if patch.Bio != nil {
		set("bio", *patch.Bio)
	}
	if patch.Skills != nil {
		set("skills", *patch.Skills)
	}
	if patch.Rating != nil {
		set("rating_mean", patch.Rating.Mean)
		set("rating_count", patch.Rating.Count)
	}
	if patch.CompletedGigs != nil {
		set("completed_gigs", *patch.CompletedGigs)
	}
	set("updated_at", Now())
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)
	user, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapPgError(err)
	}
	return user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if err != nil {
		return nil, mapPgError(err)
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
	if err != nil {
		return nil, mapPgError(err)
	}
	return user, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.DisplayName,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Skills,
		&user.Bio,
		&user.Rating.Mean,
		&user.Rating.Count,
		&user.CompletedGigs,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	user.CreatedAt = NormalizeTime(user.CreatedAt)
	user.UpdatedAt = NormalizeTime(user.UpdatedAt)
	return &user, nil
}
