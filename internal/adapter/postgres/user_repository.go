package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alexlover8/rate-it-or-hate-it-sub001/internal/domain"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, username, vote_count, created_at, updated_at
		 FROM users WHERE id = $1`, userID)

	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.VoteCount, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) Create(ctx context.Context, userID uuid.UUID, username string) (*domain.User, error) {
	// Concurrent first contacts race on the insert; the conflict arm
	// keeps the existing row (and its username) intact.
	row := r.pool.QueryRow(ctx,
		`INSERT INTO users (id, username) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET updated_at = now()
		 RETURNING id, username, vote_count, created_at, updated_at`, userID, username)

	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.VoteCount, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &u, nil
}

func (r *UserRepo) IncrementVoteCount(ctx context.Context, userID uuid.UUID, delta int64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users
		 SET vote_count = GREATEST(vote_count + $2, 0), updated_at = now()
		 WHERE id = $1`, userID, delta)
	if err != nil {
		return fmt.Errorf("failed to update vote count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

var _ domain.UserRepository = (*UserRepo)(nil)
