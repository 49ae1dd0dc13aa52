package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// FavoriteRepository stores user-teacher favorite flags. A row means "present";
// removing a favorite deletes the row.
type FavoriteRepository struct {
	db *sqlx.DB
}

// NewFavoriteRepository constructs a FavoriteRepository.
func NewFavoriteRepository(db *sqlx.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// ListIDs returns the user's favorite teacher ids ordered by id.
func (r *FavoriteRepository) ListIDs(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT teacher_id FROM user_favorites WHERE user_id = $1 ORDER BY teacher_id`, userID); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return ids, nil
}

// Add marks teacherID as a favorite and bumps the user's last_login.
func (r *FavoriteRepository) Add(ctx context.Context, userID, teacherID string, at time.Time) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin favorite tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insert = `INSERT INTO user_favorites (user_id, teacher_id, created_at) VALUES ($1, $2, $3) ON CONFLICT (user_id, teacher_id) DO NOTHING`
	if _, err = tx.ExecContext(ctx, insert, userID, teacherID, at); err != nil {
		return fmt.Errorf("insert favorite: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, userID, at)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if err = requireAffected(res); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit favorite tx: %w", err)
	}
	return nil
}

// Remove deletes the favorite flag. Removing an absent favorite is a no-op.
func (r *FavoriteRepository) Remove(ctx context.Context, userID, teacherID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_favorites WHERE user_id = $1 AND teacher_id = $2`, userID, teacherID); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

// Clear deletes every favorite of the user.
func (r *FavoriteRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM user_favorites WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear favorites: %w", err)
	}
	return nil
}
