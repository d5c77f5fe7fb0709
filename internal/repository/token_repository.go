package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// TokenRepository persists the single encrypted OAuth token blob. One row per
// installation; the ciphertext layout is owned by the token service.
type TokenRepository interface {
	Get(ctx context.Context) (string, bool, error)
	Set(ctx context.Context, encrypted string) error
	Clear(ctx context.Context) error
}

type tokenRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewTokenRepository(db *sql.DB) TokenRepository {
	return &tokenRepository{db: db, now: time.Now}
}

func (r *tokenRepository) Get(ctx context.Context) (string, bool, error) {
	query := `SELECT token_data FROM oauth_tokens WHERE id = 1`

	var encrypted string
	err := r.db.QueryRowContext(ctx, query).Scan(&encrypted)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		slog.Info(err.Error())
		return "", false, err
	}

	return encrypted, true, nil
}

func (r *tokenRepository) Set(ctx context.Context, encrypted string) error {
	query := `
		INSERT INTO oauth_tokens (id, token_data, created_at, updated_at)
		VALUES (1, $1, $2, $2)
		ON CONFLICT (id) DO UPDATE SET token_data = EXCLUDED.token_data, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, encrypted, r.now())
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *tokenRepository) Clear(ctx context.Context) error {
	query := `DELETE FROM oauth_tokens WHERE id = 1`
	_, err := r.db.ExecContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
