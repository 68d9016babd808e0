package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type sessionRepository struct {
	db *sql.DB
}

// Start removes any stored session rows for the account and inserts a
// fresh one stamped now. Rows for other accounts are left in place;
// Current resolves the winner by last_login ordering.
func (r *sessionRepository) Start(ctx context.Context, ownerID int64) error {
	if ownerID == 0 {
		return fmt.Errorf("start session: owner id is required")
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE owner_id = ?`, ownerID); err != nil {
		return fmt.Errorf("start session: clear previous: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions(owner_id, is_logged_in, last_login) VALUES(?, 1, ?)
	`, ownerID, fmtTime(nowUTC())); err != nil {
		return fmt.Errorf("start session: insert: %w", err)
	}
	return nil
}

// Current joins sessions to accounts and picks the most recently
// logged-in row. No session is a nil account with ErrNotFound, not a
// failure.
func (r *sessionRepository) Current(ctx context.Context) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT a.id, a.email, a.name, a.password, a.image, a.biometric_enabled, a.created_at
		FROM accounts a
		INNER JOIN sessions s ON a.id = s.owner_id
		WHERE s.is_logged_in = 1
		ORDER BY s.last_login DESC
		LIMIT 1
	`)
	return scanAccount(row)
}

// End deletes all session rows unconditionally. Logging out one account
// logs out every stored session; multi-device sessions are out of scope
// and this global-logout behavior is kept deliberately.
func (r *sessionRepository) End(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return nil
}

func (r *sessionRepository) IsLoggedIn(ctx context.Context) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE is_logged_in = 1`).Scan(&count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("is logged in: %w", err)
	}
	return count > 0, nil
}
