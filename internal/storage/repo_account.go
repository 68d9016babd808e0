package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type accountRepository struct {
	db *sql.DB
}

func (r *accountRepository) Create(ctx context.Context, account *Account) error {
	if account == nil {
		return fmt.Errorf("create account: account is nil")
	}
	if account.Email == "" {
		return fmt.Errorf("create account: email is required")
	}
	if account.Name == "" {
		return fmt.Errorf("create account: name is required")
	}
	if account.PasswordHash == "" {
		return fmt.Errorf("create account: password hash is required")
	}

	if account.CreatedAt.IsZero() {
		account.CreatedAt = nowUTC()
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts(email, name, password, image, biometric_enabled, created_at)
		VALUES(?, ?, ?, ?, ?, ?)
	`, account.Email, account.Name, account.PasswordHash, nullableString(account.ImageURI), boolToInt(account.BiometricEnabled), fmtTime(account.CreatedAt))
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("create account: last insert id: %w", err)
	}
	account.ID = id
	return nil
}

// FindByEmail matches exactly: no case folding, no trimming. Two
// differently-cased emails are distinct accounts.
func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password, image, biometric_enabled, created_at
		FROM accounts
		WHERE email = ?
	`, email)
	return scanAccount(row)
}

func (r *accountRepository) FindByID(ctx context.Context, id int64) (*Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, email, name, password, image, biometric_enabled, created_at
		FROM accounts
		WHERE id = ?
	`, id)
	return scanAccount(row)
}

// UpdateProfile always updates name; the stored image is replaced only
// when a non-empty reference is supplied, never cleared.
func (r *accountRepository) UpdateProfile(ctx context.Context, id int64, name, imageURI string) error {
	var (
		result sql.Result
		err    error
	)
	if imageURI != "" {
		result, err = r.db.ExecContext(ctx, `UPDATE accounts SET name = ?, image = ? WHERE id = ?`, name, imageURI, id)
	} else {
		result, err = r.db.ExecContext(ctx, `UPDATE accounts SET name = ? WHERE id = ?`, name, id)
	}
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireRowAffected(result, "update profile")
}

func (r *accountRepository) SetBiometric(ctx context.Context, id int64, enabled bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE accounts SET biometric_enabled = ? WHERE id = ?`, boolToInt(enabled), id)
	if err != nil {
		return fmt.Errorf("set biometric: %w", err)
	}
	return requireRowAffected(result, "set biometric")
}

func (r *accountRepository) BiometricEnabled(ctx context.Context, id int64) (bool, error) {
	var enabled sql.NullInt64
	err := r.db.QueryRowContext(ctx, `SELECT biometric_enabled FROM accounts WHERE id = ?`, id).Scan(&enabled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("biometric enabled: %w", err)
	}
	return enabled.Int64 == 1, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*Account, error) {
	var (
		account   Account
		image     sql.NullString
		biometric sql.NullInt64
		createdAt sql.NullString
	)
	if err := row.Scan(&account.ID, &account.Email, &account.Name, &account.PasswordHash, &image, &biometric, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	account.ImageURI = image.String
	account.BiometricEnabled = biometric.Int64 == 1
	account.CreatedAt = parseTimeOrZero(createdAt)
	return &account, nil
}

func requireRowAffected(result sql.Result, op string) error {
	count, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
