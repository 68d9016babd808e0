package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/me-cbr/por-onde-andei/internal/storage"
)

// emailPattern is deliberately loose; the address is only an account
// key, matched byte-for-byte with no case folding or trimming.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const minPasswordLength = 6

// AuthService owns accounts and the at-most-one-effective-session
// semantics. It stores only bcrypt digests, never plaintext passwords.
type AuthService struct {
	accounts storage.AccountRepository
	sessions storage.SessionRepository
}

func NewAuthService(accounts storage.AccountRepository, sessions storage.SessionRepository) *AuthService {
	return &AuthService{
		accounts: accounts,
		sessions: sessions,
	}
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*storage.Account, error) {
	if !emailPattern.MatchString(req.Email) {
		return nil, fmt.Errorf("%w: email format is invalid", ErrValidation)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if len(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	account := &storage.Account{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if isDuplicateError(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, req.Email)
		}
		return nil, fmt.Errorf("register: %w", err)
	}
	return account, nil
}

// Login verifies credentials and starts a session for the account. A
// missing account and a wrong password are indistinguishable to the
// caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*storage.Account, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.sessions.Start(ctx, account.ID); err != nil {
		return nil, fmt.Errorf("login: start session: %w", err)
	}
	return account, nil
}

func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.sessions.End(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Current returns the account behind the most recent logged-in
// session, or nil when nobody is logged in.
func (s *AuthService) Current(ctx context.Context) (*storage.Account, error) {
	account, err := s.sessions.Current(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("current account: %w", err)
	}
	return account, nil
}

// RequireCurrent is Current for flows that cannot proceed anonymously.
func (s *AuthService) RequireCurrent(ctx context.Context) (*storage.Account, error) {
	account, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotLoggedIn
	}
	return account, nil
}

func (s *AuthService) IsLoggedIn(ctx context.Context) (bool, error) {
	return s.sessions.IsLoggedIn(ctx)
}

func (s *AuthService) UpdateProfile(ctx context.Context, accountID int64, req UpdateProfileRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if err := s.accounts.UpdateProfile(ctx, accountID, req.Name, req.ImageURI); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// SetBiometric flips the per-account gate flag. The biometric challenge
// itself is the caller's concern; this service only stores the flag.
func (s *AuthService) SetBiometric(ctx context.Context, accountID int64, enabled bool) error {
	if err := s.accounts.SetBiometric(ctx, accountID, enabled); err != nil {
		return fmt.Errorf("set biometric: %w", err)
	}
	return nil
}

func (s *AuthService) BiometricEnabled(ctx context.Context, accountID int64) (bool, error) {
	enabled, err := s.accounts.BiometricEnabled(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("biometric enabled: %w", err)
	}
	return enabled, nil
}

func isDuplicateError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
