// Package activity records a per-device history of account and place
// operations. The history is append-only and best effort: callers
// never fail their primary operation because recording did not work.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/me-cbr/por-onde-andei/internal/storage"
)

const (
	ActionAccountRegister = "account.register"
	ActionAccountLogin    = "account.login"
	ActionAccountLogout   = "account.logout"
	ActionProfileUpdate   = "account.profile-update"
	ActionBiometricSet    = "account.biometric-set"

	ActionPlaceSave     = "place.save"
	ActionPlaceEdit     = "place.edit"
	ActionPlaceFavorite = "place.favorite"
	ActionPlaceDelete   = "place.delete"

	ActionDatabaseClear = "database.clear"
)

type Event struct {
	Timestamp time.Time
	Action    string
	OwnerID   int64
	TargetID  string
	Details   any
}

type Filter struct {
	OwnerID int64
	Action  string
	Limit   int
}

type RecordedEvent struct {
	ID          int64
	Timestamp   time.Time
	Action      string
	OwnerID     int64
	TargetID    string
	DetailsJSON string
}

type Service struct {
	repo storage.ActivityRepository
}

func NewService(repo storage.ActivityRepository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("new activity service: repository is nil")
	}
	return &Service{repo: repo}, nil
}

func (s *Service) Record(ctx context.Context, event Event) error {
	if strings.TrimSpace(event.Action) == "" {
		return fmt.Errorf("record activity event: action is required")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	} else {
		event.Timestamp = event.Timestamp.UTC()
	}

	details, err := encodeDetails(event.Details)
	if err != nil {
		return fmt.Errorf("record activity event: %w", err)
	}

	entry := &storage.ActivityEvent{
		OwnerID:   event.OwnerID,
		Action:    event.Action,
		TargetID:  event.TargetID,
		Details:   details,
		CreatedAt: event.Timestamp,
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("record activity event: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, filter Filter) ([]RecordedEvent, error) {
	events, err := s.repo.List(ctx, storage.ActivityFilter{
		OwnerID: filter.OwnerID,
		Action:  filter.Action,
		Limit:   filter.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list activity events: %w", err)
	}

	out := make([]RecordedEvent, 0, len(events))
	for _, event := range events {
		out = append(out, RecordedEvent{
			ID:          event.ID,
			Timestamp:   event.CreatedAt,
			Action:      event.Action,
			OwnerID:     event.OwnerID,
			TargetID:    event.TargetID,
			DetailsJSON: event.Details,
		})
	}
	return out, nil
}

func encodeDetails(details any) (string, error) {
	if details == nil {
		return "", nil
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return "", fmt.Errorf("encode details: %w", err)
	}
	return string(raw), nil
}
