package activity

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/me-cbr/por-onde-andei/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	store, err := storage.Open(filepath.Join(t.TempDir(), "activity.db"), storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	service, err := NewService(store.Activity)
	require.NoError(t, err)
	return service
}

func TestNewServiceRequiresRepository(t *testing.T) {
	t.Parallel()

	_, err := NewService(nil)
	require.Error(t, err)
}

func TestRecordRequiresAction(t *testing.T) {
	t.Parallel()

	service := newTestService(t)
	err := service.Record(context.Background(), Event{OwnerID: 1})
	require.Error(t, err)
}

func TestRecordAndListRoundTrip(t *testing.T) {
	t.Parallel()

	service := newTestService(t)
	ctx := context.Background()

	require.NoError(t, service.Record(ctx, Event{
		Action:   ActionPlaceSave,
		OwnerID:  7,
		TargetID: "place-1",
		Details:  map[string]string{"title": "Park"},
	}))

	events, err := service.List(ctx, Filter{OwnerID: 7})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, ActionPlaceSave, events[0].Action)
	require.Equal(t, "place-1", events[0].TargetID)
	require.JSONEq(t, `{"title":"Park"}`, events[0].DetailsJSON)
	require.False(t, events[0].Timestamp.IsZero())
}

func TestListReturnsNewestFirst(t *testing.T) {
	t.Parallel()

	service := newTestService(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i, action := range []string{ActionAccountLogin, ActionPlaceSave, ActionAccountLogout} {
		require.NoError(t, service.Record(ctx, Event{
			Action:    action,
			OwnerID:   1,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	events, err := service.List(ctx, Filter{OwnerID: 1})
	require.NoError(t, err)
	require.Len(t, events, 3)
	require.Equal(t, ActionAccountLogout, events[0].Action)
	require.Equal(t, ActionAccountLogin, events[2].Action)
}

func TestListFiltersByActionAndHonorsLimit(t *testing.T) {
	t.Parallel()

	service := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, service.Record(ctx, Event{Action: ActionPlaceSave, OwnerID: 1}))
		require.NoError(t, service.Record(ctx, Event{Action: ActionPlaceDelete, OwnerID: 1}))
	}

	saves, err := service.List(ctx, Filter{OwnerID: 1, Action: ActionPlaceSave})
	require.NoError(t, err)
	require.Len(t, saves, 5)

	limited, err := service.List(ctx, Filter{OwnerID: 1, Limit: 3})
	require.NoError(t, err)
	require.Len(t, limited, 3)
}

func TestListIsScopedToOwner(t *testing.T) {
	t.Parallel()

	service := newTestService(t)
	ctx := context.Background()

	require.NoError(t, service.Record(ctx, Event{Action: ActionPlaceSave, OwnerID: 1}))
	require.NoError(t, service.Record(ctx, Event{Action: ActionPlaceSave, OwnerID: 2}))

	events, err := service.List(ctx, Filter{OwnerID: 2})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, int64(2), events[0].OwnerID)
}
