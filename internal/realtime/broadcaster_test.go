package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quickbite/internal/contracts"
	"quickbite/internal/domain/geo"
	"quickbite/internal/logger"

	"github.com/stretchr/testify/require"
)

type stubLocationRepo struct {
	mu        sync.Mutex
	active    []geo.LocationRecord
	activeErr error
	lastSince time.Time
	calls     int
}

func (r *stubLocationRepo) Upsert(_ context.Context, rec geo.LocationRecord) (geo.LocationRecord, error) {
	return rec, nil
}

func (r *stubLocationRepo) UpdateByEntity(_ context.Context, _ string, _ geo.Position, _ string) (geo.LocationRecord, error) {
	return geo.LocationRecord{}, geo.ErrNotFound
}

func (r *stubLocationRepo) QueryActive(_ context.Context, _ geo.EntityKind, since time.Time) ([]geo.LocationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.lastSince = since
	return r.active, r.activeErr
}

func (r *stubLocationRepo) ListAll(_ context.Context) ([]geo.LocationRecord, error) {
	return nil, nil
}

func TestBroadcasterPushesSnapshotsToMonitoringTopic(t *testing.T) {
	log := logger.New("test")
	reg := NewRegistry(log)
	sess, conn := newTestSession()
	reg.Join(contracts.TopicAdminMonitoring, sess)

	updated := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	repo := &stubLocationRepo{active: []geo.LocationRecord{{
		EntityID:    "D1",
		Kind:        geo.EntityKindDriver,
		Address:     "12 Baker St",
		Position:    geo.Position{Lat: 51.52, Lng: -0.15},
		DisplayName: "Dana",
		LastUpdated: updated,
	}}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBroadcaster(log, repo, reg, 10*time.Millisecond, 15*time.Minute)
	go b.Run(ctx)

	require.Eventually(t, func() bool {
		return len(conn.messages()) > 0
	}, time.Second, 5*time.Millisecond)

	msg, ok := conn.messages()[0].(contracts.ServerEvent)
	require.True(t, ok)
	require.Equal(t, contracts.EventAdminDriversUpdate, msg.Type)

	snapshot, ok := msg.Data.([]contracts.AdminDriverSnapshot)
	require.True(t, ok)
	require.Len(t, snapshot, 1)
	require.Equal(t, "D1", snapshot[0].DriverID)
	require.Equal(t, "Dana", snapshot[0].Name)
	require.Equal(t, 51.52, snapshot[0].Latitude)
	require.Equal(t, -0.15, snapshot[0].Longitude)
	require.Equal(t, "2026-08-28T12:00:00Z", snapshot[0].LastUpdated)
}

func TestBroadcasterQueriesTrailingWindow(t *testing.T) {
	log := logger.New("test")
	reg := NewRegistry(log)
	repo := &stubLocationRepo{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	window := 15 * time.Minute
	b := NewBroadcaster(log, repo, reg, 10*time.Millisecond, window)
	go b.Run(ctx)

	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return repo.calls > 0
	}, time.Second, 5*time.Millisecond)

	repo.mu.Lock()
	since := repo.lastSince
	repo.mu.Unlock()

	require.WithinDuration(t, time.Now().Add(-window), since, 2*time.Second)
}

func TestBroadcasterSkipsTickOnQueryError(t *testing.T) {
	log := logger.New("test")
	reg := NewRegistry(log)
	sess, conn := newTestSession()
	reg.Join(contracts.TopicAdminMonitoring, sess)

	repo := &stubLocationRepo{activeErr: errors.New("db unavailable")}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := NewBroadcaster(log, repo, reg, 10*time.Millisecond, 15*time.Minute)
	go b.Run(ctx)

	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return repo.calls >= 2
	}, time.Second, 5*time.Millisecond)

	require.Empty(t, conn.messages())
}

func TestBroadcasterStopsOnContextCancel(t *testing.T) {
	log := logger.New("test")
	repo := &stubLocationRepo{}

	ctx, cancel := context.WithCancel(context.Background())
	b := NewBroadcaster(log, repo, NewRegistry(log), 5*time.Millisecond, time.Minute)

	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcaster did not stop after cancel")
	}
}
