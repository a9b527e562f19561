package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"verkstad/internal/database"
	"verkstad/internal/events"
	"verkstad/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = zerolog.New(io.Discard)

func TestRetryPolicyNextDelay(t *testing.T) {
	policy := RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2,
	}

	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 4*time.Second, policy.NextDelay(3))
	assert.Equal(t, 10*time.Second, policy.NextDelay(10)) // clamped

	// Zero values fall back to defaults.
	var zero RetryPolicy
	assert.Equal(t, time.Second, zero.NextDelay(1))
	assert.Equal(t, 2*time.Second, zero.NextDelay(2))
	assert.Equal(t, time.Second, zero.NextDelay(0))
}

func seedRequest(t *testing.T, db *database.DB, expiresAt time.Time) string {
	t.Helper()
	req := &models.Request{
		ID:          uuid.NewString(),
		CustomerID:  "cust-1",
		Description: "gearbox inspection",
		Location:    models.Coordinate{Latitude: 59.33, Longitude: 18.06},
		Status:      models.RequestStatusInBidding,
		CreatedAt:   time.Now().UTC().Add(-49 * time.Hour),
		UpdatedAt:   time.Now().UTC(),
		ExpiresAt:   expiresAt,
	}
	require.NoError(t, db.CreateRequest(context.Background(), req))
	return req.ID
}

func TestSweepOnce(t *testing.T) {
	db, err := database.NewDB(":memory:", &discard)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	expiredID := seedRequest(t, db, time.Now().UTC().Add(-time.Hour))
	openID := seedRequest(t, db, time.Now().UTC().Add(time.Hour))

	bus := events.NewEventBus()
	var mu sync.Mutex
	var seen []string
	bus.Subscribe(events.EventRequestExpired, func(e *events.Event) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, string(e.Payload))
		return nil
	})

	sweeper := NewExpirySweeper(db, bus, 5, RetryPolicy{}, &discard)
	require.NoError(t, sweeper.SweepOnce(ctx))

	expired, err := db.GetRequest(ctx, expiredID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusBiddingClosed, expired.Status)

	open, err := db.GetRequest(ctx, openID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusInBidding, open.Status)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	assert.Contains(t, seen[0], expiredID)

	// Nothing left to close; no further events.
	require.NoError(t, sweeper.SweepOnce(ctx))
	assert.Len(t, seen, 1)
}

type flakyRepo struct {
	*database.DB
	mu       sync.Mutex
	failures int
	calls    int
}

func (r *flakyRepo) CloseExpiredRequests(ctx context.Context, now time.Time) ([]string, error) {
	r.mu.Lock()
	r.calls++
	fail := r.calls <= r.failures
	r.mu.Unlock()
	if fail {
		return nil, errors.New("database is locked")
	}
	return r.DB.CloseExpiredRequests(ctx, now)
}

func TestSweepOnceRetriesTransientFailures(t *testing.T) {
	db, err := database.NewDB(":memory:", &discard)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	expiredID := seedRequest(t, db, time.Now().UTC().Add(-time.Hour))

	repo := &flakyRepo{DB: db, failures: 2}
	retry := RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}
	sweeper := NewExpirySweeper(repo, nil, 5, retry, &discard)

	require.NoError(t, sweeper.SweepOnce(ctx))

	got, err := db.GetRequest(ctx, expiredID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusBiddingClosed, got.Status)
}

func TestSweepOnceGivesUpAfterMaxRetries(t *testing.T) {
	db, err := database.NewDB(":memory:", &discard)
	require.NoError(t, err)
	defer db.Close()

	repo := &flakyRepo{DB: db, failures: 10}
	retry := RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}
	sweeper := NewExpirySweeper(repo, nil, 5, retry, &discard)

	err = sweeper.SweepOnce(context.Background())
	assert.Error(t, err)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	db, err := database.NewDB(":memory:", &discard)
	require.NoError(t, err)
	defer db.Close()

	sweeper := NewExpirySweeper(db, nil, 5, RetryPolicy{}, &discard)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after context cancel")
	}
}
