package refresh_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/jrsteele09/retail-console/internal/errors"
	"github.com/jrsteele09/retail-console/internal/metrics"
	"github.com/jrsteele09/retail-console/navigation"
	"github.com/jrsteele09/retail-console/session"
	"github.com/jrsteele09/retail-console/storage"
	"github.com/jrsteele09/retail-console/storage/memstore"
	"github.com/jrsteele09/retail-console/token/refresh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// countingSession counts writes made through the coordinator
type countingSession struct {
	*session.Store
	sets   atomic.Int32
	clears atomic.Int32
}

func (cs *countingSession) SetToken(token string) error {
	cs.sets.Add(1)
	return cs.Store.SetToken(token)
}

func (cs *countingSession) Clear() error {
	cs.clears.Add(1)
	return cs.Store.Clear()
}

type fixture struct {
	session   *countingSession
	durable   *memstore.MemStore
	history   *navigation.History
	metrics   *metrics.Metrics
	calls     atomic.Int32
	release   chan struct{}
	result    string
	resultErr error
	coord     *refresh.Coordinator
}

func newFixture(t *testing.T, options ...refresh.Option) *fixture {
	t.Helper()
	f := &fixture{
		durable: memstore.NewWithValues(map[string]string{storage.KeyToken: "tok1"}),
		history: navigation.NewHistory("/suppliers/42"),
		metrics: metrics.New(prometheus.NewRegistry()),
		release: make(chan struct{}),
		result:  "tok2",
	}
	s, err := session.New(f.durable)
	require.NoError(t, err)
	f.session = &countingSession{Store: s}

	refreshFn := func(ctx context.Context) (string, error) {
		f.calls.Add(1)
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		return f.result, f.resultErr
	}
	options = append([]refresh.Option{refresh.WithMetrics(f.metrics)}, options...)
	f.coord, err = refresh.NewCoordinator(refreshFn, f.session, f.history, options...)
	require.NoError(t, err)
	return f
}

// refreshConcurrently starts n callers, lets them join the flight, then releases it
func (f *fixture) refreshConcurrently(n int) ([]string, []error) {
	tokens := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = f.coord.Refresh(context.Background(), "tok1")
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(f.release)
	wg.Wait()
	return tokens, errs
}

func TestNewCoordinator_Validation(t *testing.T) {
	s, err := session.New(memstore.New())
	require.NoError(t, err)
	fn := func(context.Context) (string, error) { return "", nil }

	_, err = refresh.NewCoordinator(nil, s, navigation.NewHistory("/"))
	require.Error(t, err)
	_, err = refresh.NewCoordinator(fn, nil, navigation.NewHistory("/"))
	require.Error(t, err)
	_, err = refresh.NewCoordinator(fn, s, nil)
	require.Error(t, err)
}

func TestRefresh_ConcurrentCallersShareOneCall(t *testing.T) {
	f := newFixture(t)

	tokens, errs := f.refreshConcurrently(10)

	for i := range tokens {
		require.NoError(t, errs[i])
		require.Equal(t, "tok2", tokens[i])
	}
	require.Equal(t, int32(1), f.calls.Load())
	require.Equal(t, int32(1), f.session.sets.Load(), "token written once, not once per waiter")
	require.Equal(t, "tok2", f.session.Token())
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RefreshCalls))

	persisted, err := f.durable.Get(storage.KeyToken)
	require.NoError(t, err)
	require.Equal(t, "tok2", persisted)
}

func TestRefresh_SlotClearedAfterSettle(t *testing.T) {
	f := newFixture(t)
	close(f.release)

	tok, err := f.coord.Refresh(context.Background(), "tok1")
	require.NoError(t, err)
	require.Equal(t, "tok2", tok)

	f.result = "tok3"
	tok, err = f.coord.Refresh(context.Background(), "tok2")
	require.NoError(t, err)
	require.Equal(t, "tok3", tok)
	require.Equal(t, int32(2), f.calls.Load())
}

func TestRefresh_StaleTokenAlreadyReplaced(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.session.Store.SetToken("tok2"))

	tok, err := f.coord.Refresh(context.Background(), "tok1")
	require.NoError(t, err)
	require.Equal(t, "tok2", tok)
	require.Zero(t, f.calls.Load())
}

func TestRefresh_FailureDeliveredToAllWaiters(t *testing.T) {
	f := newFixture(t)
	f.resultErr = errors.New("refresh token expired")

	_, errs := f.refreshConcurrently(5)

	for _, err := range errs {
		require.Error(t, err)
	}
	require.Equal(t, int32(1), f.calls.Load())
	require.Equal(t, int32(1), f.session.clears.Load())
	require.Equal(t, session.Unauthenticated, f.session.Status())
	require.Equal(t, []string{"/suppliers/42", "/auth/login?redirect=/suppliers/42"}, f.history.Entries())
	require.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RefreshFailures))

	_, err := f.durable.Get(storage.KeyToken)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRefresh_FailureOnLoginPageDoesNotNavigate(t *testing.T) {
	f := newFixture(t)
	f.history.Navigate("/auth/login?redirect=/skus")
	f.resultErr = errors.New("nope")
	close(f.release)

	_, err := f.coord.Refresh(context.Background(), "tok1")
	require.Error(t, err)
	require.Equal(t, "/auth/login?redirect=/skus", f.history.Current())
}

func TestRefresh_EmptyTokenIsFailure(t *testing.T) {
	f := newFixture(t)
	f.result = ""
	close(f.release)

	_, err := f.coord.Refresh(context.Background(), "tok1")
	require.Error(t, err)
	require.Equal(t, session.Unauthenticated, f.session.Status())
}

func TestRefresh_Timeout(t *testing.T) {
	f := newFixture(t, refresh.WithTimeout(20*time.Millisecond))

	_, err := f.coord.Refresh(context.Background(), "tok1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, session.Unauthenticated, f.session.Status())
}

func TestRefresh_WaiterCancellationLeavesFlightRunning(t *testing.T) {
	f := newFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	abandoned := make(chan error, 1)
	go func() {
		_, err := f.coord.Refresh(ctx, "tok1")
		abandoned <- err
	}()
	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-abandoned, context.Canceled)

	waiter := make(chan string, 1)
	go func() {
		tok, _ := f.coord.Refresh(context.Background(), "tok1")
		waiter <- tok
	}()
	close(f.release)

	require.Equal(t, "tok2", <-waiter)
	require.Equal(t, int32(1), f.calls.Load())
}

func TestRefresh_LateUnauthorizedAfterFailureSkipsNetwork(t *testing.T) {
	f := newFixture(t)
	f.resultErr = errors.New("refresh token expired")
	close(f.release)

	_, err := f.coord.Refresh(context.Background(), "tok1")
	require.Error(t, err)
	require.Equal(t, int32(1), f.calls.Load())

	_, err = f.coord.Refresh(context.Background(), "tok1")
	require.ErrorIs(t, err, apperrors.ErrSessionExpired)
	require.Equal(t, int32(1), f.calls.Load(), "no second call for the same stale token")
	require.Equal(t, int32(1), f.session.clears.Load())
	require.Len(t, f.history.Entries(), 2, "navigated once")

	// A fresh login starts over
	require.NoError(t, f.session.Store.SetToken("tok5"))
	f.resultErr = nil
	f.result = "tok6"
	tok, err := f.coord.Refresh(context.Background(), "tok5")
	require.NoError(t, err)
	require.Equal(t, "tok6", tok)
	require.Equal(t, int32(2), f.calls.Load())
}

// readOnlyStore serves reads and rejects writes
type readOnlyStore struct {
	*memstore.MemStore
}

func (readOnlyStore) Set(string, string) error {
	return errors.New("disk full")
}

func TestRefresh_PersistFailureKeepsSession(t *testing.T) {
	durable := readOnlyStore{memstore.NewWithValues(map[string]string{storage.KeyToken: "tok1"})}
	s, err := session.New(durable)
	require.NoError(t, err)
	history := navigation.NewHistory("/suppliers/42")
	m := metrics.New(prometheus.NewRegistry())

	var calls atomic.Int32
	refreshFn := func(context.Context) (string, error) {
		calls.Add(1)
		return "tok2", nil
	}
	coord, err := refresh.NewCoordinator(refreshFn, s, history, refresh.WithMetrics(m))
	require.NoError(t, err)

	tok, err := coord.Refresh(context.Background(), "tok1")
	require.NoError(t, err)
	require.Equal(t, "tok2", tok)
	require.Equal(t, int32(1), calls.Load())
	require.Equal(t, session.Snapshot{Token: "tok2", Status: session.Authenticated}, s.Snapshot())
	require.Equal(t, []string{"/suppliers/42"}, history.Entries())
	require.Zero(t, testutil.ToFloat64(m.RefreshFailures))
}
