package connpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeConn is a Conn implementation whose Alive/Close behavior is scripted by
// the test. Every created instance carries its own Executor, as a real
// connection would.
type fakeConn struct {
	id   int
	exec *Executor

	closed  atomic.Bool
	aliveFn func() error
	closeFn func() error
}

func newFakeConn(id int) *fakeConn {
	return &fakeConn{id: id, exec: NewExecutor()}
}

func (c *fakeConn) Executor() *Executor { return c.exec }

func (c *fakeConn) Alive(ctx context.Context) error {
	if c.aliveFn != nil {
		return c.aliveFn()
	}
	return nil
}

func (c *fakeConn) Close(ctx context.Context) error {
	c.closed.Store(true)
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}

type fakeConfig struct{ tag string }

func (c *fakeConfig) Clone() Config { cp := *c; return &cp }

func newCountingConnect(fail error) (ConnectFunc, *int32) {
	var n int32
	return func(ctx context.Context, cfg Config) (Conn, error) {
		if fail != nil {
			return nil, fail
		}
		id := int(atomic.AddInt32(&n, 1))
		return newFakeConn(id), nil
	}, &n
}

func TestPoolAcquireCreatesOnEmptyIdleStore(t *testing.T) {
	connect, n := newCountingConnect(nil)
	p := New(Options{Connect: connect, Config: &fakeConfig{}})
	defer p.Close()

	conn, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NotNil(t, conn)
	require.EqualValues(t, 1, atomic.LoadInt32(n))
}

func TestPoolReleaseThenAcquireReusesConnection(t *testing.T) {
	connect, n := newCountingConnect(nil)
	p := New(Options{Connect: connect, Config: &fakeConfig{}})
	defer p.Close()

	conn, err := p.Acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, p.Release(context.Background(), conn))
	require.Equal(t, 1, p.Stat().Idle)

	conn2, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.Same(t, conn, conn2)
	require.EqualValues(t, 1, atomic.LoadInt32(n), "a warm connection must not trigger a second Connect")
}

func TestPoolAcquireLIFOOrdering(t *testing.T) {
	connect, _ := newCountingConnect(nil)
	p := New(Options{Connect: connect, Config: &fakeConfig{}})
	defer p.Close()

	a, err := p.Acquire(context.Background())
	require.NoError(t, err)
	b, err := p.Acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, p.Release(context.Background(), a))
	require.NoError(t, p.Release(context.Background(), b))

	// LIFO (the default): the most recently released connection, b, comes
	// back first.
	next, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.Same(t, b, next)
}

func TestPoolAcquireFIFOOrdering(t *testing.T) {
	connect, _ := newCountingConnect(nil)
	p := New(Options{Connect: connect, Config: &fakeConfig{}, FIFO: true})
	defer p.Close()

	a, err := p.Acquire(context.Background())
	require.NoError(t, err)
	b, err := p.Acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, p.Release(context.Background(), a))
	require.NoError(t, p.Release(context.Background(), b))

	next, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.Same(t, a, next)
}

func TestPoolAcquireSkipsUnhealthyIdleConnection(t *testing.T) {
	connect, n := newCountingConnect(nil)
	p := New(Options{Connect: connect, Config: &fakeConfig{}})
	defer p.Close()

	conn, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Release(context.Background(), conn))

	fc := conn.(*fakeConn)
	fc.aliveFn = func() error { return errors.New("connection reset by peer") }

	next, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NotSame(t, conn, next)
	require.True(t, fc.closed.Load(), "the unhealthy idle candidate must be closed, not just skipped")
	require.EqualValues(t, 2, atomic.LoadInt32(n))
}

func TestPoolConnectErrorSurfacesAsConnectError(t *testing.T) {
	wantErr := errors.New("dial tcp: connection refused")
	connect, _ := newCountingConnect(wantErr)
	p := New(Options{Connect: connect, Config: &fakeConfig{}})
	defer p.Close()

	_, err := p.Acquire(context.Background())
	require.Error(t, err)
	var connErr *ConnectError
	require.ErrorAs(t, err, &connErr)
	require.ErrorIs(t, err, wantErr)
}

func TestPoolReleaseFromWrongPoolFails(t *testing.T) {
	connect, _ := newCountingConnect(nil)
	p1 := New(Options{Connect: connect, Config: &fakeConfig{}})
	p2 := New(Options{Connect: connect, Config: &fakeConfig{}})
	defer p1.Close()
	defer p2.Close()

	conn, err := p1.Acquire(context.Background())
	require.NoError(t, err)

	err = p2.Release(context.Background(), conn)
	require.ErrorIs(t, err, ErrMisusedRelease)
}

func TestPoolDoubleReleaseFails(t *testing.T) {
	connect, _ := newCountingConnect(nil)
	p := New(Options{Connect: connect, Config: &fakeConfig{}})
	defer p.Close()

	conn, err := p.Acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, p.Release(context.Background(), conn))
	err = p.Release(context.Background(), conn)
	require.ErrorIs(t, err, ErrMisusedRelease)
}

func TestPoolReleaseDeclinedByOfferIdleClosesConnection(t *testing.T) {
	connect, _ := newCountingConnect(nil)
	p := New(Options{
		Connect:   connect,
		Config:    &fakeConfig{},
		OfferIdle: func(c Conn) bool { return false },
	})
	defer p.Close()

	conn, err := p.Acquire(context.Background())
	require.NoError(t, err)

	err = p.Release(context.Background(), conn)
	require.ErrorIs(t, err, ErrPoolFull)
	require.True(t, conn.(*fakeConn).closed.Load())
}

func TestPoolReleaseDeclinedByOfferIdleLinksCloseError(t *testing.T) {
	connect, _ := newCountingConnect(nil)
	closeFailure := errors.New("tcp: already shut down")
	p := New(Options{
		Connect:   connect,
		Config:    &fakeConfig{},
		OfferIdle: func(c Conn) bool { return false },
	})
	defer p.Close()

	conn, err := p.Acquire(context.Background())
	require.NoError(t, err)
	conn.(*fakeConn).closeFn = func() error { return closeFailure }

	err = p.Release(context.Background(), conn)
	require.ErrorIs(t, err, ErrPoolFull, "the pool-full sentinel must still be reachable through the linked error")
	require.ErrorIs(t, err, closeFailure, "a Close failure observed while discarding the connection must not be swallowed")
}

func TestPoolReleaseHealthCheckDiscardsUnhealthyConnection(t *testing.T) {
	connect, _ := newCountingConnect(nil)
	p := New(Options{Connect: connect, Config: &fakeConfig{}})
	defer p.Close()

	conn, err := p.Acquire(context.Background())
	require.NoError(t, err)

	conn.(*fakeConn).aliveFn = func() error { return errors.New("broken pipe") }

	require.NoError(t, p.Release(context.Background(), conn))
	require.Equal(t, 0, p.Stat().Idle, "an unhealthy connection must not be offered back to the idle store")
}

func TestPoolSkipReleaseHealthCheck(t *testing.T) {
	connect, _ := newCountingConnect(nil)
	p := New(Options{Connect: connect, Config: &fakeConfig{}, SkipReleaseHealthCheck: true})
	defer p.Close()

	conn, err := p.Acquire(context.Background())
	require.NoError(t, err)
	conn.(*fakeConn).aliveFn = func() error { return errors.New("broken pipe") }

	require.NoError(t, p.Release(context.Background(), conn))
	require.Equal(t, 1, p.Stat().Idle, "with the release health check skipped, the connection goes back idle regardless")
}

type trackingHandler struct {
	mu                            sync.Mutex
	created, acquired, released   int
	failOnAcquired, failOnRelease bool
}

func (h *trackingHandler) OnCreated(ctx context.Context, c Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.created++
	return nil
}

func (h *trackingHandler) OnAcquired(ctx context.Context, c Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.acquired++
	if h.failOnAcquired {
		return errors.New("onacquired rejected")
	}
	return nil
}

func (h *trackingHandler) OnReleased(ctx context.Context, c Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.released++
	if h.failOnRelease {
		return errors.New("onreleased rejected")
	}
	return nil
}

func TestPoolHandlerCallbackSequence(t *testing.T) {
	connect, _ := newCountingConnect(nil)
	h := &trackingHandler{}
	p := New(Options{Connect: connect, Config: &fakeConfig{}, Handler: h})
	defer p.Close()

	conn, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Release(context.Background(), conn))

	h.mu.Lock()
	defer h.mu.Unlock()
	require.Equal(t, 1, h.created)
	require.Equal(t, 1, h.acquired)
	require.Equal(t, 1, h.released)
}

func TestPoolOnAcquiredErrorClosesAndFailsAcquire(t *testing.T) {
	connect, _ := newCountingConnect(nil)
	h := &trackingHandler{failOnAcquired: true}
	p := New(Options{Connect: connect, Config: &fakeConfig{}, Handler: h})
	defer p.Close()

	_, err := p.Acquire(context.Background())
	require.Error(t, err)
	var herr *HandlerError
	require.ErrorAs(t, err, &herr)
	require.Equal(t, "OnAcquired", herr.Callback)
}

func TestPoolOnReleasedErrorClosesAndFailsRelease(t *testing.T) {
	connect, _ := newCountingConnect(nil)
	h := &trackingHandler{failOnRelease: true}
	p := New(Options{Connect: connect, Config: &fakeConfig{}, Handler: h})
	defer p.Close()

	conn, err := p.Acquire(context.Background())
	require.NoError(t, err)

	err = p.Release(context.Background(), conn)
	require.Error(t, err)
	var herr *HandlerError
	require.ErrorAs(t, err, &herr)
	require.Equal(t, "OnReleased", herr.Callback)
	require.True(t, conn.(*fakeConn).closed.Load())
	require.Equal(t, 0, p.Stat().Idle, "a connection closed after OnReleased failure must not remain reachable from the idle store")
}

func TestPoolAcquireAfterCloseFails(t *testing.T) {
	connect, _ := newCountingConnect(nil)
	p := New(Options{Connect: connect, Config: &fakeConfig{}})
	p.Close()

	_, err := p.Acquire(context.Background())
	require.ErrorIs(t, err, ErrClosedPool)
}

func TestPoolCloseDrainsIdleConnections(t *testing.T) {
	connect, _ := newCountingConnect(nil)
	p := New(Options{Connect: connect, Config: &fakeConfig{}})

	conn, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, p.Release(context.Background(), conn))
	require.Equal(t, 1, p.Stat().Idle)

	p.Close()
	require.True(t, conn.(*fakeConn).closed.Load())
}

func TestPoolAcquireCanceledContextReturnsCtxErr(t *testing.T) {
	block := make(chan struct{})
	connect := func(ctx context.Context, cfg Config) (Conn, error) {
		<-block
		return newFakeConn(1), nil
	}
	p := New(Options{Connect: connect, Config: &fakeConfig{}})
	defer func() {
		close(block)
		p.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPoolAcquireCancellationReleasesLateConnectionBackToPool(t *testing.T) {
	release := make(chan struct{})
	connect := func(ctx context.Context, cfg Config) (Conn, error) {
		<-release
		return newFakeConn(1), nil
	}
	p := New(Options{Connect: connect, Config: &fakeConfig{}})
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	fut := NewAcquireFuture()
	p.AcquireInto(ctx, fut)
	cancel()
	_, err := fut.Wait(ctx)
	require.ErrorIs(t, err, context.Canceled)

	close(release)
	require.Eventually(t, func() bool {
		return p.Stat().Idle == 1
	}, time.Second, 5*time.Millisecond, "the connection produced after cancellation must land in the idle store, not be leaked")
}
