package debounce

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type flushRecorder struct {
	mu    sync.Mutex
	calls []string
	users []string
}

func (r *flushRecorder) flush(_ context.Context, user, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, user)
	r.calls = append(r.calls, text)
}

func (r *flushRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *flushRecorder) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func TestAddRejectsDuplicateDedupID(t *testing.T) {
	d := New(time.Second, zap.NewNop())
	defer d.Close()

	task, ok := d.Add("u1", "hola", "wamid.1")
	require.True(t, ok)

	again, ok := d.Add("u1", "hola", "wamid.1")
	assert.False(t, ok)
	assert.Empty(t, again)
	assert.True(t, d.IsActive("u1", task))
	assert.Equal(t, 1, d.Stats().BufferedMessages)
}

func TestAddWithoutDedupIDAlwaysAccepted(t *testing.T) {
	d := New(time.Second, zap.NewNop())
	defer d.Close()

	_, ok1 := d.Add("u1", "a", "")
	_, ok2 := d.Add("u1", "a", "")
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, "a a", d.Aggregate("u1"))
}

func TestLaterAddSupersedesTask(t *testing.T) {
	d := New(time.Second, zap.NewNop())
	defer d.Close()

	first, _ := d.Add("u1", "hola", "1")
	second, _ := d.Add("u1", "precio", "2")

	assert.NotEqual(t, first, second)
	assert.False(t, d.IsActive("u1", first))
	assert.True(t, d.IsActive("u1", second))
	assert.False(t, d.IsActive("u2", second))
}

func TestAggregateKeepsOrderAndBuffer(t *testing.T) {
	d := New(time.Second, zap.NewNop())
	defer d.Close()

	d.Add("u1", "Hola", "1")
	d.Add("u1", "precio", "2")
	d.Add("u1", "nkd", "3")

	assert.Equal(t, "Hola precio nkd", d.Aggregate("u1"))
	assert.Equal(t, "Hola precio nkd", d.Aggregate("u1"))
	assert.Equal(t, 3, d.Stats().BufferedMessages)
}

func TestClearResetsDedupSet(t *testing.T) {
	d := New(time.Second, zap.NewNop())
	defer d.Close()

	task, _ := d.Add("u1", "hola", "1")
	d.Clear("u1")

	assert.False(t, d.IsActive("u1", task))
	assert.Empty(t, d.Aggregate("u1"))
	assert.Equal(t, Stats{}, d.Stats())

	_, ok := d.Add("u1", "hola", "1")
	assert.True(t, ok)
}

func TestClaimOnlyByOwner(t *testing.T) {
	d := New(time.Second, zap.NewNop())
	defer d.Close()

	stale, _ := d.Add("u1", "a", "1")
	owner, _ := d.Add("u1", "b", "2")

	_, ok := d.Claim("u1", stale)
	assert.False(t, ok)
	assert.Equal(t, "a b", d.Aggregate("u1"))

	text, ok := d.Claim("u1", owner)
	require.True(t, ok)
	assert.Equal(t, "a b", text)
	assert.Equal(t, Stats{}, d.Stats())
}

func TestStats(t *testing.T) {
	d := New(time.Second, zap.NewNop())
	defer d.Close()

	d.Add("u1", "a", "1")
	d.Add("u1", "b", "2")
	d.Add("u2", "c", "1")

	assert.Equal(t, Stats{ActiveUsers: 2, ActiveTasks: 2, BufferedMessages: 3}, d.Stats())
}

func TestSubmitBurstFlushesOnce(t *testing.T) {
	d := New(40*time.Millisecond, zap.NewNop())
	defer d.Close()

	rec := &flushRecorder{}
	fragments := []string{"Hola", "precio", "de", "la", "nkd"}
	for i, f := range fragments {
		require.True(t, d.Submit(context.Background(), "u1", f, fmt.Sprintf("m%d", i), 0, rec.flush))
	}

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, []string{"Hola precio de la nkd"}, rec.texts())
	assert.Equal(t, Stats{}, d.Stats())
}

func TestSubmitDuplicateDelivery(t *testing.T) {
	d := New(30*time.Millisecond, zap.NewNop())
	defer d.Close()

	rec := &flushRecorder{}
	assert.True(t, d.Submit(context.Background(), "u1", "hola", "wamid.X", 0, rec.flush))
	assert.False(t, d.Submit(context.Background(), "u1", "hola", "wamid.X", 0, rec.flush))

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"hola"}, rec.texts())
}

func TestSubmitUsersIndependent(t *testing.T) {
	d := New(30*time.Millisecond, zap.NewNop())
	defer d.Close()

	rec := &flushRecorder{}
	d.Submit(context.Background(), "u1", "a", "1", 0, rec.flush)
	d.Submit(context.Background(), "u2", "b", "1", 0, rec.flush)

	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"a", "b"}, rec.texts())
}

func TestSubmitDetachesContext(t *testing.T) {
	d := New(20*time.Millisecond, zap.NewNop())
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var gotErr atomic.Value
	done := make(chan struct{})
	d.Submit(ctx, "u1", "hola", "1", 0, func(ctx context.Context, _, _ string) {
		gotErr.Store(fmt.Sprint(ctx.Err()))
		close(done)
	})
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("flush not called")
	}
	assert.Equal(t, "<nil>", gotErr.Load())
}

func TestFlushesForOneUserDoNotOverlap(t *testing.T) {
	d := New(20*time.Millisecond, zap.NewNop())
	defer d.Close()

	release := make(chan struct{})
	var running, calls atomic.Int32
	var overlapped atomic.Bool
	flush := func(context.Context, string, string) {
		if running.Add(1) > 1 {
			overlapped.Store(true)
		}
		if calls.Add(1) == 1 {
			<-release
		}
		running.Add(-1)
	}

	d.Submit(context.Background(), "u1", "first", "1", 0, flush)
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	d.Submit(context.Background(), "u1", "second", "2", 0, flush)
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	close(release)
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	assert.False(t, overlapped.Load())
}

func TestCloseStopsPendingTimers(t *testing.T) {
	d := New(time.Hour, zap.NewNop())

	rec := &flushRecorder{}
	require.True(t, d.Submit(context.Background(), "u1", "hola", "1", 0, rec.flush))
	d.Close()

	assert.Zero(t, rec.count())
	assert.Equal(t, 1, d.Stats().BufferedMessages)
	assert.False(t, d.Submit(context.Background(), "u1", "otra", "2", 0, rec.flush))
}

func TestNewDefaultsWindow(t *testing.T) {
	d := New(0, nil)
	defer d.Close()
	assert.Equal(t, DefaultWindow, d.Window())
}
