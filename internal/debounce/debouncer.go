package debounce

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const DefaultWindow = 4 * time.Second

// TaskID marks which scheduled flush currently owns a user's buffer.
type TaskID string

// FlushFunc receives the aggregated burst. The context is detached from the
// request that scheduled it.
type FlushFunc func(ctx context.Context, user, text string)

type Stats struct {
	ActiveUsers      int `json:"active_users"`
	ActiveTasks      int `json:"active_tasks"`
	BufferedMessages int `json:"total_buffered_messages"`
}

type userBuffer struct {
	mu        sync.Mutex
	fragments []string
	active    TaskID
	seen      map[string]struct{}

	// held for the whole flush so two bursts of one user are never
	// processed concurrently
	flushMu sync.Mutex
}

// Debouncer coalesces bursts of messages per user. Each user gets its own
// lock, created on first use and never removed; there is no global lock.
type Debouncer struct {
	users  sync.Map
	window time.Duration
	logger *zap.Logger
	newID  func() TaskID

	wg     sync.WaitGroup
	stop   chan struct{}
	mu     sync.RWMutex
	closed bool
}

func New(window time.Duration, logger *zap.Logger) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Debouncer{
		window: window,
		logger: logger.Named("debounce"),
		newID:  func() TaskID { return TaskID(uuid.NewString()) },
		stop:   make(chan struct{}),
	}
}

func (d *Debouncer) Window() time.Duration { return d.window }

func (d *Debouncer) buffer(user string) *userBuffer {
	if b, ok := d.users.Load(user); ok {
		return b.(*userBuffer)
	}
	b, _ := d.users.LoadOrStore(user, &userBuffer{})
	return b.(*userBuffer)
}

// Add appends text to the user's buffer and makes a fresh task the owner.
// A dedupID already seen since the last flush is rejected with no effect.
// An empty dedupID disables duplicate detection for that call.
func (d *Debouncer) Add(user, text, dedupID string) (TaskID, bool) {
	b := d.buffer(user)
	b.mu.Lock()
	defer b.mu.Unlock()

	if dedupID != "" {
		if _, dup := b.seen[dedupID]; dup {
			return "", false
		}
		if b.seen == nil {
			b.seen = make(map[string]struct{})
		}
		b.seen[dedupID] = struct{}{}
	}

	b.fragments = append(b.fragments, text)
	b.active = d.newID()
	return b.active, true
}

func (d *Debouncer) IsActive(user string, task TaskID) bool {
	b := d.buffer(user)
	b.mu.Lock()
	defer b.mu.Unlock()
	return task != "" && b.active == task
}

// Aggregate joins the buffered fragments in arrival order without
// clearing them.
func (d *Debouncer) Aggregate(user string) string {
	b := d.buffer(user)
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.fragments, " ")
}

func (d *Debouncer) Clear(user string) {
	b := d.buffer(user)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
}

// Claim aggregates and clears the buffer in one step, but only for the
// task that currently owns it.
func (d *Debouncer) Claim(user string, task TaskID) (string, bool) {
	b := d.buffer(user)
	b.mu.Lock()
	defer b.mu.Unlock()

	if task == "" || b.active != task {
		return "", false
	}
	text := strings.Join(b.fragments, " ")
	b.reset()
	return text, true
}

func (b *userBuffer) reset() {
	b.fragments = nil
	b.active = ""
	b.seen = nil
}

func (d *Debouncer) Stats() Stats {
	var s Stats
	d.users.Range(func(_, v any) bool {
		b := v.(*userBuffer)
		b.mu.Lock()
		if len(b.fragments) > 0 || b.active != "" {
			s.ActiveUsers++
		}
		if b.active != "" {
			s.ActiveTasks++
		}
		s.BufferedMessages += len(b.fragments)
		b.mu.Unlock()
		return true
	})
	return s
}

// Submit adds the message and schedules a flush after delay (the window
// when delay is zero). Only the task still owning the buffer at wake time
// flushes; superseded tasks exit without side effects. Returns false for
// duplicates and after Close.
func (d *Debouncer) Submit(ctx context.Context, user, text, dedupID string, delay time.Duration, flush FlushFunc) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}

	task, ok := d.Add(user, text, dedupID)
	if !ok {
		d.logger.Debug("duplicate dropped", zap.String("user", user), zap.String("dedup_id", dedupID))
		return false
	}
	if delay <= 0 {
		delay = d.window
	}

	detached := context.WithoutCancel(ctx)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-t.C:
		case <-d.stop:
			return
		}

		b := d.buffer(user)
		if !d.IsActive(user, task) {
			d.logger.Debug("superseded", zap.String("user", user), zap.String("task", string(task)))
			return
		}

		b.flushMu.Lock()
		defer b.flushMu.Unlock()

		aggregated, ok := d.Claim(user, task)
		if !ok {
			return
		}
		d.logger.Info("flush", zap.String("user", user), zap.Int("chars", len(aggregated)))
		flush(detached, user, aggregated)
	}()
	return true
}

// Close stops pending timers and waits for running flushes. Buffers whose
// timer was stopped are left in place.
func (d *Debouncer) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.stop)
	}
	d.mu.Unlock()
	d.wg.Wait()
}
