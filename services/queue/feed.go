package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"clinicfront/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Lister is what the feed polls.
type Lister interface {
	ListQueue(ctx context.Context) ([]models.QueueEntry, error)
}

type FeedConfig struct {
	Interval time.Duration
	Timeout  time.Duration
	// Decorate prepares the poll context, e.g. to attach a service token.
	Decorate func(context.Context) context.Context
	Logger   *zap.Logger
}

// Feed polls the queue while anyone is subscribed and fans out snapshots.
// Every poll takes the next sequence number and a result is applied only if
// it is newer than the last applied one, so slow responses cannot roll the
// screens back. A failed poll also takes a sequence number: the stale copy it
// publishes is newer than anything applied before it.
type Feed struct {
	epoch    string
	api      Lister
	interval time.Duration
	timeout  time.Duration
	decorate func(context.Context) context.Context
	logger   *zap.Logger

	issued  atomic.Uint64
	ticking atomic.Int32

	mu       sync.Mutex
	applied  uint64
	latest   models.QueueSnapshot
	hasState bool
	lastPoll time.Time
	subs     map[uint64]chan models.QueueSnapshot
	nextSub  uint64
	stop     context.CancelFunc
	nudge    chan struct{}

	// snapshots issued at or before this seq predate the last mutation
	invalidAfter uint64
}

func NewFeed(api Lister, cfg FeedConfig) *Feed {
	if cfg.Interval <= 0 {
		cfg.Interval = 3 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Decorate == nil {
		cfg.Decorate = func(ctx context.Context) context.Context { return ctx }
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Feed{
		epoch:    uuid.NewString(),
		api:      api,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		decorate: cfg.Decorate,
		logger:   cfg.Logger,
		subs:     make(map[uint64]chan models.QueueSnapshot),
	}
}

// Subscribe registers a listener. The first subscriber starts polling and
// the last cancel stops it. The channel holds at most one pending snapshot;
// a slow reader only ever sees the newest one.
func (f *Feed) Subscribe() (<-chan models.QueueSnapshot, func()) {
	ch := make(chan models.QueueSnapshot, 1)

	f.mu.Lock()
	f.nextSub++
	id := f.nextSub
	f.subs[id] = ch
	if f.hasState {
		ch <- f.latest
	}
	if f.stop == nil {
		ctx, cancel := context.WithCancel(context.Background())
		f.stop = cancel
		f.nudge = make(chan struct{}, 1)
		go f.run(ctx, f.nudge)
	}
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			if _, ok := f.subs[id]; !ok {
				return
			}
			delete(f.subs, id)
			close(ch)
			if len(f.subs) == 0 && f.stop != nil {
				f.stop()
				f.stop = nil
				f.nudge = nil
			}
		})
	}
	return ch, cancel
}

// Subscribers is the number of live subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Running reports whether the poll loop is active.
func (f *Feed) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stop != nil
}

// Refresh asks a running loop for an immediate poll and stops Current from
// reusing anything fetched before the call.
func (f *Feed) Refresh() {
	f.mu.Lock()
	f.invalidAfter = f.issued.Load()
	nudge := f.nudge
	f.mu.Unlock()
	if nudge == nil {
		return
	}
	select {
	case nudge <- struct{}{}:
	default:
	}
}

// Latest returns the last applied snapshot.
func (f *Feed) Latest() (models.QueueSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest, f.hasState
}

// Epoch identifies this feed instance; sequence numbers restart with it.
func (f *Feed) Epoch() string { return f.epoch }

// LastPoll is when the last poll finished, successful or not.
func (f *Feed) LastPoll() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPoll
}

// Current serves polling clients: a snapshot younger than one interval is
// reused unless the queue changed since, otherwise the queue is fetched now.
func (f *Feed) Current(ctx context.Context) (models.QueueSnapshot, error) {
	f.mu.Lock()
	if f.hasState && !f.latest.Stale && f.latest.Seq > f.invalidAfter &&
		time.Since(f.latest.FetchedAt.Time) < f.interval {
		snap := f.latest
		f.mu.Unlock()
		return snap, nil
	}
	f.mu.Unlock()

	if err := f.Poll(ctx); err != nil {
		if snap, ok := f.Latest(); ok {
			return snap, nil
		}
		return models.QueueSnapshot{}, err
	}
	snap, _ := f.Latest()
	return snap, nil
}

// Poll fetches the queue once and applies the result if it is still the newest.
func (f *Feed) Poll(ctx context.Context) error {
	seq := f.issued.Add(1)

	ctx, cancel := context.WithTimeout(f.decorate(ctx), f.timeout)
	defer cancel()
	entries, err := f.api.ListQueue(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		f.logger.Warn("queue poll failed", zap.Uint64("seq", seq), zap.Error(err))
		f.markStale(seq)
		return err
	}

	snap := models.NewQueueSnapshot(entries)
	snap.Epoch = f.epoch
	snap.Seq = seq
	snap.FetchedAt = models.Timestamp{Time: time.Now()}
	if !f.apply(snap) {
		f.logger.Debug("dropped stale queue poll", zap.Uint64("seq", seq))
	}
	return nil
}

func (f *Feed) apply(snap models.QueueSnapshot) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPoll = time.Now()
	if snap.Seq <= f.applied {
		return false
	}
	f.applied = snap.Seq
	f.latest = snap
	f.hasState = true
	f.broadcastLocked(snap)
	return true
}

// markStale republishes the last good snapshot flagged stale under the failed
// poll's sequence number. A failure older than the applied snapshot is ignored.
func (f *Feed) markStale(seq uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPoll = time.Now()
	if !f.hasState || seq <= f.applied {
		return
	}
	f.applied = seq
	f.latest.Seq = seq
	if f.latest.Stale {
		return
	}
	f.latest.Stale = true
	f.broadcastLocked(f.latest)
}

func (f *Feed) broadcastLocked(snap models.QueueSnapshot) {
	for _, ch := range f.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (f *Feed) run(ctx context.Context, nudge <-chan struct{}) {
	f.logger.Info("queue feed started", zap.Duration("interval", f.interval))
	defer f.logger.Info("queue feed stopped")

	go f.tick(ctx)

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go f.tick(ctx)
		case <-nudge:
			// out-of-band polls may overlap a slow tick; the sequence guard sorts them out
			go func() { _ = f.Poll(ctx) }()
		}
	}
}

// tick skips when the previous scheduled poll is still in flight.
func (f *Feed) tick(ctx context.Context) {
	if !f.ticking.CompareAndSwap(0, 1) {
		return
	}
	defer f.ticking.Store(0)
	_ = f.Poll(ctx)
}
