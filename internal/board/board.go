// Package board keeps the site's coding profile statistics fresh. It runs the
// aggregator on a schedule and serves the most recent settled result.
package board

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Tharun-Kumar-228/portfolio/internal/profilestats"
)

// Snapshot is what readers of the board see.
type Snapshot struct {
	InvocationID string              `json:"invocation_id,omitempty"`
	Loading      bool                `json:"loading"`
	Refreshing   bool                `json:"refreshing"`
	Statistics   profilestats.Result `json:"statistics"`
	SettledAt    *time.Time          `json:"settled_at,omitempty"`
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Statistics = s.Statistics.Clone()
	if s.SettledAt != nil {
		t := *s.SettledAt
		out.SettledAt = &t
	}
	return out
}

func snapshotOf(inv *profilestats.Invocation) Snapshot {
	snap := Snapshot{
		InvocationID: inv.ID.String(),
		Loading:      inv.Loading(),
		Statistics:   inv.Statistics(),
	}
	if !snap.Loading {
		t := inv.FinishedAt()
		snap.SettledAt = &t
	}
	return snap
}

// Cache shares the last settled snapshot across restarts and replicas.
type Cache interface {
	Load(ctx context.Context) (*Snapshot, error)
	Store(ctx context.Context, snap Snapshot) error
}

// Recorder persists the per-profile outcomes of a settled invocation.
type Recorder interface {
	RecordRefresh(ctx context.Context, inv *profilestats.Invocation) error
}

type Board struct {
	agg      *profilestats.Aggregator
	profiles []profilestats.ProfileDescriptor
	period   time.Duration
	cache    Cache
	recorder Recorder
	logger   logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	current *profilestats.Invocation
	settled *profilestats.Invocation
	cached  *Snapshot

	stopOnce sync.Once
	wg       sync.WaitGroup
}

type Option func(*Board)

// WithPeriod sets the refresh interval. Zero or less refreshes only once.
func WithPeriod(d time.Duration) Option {
	return func(b *Board) { b.period = d }
}

func WithCache(c Cache) Option {
	return func(b *Board) { b.cache = c }
}

func WithRecorder(r Recorder) Option {
	return func(b *Board) { b.recorder = r }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(b *Board) {
		if l != nil {
			b.logger = l
		}
	}
}

func New(agg *profilestats.Aggregator, profiles []profilestats.ProfileDescriptor, opts ...Option) *Board {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Board{
		agg:      agg,
		profiles: append([]profilestats.ProfileDescriptor(nil), profiles...),
		period:   30 * time.Minute,
		logger:   logrus.StandardLogger(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Start seeds the board from the cache, then refreshes immediately and every
// period until ctx ends or Stop is called.
func (b *Board) Start(ctx context.Context) {
	if b.cache != nil {
		snap, err := b.cache.Load(ctx)
		switch {
		case err != nil:
			b.logger.WithError(err).Warn("load cached profile statistics")
		case snap != nil:
			b.mu.Lock()
			b.cached = snap
			b.mu.Unlock()
			b.logger.WithField("invocation_id", snap.InvocationID).Info("serving cached profile statistics")
		}
	}

	b.wg.Add(1)
	go b.loop(ctx)
	b.logger.WithField("period", b.period.String()).Info("profile statistics board started")
}

func (b *Board) loop(ctx context.Context) {
	defer b.wg.Done()

	b.Refresh(ctx)
	if b.period <= 0 {
		return
	}

	ticker := time.NewTicker(b.period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			b.Refresh(ctx)
		case <-ctx.Done():
			return
		case <-b.ctx.Done():
			return
		}
	}
}

// Stop cancels any in-flight refresh and waits for the board to wind down.
func (b *Board) Stop() {
	b.stopOnce.Do(func() {
		b.cancel()
		b.wg.Wait()
		b.logger.Info("profile statistics board stopped")
	})
}

// Refresh starts a new invocation, or returns the one already in flight.
// The run outlives ctx's cancellation but not the board.
func (b *Board) Refresh(ctx context.Context) *profilestats.Invocation {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current != nil && b.current.Loading() {
		return b.current
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(b.ctx, cancel)

	inv := b.agg.Start(runCtx, b.profiles)
	b.current = inv

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer cancel()
		defer stop()
		b.settle(inv)
	}()
	return inv
}

func (b *Board) settle(inv *profilestats.Invocation) {
	<-inv.Done()

	b.mu.Lock()
	b.settled = inv
	b.cached = nil
	b.mu.Unlock()

	log := b.logger.WithFields(logrus.Fields{
		"invocation_id": inv.ID.String(),
		"duration":      inv.FinishedAt().Sub(inv.StartedAt()).String(),
	})

	if b.ctx.Err() != nil {
		log.Info("board stopped, refresh not persisted")
		return
	}

	live := 0
	for _, o := range inv.Outcomes() {
		if o.Source == profilestats.SourceLive {
			live++
		}
	}
	log.WithFields(logrus.Fields{
		"profiles": len(inv.Outcomes()),
		"live":     live,
	}).Info("profile statistics refreshed")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if b.recorder != nil {
		if err := b.recorder.RecordRefresh(ctx, inv); err != nil {
			log.WithError(err).Warn("record refresh outcomes")
		}
	}
	if b.cache != nil {
		if err := b.cache.Store(ctx, snapshotOf(inv)); err != nil {
			log.WithError(err).Warn("store profile statistics snapshot")
		}
	}
}

// Current is the most recently started invocation, or nil before the first
// refresh.
func (b *Board) Current() *profilestats.Invocation {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Snapshot returns the latest settled statistics. Before anything has
// settled it returns a loading snapshot with an empty map.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	current, settled, cached := b.current, b.settled, b.cached
	b.mu.RUnlock()

	refreshing := current != nil && current.Loading()

	var snap Snapshot
	switch {
	case settled != nil:
		snap = snapshotOf(settled)
	case cached != nil:
		snap = cached.clone()
		snap.Loading = false
	case current != nil:
		snap = snapshotOf(current)
	default:
		snap = Snapshot{Loading: true, Statistics: profilestats.Result{}}
	}
	snap.Refreshing = refreshing
	if snap.Statistics == nil {
		snap.Statistics = profilestats.Result{}
	}
	return snap
}
