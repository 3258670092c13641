package profilestats

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds a single profile's fetch sequence.
const DefaultTimeout = 8 * time.Second

// Aggregator fans out one fetch per profile and joins them into a Result.
type Aggregator struct {
	fetchers    map[PlatformKind]Fetcher
	timeout     time.Duration
	concurrency int
	logger      logrus.FieldLogger
	tracer      trace.Tracer
	now         func() time.Time
}

type Option func(*Aggregator)

// WithFetcher registers the strategy for a platform. A nil fetcher removes it,
// which makes the platform behave like manual.
func WithFetcher(kind PlatformKind, f Fetcher) Option {
	return func(a *Aggregator) {
		if f == nil {
			delete(a.fetchers, kind)
			return
		}
		a.fetchers[kind] = f
	}
}

func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithConcurrency caps in-flight profiles; zero or less means unbounded.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) { a.concurrency = n }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(a *Aggregator) {
		if t != nil {
			a.tracer = t
		}
	}
}

func New(opts ...Option) *Aggregator {
	a := &Aggregator{
		fetchers: make(map[PlatformKind]Fetcher),
		timeout:  DefaultTimeout,
		logger:   logrus.StandardLogger(),
		tracer:   otel.Tracer("github.com/Tharun-Kumar-228/portfolio/internal/profilestats"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewDefault wires the GitHub, LeetCode and Codeforces fetchers.
func NewDefault(cfg HTTPConfig, opts ...Option) *Aggregator {
	client := cfg.client()
	base := []Option{
		WithFetcher(PlatformGitHub, NewGitHubFetcher(client, cfg.GitHubBaseURL, cfg.GitHubToken)),
		WithFetcher(PlatformLeetCode, NewLeetCodeFetcher(client, cfg.LeetCodeBaseURL)),
		WithFetcher(PlatformCodeforces, NewCodeforcesFetcher(client, cfg.CodeforcesBaseURL)),
	}
	return New(append(base, opts...)...)
}

// Start launches every profile fetch and returns without waiting. The
// returned invocation reports Loading until all of them have settled.
func (a *Aggregator) Start(ctx context.Context, profiles []ProfileDescriptor) *Invocation {
	inv := newInvocation(a.now())
	go a.run(ctx, inv, profiles)
	return inv
}

// Aggregate runs a full invocation and blocks until it settles.
func (a *Aggregator) Aggregate(ctx context.Context, profiles []ProfileDescriptor) (Result, []Outcome) {
	inv := a.Start(ctx, profiles)
	<-inv.Done()
	return inv.Statistics(), inv.Outcomes()
}

func (a *Aggregator) run(ctx context.Context, inv *Invocation, profiles []ProfileDescriptor) {
	inv.settling()

	entries := make([][]StatisticEntry, len(profiles))
	outcomes := make([]Outcome, len(profiles))

	var g errgroup.Group
	if a.concurrency > 0 {
		g.SetLimit(a.concurrency)
	}
	for i, p := range profiles {
		g.Go(func() error {
			entries[i], outcomes[i] = a.resolve(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	stats := make(Result, len(profiles))
	for i, p := range profiles {
		stats[p.ID] = entries[i]
	}

	a.logger.WithFields(logrus.Fields{
		"invocation": inv.ID.String(),
		"profiles":   len(profiles),
		"elapsed":    a.now().Sub(inv.startedAt).String(),
	}).Debug("profile statistics settled")

	inv.finish(stats, outcomes, a.now())
}

// resolve never fails: every path ends in either the live entries or a copy
// of the fallback list.
func (a *Aggregator) resolve(ctx context.Context, p ProfileDescriptor) ([]StatisticEntry, Outcome) {
	start := a.now()
	out := Outcome{ProfileID: p.ID, Platform: p.PlatformKind}

	fetcher, ok := a.fetchers[p.PlatformKind]
	if !ok {
		out.Source = SourceManual
		return cloneEntries(p.FallbackStatistics), out
	}

	ctx, span := a.tracer.Start(ctx, "profilestats.fetch", trace.WithAttributes(
		attribute.String("profile.id", p.ID),
		attribute.String("profile.platform", string(p.PlatformKind)),
	))
	defer span.End()

	fctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	live, err := a.fetch(fctx, fetcher, p.Handle)
	out.Duration = a.now().Sub(start)
	if err == nil && len(live) == 0 {
		err = errEmptyStatistics
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		a.logger.WithFields(logrus.Fields{
			"profile":  p.ID,
			"platform": p.PlatformKind,
			"handle":   p.Handle,
		}).WithError(err).Warn("profile stats unavailable, using fallback")
		out.Source = SourceFallback
		out.Err = err.Error()
		return cloneEntries(p.FallbackStatistics), out
	}

	out.Source = SourceLive
	return live, out
}

// fetch shields the join from a panicking fetcher.
func (a *Aggregator) fetch(ctx context.Context, f Fetcher, handle string) (entries []StatisticEntry, err error) {
	defer func() {
		if r := recover(); r != nil {
			entries, err = nil, &panicError{value: r}
		}
	}()
	return f.Fetch(ctx, handle)
}
