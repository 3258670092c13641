// Package profilestats fetches live statistics for external coding profiles
// and falls back to static numbers per profile when a platform can't be read.
package profilestats

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// PlatformKind selects the fetch strategy for a profile.
type PlatformKind string

const (
	PlatformGitHub     PlatformKind = "github"
	PlatformLeetCode   PlatformKind = "leetcode"
	PlatformCodeforces PlatformKind = "codeforces"
	// PlatformManual profiles never touch the network.
	PlatformManual PlatformKind = "manual"
)

// ErrInvalidDescriptor is returned by ProfileDescriptor.Validate.
var ErrInvalidDescriptor = errors.New("invalid profile descriptor")

// StatisticEntry is one display-ready metric. Value holds an int or a string.
type StatisticEntry struct {
	Label string `json:"label" yaml:"label"`
	Value any    `json:"value" yaml:"value"`
}

// ProfileDescriptor describes one external profile and its static numbers.
type ProfileDescriptor struct {
	ID                 string           `json:"id" yaml:"id"`
	PlatformKind       PlatformKind     `json:"platform_kind" yaml:"platform_kind"`
	Handle             string           `json:"handle" yaml:"handle"`
	FallbackStatistics []StatisticEntry `json:"fallback_statistics" yaml:"fallback_statistics"`
}

func (p ProfileDescriptor) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidDescriptor)
	}
	if len(p.FallbackStatistics) == 0 {
		return fmt.Errorf("%w: profile %q has no fallback statistics", ErrInvalidDescriptor, p.ID)
	}
	return nil
}

// Result maps ProfileDescriptor.ID to its ordered statistics.
type Result map[string][]StatisticEntry

// Clone returns a copy that shares no slices with r.
func (r Result) Clone() Result {
	out := make(Result, len(r))
	for id, entries := range r {
		out[id] = cloneEntries(entries)
	}
	return out
}

func cloneEntries(entries []StatisticEntry) []StatisticEntry {
	if entries == nil {
		return nil
	}
	out := make([]StatisticEntry, len(entries))
	copy(out, entries)
	return out
}

// Source tells where a profile's statistics came from.
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
	SourceManual   Source = "manual"
)

// Outcome is the diagnostic record of one profile's fetch attempt.
type Outcome struct {
	ProfileID string        `json:"profile_id"`
	Platform  PlatformKind  `json:"platform"`
	Source    Source        `json:"source"`
	Err       string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// Fetcher reads live statistics for one handle on one platform.
type Fetcher interface {
	Fetch(ctx context.Context, handle string) ([]StatisticEntry, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, handle string) ([]StatisticEntry, error)

func (f FetcherFunc) Fetch(ctx context.Context, handle string) ([]StatisticEntry, error) {
	return f(ctx, handle)
}
