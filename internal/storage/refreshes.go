package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Tharun-Kumar-228/portfolio/internal/profilestats"
)

// RefreshRecord is one persisted aggregation run with its per-profile
// outcomes.
type RefreshRecord struct {
	InvocationID string                 `json:"invocation_id"`
	StartedAt    time.Time              `json:"started_at"`
	FinishedAt   time.Time              `json:"finished_at"`
	Outcomes     []profilestats.Outcome `json:"outcomes"`
}

// Live counts profiles that showed live numbers.
func (r RefreshRecord) Live() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Source == profilestats.SourceLive {
			n++
		}
	}
	return n
}

// RecordRefresh stores a settled invocation's diagnostics. Invocations still
// loading are rejected.
func (s *Store) RecordRefresh(ctx context.Context, inv *profilestats.Invocation) error {
	if inv.Loading() {
		return fmt.Errorf("record refresh %s: invocation has not settled", inv.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin refresh tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	id := inv.ID.String()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO stat_refreshes (invocation_id, started_at, finished_at) VALUES (?, ?, ?)`,
		id, millis(inv.StartedAt()), millis(inv.FinishedAt()),
	); err != nil {
		return fmt.Errorf("insert refresh: %w", err)
	}

	for _, o := range inv.Outcomes() {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO stat_outcomes (invocation_id, profile_id, platform, source, error, duration_ms)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, o.ProfileID, string(o.Platform), string(o.Source), o.Err, o.Duration.Milliseconds(),
		); err != nil {
			return fmt.Errorf("insert outcome %s: %w", o.ProfileID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit refresh: %w", err)
	}
	return nil
}

// LatestRefresh returns the most recently finished run, or nil when none has
// been recorded.
func (s *Store) LatestRefresh(ctx context.Context) (*RefreshRecord, error) {
	var (
		rec              RefreshRecord
		started, settled int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT invocation_id, started_at, finished_at
		FROM stat_refreshes
		ORDER BY finished_at DESC
		LIMIT 1`).Scan(&rec.InvocationID, &started, &settled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest refresh: %w", err)
	}
	rec.StartedAt = fromMillis(started)
	rec.FinishedAt = fromMillis(settled)

	rows, err := s.db.QueryContext(ctx, `
		SELECT profile_id, platform, source, error, duration_ms
		FROM stat_outcomes
		WHERE invocation_id = ?
		ORDER BY profile_id`, rec.InvocationID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			o                profilestats.Outcome
			platform, source string
			durationMillis   int64
		)
		if err := rows.Scan(&o.ProfileID, &platform, &source, &o.Err, &durationMillis); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Platform = profilestats.PlatformKind(platform)
		o.Source = profilestats.Source(source)
		o.Duration = time.Duration(durationMillis) * time.Millisecond
		rec.Outcomes = append(rec.Outcomes, o)
	}
	return &rec, rows.Err()
}

// PruneRefreshes keeps only the newest keep runs.
func (s *Store) PruneRefreshes(ctx context.Context, keep int) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM stat_refreshes
		WHERE invocation_id NOT IN (
			SELECT invocation_id FROM stat_refreshes ORDER BY finished_at DESC LIMIT ?
		)`, keep)
	if err != nil {
		return fmt.Errorf("prune refreshes: %w", err)
	}
	return nil
}
