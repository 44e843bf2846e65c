package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/j-veylop/crawler-dashboard-tui/internal/logger"
	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
)

// RecordCycle stores one applied poll cycle.
func (db *DB) RecordCycle(ctx context.Context, m models.CycleMetric) error {
	query := `
		INSERT INTO cycle_metrics (
			timestamp, cycle, records, accounts, active_accounts, running, keyword_total
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		formatTime(m.Timestamp),
		int64(m.Cycle),
		m.Records,
		m.Accounts,
		m.ActiveAccounts,
		boolToInt(m.Running),
		m.KeywordTotal,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cycle metric: %w", err)
	}
	return nil
}

// RecentCycles returns up to limit cycle metrics, newest first.
func (db *DB) RecentCycles(ctx context.Context, limit int) ([]models.CycleMetric, error) {
	query := `
		SELECT timestamp, cycle, records, accounts, active_accounts, running, keyword_total
		FROM cycle_metrics
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`
	return db.queryCycles(ctx, query, limit)
}

// CyclesSince returns every cycle metric recorded at or after since, oldest
// first. A zero since returns the full history.
func (db *DB) CyclesSince(ctx context.Context, since time.Time) ([]models.CycleMetric, error) {
	query := `
		SELECT timestamp, cycle, records, accounts, active_accounts, running, keyword_total
		FROM cycle_metrics
		WHERE timestamp >= ?
		ORDER BY timestamp ASC, id ASC
	`
	lower := "0000-01-01 00:00:00"
	if !since.IsZero() {
		lower = formatTime(since)
	}
	return db.queryCycles(ctx, query, lower)
}

// CycleSummary aggregates the cycles of a time range.
func (db *DB) CycleSummary(ctx context.Context, r models.TimeRange) (models.CycleSummary, error) {
	metrics, err := db.CyclesSince(ctx, r.Since(time.Now()))
	if err != nil {
		return models.CycleSummary{}, err
	}
	return models.Summarize(metrics), nil
}

func (db *DB) queryCycles(ctx context.Context, query string, args ...any) ([]models.CycleMetric, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycle metrics: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var metrics []models.CycleMetric
	for rows.Next() {
		var (
			m       models.CycleMetric
			ts      string
			cycle   int64
			running int
		)
		err := rows.Scan(
			&ts,
			&cycle,
			&m.Records,
			&m.Accounts,
			&m.ActiveAccounts,
			&running,
			&m.KeywordTotal,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cycle metric: %w", err)
		}
		m.Timestamp, _ = parseTimeString(ts)
		m.Cycle = uint64(cycle)
		m.Running = running != 0
		metrics = append(metrics, m)
	}

	return metrics, rows.Err()
}

// RecordAlert stores a keyword threshold crossing.
func (db *DB) RecordAlert(ctx context.Context, a models.KeywordAlert) error {
	query := `INSERT INTO keyword_alerts (timestamp, keyword, count, threshold) VALUES (?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, query, formatTime(a.Timestamp), a.Keyword, a.Count, a.Threshold); err != nil {
		return fmt.Errorf("failed to insert keyword alert: %w", err)
	}
	return nil
}

// RecentAlerts returns up to limit keyword alerts, newest first.
func (db *DB) RecentAlerts(ctx context.Context, limit int) ([]models.KeywordAlert, error) {
	query := `
		SELECT timestamp, keyword, count, threshold
		FROM keyword_alerts
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query keyword alerts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var alerts []models.KeywordAlert
	for rows.Next() {
		var a models.KeywordAlert
		var ts string
		if err := rows.Scan(&ts, &a.Keyword, &a.Count, &a.Threshold); err != nil {
			return nil, fmt.Errorf("failed to scan keyword alert: %w", err)
		}
		a.Timestamp, _ = parseTimeString(ts)
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// RecordExport stores a completed export.
func (db *DB) RecordExport(ctx context.Context, e models.ExportRecord) error {
	query := `INSERT INTO exports (timestamp, path, bytes) VALUES (?, ?, ?)`
	if _, err := db.ExecContext(ctx, query, formatTime(e.Timestamp), e.Path, e.Bytes); err != nil {
		return fmt.Errorf("failed to insert export: %w", err)
	}
	return nil
}

// RecentExports returns up to limit exports, newest first.
func (db *DB) RecentExports(ctx context.Context, limit int) ([]models.ExportRecord, error) {
	query := `
		SELECT timestamp, path, bytes
		FROM exports
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query exports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var exports []models.ExportRecord
	for rows.Next() {
		var e models.ExportRecord
		var ts string
		var bytes sql.NullInt64
		if err := rows.Scan(&ts, &e.Path, &bytes); err != nil {
			return nil, fmt.Errorf("failed to scan export: %w", err)
		}
		e.Timestamp, _ = parseTimeString(ts)
		e.Bytes = bytes.Int64
		exports = append(exports, e)
	}

	return exports, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
