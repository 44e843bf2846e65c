package db

import (
	"context"
	"fmt"
	"time"
)

// FixLegacyTimeFormats rewrites timestamps stored with a zone suffix
// (" +0000 UTC") into the plain layout SQLite's date functions understand.
func (db *DB) FixLegacyTimeFormats() error {
	for _, table := range historyTables {
		query := fmt.Sprintf(`UPDATE %s
			SET timestamp = SUBSTR(timestamp, 1, 19)
			WHERE length(timestamp) > 19 AND timestamp LIKE '%% UTC'`, table)
		if _, err := db.ExecContext(context.Background(), query); err != nil {
			return fmt.Errorf("failed to fix legacy time formats in %s: %w", table, err)
		}
	}
	return nil
}

// Prune deletes history rows older than the cutoff and returns how many were
// removed across all tables.
func (db *DB) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	var total int64
	cutoff := formatTime(olderThan)
	for _, table := range historyTables {
		query := fmt.Sprintf("DELETE FROM %s WHERE timestamp < ?", table)
		res, err := db.ExecContext(ctx, query, cutoff)
		if err != nil {
			return total, fmt.Errorf("failed to prune %s: %w", table, err)
		}
		n, err := res.RowsAffected()
		if err == nil {
			total += n
		}
	}
	return total, nil
}
