package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/ecoguardian/internal/model"
	"github.com/sakif/ecoguardian/internal/repository"
)

var _ repository.EntryRepository = (*DB)(nil)

const entryColumns = `id, user_id, category, amount, description, date_ms`

// CreateEntry appends an entry. A zero Date means "now". The stored date has
// millisecond precision, so entry.Date is truncated to match what a later
// read returns.
func (db *DB) CreateEntry(ctx context.Context, entry *model.CarbonEntry) error {
	entry.ID = xid.New().String()
	if entry.Date.IsZero() {
		entry.Date = time.Now()
	}
	entry.Date = fromMillis(toMillis(entry.Date))

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO carbon_entries (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.UserID,
		string(entry.Category),
		entry.Amount,
		entry.Description,
		toMillis(entry.Date),
	)
	if err != nil {
		return fmt.Errorf("sqldb: inserting carbon entry for user %s: %w", entry.UserID, err)
	}
	return nil
}

// ListEntriesByUser returns every entry of the user, newest first. The id
// tiebreak keeps equal timestamps in reverse insertion order because xids
// sort by creation time.
func (db *DB) ListEntriesByUser(ctx context.Context, userID string) ([]model.CarbonEntry, error) {
	return db.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM carbon_entries
		 WHERE user_id = ?
		 ORDER BY date_ms DESC, id DESC`,
		userID,
	)
}

// ListEntriesByUserInRange returns entries with start <= date <= end.
func (db *DB) ListEntriesByUserInRange(ctx context.Context, userID string, start, end time.Time) ([]model.CarbonEntry, error) {
	return db.queryEntries(ctx,
		`SELECT `+entryColumns+` FROM carbon_entries
		 WHERE user_id = ? AND date_ms >= ? AND date_ms <= ?
		 ORDER BY date_ms DESC, id DESC`,
		userID, ceilMillis(start), toMillis(end),
	)
}

func (db *DB) queryEntries(ctx context.Context, query string, args ...any) ([]model.CarbonEntry, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqldb: listing carbon entries: %w", err)
	}
	defer rows.Close()

	// Non-nil so an empty result marshals as [] rather than null.
	entries := make([]model.CarbonEntry, 0)
	for rows.Next() {
		var (
			e        model.CarbonEntry
			category string
			dateMs   int64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &category, &e.Amount, &e.Description, &dateMs); err != nil {
			return nil, fmt.Errorf("sqldb: scanning carbon entry: %w", err)
		}
		e.Category = model.Category(category)
		e.Date = fromMillis(dateMs)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqldb: iterating carbon entries: %w", err)
	}
	return entries, nil
}
