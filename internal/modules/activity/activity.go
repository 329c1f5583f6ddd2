// Package activity stores the per-user audit trail shown on the admin dashboard.
package activity

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// DefaultRecentLimit is how many entries the admin dashboard shows
const DefaultRecentLimit = 100

// Log is one activity entry joined with its username
type Log struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

type logRow struct {
	ID        int64          `db:"id"`
	UserID    int64          `db:"user_id"`
	Username  sql.NullString `db:"username"`
	Action    string         `db:"action"`
	Timestamp int64          `db:"timestamp"`
}

// Repository persists activity entries
type Repository struct {
	db  *sqlx.DB
	now func() time.Time
	log zerolog.Logger
}

// NewRepository creates a new activity repository
func NewRepository(db *sqlx.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		now: time.Now,
		log: log.With().Str("repository", "activity").Logger(),
	}
}

// Record appends an entry for userID
func (r *Repository) Record(ctx context.Context, userID int64, action string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO activity_logs (user_id, action, timestamp) VALUES (?, ?, ?)`,
		userID, action, r.now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// Recent returns the newest entries first. limit <= 0 means DefaultRecentLimit.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Log, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	var rows []logRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT a.id, a.user_id, u.username, a.action, a.timestamp
		FROM activity_logs a
		LEFT JOIN users u ON u.id = a.user_id
		ORDER BY a.timestamp DESC, a.id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}

	logs := make([]Log, len(rows))
	for i, row := range rows {
		logs[i] = Log{
			ID:        row.ID,
			UserID:    row.UserID,
			Username:  row.Username.String,
			Action:    row.Action,
			Timestamp: time.Unix(row.Timestamp, 0).UTC(),
		}
	}
	return logs, nil
}

// Prune deletes entries older than before and returns how many were removed
func (r *Repository) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM activity_logs WHERE timestamp < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune activity: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
