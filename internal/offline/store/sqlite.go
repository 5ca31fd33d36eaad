// Package store persists a terminal's offline queue in a local SQLite file.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fekuna/omnipos-checkout-service/internal/apperror"
	"github.com/fekuna/omnipos-checkout-service/internal/checkout/dto"
	"github.com/fekuna/omnipos-checkout-service/internal/offline"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS offline_queue (
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    tenant_id   TEXT NOT NULL,
    temp_id     TEXT NOT NULL UNIQUE,
    payload     TEXT NOT NULL,
    enqueued_at TIMESTAMP NOT NULL,
    attempts    INTEGER NOT NULL DEFAULT 0,
    last_error  TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_offline_queue_tenant ON offline_queue (tenant_id, seq);
`

type row struct {
	Seq        int64     `db:"seq"`
	TenantID   string    `db:"tenant_id"`
	TempID     string    `db:"temp_id"`
	Payload    string    `db:"payload"`
	EnqueuedAt time.Time `db:"enqueued_at"`
	Attempts   int       `db:"attempts"`
	LastError  string    `db:"last_error"`
}

type SQLiteQueue struct {
	DB *sqlx.DB
}

// Open creates or opens the queue file at path.
func Open(ctx context.Context, path string) (*SQLiteQueue, error) {
	db, err := database.Open(ctx, &database.Config{Driver: database.DriverSQLite, DSN: path})
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create queue schema: %w", err)
	}
	return &SQLiteQueue{DB: db}, nil
}

func (q *SQLiteQueue) Close() error {
	return q.DB.Close()
}

func (q *SQLiteQueue) Enqueue(ctx context.Context, e *offline.Entry) error {
	payload, err := json.Marshal(e.Request)
	if err != nil {
		return err
	}
	res, err := q.DB.ExecContext(ctx,
		`INSERT INTO offline_queue (tenant_id, temp_id, payload, enqueued_at) VALUES (?, ?, ?, ?)`,
		e.TenantID, e.TempID, string(payload), e.EnqueuedAt.UTC(),
	)
	if err != nil {
		return err
	}
	e.Seq, err = res.LastInsertId()
	return err
}

func (q *SQLiteQueue) List(ctx context.Context, tenantID string) ([]offline.Entry, error) {
	var rows []row
	err := q.DB.SelectContext(ctx, &rows, `
        SELECT seq, tenant_id, temp_id, payload, enqueued_at, attempts, last_error
        FROM offline_queue
        WHERE tenant_id = ?
        ORDER BY seq
    `, tenantID)
	if err != nil {
		return nil, err
	}

	entries := make([]offline.Entry, 0, len(rows))
	for _, r := range rows {
		var req dto.CreateTransactionRequest
		if err := json.Unmarshal([]byte(r.Payload), &req); err != nil {
			return nil, fmt.Errorf("decode queue entry %d: %w", r.Seq, err)
		}
		entries = append(entries, offline.Entry{
			Seq:        r.Seq,
			TenantID:   r.TenantID,
			TempID:     r.TempID,
			Request:    &req,
			EnqueuedAt: r.EnqueuedAt,
			Attempts:   r.Attempts,
			LastError:  r.LastError,
		})
	}
	return entries, nil
}

func (q *SQLiteQueue) Remove(ctx context.Context, seq int64) error {
	return q.exec(ctx, seq, `DELETE FROM offline_queue WHERE seq = ?`, seq)
}

func (q *SQLiteQueue) MarkFailed(ctx context.Context, seq int64, reason string) error {
	return q.exec(ctx, seq, `UPDATE offline_queue SET attempts = attempts + 1, last_error = ? WHERE seq = ?`, reason, seq)
}

func (q *SQLiteQueue) Len(ctx context.Context, tenantID string) (int, error) {
	var n int
	err := q.DB.GetContext(ctx, &n, `SELECT count(*) FROM offline_queue WHERE tenant_id = ?`, tenantID)
	return n, err
}

func (q *SQLiteQueue) exec(ctx context.Context, seq int64, query string, args ...any) error {
	res, err := q.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("queue entry %d", seq)
	}
	return nil
}
