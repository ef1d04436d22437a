package expiry

import (
	"context"
	"database/sql"
	"sync"
	"time"
)

// ReminderLog is the idempotency watermark: one reminder per document per
// threshold, ever.
type ReminderLog interface {
	// MarkSent records a reminder and reports whether this call was the
	// first for the document/threshold pair.
	MarkSent(ctx context.Context, documentID string, thresholdDays int, at time.Time) (bool, error)
}

// PGReminderLog persists watermarks in Postgres.
type PGReminderLog struct {
	DB *sql.DB
}

// MarkSent inserts the watermark; the unique constraint makes repeats no-ops.
func (r *PGReminderLog) MarkSent(ctx context.Context, documentID string, thresholdDays int, at time.Time) (bool, error) {
	const query = `
INSERT INTO expiry_reminders (document_id, threshold_days, sent_at)
VALUES ($1, $2, $3)
ON CONFLICT (document_id, threshold_days) DO NOTHING`

	res, err := r.DB.ExecContext(ctx, query, documentID, thresholdDays, at)
	if err != nil {
		return false, err
	}
	affected, _ := res.RowsAffected()
	return affected > 0, nil
}

// MemoryReminderLog is the dev-mode watermark store.
type MemoryReminderLog struct {
	mu   sync.Mutex
	sent map[string]map[int]bool
}

// NewMemoryReminderLog constructs a MemoryReminderLog.
func NewMemoryReminderLog() *MemoryReminderLog {
	return &MemoryReminderLog{sent: make(map[string]map[int]bool)}
}

// MarkSent records the pair in memory.
func (r *MemoryReminderLog) MarkSent(_ context.Context, documentID string, thresholdDays int, _ time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sent[documentID] == nil {
		r.sent[documentID] = make(map[int]bool)
	}
	if r.sent[documentID][thresholdDays] {
		return false, nil
	}
	r.sent[documentID][thresholdDays] = true
	return true, nil
}

var (
	_ ReminderLog = (*PGReminderLog)(nil)
	_ ReminderLog = (*MemoryReminderLog)(nil)
)
