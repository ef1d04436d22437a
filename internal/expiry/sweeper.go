// Package expiry runs the daily document-expiry reminder sweep.
package expiry

import (
	"context"
	"math"
	"sort"
	"time"

	"docvault-backend/internal/documents"
	"docvault-backend/internal/shared/metrics"
	"docvault-backend/internal/shared/telemetry"
)

// DefaultThresholds are the reminder distances in days. A document gets at
// most one reminder per threshold; the smallest threshold still ahead of the
// expiry date wins on each sweep.
var DefaultThresholds = []int{7, 30, 60, 90}

const sweepHourUTC = 2

// Notifier delivers one reminder. The default implementation only logs;
// email/push delivery is an external collaborator.
type Notifier interface {
	ExpiryApproaching(ctx context.Context, doc documents.Document, daysLeft, threshold int)
}

// LogNotifier logs reminders and counts them.
type LogNotifier struct{}

// ExpiryApproaching logs the reminder.
func (LogNotifier) ExpiryApproaching(_ context.Context, doc documents.Document, daysLeft, threshold int) {
	telemetry.Info("expiry.reminder", map[string]any{
		"document_id":   doc.ID,
		"user_id":       doc.UserID,
		"document_type": doc.DocumentType,
		"days_left":     daysLeft,
		"threshold":     threshold,
	})
}

// Sweeper scans for documents expiring inside the look-ahead window and
// notifies once per threshold. Deleted and replaced documents never match;
// the repository query excludes them.
type Sweeper struct {
	Repo       documents.DocumentsRepo
	Reminders  ReminderLog
	Notifier   Notifier
	Thresholds []int
	Now        func() time.Time
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Sweeper) thresholds() []int {
	t := s.Thresholds
	if len(t) == 0 {
		t = DefaultThresholds
	}
	out := append([]int(nil), t...)
	sort.Ints(out)
	return out
}

// Run performs one sweep. Safe to invoke repeatedly; the watermark keeps
// reminders idempotent per threshold-per-document.
func (s *Sweeper) Run(ctx context.Context) error {
	now := s.now()
	thresholds := s.thresholds()
	lookahead := thresholds[len(thresholds)-1]

	docs, err := s.Repo.ExpiringBetween(ctx, now, now.AddDate(0, 0, lookahead))
	if err != nil {
		return err
	}

	for _, doc := range docs {
		expiry := doc.Metadata.ExpiryDate
		if expiry == nil {
			continue
		}
		daysLeft := daysUntil(now, *expiry)
		threshold, ok := matchThreshold(thresholds, daysLeft)
		if !ok {
			continue
		}

		first, err := s.Reminders.MarkSent(ctx, doc.ID, threshold, now)
		if err != nil {
			telemetry.Error("expiry.watermark_failed", map[string]any{
				"document_id": doc.ID,
				"err":         err.Error(),
			})
			continue
		}
		if !first {
			continue
		}

		if s.Notifier != nil {
			s.Notifier.ExpiryApproaching(ctx, doc, daysLeft, threshold)
		}
		metrics.IncExpiryRemindersSent()
	}

	telemetry.Info("expiry.sweep_complete", map[string]any{
		"scanned": len(docs),
	})
	return nil
}

// Start launches the daily schedule. Returns immediately; the loop stops
// when ctx is canceled.
func (s *Sweeper) Start(ctx context.Context) {
	go func() {
		for {
			next := nextRunAfter(s.now())
			timer := time.NewTimer(next.Sub(s.now()))
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			if err := s.Run(ctx); err != nil {
				telemetry.Error("expiry.sweep_failed", map[string]any{"err": err.Error()})
			}
		}
	}()
}

// nextRunAfter returns the next 02:00 UTC boundary strictly after t.
func nextRunAfter(t time.Time) time.Time {
	t = t.UTC()
	next := time.Date(t.Year(), t.Month(), t.Day(), sweepHourUTC, 0, 0, 0, time.UTC)
	if !next.After(t) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// daysUntil rounds up: a document expiring in 6.5 days has 7 days left.
func daysUntil(now, expiry time.Time) int {
	return int(math.Ceil(expiry.Sub(now).Hours() / 24))
}

// matchThreshold picks the smallest threshold the remaining days fit under.
func matchThreshold(sorted []int, daysLeft int) (int, bool) {
	for _, t := range sorted {
		if daysLeft <= t {
			return t, true
		}
	}
	return 0, false
}
