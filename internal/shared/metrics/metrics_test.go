package metrics

import (
	"strings"
	"testing"
)

func TestRenderIncludesAllSeries(t *testing.T) {
	IncDocumentsUploaded()
	IncAnalysisStarted()
	IncAnalysisCompleted()
	IncExpiryRemindersSent()

	out := Render()
	for _, name := range []string{
		"documents_uploaded_total",
		"analysis_started_total",
		"analysis_completed_total",
		"analysis_failed_total",
		"analysis_jobs_received_total",
		"analysis_jobs_deleted_unrecoverable_total",
		"expiry_reminders_sent_total",
		"analysis_duration_ms_bucket",
		"analysis_duration_ms_sum",
		"analysis_duration_ms_count",
	} {
		if !strings.Contains(out, name) {
			t.Fatalf("missing series %s in:\n%s", name, out)
		}
	}
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{100, 500})
	h.Observe(50)
	h.Observe(300)
	h.Observe(70000)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("expected count 3, got %d", snap.count)
	}
	// Per-bucket counts; exposition accumulates them.
	if snap.counts[0] != 1 || snap.counts[1] != 1 {
		t.Fatalf("unexpected bucket counts: %v", snap.counts)
	}
	if snap.sum != 70350 {
		t.Fatalf("unexpected sum: %v", snap.sum)
	}
}
