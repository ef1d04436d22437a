package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"docvault-backend/internal/doctypes"
	"docvault-backend/internal/documents"
	"docvault-backend/internal/ocr"
	"docvault-backend/internal/queue"
)

const passportText = `REPUBLIC OF TESTLAND
Passport No: AB123456
Name: JANE DOE
Nationality: TESTLAND
Date of Birth: 12/03/1990
Date of Expiry: 20/06/2031`

type fixedStore struct {
	content string
	openErr error
}

func (s *fixedStore) Save(ctx context.Context, userId, fileName string, r io.Reader) (string, int64, string, error) {
	return "", 0, "", errors.New("not supported in tests")
}

func (s *fixedStore) Open(ctx context.Context, storageKey string) (io.ReadCloser, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	return io.NopCloser(strings.NewReader(s.content)), nil
}

type fixedEngine struct {
	name   string
	result ocr.Result
	err    error
}

func (e *fixedEngine) Name() string { return e.name }

func (e *fixedEngine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if e.err != nil {
		return ocr.Result{}, e.err
	}
	return e.result, nil
}

type doneNotifier struct {
	done chan struct{}
	last documents.Analysis
}

func newDoneNotifier() *doneNotifier {
	return &doneNotifier{done: make(chan struct{}, 1)}
}

func (n *doneNotifier) AnalysisCompleted(_ context.Context, _ documents.Document, result documents.Analysis) {
	n.last = result
	n.done <- struct{}{}
}

func seedPipelineDoc(t *testing.T, repo *documents.MemoryRepo) documents.Document {
	t.Helper()
	now := time.Now().UTC()
	doc := documents.Document{
		ID:           "doc-1",
		UserID:       "user-1",
		DocumentType: "passport",
		FileName:     "scan.pdf",
		MimeType:     "application/pdf",
		SizeBytes:    2 << 20,
		StorageKey:   "users/user-1/scan.pdf",
		Status:       documents.StatusUploaded,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return doc
}

func buildRunner(repo *documents.MemoryRepo, engine ocr.Engine, store *fixedStore, notifier Notifier) *Runner {
	return &Runner{
		Repo:  repo,
		Store: store,
		Selector: &ocr.Selector{
			Local:      engine,
			CloudReady: func() bool { return false },
		},
		Catalog:  doctypes.NewStaticCatalog(doctypes.Defaults()),
		Notifier: notifier,
	}
}

func TestProcessWritesAnalysisAndAudit(t *testing.T) {
	repo := documents.NewMemoryRepo()
	seedPipelineDoc(t, repo)

	engine := &fixedEngine{name: "local", result: ocr.Result{Text: passportText, Confidence: 0.95}}
	notifier := newDoneNotifier()
	runner := buildRunner(repo, engine, &fixedStore{content: "raw bytes"}, notifier)

	if err := runner.Process(context.Background(), "user-1", "doc-1", ""); err != nil {
		t.Fatalf("process: %v", err)
	}

	got, err := repo.GetByID(context.Background(), "user-1", "doc-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Analysis == nil {
		t.Fatal("analysis not written")
	}
	if got.Analysis.EngineUsed != "local" {
		t.Fatalf("engine used %q", got.Analysis.EngineUsed)
	}
	if got.Analysis.OverallScore <= 0 {
		t.Fatalf("expected positive overall score, got %d", got.Analysis.OverallScore)
	}
	if got.Analysis.ExtractedFields["passportNumber"] != "AB123456" {
		t.Fatalf("extraction missing: %+v", got.Analysis.ExtractedFields)
	}

	var analyzed bool
	for _, entry := range got.AuditTrail {
		if entry.Action == documents.AuditAnalyze && entry.Actor == "system" {
			analyzed = true
		}
	}
	if !analyzed {
		t.Fatalf("analyze audit entry missing: %+v", got.AuditTrail)
	}

	select {
	case <-notifier.done:
	default:
		t.Fatal("notifier not invoked")
	}
	if notifier.last.EngineUsed != "local" {
		t.Fatalf("notifier saw wrong record: %+v", notifier.last)
	}
}

func TestProcessDegradesOnRecognitionFailure(t *testing.T) {
	repo := documents.NewMemoryRepo()
	seedPipelineDoc(t, repo)

	engine := &fixedEngine{name: "local", err: ocr.ErrUnsupportedInput}
	runner := buildRunner(repo, engine, &fixedStore{content: "raw bytes"}, nil)

	if err := runner.Process(context.Background(), "user-1", "doc-1", ""); err != nil {
		t.Fatalf("recognition failure must not propagate: %v", err)
	}

	got, _ := repo.GetByID(context.Background(), "user-1", "doc-1")
	if got.Analysis == nil {
		t.Fatal("degraded report not written")
	}
	if got.Analysis.OverallScore != 0 {
		t.Fatalf("degraded report should score zero, got %d", got.Analysis.OverallScore)
	}
	if len(got.Analysis.Issues) == 0 {
		t.Fatal("degraded report should carry an error issue")
	}
	if got.Analysis.EngineUsed != "" {
		t.Fatalf("no engine ran, got %q", got.Analysis.EngineUsed)
	}
}

func TestProcessDegradesOnStorageOpenFailure(t *testing.T) {
	repo := documents.NewMemoryRepo()
	seedPipelineDoc(t, repo)

	engine := &fixedEngine{name: "local", result: ocr.Result{Text: passportText, Confidence: 0.95}}
	runner := buildRunner(repo, engine, &fixedStore{openErr: errors.New("object gone")}, nil)

	if err := runner.Process(context.Background(), "user-1", "doc-1", ""); err != nil {
		t.Fatalf("open failure must degrade, not propagate: %v", err)
	}
	got, _ := repo.GetByID(context.Background(), "user-1", "doc-1")
	if got.Analysis == nil || got.Analysis.OverallScore != 0 {
		t.Fatalf("expected zero-score degraded report, got %+v", got.Analysis)
	}
}

func TestProcessMissingDocument(t *testing.T) {
	repo := documents.NewMemoryRepo()
	engine := &fixedEngine{name: "local"}
	runner := buildRunner(repo, engine, &fixedStore{}, nil)

	err := runner.Process(context.Background(), "user-1", "nope", "")
	if !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type captureQueue struct {
	sent []queue.Message
	err  error
}

func (q *captureQueue) Send(_ context.Context, msg queue.Message) error {
	q.sent = append(q.sent, msg)
	return q.err
}

func TestQueueEnricherSchedulesMessage(t *testing.T) {
	client := &captureQueue{}
	enricher := &QueueEnricher{Client: client}
	ctx := WithRequestID(context.Background(), "req-42")

	if err := enricher.Schedule(ctx, "user-1", "doc-1", "azure"); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if len(client.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(client.sent))
	}
	msg := client.sent[0]
	if msg.DocumentID != "doc-1" || msg.UserID != "user-1" || msg.Engine != "azure" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.RequestID != "req-42" {
		t.Fatalf("request id not carried: %q", msg.RequestID)
	}
	if msg.EnqueuedAt == "" || msg.Version != 1 {
		t.Fatalf("message envelope incomplete: %+v", msg)
	}
}

func TestQueueEnricherPropagatesSendFailure(t *testing.T) {
	client := &captureQueue{err: errors.New("queue down")}
	enricher := &QueueEnricher{Client: client}

	if err := enricher.Schedule(context.Background(), "user-1", "doc-1", ""); err == nil {
		t.Fatal("expected send failure")
	}
}

func TestInlineEnricherRunsDetached(t *testing.T) {
	repo := documents.NewMemoryRepo()
	seedPipelineDoc(t, repo)

	engine := &fixedEngine{name: "local", result: ocr.Result{Text: passportText, Confidence: 0.95}}
	notifier := newDoneNotifier()
	runner := buildRunner(repo, engine, &fixedStore{content: "raw bytes"}, notifier)
	enricher := &InlineEnricher{Runner: runner, Timeout: 5 * time.Second}

	// A canceled caller context must not cancel the background run.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := enricher.Schedule(ctx, "user-1", "doc-1", ""); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	select {
	case <-notifier.done:
	case <-time.After(5 * time.Second):
		t.Fatal("inline enrichment did not finish")
	}

	got, err := repo.GetByID(context.Background(), "user-1", "doc-1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Analysis == nil {
		t.Fatal("analysis not written")
	}
}

func TestRequestIDContextRoundTrip(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Fatalf("empty context should yield empty id, got %q", got)
	}
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestIDFromContext(ctx); got != "req-1" {
		t.Fatalf("round trip failed: %q", got)
	}
	if same := WithRequestID(ctx, ""); RequestIDFromContext(same) != "req-1" {
		t.Fatal("empty id must not overwrite an existing one")
	}
}
