package workerproc

import (
	"context"
	"errors"
	"testing"

	"docvault-backend/internal/pipeline"
	"docvault-backend/internal/queue"
)

type recordingProcessor struct {
	err        error
	userID     string
	documentID string
	engine     string
	requestID  string
	calls      int
}

func (p *recordingProcessor) Process(ctx context.Context, userID, documentID, enginePref string) error {
	p.calls++
	p.userID = userID
	p.documentID = documentID
	p.engine = enginePref
	p.requestID = pipeline.RequestIDFromContext(ctx)
	return p.err
}

func TestParseMessageEmptyBody(t *testing.T) {
	for _, body := range []string{"", "   ", "\n\t"} {
		_, meta, err := ParseMessage(body)
		var empty ErrEmptyBody
		if !errors.As(err, &empty) {
			t.Fatalf("body %q: expected ErrEmptyBody, got %v", body, err)
		}
		if meta.BodyLen != len(body) {
			t.Fatalf("body %q: meta length %d", body, meta.BodyLen)
		}
	}
}

func TestParseMessageDecodeFailure(t *testing.T) {
	_, meta, err := ParseMessage("{not json")
	var decode ErrDecode
	if !errors.As(err, &decode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if decode.Err == nil {
		t.Fatal("decode error should carry the cause")
	}
	if meta.BodySHA == "" || meta.BodyLen == 0 {
		t.Fatalf("meta should describe the body: %+v", meta)
	}
}

func TestParseMessageMissingIdentity(t *testing.T) {
	cases := []string{
		`{"documentId":"doc-1","requestId":"req-1"}`,
		`{"userId":"user-1"}`,
		`{"documentId":"  ","userId":"user-1"}`,
	}
	for _, body := range cases {
		_, _, err := ParseMessage(body)
		var missing ErrMissingIdentity
		if !errors.As(err, &missing) {
			t.Fatalf("body %s: expected ErrMissingIdentity, got %v", body, err)
		}
	}
}

func TestParseMessageValid(t *testing.T) {
	msg, meta, err := ParseMessage(`{"documentId":"doc-1","userId":"user-1","engine":"azure","requestId":"req-9"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if msg.DocumentID != "doc-1" || msg.UserID != "user-1" || msg.Engine != "azure" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if meta.BodySHA == "" {
		t.Fatal("meta missing hash")
	}
}

func TestHandleMessageProcessesValidPayload(t *testing.T) {
	proc := &recordingProcessor{}
	body := `{"documentId":"doc-1","userId":"user-1","engine":"local","requestId":"req-7"}`

	if err := HandleMessage(context.Background(), proc, body); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if proc.calls != 1 || proc.userID != "user-1" || proc.documentID != "doc-1" || proc.engine != "local" {
		t.Fatalf("processor saw wrong arguments: %+v", proc)
	}
	if proc.requestID != "req-7" {
		t.Fatalf("request id not propagated: %q", proc.requestID)
	}
}

func TestHandleMessageWrapsProcessFailure(t *testing.T) {
	cause := errors.New("db unavailable")
	proc := &recordingProcessor{err: cause}
	body := `{"documentId":"doc-1","userId":"user-1"}`

	err := HandleMessage(context.Background(), proc, body)
	var pe ErrProcess
	if !errors.As(err, &pe) {
		t.Fatalf("expected ErrProcess, got %v", err)
	}
	if pe.DocumentID != "doc-1" || !errors.Is(pe.Err, cause) {
		t.Fatalf("wrapped error incomplete: %+v", pe)
	}
}

func TestHandleMessageReturnsParseErrors(t *testing.T) {
	proc := &recordingProcessor{}

	err := HandleMessage(context.Background(), proc, "{broken")
	var decode ErrDecode
	if !errors.As(err, &decode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if proc.calls != 0 {
		t.Fatal("processor must not run on a poison message")
	}
}

func TestHandleMessageReusesParsedMessage(t *testing.T) {
	proc := &recordingProcessor{}
	msg := queue.Message{DocumentID: "doc-2", UserID: "user-2", Engine: "azure", RequestID: "req-2"}
	ctx := WithParsedMessage(context.Background(), msg)

	if err := HandleMessage(ctx, proc, "ignored body"); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if proc.documentID != "doc-2" || proc.userID != "user-2" || proc.requestID != "req-2" {
		t.Fatalf("parsed message not reused: %+v", proc)
	}
}

func TestHandleMessageRejectsIncompleteParsedMessage(t *testing.T) {
	proc := &recordingProcessor{}
	ctx := WithParsedMessage(context.Background(), queue.Message{DocumentID: "doc-3"})

	err := HandleMessage(ctx, proc, "")
	var missing ErrMissingIdentity
	if !errors.As(err, &missing) {
		t.Fatalf("expected ErrMissingIdentity, got %v", err)
	}
	if proc.calls != 0 {
		t.Fatal("processor must not run without a user id")
	}
}

func TestHandleMessageNilProcessor(t *testing.T) {
	if err := HandleMessage(context.Background(), nil, `{"documentId":"d","userId":"u"}`); err == nil {
		t.Fatal("expected error for nil processor")
	}
}
