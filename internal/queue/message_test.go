package queue

import (
	"reflect"
	"strings"
	"testing"
)

func TestMessageRoundTrip(t *testing.T) {
	msg := Message{
		DocumentID: "doc-123",
		UserID:     "user-456",
		Engine:     "azure",
		RequestID:  "request-789",
		EnqueuedAt: "2026-01-30T22:00:00Z",
		Version:    1,
	}

	payload, err := EncodeMessage(msg)
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}

	got, err := DecodeMessage(payload)
	if err != nil {
		t.Fatalf("decode message: %v", err)
	}

	if !reflect.DeepEqual(got, msg) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, msg)
	}
}

func TestMessageOmitsEmptyEngine(t *testing.T) {
	payload, err := EncodeMessage(Message{DocumentID: "doc-1", UserID: "user-1", Version: 1})
	if err != nil {
		t.Fatalf("encode message: %v", err)
	}
	if strings.Contains(string(payload), "engine") {
		t.Fatalf("expected engine omitted, got %s", payload)
	}
}

func TestDecodeMessageRejectsBadJSON(t *testing.T) {
	if _, err := DecodeMessage([]byte("{nope")); err == nil {
		t.Fatal("expected decode error")
	}
}
