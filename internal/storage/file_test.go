package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileRecorder_AppendAndLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "logs", "log.jsonl")
	rec, err := NewFileRecorder(p)
	if err != nil {
		t.Fatalf("init recorder: %v", err)
	}

	ev1 := Event{Timestamp: time.Unix(1, 0).UTC(), UserID: "1", UserMessage: "hi", AssistantResponse: "hello", Delta: 3, Score: 53}
	ev2 := Event{Timestamp: time.Unix(2, 0).UTC(), UserID: "2", UserMessage: "foo", AssistantResponse: "bar", Score: 50}
	if err := rec.AppendInteraction(ev1); err != nil {
		t.Fatalf("append1: %v", err)
	}
	if err := rec.AppendInteraction(ev2); err != nil {
		t.Fatalf("append2: %v", err)
	}

	events, err := rec.LoadInteractions()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("want 2, got %d", len(events))
	}
	if events[0].UserID != "1" || events[1].UserID != "2" || events[0].Delta != 3 || events[0].Score != 53 {
		t.Fatalf("unexpected events: %+v", events)
	}

	st, err := os.Stat(p)
	if err != nil || st.Size() == 0 {
		t.Fatalf("file not written")
	}
}

func TestFileRecorder_SkipsPartialLine(t *testing.T) {
	p := filepath.Join(t.TempDir(), "log.jsonl")
	rec, err := NewFileRecorder(p)
	if err != nil {
		t.Fatalf("init recorder: %v", err)
	}
	if err := rec.AppendInteraction(Event{UserID: "1"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	f, _ := os.OpenFile(p, os.O_APPEND|os.O_WRONLY, 0o644)
	_, _ = f.WriteString(`{"user_id": "2", "user_mes`)
	_ = f.Close()

	events, err := rec.LoadInteractions()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 1 || events[0].UserID != "1" {
		t.Fatalf("unexpected events: %+v", events)
	}
}
