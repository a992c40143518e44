package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLogger_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.log")

	l := &Logger{enabled: true}
	if err := l.SetOutput(path); err != nil {
		t.Fatalf("SetOutput failed: %v", err)
	}
	defer l.Close()

	l.Log(&RequestLog{
		RequestID:  "req-1",
		Feature:    "POST /api/drafts",
		Status:     200,
		DurationMs: 42,
		Cached:     true,
		Success:    true,
	})
	l.Log(&RequestLog{
		RequestID: "req-2",
		Feature:   "POST /api/radar",
		Status:    429,
		Success:   false,
		Error:     "daily limit reached",
	})
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := splitLines(data)
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}

	var first RequestLog
	if err := json.Unmarshal(lines[0], &first); err != nil {
		t.Fatalf("log line is not valid JSON: %v", err)
	}
	if first.RequestID != "req-1" || !first.Cached || !first.Success {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if first.Timestamp.IsZero() {
		t.Fatal("entries must be timestamped")
	}

	var second RequestLog
	if err := json.Unmarshal(lines[1], &second); err != nil {
		t.Fatalf("log line is not valid JSON: %v", err)
	}
	if second.Status != 429 || second.Error != "daily limit reached" {
		t.Fatalf("unexpected second entry: %+v", second)
	}
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			if i > start {
				lines = append(lines, data[start:i])
			}
			start = i + 1
		}
	}
	return lines
}
