// internal/interchange/jsonl_test.go
//
// Round-trip tests for the JSONL interchange format.

package interchange

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yanizio/nymport/internal/transform"
)

func TestRoundTrip(t *testing.T) {
	created := time.Date(2023, 5, 2, 9, 30, 0, 0, time.UTC)
	docs := []transform.Doc{
		{
			Path: "scopes/1/rooms/legacy:100",
			Data: map[string]any{
				"title":         "general",
				"locked":        false,
				"createdAt":     created,
				"plannedLock":   nil,
				"messagesCount": int64(3),
				"settings":      map[string]any{"cloakMode": true},
			},
		},
		{
			Path: "scopes/1/rooms/legacy:100/messages/legacy:1",
			Data: map[string]any{
				// Message text mentioning a year must never be fed to
				// the time parser.
				"text":      "not a 2023 timestamp",
				"createdAt": created,
			},
		},
	}

	path := filepath.Join(t.TempDir(), "rooms.jsonl")
	if err := WriteFile(path, docs); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(got) != len(docs) {
		t.Fatalf("read %d docs, want %d", len(got), len(docs))
	}
	if got[0].Path != docs[0].Path {
		t.Errorf("path = %q", got[0].Path)
	}

	ts, ok := got[0].Data["createdAt"].(time.Time)
	if !ok {
		t.Fatalf("createdAt not revived: %T", got[0].Data["createdAt"])
	}
	if !ts.Equal(created) {
		t.Errorf("createdAt = %v, want %v", ts, created)
	}
	if got[0].Data["plannedLock"] != nil {
		t.Errorf("plannedLock = %v, want nil", got[0].Data["plannedLock"])
	}
	if got[1].Data["text"] != "not a 2023 timestamp" {
		t.Errorf("message text mangled: %v", got[1].Data["text"])
	}

	nested, ok := got[0].Data["settings"].(map[string]any)
	if !ok || nested["cloakMode"] != true {
		t.Errorf("nested settings = %v", got[0].Data["settings"])
	}
}

func TestReadFile_BlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sparse.jsonl")
	content := "\n{\"path\":\"scopes/1\",\"data\":{\"name\":\"North\"}}\n\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	docs, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(docs) != 1 || docs[0].Data["name"] != "North" {
		t.Fatalf("docs = %+v", docs)
	}
}

func TestReadFile_BadLineReportsPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsonl")
	content := "{\"path\":\"scopes/1\",\"data\":{}}\n{oops\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := ReadFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}
