// internal/interchange/jsonl.go
//
// JSONL interchange between export and import.
//
// Context
// -------
// Export and import are independently retryable phases; the contract
// between them is one file per document kind, each line a JSON object
// {"path": ..., "data": ...}.  JSON has no timestamp type, so time
// values round-trip as RFC 3339 strings and the reader revives them
// into time.Time recursively.  The document store then persists real
// timestamps instead of strings.

package interchange

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/yanizio/nymport/internal/transform"
)

// File names, parent kinds first.  Import walks this list in order so an
// empty target receives scope docs before their descendants.
const (
	ScopesFile      = "scopes.jsonl"
	RoomsFile       = "rooms.jsonl"
	UsersFile       = "users.jsonl"
	MembershipsFile = "memberships.jsonl"
	MessagesFile    = "messages.jsonl"
)

// Files lists every interchange file in import order.
var Files = []string{ScopesFile, RoomsFile, UsersFile, MembershipsFile, MessagesFile}

// maxLine bounds a single interchange line; message bodies are the
// largest payload and the legacy schema caps them well below this.
const maxLine = 1 << 20

// WriteFile writes one document per line.  The file is truncated first;
// a partial file from an aborted export is overwritten, never appended
// to.
func WriteFile(path string, docs []transform.Doc) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, d := range docs {
		if err := enc.Encode(d); err != nil {
			return fmt.Errorf("encode doc %s: %w", d.Path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// ReadFile loads every document from a JSONL file, reviving timestamp
// strings.  Blank lines are tolerated.
func ReadFile(path string) ([]transform.Doc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var docs []transform.Doc
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	line := 0
	for sc.Scan() {
		line++
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var d transform.Doc
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", path, line, err)
		}
		d.Data = reviveMap(d.Data)
		docs = append(docs, d)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return docs, nil
}

func reviveMap(m map[string]any) map[string]any {
	for k, v := range m {
		m[k] = revive(v)
	}
	return m
}

// revive converts RFC 3339 strings back into time.Time, descending into
// nested maps and arrays.  Anything else passes through unchanged.
func revive(v any) any {
	switch val := v.(type) {
	case string:
		if looksLikeTimestamp(val) {
			if ts, err := time.Parse(time.RFC3339Nano, val); err == nil {
				return ts
			}
		}
		return val
	case map[string]any:
		return reviveMap(val)
	case []any:
		for i, e := range val {
			val[i] = revive(e)
		}
		return val
	default:
		return v
	}
}

// looksLikeTimestamp is a cheap prefix check ("2023-05-01T...") so
// ordinary message text is never fed to the time parser.
func looksLikeTimestamp(s string) bool {
	if len(s) < 20 {
		return false
	}
	for i := 0; i < 4; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s[4] == '-' && s[7] == '-' && s[10] == 'T'
}
