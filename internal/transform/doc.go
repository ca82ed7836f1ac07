// internal/transform/doc.go
//
// Target document model shared by the transformer, the interchange
// files, and the batch writer.

package transform

// Doc is one target document: a slash-delimited path and a merge
// payload.  Data values are JSON-friendly (strings, numbers, bools,
// time.Time, nested maps, nil); the writer merges only the keys present
// here, leaving other fields at the path untouched.
type Doc struct {
	Path string         `json:"path"`
	Data map[string]any `json:"data"`
}

// Skips counts source rows dropped for unresolvable references.  Gaps
// are expected in a legacy dataset and are reported, never fatal.
type Skips struct {
	Rooms       int
	Memberships int
	Messages    int
}

// Result groups the produced documents by kind.  Parents come before
// children in All so an import into an empty store creates scope docs
// first, though correctness never depends on write order.
type Result struct {
	Scopes      []Doc
	Rooms       []Doc
	Users       []Doc
	Memberships []Doc
	Messages    []Doc

	Skipped Skips
}

// Total is the number of documents across all kinds.
func (r *Result) Total() int {
	return len(r.Scopes) + len(r.Rooms) + len(r.Users) +
		len(r.Memberships) + len(r.Messages)
}

// All returns every document in parent-first order.
func (r *Result) All() []Doc {
	out := make([]Doc, 0, r.Total())
	out = append(out, r.Scopes...)
	out = append(out, r.Rooms...)
	out = append(out, r.Users...)
	out = append(out, r.Memberships...)
	out = append(out, r.Messages...)
	return out
}
