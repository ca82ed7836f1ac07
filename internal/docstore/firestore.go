// internal/docstore/firestore.go
//
// Firestore-backed Store implementation and collection-group counting.

package docstore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/yanizio/nymport/internal/transform"
	"github.com/yanizio/nymport/internal/validate"
)

// Firestore adapts a *firestore.Client to the Store and validate.Counter
// interfaces.
type Firestore struct {
	Client *firestore.Client
}

// CommitBatch applies every document as a merge-set inside one write
// batch; the commit is atomic.
func (f *Firestore) CommitBatch(ctx context.Context, docs []transform.Doc) error {
	batch := f.Client.Batch()
	for _, d := range docs {
		batch.Set(f.Client.Doc(d.Path), d.Data, firestore.MergeAll)
	}
	if _, err := batch.Commit(ctx); err != nil {
		return fmt.Errorf("firestore commit: %w", err)
	}
	return nil
}

// Counts recounts rooms, messages, and memberships across all scopes via
// collection-group scans.  Key-only selects keep the reads cheap; no
// cached counter field is consulted.
func (f *Firestore) Counts(ctx context.Context) (validate.Counts, error) {
	var c validate.Counts
	var err error

	if c.Rooms, err = f.countGroup(ctx, "rooms"); err != nil {
		return validate.Counts{}, err
	}
	if c.Messages, err = f.countGroup(ctx, "messages"); err != nil {
		return validate.Counts{}, err
	}
	if c.Memberships, err = f.countGroup(ctx, "members"); err != nil {
		return validate.Counts{}, err
	}
	return c, nil
}

func (f *Firestore) countGroup(ctx context.Context, collection string) (int64, error) {
	it := f.Client.CollectionGroup(collection).Select().Documents(ctx)
	defer it.Stop()

	var n int64
	for {
		_, err := it.Next()
		if err == iterator.Done {
			return n, nil
		}
		if err != nil {
			return 0, fmt.Errorf("count collection group %s: %w", collection, err)
		}
		n++
	}
}
