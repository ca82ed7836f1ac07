// internal/pipeline/pipeline.go
//
// The three migration phases: export, import, validate.
//
// Context
// -------
// Export reads a full snapshot from Postgres, transforms it, and writes
// one JSONL file per document kind.  Import replays those files into
// the document store through the batch writer.  Validate recounts both
// stores and reports signed deltas.  The phases share nothing but the
// interchange directory, so each can be retried on its own; import is
// idempotent because every write is a merge by path.
//
// Fatal errors (bad config, unreachable store, failed batch commit)
// surface to the caller, which exits non-zero.  Referential gaps never
// do; they end up in the printed summary instead.

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/nymport/internal/config"
	"github.com/yanizio/nymport/internal/database"
	"github.com/yanizio/nymport/internal/docstore"
	"github.com/yanizio/nymport/internal/interchange"
	"github.com/yanizio/nymport/internal/legacy"
	"github.com/yanizio/nymport/internal/transform"
	"github.com/yanizio/nymport/internal/validate"
)

// Export runs source -> interchange files.
func Export(ctx context.Context, cfg *config.Config, salt, outDir string, log *zap.SugaredLogger) error {
	db, err := database.Open(cfg.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("connect source: %w", err)
	}
	defer db.Close()

	data, err := legacy.Load(ctx, db)
	if err != nil {
		return err
	}
	log.Infow("snapshot extracted",
		"scopes", len(data.Scopes),
		"rooms", len(data.Rooms),
		"users", len(data.Users),
		"messages", len(data.Messages),
		"memberships", len(data.Memberships),
	)

	res := transform.All(data, salt)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	files := []struct {
		name string
		docs []transform.Doc
	}{
		{interchange.ScopesFile, res.Scopes},
		{interchange.RoomsFile, res.Rooms},
		{interchange.UsersFile, res.Users},
		{interchange.MembershipsFile, res.Memberships},
		{interchange.MessagesFile, res.Messages},
	}
	for _, f := range files {
		if err := interchange.WriteFile(filepath.Join(outDir, f.name), f.docs); err != nil {
			return err
		}
	}

	fmt.Printf("export: %d documents written to %s (skipped: %d rooms, %d memberships, %d messages)\n",
		res.Total(), outDir,
		res.Skipped.Rooms, res.Skipped.Memberships, res.Skipped.Messages)
	return nil
}

// Import runs interchange files -> document store.  Missing files are
// warned about and skipped so a partial export directory can still be
// replayed.
func Import(ctx context.Context, cfg *config.Config, outDir string, target docstore.Target, dryRun bool, log *zap.SugaredLogger) error {
	cli, err := docstore.Dial(ctx, target, cfg.Firestore.ProjectID)
	if err != nil {
		return err
	}
	defer cli.Close()

	w := &docstore.Writer{
		Store:     &docstore.Firestore{Client: cli},
		BatchSize: cfg.Migration.BatchSize,
		Pause:     time.Duration(cfg.Migration.PauseMS) * time.Millisecond,
		DryRun:    dryRun,
	}

	var read, committed, batches int
	for _, name := range interchange.Files {
		path := filepath.Join(outDir, name)
		if _, err := os.Stat(path); err != nil {
			log.Warnw("skipping missing interchange file", "file", path)
			continue
		}
		docs, err := interchange.ReadFile(path)
		if err != nil {
			return err
		}
		read += len(docs)

		n, err := w.Write(ctx, docs)
		committed += n
		if err != nil {
			return fmt.Errorf("import %s: %w", name, err)
		}
		if !dryRun && len(docs) > 0 {
			batches += (len(docs) + w.BatchSize - 1) / w.BatchSize
		}
		log.Infow("file imported", "file", name, "docs", len(docs), "committed", n)
	}

	if dryRun {
		fmt.Printf("import (dry-run): %d documents read, 0 written\n", read)
		return nil
	}
	fmt.Printf("import: %d documents read, %d committed in %d batches to %s\n",
		read, committed, batches, target)
	return nil
}

// Validate recounts both stores and prints the reconciliation report.
// A mismatch is diagnostic output, not an error.
func Validate(ctx context.Context, cfg *config.Config, target docstore.Target, log *zap.SugaredLogger) error {
	db, err := database.Open(cfg.Postgres.DSN())
	if err != nil {
		return fmt.Errorf("connect source: %w", err)
	}
	defer db.Close()

	cli, err := docstore.Dial(ctx, target, cfg.Firestore.ProjectID)
	if err != nil {
		return err
	}
	defer cli.Close()

	src := validate.CounterFunc(func(ctx context.Context) (validate.Counts, error) {
		return legacy.Counts(ctx, db)
	})
	rep, err := validate.Run(ctx, src, &docstore.Firestore{Client: cli})
	if err != nil {
		return err
	}

	fmt.Printf("validate: %s\n", rep)
	if rep.Clean() {
		log.Infow("stores reconcile", "target", target)
	} else {
		log.Warnw("count mismatch", "target", target, "diff_rooms", rep.Diff.Rooms,
			"diff_messages", rep.Diff.Messages, "diff_memberships", rep.Diff.Memberships)
	}
	return nil
}
