// cmd/nymport/main.go
//
// nymport – legacy forum/chat migration CLI.
//
// Command surface
// ---------------
//
//	nymport export   [-output DIR]
//	nymport import   [-output DIR] [-target emulator|prod] [-dry-run]
//	nymport validate [-target emulator|prod]
//
// Boot sequence
// -------------
//
//  1. Load env vars (jail-wide file → conf/.env fallback).
//
//  2. Parse the subcommand and its flags.
//
//  3. Load the layered config and start the daily rotating logger
//     (tees to console when running in a TTY).
//
//  4. Resolve the identity salt, through Vault when configured.
//
//  5. Optionally expose Prometheus /metrics for long runs.
//
//  6. Run the phase under a signal-aware context; an interrupt stops
//     issuing batches, and a later re-run is safe because every write
//     is a merge by path.
//
// Any fatal error exits non-zero after logging.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yanizio/nymport/internal/config"
	"github.com/yanizio/nymport/internal/docstore"
	"github.com/yanizio/nymport/internal/logger"
	"github.com/yanizio/nymport/internal/metrics"
	"github.com/yanizio/nymport/internal/pipeline"
	"github.com/yanizio/nymport/internal/vault"
)

const serverEnvPath = "/usr/local/etc/nymport/global.env"

// loadEnv prefers the jail-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func init() { loadEnv() }

func usage() {
	fmt.Fprintln(os.Stderr, "usage: nymport <export|import|validate> [flags]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	cmd, args := os.Args[1], os.Args[2:]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Paths.Root, runningInTTY())
	if err != nil {
		fmt.Fprintf(os.Stderr, "start logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr := cfg.Metrics.ListenAddr; addr != "" {
		metrics.Serve(addr, log)
	}

	switch cmd {
	case "export":
		err = runExport(ctx, cfg, args, log)
	case "import":
		err = runImport(ctx, cfg, args, log)
	case "validate":
		err = runValidate(ctx, cfg, args, log)
	default:
		usage()
	}
	if err != nil {
		log.Errorw("run failed", "cmd", cmd, "err", err)
		os.Exit(1)
	}
}

func runExport(ctx context.Context, cfg *config.Config, args []string, log *zap.SugaredLogger) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	output := fs.String("output", cfg.Migration.OutputDir, "output directory for JSONL files")
	fs.Parse(args)

	salt, err := resolveSalt(ctx, cfg)
	if err != nil {
		return err
	}
	return pipeline.Export(ctx, cfg, salt, *output, log)
}

func runImport(ctx context.Context, cfg *config.Config, args []string, log *zap.SugaredLogger) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	output := fs.String("output", cfg.Migration.OutputDir, "directory containing JSONL files")
	target := fs.String("target", string(docstore.TargetEmulator), "document-store target (emulator|prod)")
	dryRun := fs.Bool("dry-run", false, "only report intended writes")
	fs.Parse(args)

	tgt, err := docstore.ParseTarget(*target)
	if err != nil {
		return err
	}
	return pipeline.Import(ctx, cfg, *output, tgt, *dryRun, log)
}

func runValidate(ctx context.Context, cfg *config.Config, args []string, log *zap.SugaredLogger) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	target := fs.String("target", string(docstore.TargetEmulator), "document-store target (emulator|prod)")
	fs.Parse(args)

	tgt, err := docstore.ParseTarget(*target)
	if err != nil {
		return err
	}
	return pipeline.Validate(ctx, cfg, tgt, log)
}

// resolveSalt goes through Vault only when the config holds a vault
// reference; literal salts never touch the network.
func resolveSalt(ctx context.Context, cfg *config.Config) (string, error) {
	if !cfg.Migration.IsVaultRef() {
		return cfg.Migration.ResolveSalt(ctx, nil)
	}
	kv, err := vault.New()
	if err != nil {
		return "", err
	}
	return cfg.Migration.ResolveSalt(ctx, kv)
}
