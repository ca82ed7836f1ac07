// internal/docstore/client.go
//
// Target document-store connection.
//
// Context
// -------
// Two targets exist: the local Firestore emulator for rehearsal runs and
// the production project.  The emulator needs no credentials, only the
// FIRESTORE_EMULATOR_HOST variable the SDK honours; production refuses
// to start without an externally supplied credential reference so a
// mis-aimed rehearsal can never touch live data.

package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
)

// Target selects the document-store environment.
type Target string

const (
	TargetEmulator Target = "emulator"
	TargetProd     Target = "prod"
)

const defaultEmulatorHost = "127.0.0.1:8080"

// ParseTarget validates a -target flag value.
func ParseTarget(s string) (Target, error) {
	switch Target(s) {
	case TargetEmulator, TargetProd:
		return Target(s), nil
	default:
		return "", fmt.Errorf("unknown target %q (want emulator or prod)", s)
	}
}

// Dial opens a client for the selected target.  projectID may be empty:
// the emulator accepts a placeholder, and production falls back to
// credential-based project detection.
func Dial(ctx context.Context, target Target, projectID string) (*firestore.Client, error) {
	switch target {
	case TargetEmulator:
		if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
			os.Setenv("FIRESTORE_EMULATOR_HOST", defaultEmulatorHost)
		}
		if projectID == "" {
			projectID = "nymport-emulator"
		}
	case TargetProd:
		if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" {
			return nil, errors.New("GOOGLE_APPLICATION_CREDENTIALS is required for prod runs")
		}
		if projectID == "" {
			projectID = firestore.DetectProjectID
		}
	default:
		return nil, fmt.Errorf("unknown target %q", target)
	}

	cli, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("dial firestore (%s): %w", target, err)
	}
	return cli, nil
}
