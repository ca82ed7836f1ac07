// internal/config/salt.go
//
// Identity-salt resolution, including Vault references.
//
// The configured salt is either a literal string or a reference of the
// form `vault:<mount/path>#<key>`.  References keep the production salt
// out of flat files and shell history; the literal form exists for
// development and tests.  Resolution happens once per run, before any
// identity is derived.

package config

import (
	"context"
	"fmt"
	"strings"
)

const vaultPrefix = "vault:"

// SecretFetcher is satisfied by the Vault client; declared here so the
// package does not depend on the Vault SDK.
type SecretFetcher interface {
	GetKV(ctx context.Context, secretPath, key string) (string, error)
}

// IsVaultRef reports whether the configured salt needs Vault.
func (m Migration) IsVaultRef() bool {
	return strings.HasPrefix(m.Salt, vaultPrefix)
}

// ResolveSalt returns the literal salt, or fetches it through kv when
// the value is a Vault reference.  kv may be nil for literal salts.
func (m Migration) ResolveSalt(ctx context.Context, kv SecretFetcher) (string, error) {
	if !m.IsVaultRef() {
		return m.Salt, nil
	}
	if kv == nil {
		return "", fmt.Errorf("salt %q is a vault reference but no vault client is configured", m.Salt)
	}

	ref := strings.TrimPrefix(m.Salt, vaultPrefix)
	path, key, ok := strings.Cut(ref, "#")
	if !ok || path == "" || key == "" {
		return "", fmt.Errorf("malformed vault salt reference %q (want vault:<path>#<key>)", m.Salt)
	}

	val, err := kv.GetKV(ctx, path, key)
	if err != nil {
		return "", fmt.Errorf("resolve salt from vault: %w", err)
	}
	return val, nil
}
