// internal/nym/nym_test.go
//
// Unit-tests for the canonical identity derivation.
//
// The vector values below were produced by an independent reference
// implementation of the documented algorithm; they pin the word list,
// the digest offsets, and the glyph layout.  Any change to those is a
// breaking change for every identity already migrated.

package nym

import (
	"strings"
	"testing"
)

func TestDerive_Vectors(t *testing.T) {
	cases := []struct {
		scopeID string
		userID  int64
		salt    string
		tag     string
		glyph   string
	}{
		{
			"1", 42, "dev-salt",
			"nym:nebula-937",
			"1010100101110000010000010110100000011111100101101001010011110111",
		},
		{
			"1", 43, "dev-salt",
			"nym:stardust-921",
			"0100001011111100110100010101111011000101011110011111111001010110",
		},
		{
			"7", 9001, "pepper",
			"nym:nebula-602",
			"0101100101110101111110100101100111110110001010010110101101001000",
		},
		{
			"2", 42, "dev-salt",
			"nym:stardust-497",
			"0111101001101110100010010110101001010110110100110100011100101101",
		},
	}

	for _, c := range cases {
		got := Derive(c.scopeID, c.userID, c.salt)
		if got.PseudoID != PseudoID(c.userID) {
			t.Errorf("Derive(%s,%d): pseudo id = %q", c.scopeID, c.userID, got.PseudoID)
		}
		if got.Tag != c.tag {
			t.Errorf("Derive(%s,%d): tag = %q, want %q", c.scopeID, c.userID, got.Tag, c.tag)
		}
		if got.AvatarBits != c.glyph {
			t.Errorf("Derive(%s,%d): glyph = %q, want %q", c.scopeID, c.userID, got.AvatarBits, c.glyph)
		}
	}
}

func TestDerive_Deterministic(t *testing.T) {
	first := Derive("42", 7, "salt")
	for i := 0; i < 100; i++ {
		if got := Derive("42", 7, "salt"); got != first {
			t.Fatalf("iteration %d: %+v != %+v", i, got, first)
		}
	}
}

// Distinct users in the same scope should usually get distinct tags, but
// the tag space is small (8 words x 900 numbers), so collisions are
// legal.  Assert a healthy spread, never exact uniqueness.
func TestDerive_Spread(t *testing.T) {
	seen := make(map[string]struct{})
	const n = 200
	for id := int64(1); id <= n; id++ {
		seen[Derive("1", id, "dev-salt").Tag] = struct{}{}
	}
	if len(seen) < n*9/10 {
		t.Fatalf("only %d distinct tags out of %d", len(seen), n)
	}
}

func TestDerive_GlyphShape(t *testing.T) {
	g := Derive("3", 1, "s").AvatarBits
	if len(g) != GlyphBits {
		t.Fatalf("glyph length = %d, want %d", len(g), GlyphBits)
	}
	if strings.Trim(g, "01") != "" {
		t.Fatalf("glyph contains non-bit runes: %q", g)
	}
}

// Scope partitions identity: the same legacy user must read differently
// in different scopes.
func TestDerive_ScopeIsolation(t *testing.T) {
	a := Derive("1", 42, "dev-salt")
	b := Derive("2", 42, "dev-salt")
	if a.Tag == b.Tag && a.AvatarBits == b.AvatarBits {
		t.Fatalf("scopes 1 and 2 derived identical identities for user 42")
	}
	if a.PseudoID != b.PseudoID {
		t.Fatalf("pseudo id must not vary by scope: %q vs %q", a.PseudoID, b.PseudoID)
	}
}
