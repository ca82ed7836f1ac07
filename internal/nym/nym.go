// internal/nym/nym.go
//
// Deterministic pseudonym derivation.
//
// Context
// -------
// Inside a scope every legacy user is addressed by a pseudonymous
// identity: a stable document id ("legacy:<numeric id>"), a
// human-readable tag ("nym:nebula-937"), and a 64-bit avatar glyph
// rendered by clients as an 8x8 grid.  All three derive from a single
// SHA-256 digest over scope id, pseudo id, and a secret salt, so any
// subsystem that calls Derive with the same triple gets bit-identical
// output across processes and restarts.
//
// The legacy codebase grew several divergent copies of this routine with
// different word lists and digest offsets.  This package is the one
// canonical implementation; nothing else in the tree hashes identities.
//
// Tag uniqueness is NOT guaranteed.  The tag space is eight words times
// nine hundred numbers; collisions are cosmetic and never an error.  The
// document id (PseudoID) is what keys storage, and that is unique per
// legacy user by construction.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.
package nym

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// GlyphBits is the length of the avatar bit string (8x8 grid).
const GlyphBits = 64

// words is the fixed tag vocabulary.  Order matters: the digest indexes
// into this slice, so reordering or appending changes every tag.
var words = []string{
	"aurora", "nebula", "stardust", "eclipse",
	"quantum", "plasma", "luminous", "orbit",
}

// Profile is the derived identity for one (scope, legacy user) pair.
type Profile struct {
	PseudoID   string // document id, "legacy:<numeric id>"
	Tag        string // display pseudonym, "nym:<word>-<100..999>"
	AvatarBits string // 64 runes of '0'/'1', row-major, MSB first per byte
}

// PseudoID builds the opaque document id for a legacy user.  The raw
// numeric id never appears in a path on its own.
func PseudoID(legacyUserID int64) string {
	return "legacy:" + strconv.FormatInt(legacyUserID, 10)
}

// Derive maps (scope id, legacy user id, salt) to a Profile.  Pure: no
// randomness, no state beyond the salt.
func Derive(scopeID string, legacyUserID int64, salt string) Profile {
	uid := PseudoID(legacyUserID)
	digest := sha256.Sum256([]byte(scopeID + ":" + uid + ":" + salt))
	return Profile{
		PseudoID:   uid,
		Tag:        tagFromDigest(digest),
		AvatarBits: glyphFromDigest(digest),
	}
}

// tagFromDigest picks the word via the first digest byte and the numeric
// suffix via bytes one and two, reduced to the range [100, 999].
func tagFromDigest(d [sha256.Size]byte) string {
	word := words[int(d[0])%len(words)]
	num := binary.BigEndian.Uint16(d[1:3])%900 + 100
	return fmt.Sprintf("nym:%s-%d", word, num)
}

// glyphFromDigest renders the first eight digest bytes as 64 ASCII bits.
func glyphFromDigest(d [sha256.Size]byte) string {
	var b strings.Builder
	b.Grow(GlyphBits)
	for _, by := range d[:8] {
		for bit := 7; bit >= 0; bit-- {
			if by>>uint(bit)&1 == 1 {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
	}
	return b.String()
}
