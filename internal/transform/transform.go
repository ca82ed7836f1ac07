// internal/transform/transform.go
//
// Relational rows to hierarchical documents.
//
// Context
// -------
// Each mapping function takes the immutable snapshot plus the pre-built
// lookups and produces zero or more documents.  The pass is pure and
// synchronous; every document has a unique path, so nothing here depends
// on execution order.  Rows whose parent cannot be resolved (orphan
// rooms, messages in unknown rooms) are skipped and counted, never
// fatal: the legacy dataset predates foreign-key enforcement and a
// perfectly clean source is not a precondition.
//
// Aggregates
// ----------
// Room message counts and the last-message time/preview are recomputed
// from a full scan of the message set; the cached messages_count column
// is never copied because the live system's increment-based counters
// drift.  When two messages share a timestamp the first row seen wins;
// that tie-break is deliberate and covered by tests.

package transform

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/yanizio/nymport/internal/legacy"
	"github.com/yanizio/nymport/internal/metrics"
	"github.com/yanizio/nymport/internal/nym"
)

// Role is the resolved membership role.  Precedence is total:
// owner > admin > mod > member.
type Role string

const (
	RoleOwner     Role = "owner"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "mod"
	RoleMember    Role = "member"
)

// PreviewLimit caps the last-message preview length, in runes.
const PreviewLimit = 140

// mutedForever is the sentinel stored for muted members; the legacy
// schema has no expiry, so a mute migrates as "until the far future".
var mutedForever = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

// DeriveRole resolves exactly one role for a scope member.  The scope
// owner outranks everything, including a global admin flag or a listing
// in the scope's moderator set.
func DeriveRole(scopeOwnerID, userID int64, moderators, admins map[int64]struct{}) Role {
	if userID == scopeOwnerID {
		return RoleOwner
	}
	if _, ok := admins[userID]; ok {
		return RoleAdmin
	}
	if _, ok := moderators[userID]; ok {
		return RoleModerator
	}
	return RoleMember
}

// All runs the full transform over one snapshot.
func All(d *legacy.Data, salt string) *Result {
	l := buildLookups(d)
	stats := roomStats(d.Messages)

	res := &Result{}
	res.Scopes = scopeDocs(d)
	res.Rooms = roomDocs(d, stats, &res.Skipped)
	res.Users = userDocs(d, l, salt)
	res.Memberships = membershipDocs(d, l, &res.Skipped)
	res.Messages = messageDocs(d, l, salt, &res.Skipped)

	metrics.DocsTransformed.WithLabelValues("scopes").Add(float64(len(res.Scopes)))
	metrics.DocsTransformed.WithLabelValues("rooms").Add(float64(len(res.Rooms)))
	metrics.DocsTransformed.WithLabelValues("users").Add(float64(len(res.Users)))
	metrics.DocsTransformed.WithLabelValues("memberships").Add(float64(len(res.Memberships)))
	metrics.DocsTransformed.WithLabelValues("messages").Add(float64(len(res.Messages)))
	metrics.RowsSkipped.WithLabelValues("rooms").Add(float64(res.Skipped.Rooms))
	metrics.RowsSkipped.WithLabelValues("memberships").Add(float64(res.Skipped.Memberships))
	metrics.RowsSkipped.WithLabelValues("messages").Add(float64(res.Skipped.Messages))

	return res
}

/*──────────────────────────── path helpers ────────────────────────────*/

// legacyID renders a numeric source id as a target document id.  The
// prefix keeps migrated docs from ever colliding with natively created
// ones.
func legacyID(n int64) string { return fmt.Sprintf("legacy:%d", n) }

func scopePath(scopeID int64) string { return fmt.Sprintf("scopes/%d", scopeID) }

func roomPath(scopeID, roomID int64) string {
	return fmt.Sprintf("scopes/%d/rooms/%s", scopeID, legacyID(roomID))
}

/*──────────────────────────── per-kind mappers ────────────────────────*/

func scopeDocs(d *legacy.Data) []Doc {
	docs := make([]Doc, 0, len(d.Scopes))
	for _, s := range d.Scopes {
		docs = append(docs, Doc{
			Path: scopePath(s.ID),
			Data: map[string]any{
				"name":       s.Title,
				"ownerUid":   nym.PseudoID(s.OwnerID),
				"createdAt":  s.CreatedAt,
				"roomsCount": nullInt(s.RoomsCount),
				"settings":   map[string]any{"cloakMode": true},
			},
		})
	}
	return docs
}

func roomDocs(d *legacy.Data, stats map[int64]roomStat, skips *Skips) []Doc {
	docs := make([]Doc, 0, len(d.Rooms))
	for _, r := range d.Rooms {
		if !r.ScopeID.Valid {
			skips.Rooms++
			continue
		}
		data := map[string]any{
			"title":              r.Title,
			"createdAt":          r.CreatedAt,
			"locked":             r.Locked,
			"plannedLock":        nullTime(r.PlannedLock),
			"ownerUid":           nym.PseudoID(r.OwnerID),
			"messagesCount":      0,
			"lastMessageAt":      nil,
			"lastMessagePreview": "",
		}
		if st, ok := stats[r.ID]; ok {
			data["messagesCount"] = st.count
			data["lastMessageAt"] = st.at
			data["lastMessagePreview"] = st.preview
		}
		docs = append(docs, Doc{Path: roomPath(r.ScopeID.Int64, r.ID), Data: data})
	}
	return docs
}

// userDocs derives one identity document per (scope, user) pair.  The
// user set per scope is the union of scope owners, room owners,
// membership participants, and message authors; a user with no activity
// in a scope gets no identity there.
func userDocs(d *legacy.Data, l *lookups, salt string) []Doc {
	participants := make(map[int64]map[int64]struct{})
	add := func(scopeID, userID int64) {
		set, ok := participants[scopeID]
		if !ok {
			set = make(map[int64]struct{})
			participants[scopeID] = set
		}
		set[userID] = struct{}{}
	}

	for _, s := range d.Scopes {
		add(s.ID, s.OwnerID)
	}
	for _, r := range d.Rooms {
		if r.ScopeID.Valid {
			add(r.ScopeID.Int64, r.OwnerID)
		}
	}
	for _, m := range d.Memberships {
		if scopeID, ok := l.scopeOfRoom(m.RoomID); ok {
			add(scopeID, m.UserID)
		}
	}
	for _, m := range d.Messages {
		if scopeID, ok := l.scopeOfRoom(m.RoomID); ok {
			add(scopeID, m.UserID)
		}
	}

	// Map iteration order is random; sort both levels so repeated runs
	// produce byte-identical interchange files.
	scopeIDs := make([]int64, 0, len(participants))
	for id := range participants {
		scopeIDs = append(scopeIDs, id)
	}
	sort.Slice(scopeIDs, func(i, j int) bool { return scopeIDs[i] < scopeIDs[j] })

	var docs []Doc
	for _, scopeID := range scopeIDs {
		userIDs := make([]int64, 0, len(participants[scopeID]))
		for id := range participants[scopeID] {
			userIDs = append(userIDs, id)
		}
		sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

		for _, userID := range userIDs {
			profile := nym.Derive(fmt.Sprint(scopeID), userID, salt)
			data := map[string]any{
				"nymTag":       profile.Tag,
				"glyphBits":    profile.AvatarBits,
				"createdAt":    nil,
				"legacyUserId": userID,
			}
			// Audit/debug linkage only; these fields never reach end
			// users.  A user row can be missing for ids referenced by
			// old messages; the identity still migrates.
			if u, ok := l.userByID[userID]; ok {
				data["createdAt"] = u.CreatedAt
				data["legacyUsername"] = u.Username
				data["legacyEmail"] = u.Email
			}
			docs = append(docs, Doc{
				Path: fmt.Sprintf("%s/users/%s", scopePath(scopeID), profile.PseudoID),
				Data: data,
			})
		}
	}
	return docs
}

func membershipDocs(d *legacy.Data, l *lookups, skips *Skips) []Doc {
	var docs []Doc
	for _, m := range d.Memberships {
		scopeID, ok := l.scopeOfRoom(m.RoomID)
		if !ok {
			skips.Memberships++
			continue
		}
		scope, ok := l.scopeByID[scopeID]
		if !ok {
			skips.Memberships++
			continue
		}

		role := DeriveRole(scope.OwnerID, m.UserID, l.moderatorsByScope[scopeID], l.admins)
		data := map[string]any{
			"role":       string(role),
			"lastReadAt": m.UpdatedAt,
			"mutedUntil": nil,
		}
		if l.isMuted(m.RoomID, m.UserID) {
			data["mutedUntil"] = mutedForever
		}
		if nick, ok := l.nicknames[roomUser{m.RoomID, m.UserID}]; ok {
			data["nickname"] = nick
		}
		docs = append(docs, Doc{
			Path: fmt.Sprintf("%s/members/%s", roomPath(scopeID, m.RoomID), nym.PseudoID(m.UserID)),
			Data: data,
		})
	}
	return docs
}

// messageDocs denormalizes the author's tag and glyph into every message
// document.  It is a snapshot taken at migration time, not a live
// reference; readers get author identity without a second lookup.
func messageDocs(d *legacy.Data, l *lookups, salt string, skips *Skips) []Doc {
	var docs []Doc
	for _, m := range d.Messages {
		scopeID, ok := l.scopeOfRoom(m.RoomID)
		if !ok {
			skips.Messages++
			continue
		}
		profile := nym.Derive(fmt.Sprint(scopeID), m.UserID, salt)
		docs = append(docs, Doc{
			Path: fmt.Sprintf("%s/messages/%s", roomPath(scopeID, m.RoomID), legacyID(m.ID)),
			Data: map[string]any{
				"authorUid": profile.PseudoID,
				"nymTag":    profile.Tag,
				"glyphBits": profile.AvatarBits,
				"text":      m.Content,
				"createdAt": m.CreatedAt,
			},
		})
	}
	return docs
}

/*──────────────────────────── aggregates ──────────────────────────────*/

type roomStat struct {
	count   int
	at      time.Time
	preview string
}

// roomStats scans the full message set and keeps, per room, the total
// message count and the message with the latest creation time.
// Strictly-later wins; on an exact timestamp tie the first row seen is
// kept.
func roomStats(messages []legacy.Message) map[int64]roomStat {
	stats := make(map[int64]roomStat)
	for _, m := range messages {
		cur := stats[m.RoomID]
		cur.count++
		if cur.count == 1 || m.CreatedAt.After(cur.at) {
			cur.at = m.CreatedAt
			cur.preview = truncate(m.Content, PreviewLimit)
		}
		stats[m.RoomID] = cur
	}
	return stats
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

/*──────────────────────────── null helpers ────────────────────────────*/

func nullInt(n sql.NullInt64) int64 {
	if n.Valid {
		return n.Int64
	}
	return 0
}

func nullTime(t sql.NullTime) any {
	if t.Valid {
		return t.Time
	}
	return nil
}
