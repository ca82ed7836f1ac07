// internal/transform/lookup.go
//
// Pre-built join indices over the extracted snapshot.
//
// Context
// -------
// The transformer has no query engine, so every relational join is
// replaced by an in-memory map built once per run in a single pass over
// each row set.  Without these indices the per-message scope resolution
// alone would make the transform quadratic.  The struct is private to
// this package and never mutated after construction.

package transform

import (
	"github.com/yanizio/nymport/internal/legacy"
)

// roomUser keys the per-room-per-user indices (mutes, nicknames).
type roomUser struct {
	RoomID int64
	UserID int64
}

type lookups struct {
	userByID  map[int64]legacy.User
	roomByID  map[int64]legacy.Room
	scopeByID map[int64]legacy.Scope

	moderatorsByScope map[int64]map[int64]struct{}
	admins            map[int64]struct{}
	mutedByRoom       map[int64]map[int64]struct{}
	nicknames         map[roomUser]string
}

func buildLookups(d *legacy.Data) *lookups {
	l := &lookups{
		userByID:          make(map[int64]legacy.User, len(d.Users)),
		roomByID:          make(map[int64]legacy.Room, len(d.Rooms)),
		scopeByID:         make(map[int64]legacy.Scope, len(d.Scopes)),
		moderatorsByScope: make(map[int64]map[int64]struct{}),
		admins:            make(map[int64]struct{}),
		mutedByRoom:       make(map[int64]map[int64]struct{}),
		nicknames:         make(map[roomUser]string),
	}

	for _, u := range d.Users {
		l.userByID[u.ID] = u
	}
	for _, r := range d.Rooms {
		l.roomByID[r.ID] = r
	}
	for _, s := range d.Scopes {
		l.scopeByID[s.ID] = s
	}

	for _, m := range d.Moderators {
		if !m.ScopeID.Valid {
			continue
		}
		set, ok := l.moderatorsByScope[m.ScopeID.Int64]
		if !ok {
			set = make(map[int64]struct{})
			l.moderatorsByScope[m.ScopeID.Int64] = set
		}
		set[m.UserID] = struct{}{}
	}

	for _, r := range d.Roles {
		if r.RoleName == "admin" {
			l.admins[r.UserID] = struct{}{}
		}
	}

	for _, m := range d.Muted {
		set, ok := l.mutedByRoom[m.RoomID]
		if !ok {
			set = make(map[int64]struct{})
			l.mutedByRoom[m.RoomID] = set
		}
		set[m.UserID] = struct{}{}
	}

	for _, n := range d.Nicknames {
		if n.Nickname.Valid && n.Nickname.String != "" {
			l.nicknames[roomUser{n.RoomID, n.UserID}] = n.Nickname.String
		}
	}

	return l
}

// scopeOfRoom resolves a room id to its parent scope id.  The second
// return is false for unknown rooms and for orphan rooms with a null
// scope reference; callers skip (and count) those rows.
func (l *lookups) scopeOfRoom(roomID int64) (int64, bool) {
	room, ok := l.roomByID[roomID]
	if !ok || !room.ScopeID.Valid {
		return 0, false
	}
	return room.ScopeID.Int64, true
}

func (l *lookups) isMuted(roomID, userID int64) bool {
	_, ok := l.mutedByRoom[roomID][userID]
	return ok
}
