// internal/legacy/model.go
//
// Row models for the legacy relational schema.
//
// Context
// -------
// These structs mirror the fixed source schema one-to-one; column names
// in the `db` tags are the legacy ones and must not be modernised.  The
// schema still says "instance" where the rest of this codebase says
// "scope", so the tags keep instance_id while the Go field is ScopeID.
//
// Nullable columns use database/sql null wrappers rather than pointers
// so sqlx can scan row sets directly.  Rows are read-only snapshots; the
// pipeline never writes back to the source.

package legacy

import (
	"database/sql"
	"time"
)

// Scope is the migration unit (legacy table: instances).
type Scope struct {
	ID         int64         `db:"id"`
	Title      string        `db:"title"`
	OwnerID    int64         `db:"owner_id"`
	CreatedAt  time.Time     `db:"created_at"`
	RoomsCount sql.NullInt64 `db:"rooms_count"`
}

// Room may be orphaned: ScopeID is null for rooms detached from their
// scope, and those rows contribute nothing downstream.
type Room struct {
	ID            int64         `db:"id"`
	ScopeID       sql.NullInt64 `db:"instance_id"`
	OwnerID       int64         `db:"owner_id"`
	Title         string        `db:"title"`
	CreatedAt     time.Time     `db:"created_at"`
	Locked        bool          `db:"locked"`
	PlannedLock   sql.NullTime  `db:"planned_lock"`
	MessagesCount sql.NullInt64 `db:"messages_count"`
}

// User carries the real-name fields that the migration retains only as
// audit linkage inside identity documents.
type User struct {
	ID        int64     `db:"id"`
	Username  string    `db:"username"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

type Message struct {
	ID        int64     `db:"id"`
	RoomID    int64     `db:"room_id"`
	UserID    int64     `db:"user_id"`
	Content   string    `db:"content"`
	CreatedAt time.Time `db:"created_at"`
}

// Membership is the room<->user join row (legacy table: room_users).
type Membership struct {
	RoomID            int64         `db:"room_id"`
	UserID            int64         `db:"user_id"`
	LastReadMessageID sql.NullInt64 `db:"last_read_message_id"`
	CreatedAt         time.Time     `db:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at"`
}

// ModeratorGrant is the scope<->user join row (legacy table:
// moderatorships).  ScopeID is nullable in the wild.
type ModeratorGrant struct {
	ScopeID sql.NullInt64 `db:"instance_id"`
	UserID  int64         `db:"user_id"`
}

// RoleGrant joins users to named roles; "admin" is the only name the
// migration interprets.
type RoleGrant struct {
	RoleID   int64  `db:"role_id"`
	UserID   int64  `db:"user_id"`
	RoleName string `db:"role_name"`
}

// MuteFlag is presence-only; the legacy schema stores no expiry.
type MuteFlag struct {
	RoomID int64 `db:"room_id"`
	UserID int64 `db:"user_id"`
}

type NicknameOverride struct {
	RoomID   int64          `db:"room_id"`
	UserID   int64          `db:"user_id"`
	Nickname sql.NullString `db:"nickname"`
}

// Data is the full extracted snapshot consumed by the transformer.
type Data struct {
	Scopes      []Scope
	Rooms       []Room
	Users       []User
	Messages    []Message
	Memberships []Membership
	Moderators  []ModeratorGrant
	Roles       []RoleGrant
	Muted       []MuteFlag
	Nicknames   []NicknameOverride
}
