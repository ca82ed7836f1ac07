// internal/transform/transform_test.go
//
// Unit-tests for the row-to-document transform.
//
// Fixture layout
// --------------
// Scope 1 (owner 10) holds room 100 (owner 11) and room 200 (owner 10,
// empty).  Room 300 is an orphan with a null scope reference.  User 12
// authored messages, user 13 exists but never participated, and user 99
// authored a message without a surviving user row.

package transform

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/yanizio/nymport/internal/legacy"
	"github.com/yanizio/nymport/internal/nym"
)

const testSalt = "dev-salt"

var (
	t0 = time.Date(2023, 5, 1, 9, 0, 0, 0, time.UTC)
	t1 = time.Date(2023, 5, 2, 9, 0, 0, 0, time.UTC)
	t2 = time.Date(2023, 5, 3, 9, 0, 0, 0, time.UTC)
)

func nInt(n int64) sql.NullInt64 { return sql.NullInt64{Int64: n, Valid: true} }

func fixture() *legacy.Data {
	return &legacy.Data{
		Scopes: []legacy.Scope{
			{ID: 1, Title: "North", OwnerID: 10, CreatedAt: t0, RoomsCount: nInt(2)},
		},
		Rooms: []legacy.Room{
			{ID: 100, ScopeID: nInt(1), OwnerID: 11, Title: "general", CreatedAt: t0},
			{ID: 200, ScopeID: nInt(1), OwnerID: 10, Title: "quiet", CreatedAt: t0},
			{ID: 300, OwnerID: 11, Title: "orphan", CreatedAt: t0}, // null scope
		},
		Users: []legacy.User{
			{ID: 10, Username: "ada", Email: "ada@example.com", CreatedAt: t0},
			{ID: 11, Username: "grace", Email: "grace@example.com", CreatedAt: t0},
			{ID: 12, Username: "linus", Email: "linus@example.com", CreatedAt: t0},
			{ID: 13, Username: "idle", Email: "idle@example.com", CreatedAt: t0},
		},
		Messages: []legacy.Message{
			{ID: 1000, RoomID: 100, UserID: 12, Content: "first", CreatedAt: t1},
			{ID: 1001, RoomID: 100, UserID: 12, Content: "second", CreatedAt: t2},
			{ID: 1002, RoomID: 300, UserID: 12, Content: "lost", CreatedAt: t2},
			{ID: 1003, RoomID: 100, UserID: 99, Content: "ghost", CreatedAt: t0},
		},
		Memberships: []legacy.Membership{
			{RoomID: 100, UserID: 10, CreatedAt: t0, UpdatedAt: t1},
			{RoomID: 100, UserID: 12, CreatedAt: t0, UpdatedAt: t2},
			{RoomID: 300, UserID: 12, CreatedAt: t0, UpdatedAt: t0}, // orphan room
		},
		Moderators: []legacy.ModeratorGrant{
			{ScopeID: nInt(1), UserID: 10}, // also the scope owner
			{ScopeID: nInt(1), UserID: 12},
		},
		Roles: []legacy.RoleGrant{
			{RoleID: 1, UserID: 11, RoleName: "admin"},
			{RoleID: 2, UserID: 12, RoleName: "editor"}, // not interpreted
		},
		Muted: []legacy.MuteFlag{
			{RoomID: 100, UserID: 12},
		},
		Nicknames: []legacy.NicknameOverride{
			{RoomID: 100, UserID: 12, Nickname: sql.NullString{String: "The Linus", Valid: true}},
		},
	}
}

func docByPath(t *testing.T, docs []Doc, path string) Doc {
	t.Helper()
	for _, d := range docs {
		if d.Path == path {
			return d
		}
	}
	t.Fatalf("no document at %q", path)
	return Doc{}
}

func TestDeriveRole_Precedence(t *testing.T) {
	mods := map[int64]struct{}{10: {}, 12: {}}
	admins := map[int64]struct{}{10: {}, 11: {}}

	cases := []struct {
		userID int64
		want   Role
	}{
		{10, RoleOwner}, // owner, admin, and moderator at once
		{11, RoleAdmin},
		{12, RoleModerator},
		{13, RoleMember},
	}
	for _, c := range cases {
		if got := DeriveRole(10, c.userID, mods, admins); got != c.want {
			t.Errorf("DeriveRole(user %d) = %q, want %q", c.userID, got, c.want)
		}
	}
}

func TestAll_ScopeDoc(t *testing.T) {
	res := All(fixture(), testSalt)

	doc := docByPath(t, res.Scopes, "scopes/1")
	if doc.Data["name"] != "North" {
		t.Errorf("name = %v", doc.Data["name"])
	}
	if doc.Data["ownerUid"] != "legacy:10" {
		t.Errorf("ownerUid = %v", doc.Data["ownerUid"])
	}
	settings, ok := doc.Data["settings"].(map[string]any)
	if !ok || settings["cloakMode"] != true {
		t.Errorf("settings = %v", doc.Data["settings"])
	}
}

func TestAll_RoomAggregates(t *testing.T) {
	res := All(fixture(), testSalt)

	general := docByPath(t, res.Rooms, "scopes/1/rooms/legacy:100")
	if got := general.Data["lastMessageAt"]; got != t2 {
		t.Errorf("lastMessageAt = %v, want %v", got, t2)
	}
	if got := general.Data["lastMessagePreview"]; got != "second" {
		t.Errorf("lastMessagePreview = %v", got)
	}
	// Recomputed from the scan, not the cached messages_count column.
	if got := general.Data["messagesCount"]; got != 3 {
		t.Errorf("messagesCount = %v, want 3", got)
	}

	quiet := docByPath(t, res.Rooms, "scopes/1/rooms/legacy:200")
	if quiet.Data["lastMessageAt"] != nil {
		t.Errorf("empty room lastMessageAt = %v, want nil", quiet.Data["lastMessageAt"])
	}
	if quiet.Data["lastMessagePreview"] != "" {
		t.Errorf("empty room preview = %v, want empty", quiet.Data["lastMessagePreview"])
	}
	if quiet.Data["messagesCount"] != 0 {
		t.Errorf("empty room messagesCount = %v, want 0", quiet.Data["messagesCount"])
	}
}

func TestRoomStats_TieFirstSeenWins(t *testing.T) {
	stats := roomStats([]legacy.Message{
		{ID: 1, RoomID: 5, UserID: 1, Content: "first-seen", CreatedAt: t1},
		{ID: 2, RoomID: 5, UserID: 1, Content: "same-instant", CreatedAt: t1},
	})
	if stats[5].preview != "first-seen" {
		t.Fatalf("tie-break kept %q, want first-seen", stats[5].preview)
	}
}

func TestRoomStats_PreviewTruncation(t *testing.T) {
	long := strings.Repeat("x", 500)
	stats := roomStats([]legacy.Message{
		{ID: 1, RoomID: 5, UserID: 1, Content: long, CreatedAt: t1},
	})
	if got := len(stats[5].preview); got != PreviewLimit {
		t.Fatalf("preview length = %d, want %d", got, PreviewLimit)
	}
}

func TestAll_OrphanRoomSkipped(t *testing.T) {
	res := All(fixture(), testSalt)

	for _, d := range res.Rooms {
		if strings.Contains(d.Path, "legacy:300") {
			t.Fatalf("orphan room produced a document: %s", d.Path)
		}
	}
	if res.Skipped.Rooms != 1 {
		t.Errorf("rooms skipped = %d, want 1", res.Skipped.Rooms)
	}
	if res.Skipped.Memberships != 1 {
		t.Errorf("memberships skipped = %d, want 1", res.Skipped.Memberships)
	}
	if res.Skipped.Messages != 1 {
		t.Errorf("messages skipped = %d, want 1", res.Skipped.Messages)
	}
}

func TestAll_UserUnion(t *testing.T) {
	res := All(fixture(), testSalt)

	// Owners 10 and 11, author/member 12, and ghost author 99 belong to
	// scope 1.  User 13 never participated and must not appear.
	wantUsers := []int64{10, 11, 12, 99}
	if len(res.Users) != len(wantUsers) {
		t.Fatalf("user docs = %d, want %d", len(res.Users), len(wantUsers))
	}
	for _, id := range wantUsers {
		doc := docByPath(t, res.Users, fmt.Sprintf("scopes/1/users/legacy:%d", id))
		want := nym.Derive("1", id, testSalt)
		if doc.Data["nymTag"] != want.Tag {
			t.Errorf("user %d tag = %v, want %v", id, doc.Data["nymTag"], want.Tag)
		}
	}

	ghost := docByPath(t, res.Users, "scopes/1/users/legacy:99")
	if _, ok := ghost.Data["legacyUsername"]; ok {
		t.Errorf("ghost user should carry no username linkage")
	}
	if ghost.Data["createdAt"] != nil {
		t.Errorf("ghost user createdAt = %v, want nil", ghost.Data["createdAt"])
	}
}

func TestAll_MembershipDoc(t *testing.T) {
	res := All(fixture(), testSalt)

	// User 12 is a moderator, muted, and nicknamed in room 100.
	doc := docByPath(t, res.Memberships, "scopes/1/rooms/legacy:100/members/legacy:12")
	if doc.Data["role"] != string(RoleModerator) {
		t.Errorf("role = %v, want mod", doc.Data["role"])
	}
	if doc.Data["lastReadAt"] != t2 {
		t.Errorf("lastReadAt = %v, want %v", doc.Data["lastReadAt"], t2)
	}
	if doc.Data["nickname"] != "The Linus" {
		t.Errorf("nickname = %v", doc.Data["nickname"])
	}
	if doc.Data["mutedUntil"] != mutedForever {
		t.Errorf("mutedUntil = %v, want sentinel", doc.Data["mutedUntil"])
	}

	// User 10 owns the scope: owner role wins over the moderator grant.
	owner := docByPath(t, res.Memberships, "scopes/1/rooms/legacy:100/members/legacy:10")
	if owner.Data["role"] != string(RoleOwner) {
		t.Errorf("owner role = %v, want owner", owner.Data["role"])
	}
	if owner.Data["mutedUntil"] != nil {
		t.Errorf("unmuted member mutedUntil = %v, want nil", owner.Data["mutedUntil"])
	}
	if _, ok := owner.Data["nickname"]; ok {
		t.Errorf("member without override should carry no nickname key")
	}
}

func TestAll_MessageDenormalization(t *testing.T) {
	res := All(fixture(), testSalt)

	doc := docByPath(t, res.Messages, "scopes/1/rooms/legacy:100/messages/legacy:1000")
	want := nym.Derive("1", 12, testSalt)
	if doc.Data["authorUid"] != want.PseudoID {
		t.Errorf("authorUid = %v, want %v", doc.Data["authorUid"], want.PseudoID)
	}
	if doc.Data["nymTag"] != want.Tag {
		t.Errorf("nymTag = %v, want %v", doc.Data["nymTag"], want.Tag)
	}
	if doc.Data["glyphBits"] != want.AvatarBits {
		t.Errorf("glyphBits = %v, want %v", doc.Data["glyphBits"], want.AvatarBits)
	}
	if doc.Data["text"] != "first" {
		t.Errorf("text = %v", doc.Data["text"])
	}
}

// Running the transform twice over one snapshot must yield identical
// documents; identity derivation has no hidden state.
func TestAll_Deterministic(t *testing.T) {
	a := All(fixture(), testSalt)
	b := All(fixture(), testSalt)
	if a.Total() != b.Total() {
		t.Fatalf("totals differ: %d vs %d", a.Total(), b.Total())
	}
	bAll := b.All()
	for i, d := range a.All() {
		if d.Path != bAll[i].Path {
			t.Fatalf("doc %d path differs: %q vs %q", i, d.Path, bAll[i].Path)
		}
	}
}
