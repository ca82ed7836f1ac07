// internal/legacy/extractor.go
//
// Read-only snapshot extraction from the legacy store.
//
// Context
// -------
// One SELECT per row set, all nine issued concurrently.  No query
// depends on another's result, so the fetches fan out on an errgroup and
// join before the snapshot is returned.  Each goroutine writes only its
// own slice; the Data struct is effectively immutable once Load returns.
//
// Queries enumerate columns explicitly so a schema that grew extra
// columns keeps scanning cleanly, and they never touch the cached
// counter columns beyond carrying them through for display.

package legacy

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/nymport/internal/metrics"
	"github.com/yanizio/nymport/internal/validate"
)

const (
	qScopes = `SELECT id, title, owner_id, created_at, rooms_count FROM instances`
	qRooms  = `SELECT id, instance_id, owner_id, title, created_at, locked,
	           planned_lock, messages_count FROM rooms`
	qUsers    = `SELECT id, username, email, created_at FROM users`
	qMessages = `SELECT id, room_id, user_id, content, created_at FROM messages`
	qMembers  = `SELECT room_id, user_id, last_read_message_id, created_at,
	           updated_at FROM room_users`
	qModerators = `SELECT instance_id, user_id FROM moderatorships`
	qRoles      = `SELECT roles_users.role_id, roles_users.user_id,
	           roles.name AS role_name
	           FROM roles_users JOIN roles ON roles.id = roles_users.role_id`
	qMuted     = `SELECT room_id, user_id FROM muted_room_users`
	qNicknames = `SELECT room_id, user_id, nickname FROM room_user_nicknames`
)

// Load fetches the complete snapshot needed by the transformer.  Any
// query error aborts the whole extraction; there is no partial snapshot.
func Load(ctx context.Context, db *sqlx.DB) (*Data, error) {
	var d Data

	g, ctx := errgroup.WithContext(ctx)
	fetch := func(set string, dest any, query string) {
		g.Go(func() error {
			if err := db.SelectContext(ctx, dest, query); err != nil {
				return fmt.Errorf("fetch %s: %w", set, err)
			}
			return nil
		})
	}

	fetch("scopes", &d.Scopes, qScopes)
	fetch("rooms", &d.Rooms, qRooms)
	fetch("users", &d.Users, qUsers)
	fetch("messages", &d.Messages, qMessages)
	fetch("memberships", &d.Memberships, qMembers)
	fetch("moderators", &d.Moderators, qModerators)
	fetch("roles", &d.Roles, qRoles)
	fetch("muted", &d.Muted, qMuted)
	fetch("nicknames", &d.Nicknames, qNicknames)

	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics.RowsExtracted.WithLabelValues("scopes").Add(float64(len(d.Scopes)))
	metrics.RowsExtracted.WithLabelValues("rooms").Add(float64(len(d.Rooms)))
	metrics.RowsExtracted.WithLabelValues("users").Add(float64(len(d.Users)))
	metrics.RowsExtracted.WithLabelValues("messages").Add(float64(len(d.Messages)))
	metrics.RowsExtracted.WithLabelValues("memberships").Add(float64(len(d.Memberships)))

	return &d, nil
}

// Counts recomputes source totals with COUNT(*).  The cached
// rooms_count / messages_count columns are deliberately ignored; they
// drift on the live system and were the original reason validation
// exists.
func Counts(ctx context.Context, db *sqlx.DB) (validate.Counts, error) {
	var c validate.Counts

	g, ctx := errgroup.WithContext(ctx)
	count := func(name string, dest *int64, query string) {
		g.Go(func() error {
			if err := db.GetContext(ctx, dest, query); err != nil {
				return fmt.Errorf("count %s: %w", name, err)
			}
			return nil
		})
	}

	count("rooms", &c.Rooms, `SELECT COUNT(*) FROM rooms`)
	count("messages", &c.Messages, `SELECT COUNT(*) FROM messages`)
	count("memberships", &c.Memberships, `SELECT COUNT(*) FROM room_users`)

	if err := g.Wait(); err != nil {
		return validate.Counts{}, err
	}
	return c, nil
}
