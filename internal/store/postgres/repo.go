package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/lib/pq"
	"github.com/vibelink/messaging/internal/domain"
	"github.com/vibelink/messaging/internal/store"
)

const defaultConversationLimit = 200

type Repository struct {
	DB *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{DB: db}
}

// EnsureSchema creates the messages table if it does not exist. The service
// owns no other on-disk layout.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS messages (
			id           TEXT PRIMARY KEY,
			from_user_id TEXT NOT NULL,
			to_user_id   TEXT NOT NULL,
			body         TEXT NOT NULL DEFAULT '',
			kind         TEXT NOT NULL,
			media_url    TEXT NOT NULL DEFAULT '',
			file_name    TEXT NOT NULL DEFAULT '',
			mime_type    TEXT NOT NULL DEFAULT '',
			delivered    BOOLEAN NOT NULL DEFAULT FALSE,
			seen         BOOLEAN NOT NULL DEFAULT FALSE,
			created_at   TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_messages_pair
			ON messages (from_user_id, to_user_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_messages_inbox
			ON messages (to_user_id, delivered) WHERE NOT delivered;
	`)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

func (r *Repository) Create(ctx context.Context, m *domain.Message) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO messages (
			id, from_user_id, to_user_id, body, kind,
			media_url, file_name, mime_type, delivered, seen, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		m.ID, m.FromUserID, m.ToUserID, m.Body, m.Kind,
		m.MediaURL, m.FileName, m.MimeType, m.Delivered, m.Seen, m.CreatedAt,
	)
	if err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*domain.Message, error) {
	row := r.DB.QueryRowContext(ctx, selectCols+` WHERE id = $1`, id)

	m, err := scanMessage(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrMessageNotFound
		}
		return nil, storeErr(err)
	}
	return m, nil
}

func (r *Repository) Conversation(ctx context.Context, userA, userB string, page store.Page) ([]*domain.Message, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = defaultConversationLimit
	}

	// Newest page first, then reversed: a bounded read still returns the
	// most recent window of the conversation in ascending order.
	query := selectCols + `
		WHERE ((from_user_id = $1 AND to_user_id = $2)
		    OR (from_user_id = $2 AND to_user_id = $1))
	`
	args := []interface{}{userA, userB}
	if !page.Before.IsZero() {
		query += ` AND created_at < $3`
		args = append(args, page.Before)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var newestFirst []*domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		newestFirst = append(newestFirst, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}

	out := make([]*domain.Message, len(newestFirst))
	for i, m := range newestFirst {
		out[len(newestFirst)-1-i] = m
	}
	return out, nil
}

func (r *Repository) RecentForUser(ctx context.Context, userID string) ([]*domain.Message, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT DISTINCT ON (from_user_id)
		       id, from_user_id, to_user_id, body, kind,
		       media_url, file_name, mime_type, delivered, seen, created_at
		FROM messages
		WHERE to_user_id = $1
		ORDER BY from_user_id, created_at DESC
	`, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var out []*domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}

	sortNewestFirst(out)
	return out, nil
}

func (r *Repository) MarkDeliveredForRecipient(ctx context.Context, userID string) (store.BySender, error) {
	rows, err := r.DB.QueryContext(ctx, `
		UPDATE messages
		SET delivered = TRUE
		WHERE to_user_id = $1 AND NOT delivered
		RETURNING id, from_user_id
	`, userID)
	if err != nil {
		return nil, storeErr(err)
	}
	return groupBySender(rows)
}

func (r *Repository) MarkSeen(ctx context.Context, recipient string, ids []string) (store.BySender, error) {
	// Seen implies delivered; unknown or foreign ids fall out of the WHERE
	// clause rather than failing the call.
	rows, err := r.DB.QueryContext(ctx, `
		UPDATE messages
		SET seen = TRUE, delivered = TRUE
		WHERE id = ANY($1) AND to_user_id = $2 AND NOT seen
		RETURNING id, from_user_id
	`, pq.Array(ids), recipient)
	if err != nil {
		return nil, storeErr(err)
	}
	return groupBySender(rows)
}

func (r *Repository) MarkSeenForConversationRead(ctx context.Context, viewer, otherParty string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, `
		UPDATE messages
		SET seen = TRUE, delivered = TRUE
		WHERE from_user_id = $1 AND to_user_id = $2 AND NOT seen
		RETURNING id
	`, otherParty, viewer)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return ids, nil
}

const selectCols = `
	SELECT id, from_user_id, to_user_id, body, kind,
	       media_url, file_name, mime_type, delivered, seen, created_at
	FROM messages`

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row scannable) (*domain.Message, error) {
	var m domain.Message
	err := row.Scan(
		&m.ID, &m.FromUserID, &m.ToUserID, &m.Body, &m.Kind,
		&m.MediaURL, &m.FileName, &m.MimeType, &m.Delivered, &m.Seen, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func groupBySender(rows *sql.Rows) (store.BySender, error) {
	defer rows.Close()

	out := make(store.BySender)
	for rows.Next() {
		var id, sender string
		if err := rows.Scan(&id, &sender); err != nil {
			return nil, storeErr(err)
		}
		out[sender] = append(out[sender], id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func sortNewestFirst(msgs []*domain.Message) {
	sort.Slice(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
	})
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
