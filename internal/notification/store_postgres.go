package notification

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// PostgresStore persists notifications in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed notification store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, n Notification) error {
	var metadata any
	if n.Metadata != nil {
		b, err := json.Marshal(n.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		metadata = b
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, recipient_id, sender_id, sender_name, type, title, message, metadata, is_read, read_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, n.ID, n.RecipientID, n.SenderID, n.SenderName, n.Type, n.Title, n.Message, metadata, n.IsRead, n.ReadAt, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func scanNotification(row interface{ Scan(...any) error }) (*Notification, error) {
	var n Notification
	var metaRaw []byte
	var readAt sql.NullTime
	err := row.Scan(&n.ID, &n.RecipientID, &n.SenderID, &n.SenderName, &n.Type,
		&n.Title, &n.Message, &metaRaw, &n.IsRead, &readAt, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	if len(metaRaw) > 0 {
		if err := json.Unmarshal(metaRaw, &n.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	if readAt.Valid {
		t := readAt.Time
		n.ReadAt = &t
	}
	return &n, nil
}

func (s *PostgresStore) List(ctx context.Context, recipientID string, f Filter) ([]Notification, int64, error) {
	where := " WHERE recipient_id = $1"
	args := []any{recipientID}
	if f.IsRead != nil {
		where += " AND is_read = $2"
		args = append(args, *f.IsRead)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notifications"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}

	query := `
		SELECT id, recipient_id, sender_id, sender_name, type, title, message, metadata, is_read, read_at, created_at
		FROM notifications` + where + fmt.Sprintf(`
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, *n)
	}
	return notifications, total, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id, recipientID string) (*Notification, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, recipient_id, sender_id, sender_name, type, title, message, metadata, is_read, read_at, created_at
		FROM notifications WHERE id = $1 AND recipient_id = $2
	`, id, recipientID)
	n, err := scanNotification(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get notification: %w", err)
	}
	return n, nil
}

func (s *PostgresStore) MarkRead(ctx context.Context, ids []string, recipientID string, readAt time.Time) (int64, error) {
	// The recipient filter in the statement is the ownership check.
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = $1
		WHERE id = ANY($2) AND recipient_id = $3 AND is_read = FALSE
	`, readAt, pq.Array(ids), recipientID)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return res.RowsAffected()
}

func (s *PostgresStore) MarkAllRead(ctx context.Context, recipientID string, readAt time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = $1
		WHERE recipient_id = $2 AND is_read = FALSE
	`, readAt, recipientID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return res.RowsAffected()
}

func (s *PostgresStore) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE`,
		recipientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}
	return count, nil
}
