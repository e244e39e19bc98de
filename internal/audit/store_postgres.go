package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PostgresStore persists audit entries in PostgreSQL. Append-only by
// construction: only INSERT and SELECT statements are issued.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func marshalDoc(doc map[string]any) (any, error) {
	if doc == nil {
		return nil, nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return b, nil
}

func unmarshalDoc(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) Append(ctx context.Context, e Entry) error {
	oldDoc, err := marshalDoc(e.OldData)
	if err != nil {
		return err
	}
	newDoc, err := marshalDoc(e.NewData)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (id, user_id, user_name, event_type, event_action, old_data, new_data, ip_address, user_agent, client, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''), NULLIF($10, ''), $11)
	`, e.ID, e.UserID, e.UserName, e.EventType, e.EventAction, oldDoc, newDoc, e.IPAddress, e.UserAgent, e.Client, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

func buildWhere(f Filter) (string, []any) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.UserID != "" {
		conds = append(conds, "user_id = "+arg(f.UserID))
	}
	if f.EventType != "" {
		conds = append(conds, "event_type = "+arg(f.EventType))
	}
	if f.Start != nil {
		conds = append(conds, "created_at >= "+arg(*f.Start))
	}
	if f.End != nil {
		conds = append(conds, "created_at <= "+arg(*f.End))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *PostgresStore) List(ctx context.Context, f Filter) ([]Entry, int64, error) {
	where, args := buildWhere(f)

	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_logs"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	query := `
		SELECT id, user_id, user_name, event_type, event_action, old_data, new_data,
		       COALESCE(ip_address, ''), COALESCE(user_agent, ''), COALESCE(client, ''), created_at
		FROM audit_logs` + where + fmt.Sprintf(`
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *e)
	}
	return entries, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var e Entry
	var oldRaw, newRaw []byte
	err := row.Scan(&e.ID, &e.UserID, &e.UserName, &e.EventType, &e.EventAction,
		&oldRaw, &newRaw, &e.IPAddress, &e.UserAgent, &e.Client, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if e.OldData, err = unmarshalDoc(oldRaw); err != nil {
		return nil, err
	}
	if e.NewData, err = unmarshalDoc(newRaw); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, user_name, event_type, event_action, old_data, new_data,
		       COALESCE(ip_address, ''), COALESCE(user_agent, ''), COALESCE(client, ''), created_at
		FROM audit_logs WHERE id = $1
	`, id)
	e, err := scanEntry(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get audit log: %w", err)
	}
	return e, nil
}

func (s *PostgresStore) Stats(ctx context.Context, userID string, dayStart time.Time) (*Stats, error) {
	where := ""
	var args []any
	if userID != "" {
		where = " WHERE user_id = $1"
		args = append(args, userID)
	}

	stats := &Stats{}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_logs"+where, args...).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("stats total: %w", err)
	}

	todayArgs := append(append([]any{}, args...), dayStart)
	todayCond := fmt.Sprintf("created_at >= $%d", len(todayArgs))
	todayWhere := " WHERE " + todayCond
	if where != "" {
		todayWhere = where + " AND " + todayCond
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_logs"+todayWhere, todayArgs...).Scan(&stats.Today); err != nil {
		return nil, fmt.Errorf("stats today: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT event_type, COUNT(*) AS c FROM audit_logs`+where+`
		GROUP BY event_type
		ORDER BY c DESC, event_type ASC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("stats by type: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.EventType, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan type count: %w", err)
		}
		stats.ByEventType = append(stats.ByEventType, tc)
	}
	return stats, rows.Err()
}
