package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"github.com/Mounikaran/wall-e-mail/internal/model"
	"github.com/Mounikaran/wall-e-mail/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// labelSep is the persisted representation of the label list: one
// comma-joined string column.
const labelSep = ","

// SQLite implements MessageStore backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// UpsertBatch inserts or updates emails in a single transaction.
func (s *SQLite) UpsertBatch(ctx context.Context, emails []model.Email) error {
	if len(emails) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO emails (message_id, sender, recipient, subject, body, labels, received_date, is_read)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (message_id) DO UPDATE SET
		   sender = excluded.sender,
		   recipient = excluded.recipient,
		   subject = excluded.subject,
		   body = excluded.body,
		   labels = excluded.labels,
		   received_date = excluded.received_date,
		   is_read = excluded.is_read`,
	)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, e := range emails {
		_, err := stmt.ExecContext(ctx,
			e.ID, e.Sender, e.Recipient, e.Subject, e.Body,
			joinLabels(e.Labels), e.ReceivedAt.UTC().Format(timeLayout), boolToInt(e.Read),
		)
		if err != nil {
			return fmt.Errorf("upsert email %s: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// MarkProcessedBatch marks the given IDs as processed in a single
// transaction.
func (s *SQLite) MarkProcessedBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `UPDATE emails SET processed = 1 WHERE message_id = ?`)
	if err != nil {
		return fmt.Errorf("prepare mark processed: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("mark processed %s: %w", id, err)
		}
	}
	return tx.Commit()
}

// SetRead updates the read flag of a stored email.
func (s *SQLite) SetRead(ctx context.Context, id string, read bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE emails SET is_read = ? WHERE message_id = ?`,
		boolToInt(read), id,
	)
	if err != nil {
		return fmt.Errorf("set read: %w", err)
	}
	return nil
}

// UpdateLabels replaces the stored labels of an email.
func (s *SQLite) UpdateLabels(ctx context.Context, id string, labels []string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE emails SET labels = ? WHERE message_id = ?`,
		joinLabels(labels), id,
	)
	if err != nil {
		return fmt.Errorf("update labels: %w", err)
	}
	return nil
}

// ListEmails returns stored emails, newest first, restricted to the
// last days when days > 0.
func (s *SQLite) ListEmails(ctx context.Context, days int) ([]model.Email, error) {
	query := `SELECT message_id, sender, recipient, subject, body, labels, received_date, is_read
		  FROM emails`
	var args []any
	if days > 0 {
		query += ` WHERE received_date >= ?`
		args = append(args, time.Now().UTC().AddDate(0, 0, -days).Format(timeLayout))
	}
	query += ` ORDER BY received_date DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query emails: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var emails []model.Email
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

// ListProcessedIDs returns processed email IDs, optionally restricted
// to the given set.
func (s *SQLite) ListProcessedIDs(ctx context.Context, ids []string) ([]string, error) {
	query := `SELECT message_id FROM emails WHERE processed = 1`
	var args []any
	if len(ids) > 0 {
		query += ` AND message_id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	query += ` ORDER BY message_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query processed ids: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan processed id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func joinLabels(labels []string) string {
	return strings.Join(labels, labelSep)
}

func splitLabels(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, labelSep)
}

type scannable interface {
	Scan(dest ...any) error
}

func scanEmail(row scannable) (model.Email, error) {
	var e model.Email
	var labels sql.NullString
	var received string
	var isRead int
	err := row.Scan(&e.ID, &e.Sender, &e.Recipient, &e.Subject, &e.Body, &labels, &received, &isRead)
	if err != nil {
		return e, fmt.Errorf("scan email: %w", err)
	}
	if labels.Valid {
		e.Labels = splitLabels(labels.String)
	}
	e.ReceivedAt, _ = time.Parse(timeLayout, received)
	e.Read = isRead == 1
	return e, nil
}

var _ MessageStore = (*SQLite)(nil)
