package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Line kinds.
const (
	KindNotify   = "notify"
	KindSent     = "sent"
	KindReceived = "received"
)

const defaultLimit = 50

// Conversation is the archive of one context on one host.
type Conversation struct {
	ID        string
	Host      string
	Label     string
	Lines     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Entry is one archived transcript line.
type Entry struct {
	Host      string
	Label     string
	Kind      string
	Level     int
	Text      string
	Timestamp time.Time
}

// Transcript records and reads back context transcripts.
type Transcript struct {
	db *DB
}

// NewTranscript creates a transcript over db.
func NewTranscript(db *DB) *Transcript {
	return &Transcript{db: db}
}

// conversation finds the conversation for host and label, creating it if needed.
func (t *Transcript) conversation(host, label string) (string, error) {
	var id string
	err := t.db.sql.QueryRow(
		`SELECT id FROM conversations WHERE host = ? AND label = ?`, host, label,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("looking up conversation %s/%s: %w", host, label, err)
	}

	id = uuid.New().String()
	now := time.Now().UTC().Format(time.DateTime)
	_, err = t.db.sql.Exec(
		`INSERT INTO conversations (id, host, label, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, host, label, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("creating conversation %s/%s: %w", host, label, err)
	}
	t.db.log.Debug().Str("host", host).Str("label", label).Str("id", id).Msg("conversation created")
	return id, nil
}

// Record appends e to its conversation.
func (t *Transcript) Record(e Entry) error {
	if e.Label == "" {
		return errors.New("transcript entry needs a label")
	}
	if e.Kind == "" {
		e.Kind = KindNotify
	}
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	id, err := t.conversation(e.Host, e.Label)
	if err != nil {
		return err
	}

	if _, err := t.db.sql.Exec(
		`INSERT INTO lines (conversation_id, kind, level, text, timestamp) VALUES (?, ?, ?, ?, ?)`,
		id, e.Kind, e.Level, e.Text, ts.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("recording line: %w", err)
	}

	_, _ = t.db.sql.Exec(
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.DateTime), id,
	)
	return nil
}

// Recent returns the last limit lines of the conversations matching label,
// oldest first. label is either "host/label" or a bare label matching every
// host. A limit of 0 defaults to 50.
func (t *Transcript) Recent(label string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	query := `SELECT c.host, c.label, l.kind, l.level, l.text, l.timestamp
		FROM lines l JOIN conversations c ON c.id = l.conversation_id
		WHERE c.label = ?`
	args := []any{label}
	if host, rest, ok := SplitLabel(label); ok {
		query += ` OR (c.host = ? AND c.label = ?)`
		args = append(args, host, rest)
	}
	query += ` ORDER BY l.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := t.db.sql.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading transcript %q: %w", label, err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Search finds lines matching an FTS5 query, best match first. A limit of 0
// defaults to 50.
func (t *Transcript) Search(query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := t.db.sql.Query(
		`SELECT c.host, c.label, l.kind, l.level, l.text, l.timestamp
		 FROM lines_fts
		 JOIN lines l ON l.id = lines_fts.rowid
		 JOIN conversations c ON c.id = l.conversation_id
		 WHERE lines_fts MATCH ?
		 ORDER BY rank
		 LIMIT ?`,
		query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching transcript: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Conversations lists every archived conversation, most recently active first.
func (t *Transcript) Conversations() ([]Conversation, error) {
	rows, err := t.db.sql.Query(
		`SELECT c.id, c.host, c.label, COUNT(l.id), c.created_at, c.updated_at
		 FROM conversations c LEFT JOIN lines l ON l.conversation_id = c.id
		 GROUP BY c.id
		 ORDER BY c.updated_at DESC, c.host, c.label`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		var c Conversation
		var createdAt, updatedAt string
		if err := rows.Scan(&c.ID, &c.Host, &c.Label, &c.Lines, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		c.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
		c.UpdatedAt, _ = time.Parse(time.DateTime, updatedAt)
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes the conversation for host and label with all its lines.
func (t *Transcript) Delete(host, label string) error {
	tx, err := t.db.sql.Begin()
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM lines WHERE conversation_id IN (SELECT id FROM conversations WHERE host = ? AND label = ?)`,
		host, label,
	); err != nil {
		return fmt.Errorf("deleting lines: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM conversations WHERE host = ? AND label = ?`, host, label); err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	return tx.Commit()
}

// SplitLabel splits a host-qualified label "host/label" at the first slash.
func SplitLabel(label string) (host, rest string, ok bool) {
	i := strings.Index(label, "/")
	if i <= 0 || i == len(label)-1 {
		return "", "", false
	}
	return label[:i], label[i+1:], true
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.Host, &e.Label, &e.Kind, &e.Level, &e.Text, &ts); err != nil {
			return nil, fmt.Errorf("scanning line: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
