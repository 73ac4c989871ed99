package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/goerr/v2"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/sortir-lab/sortir/pkg/domain/model"
	"github.com/sortir-lab/sortir/pkg/domain/types"
)

//go:embed schema.sql
var schema string

// Repository is a SQLite-backed conversation history store. Messages
// are ordered by rowid within a session; WAL mode keeps concurrent
// chat appends from blocking readers.
type Repository struct {
	db   *sql.DB
	path string
}

// New opens (and creates if needed) the history database at path
func New(path string) (*Repository, error) {
	if path == "" {
		return nil, goerr.New("database path is required")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create database directory", goerr.V("path", path))
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, goerr.Wrap(err, "failed to open database", goerr.V("path", path))
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to enable foreign keys")
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, goerr.Wrap(err, "failed to apply schema")
	}

	return &Repository{db: db, path: path}, nil
}

// CreateSession registers a new empty session
func (r *Repository) CreateSession(ctx context.Context) (model.SessionID, error) {
	id := model.NewSessionID()
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sessions (id, created_at) VALUES (?, ?)",
		string(id), time.Now().UTC())
	if err != nil {
		return "", goerr.Wrap(err, "failed to create session")
	}
	return id, nil
}

// Append adds a message to the session, creating the session if missing
func (r *Repository) Append(ctx context.Context, sessionID model.SessionID, msg *model.Message) error {
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO sessions (id, created_at) VALUES (?, ?)",
		string(sessionID), createdAt); err != nil {
		return goerr.Wrap(err, "failed to ensure session", goerr.V("session_id", sessionID))
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO messages (session_id, role, content, created_at) VALUES (?, ?, ?, ?)",
		string(sessionID), msg.Role.String(), msg.Content, createdAt); err != nil {
		return goerr.Wrap(err, "failed to append message", goerr.V("session_id", sessionID))
	}

	if err := tx.Commit(); err != nil {
		return goerr.Wrap(err, "failed to commit message")
	}
	return nil
}

// GetRecent returns up to limit most recent messages in chronological
// order. An unknown session yields an empty slice.
func (r *Repository) GetRecent(ctx context.Context, sessionID model.SessionID, limit int) ([]*model.Message, error) {
	if limit <= 0 {
		limit = -1 // no limit in SQLite
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT role, content, created_at
		   FROM (SELECT id, role, content, created_at
		           FROM messages WHERE session_id = ?
		          ORDER BY id DESC LIMIT ?)
		  ORDER BY id ASC`,
		string(sessionID), limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to query messages", goerr.V("session_id", sessionID))
	}
	defer func() { _ = rows.Close() }()

	messages := make([]*model.Message, 0)
	for rows.Next() {
		var roleStr, content string
		var createdAt time.Time
		if err := rows.Scan(&roleStr, &content, &createdAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan message")
		}
		role, err := types.ParseRole(roleStr)
		if err != nil {
			return nil, goerr.Wrap(err, "corrupt message row", goerr.V("session_id", sessionID))
		}
		messages = append(messages, &model.Message{
			Role:      role,
			Content:   content,
			CreatedAt: createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate messages")
	}
	return messages, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// Path returns the database file path
func (r *Repository) Path() string {
	return r.path
}
