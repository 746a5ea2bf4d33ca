package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/roomchat/roomchat-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	is_guest      BOOLEAN NOT NULL DEFAULT 0,
	session_id    TEXT,
	right_level   INTEGER NOT NULL DEFAULT 0,
	operator      BOOLEAN NOT NULL DEFAULT 0,
	money         INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	room       TEXT NOT NULL,
	author     TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	edited_at  DATETIME
);
CREATE INDEX IF NOT EXISTS idx_messages_room_id ON messages(room, id);

CREATE TABLE IF NOT EXISTS plugin_data (
	plugin     TEXT NOT NULL,
	room       TEXT NOT NULL,
	data       BLOB NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (plugin, room)
);
`

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, is_guest)
		VALUES (?, ?, 0)
	`
	result, err := s.db.ExecContext(ctx, query, username, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// CreateGuestUser creates a temporary guest user with session ID.
func (s *SQLiteStore) CreateGuestUser(ctx context.Context, sessionID string) (*store.User, error) {
	query := `
		INSERT INTO users (username, password_hash, is_guest, session_id)
		VALUES (?, '', 1, ?)
	`
	guestUsername := "*guest_" + sessionID[:8]

	result, err := s.db.ExecContext(ctx, query, guestUsername, sessionID)
	if err != nil {
		return nil, fmt.Errorf("insert guest user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

const userColumns = `id, username, password_hash, is_guest, COALESCE(session_id, ''), right_level, operator, money, created_at`

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var user store.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsGuest,
		&user.SessionID,
		&user.Right,
		&user.Operator,
		&user.Money,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ? AND is_guest = 0`
	return s.scanUser(s.db.QueryRowContext(ctx, query, username))
}

// AddMoney adjusts a user's balance by delta (may be negative).
func (s *SQLiteStore) AddMoney(ctx context.Context, userID int64, delta int64) error {
	query := `UPDATE users SET money = money + ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, delta, userID)
	if err != nil {
		return fmt.Errorf("update money: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %d not found", userID)
	}
	return nil
}

// SetRight updates a user's right level and operator flag.
func (s *SQLiteStore) SetRight(ctx context.Context, userID int64, right int, operator bool) error {
	query := `UPDATE users SET right_level = ?, operator = ? WHERE id = ?`
	if _, err := s.db.ExecContext(ctx, query, right, operator, userID); err != nil {
		return fmt.Errorf("update right: %w", err)
	}
	return nil
}

// ==== MessageStore implementation ====

// SaveMessage persists a message and fills in its assigned ID.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	query := `
		INSERT INTO messages (room, author, body, created_at)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, msg.Room, msg.Author, msg.Body, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	msg.ID = id
	return nil
}

// GetMessageByID retrieves a single message.
func (s *SQLiteStore) GetMessageByID(ctx context.Context, id int64) (*store.Message, error) {
	query := `
		SELECT id, room, author, body, created_at, edited_at
		FROM messages
		WHERE id = ?
	`
	var msg store.Message
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID,
		&msg.Room,
		&msg.Author,
		&msg.Body,
		&msg.CreatedAt,
		&msg.EditedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("message not found: %w", err)
		}
		return nil, fmt.Errorf("query message: %w", err)
	}
	return &msg, nil
}

// ListMessagesBefore retrieves up to limit messages from a room with IDs
// strictly lower than beforeID, oldest first. beforeID 0 means latest.
func (s *SQLiteStore) ListMessagesBefore(ctx context.Context, room string, beforeID int64, limit int) ([]*store.Message, error) {
	query := `
		SELECT id, room, author, body, created_at, edited_at
		FROM messages
		WHERE room = ? AND (? = 0 OR id < ?)
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, room, beforeID, beforeID, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.Message
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(&msg.ID, &msg.Room, &msg.Author, &msg.Body, &msg.CreatedAt, &msg.EditedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	// Reverse into ascending order; clients prepend batches as-is.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// UpdateMessageBody replaces a message's body and stamps EditedAt.
func (s *SQLiteStore) UpdateMessageBody(ctx context.Context, id int64, body string) error {
	query := `UPDATE messages SET body = ?, edited_at = CURRENT_TIMESTAMP WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, body, id)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("message %d not found", id)
	}
	return nil
}

// ==== PluginStore implementation ====

// LoadPluginData returns the stored blob for a plugin in a room, or nil.
func (s *SQLiteStore) LoadPluginData(ctx context.Context, plugin, room string) ([]byte, error) {
	query := `SELECT data FROM plugin_data WHERE plugin = ? AND room = ?`
	var data []byte
	err := s.db.QueryRowContext(ctx, query, plugin, room).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query plugin data: %w", err)
	}
	return data, nil
}

// SavePluginData upserts the blob for a plugin in a room.
func (s *SQLiteStore) SavePluginData(ctx context.Context, plugin, room string, data []byte) error {
	query := `
		INSERT INTO plugin_data (plugin, room, data, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (plugin, room) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, plugin, room, data); err != nil {
		return fmt.Errorf("upsert plugin data: %w", err)
	}
	return nil
}
