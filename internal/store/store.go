package store

import (
	"context"
	"time"
)

// User represents a user in the system.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	IsGuest      bool
	SessionID    string // For guest user session tracking
	Right        int    // Authorization tier gating command access
	Operator     bool
	Money        int64
	CreatedAt    time.Time
}

// Message represents a persisted chat message.
// ID 0 is never stored; it marks an in-flight message that has not been
// assigned a durable identifier yet.
type Message struct {
	ID        int64
	Room      string
	Author    string
	Body      string
	CreatedAt time.Time
	EditedAt  *time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, passwordHash string) (*User, error)

	// CreateGuestUser creates a temporary guest user with session ID.
	CreateGuestUser(ctx context.Context, sessionID string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// AddMoney adjusts a user's balance by delta (may be negative).
	AddMoney(ctx context.Context, userID int64, delta int64) error

	// SetRight updates a user's right level and operator flag.
	SetRight(ctx context.Context, userID int64, right int, operator bool) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// SaveMessage persists a message and fills in its assigned ID.
	SaveMessage(ctx context.Context, msg *Message) error

	// GetMessageByID retrieves a single message.
	GetMessageByID(ctx context.Context, id int64) (*Message, error)

	// ListMessagesBefore retrieves up to limit messages from a room with
	// IDs strictly lower than beforeID, oldest first. beforeID 0 means
	// "latest messages".
	ListMessagesBefore(ctx context.Context, room string, beforeID int64, limit int) ([]*Message, error)

	// UpdateMessageBody replaces a message's body and stamps EditedAt.
	UpdateMessageBody(ctx context.Context, id int64, body string) error
}

// PluginStore handles per-plugin private state. Blobs are opaque to the
// store; plugins serialize their own structures.
type PluginStore interface {
	// LoadPluginData returns the stored blob for a plugin in a room, or
	// nil if none was ever saved.
	LoadPluginData(ctx context.Context, plugin, room string) ([]byte, error)

	// SavePluginData upserts the blob for a plugin in a room.
	SavePluginData(ctx context.Context, plugin, room string, data []byte) error
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore
	PluginStore

	// Close closes the underlying database connection.
	Close() error
}
