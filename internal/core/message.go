package core

import "time"

// Message is the domain model for a chat message. ID 0 marks a message
// that has not been assigned a durable identifier yet; clients treat such
// messages as provisional and reconcile by content and order, never by ID.
type Message struct {
	ID        int64
	Room      string
	Author    string
	Content   string // sanitized HTML, safe to render
	CreatedAt time.Time
	EditedAt  *time.Time
}
