package core

import (
	"strings"

	"github.com/roomchat/roomchat-server/internal/store"
)

// Session is one connected actor. It is created on connect and destroyed
// on disconnect, outliving individual messages. A session may be anonymous
// (User == nil) until it authenticates.
type Session struct {
	ID      string
	User    *store.User
	Room    string
	Inbound chan Input
	Events  chan *Event
}

// NewSession constructs a session with initialized channels.
func NewSession(id string, user *store.User) *Session {
	return &Session{
		ID:      id,
		User:    user,
		Inbound: make(chan Input, 8),
		Events:  make(chan *Event, 32),
	}
}

// Identifier returns the lowercased name other users target this session
// by. Anonymous sessions get a star-prefixed pseudo identifier derived
// from the connection ID.
func (s *Session) Identifier() string {
	if s.User != nil {
		return strings.ToLower(s.User.Username)
	}
	if len(s.ID) >= 6 {
		return "*" + s.ID[:6]
	}
	return "*" + s.ID
}

// Right returns the session's authorization tier. Anonymous sessions sit
// below right 0 so they fail any rule requiring a logged-in user.
func (s *Session) Right() int {
	if s.User == nil {
		return -1
	}
	return s.User.Right
}

// IsOp reports whether the session holds operator status.
func (s *Session) IsOp() bool {
	return s.User != nil && s.User.Operator
}

// Send queues an event for delivery. Slow consumers are dropped rather
// than blocking the room.
func (s *Session) Send(ev *Event) {
	select {
	case s.Events <- ev:
	default:
	}
}

// SendInfo queues a user-facing notice.
func (s *Session) SendInfo(text string) {
	s.Send(&Event{Kind: EventInfo, Text: text})
}

// SendError queues a user-facing error notice derived from err.
func (s *Session) SendError(err error) {
	s.Send(&Event{Kind: EventError, Text: err.Error(), Code: CodeOf(err)})
}
