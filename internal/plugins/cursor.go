package plugins

import (
	"sync"
	"time"

	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/plugin"
)

// cursorMinInterval caps per-session cursor broadcasts.
const cursorMinInterval = 50 * time.Millisecond

// CursorState is the payload broadcast for a cursor move.
type CursorState struct {
	Identifier string  `json:"identifier"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// Cursor relays cursor positions to the room, throttled per session so a
// jittery client cannot flood everyone else.
type Cursor struct {
	plugin.Base

	mu   sync.Mutex
	last map[string]time.Time
}

// NewCursor builds the cursor relay plugin.
func NewCursor(base plugin.Base) *Cursor {
	return &Cursor{Base: base, last: make(map[string]time.Time)}
}

func (c *Cursor) Name() string                    { return "cursor" }
func (c *Cursor) Aliases() []string               { return nil }
func (c *Cursor) MinRight() int                   { return 0 }
func (c *Cursor) Rules() map[string]*plugin.Rule  { return nil }
func (c *Cursor) Run(alias, args string, sess *core.Session) error { return nil }

// OnCursor rebroadcasts the position unless the session moved too
// recently. Throttled updates are dropped silently.
func (c *Cursor) OnCursor(x, y float64, sess *core.Session) error {
	id := sess.Identifier()

	c.mu.Lock()
	now := time.Now()
	if last, ok := c.last[id]; ok && now.Sub(last) < cursorMinInterval {
		c.mu.Unlock()
		return nil
	}
	c.last[id] = now
	c.mu.Unlock()

	c.Room.Broadcast(&core.Event{
		Kind:  core.EventUpdate,
		Room:  c.Room.Name,
		State: CursorState{Identifier: id, X: x, Y: y},
	})
	return nil
}
