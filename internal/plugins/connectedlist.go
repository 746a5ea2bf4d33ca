package plugins

import (
	"sync"

	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/plugin"
)

// Resyncer is the narrow capability other plugins look up when they
// changed something the presence list displays.
type Resyncer interface {
	Resync()
}

// UserState is one entry of the broadcast presence list.
type UserState struct {
	Identifier string `json:"identifier"`
	Right      int    `json:"right"`
	Operator   bool   `json:"op"`
	LastSeenID int64  `json:"lastSeenId"`
}

// ConnectedList tracks who is in the room and pushes an update event
// whenever membership or seen-message state changes.
type ConnectedList struct {
	plugin.Base

	mu       sync.Mutex
	lastSeen map[string]int64
}

// NewConnectedList builds the presence plugin.
func NewConnectedList(base plugin.Base) *ConnectedList {
	return &ConnectedList{
		Base:     base,
		lastSeen: make(map[string]int64),
	}
}

func (c *ConnectedList) Name() string           { return "connectedlist" }
func (c *ConnectedList) Aliases() []string      { return nil }
func (c *ConnectedList) MinRight() int          { return 0 }
func (c *ConnectedList) Rules() map[string]*plugin.Rule { return nil }

func (c *ConnectedList) Run(alias, args string, sess *core.Session) error {
	return nil
}

// OnSeen records the highest message a session acknowledged and resyncs.
func (c *ConnectedList) OnSeen(messageID int64, sess *core.Session) error {
	c.mu.Lock()
	if messageID > c.lastSeen[sess.Identifier()] {
		c.lastSeen[sess.Identifier()] = messageID
	}
	c.mu.Unlock()
	c.Resync()
	return nil
}

// OnSessionJoined pushes a fresh presence list to everyone.
func (c *ConnectedList) OnSessionJoined(sess *core.Session) {
	c.Resync()
}

// OnSessionLeft forgets the session's seen state and resyncs.
func (c *ConnectedList) OnSessionLeft(sess *core.Session) {
	c.mu.Lock()
	delete(c.lastSeen, sess.Identifier())
	c.mu.Unlock()
	c.Resync()
}

// Resync broadcasts the current presence list to the room.
func (c *ConnectedList) Resync() {
	if c.Room == nil {
		return
	}
	sessions := c.Room.Sessions()

	c.mu.Lock()
	state := make([]UserState, 0, len(sessions))
	for _, s := range sessions {
		state = append(state, UserState{
			Identifier: s.Identifier(),
			Right:      s.Right(),
			Operator:   s.IsOp(),
			LastSeenID: c.lastSeen[s.Identifier()],
		})
	}
	c.mu.Unlock()

	c.Room.Broadcast(&core.Event{Kind: core.EventUpdate, Room: c.Room.Name, State: state})
}
