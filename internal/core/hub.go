package core

import (
	"sync"

	"github.com/rs/zerolog"
)

// Hub owns live sessions and rooms. Each registered session gets its own
// worker goroutine draining its Inbound channel, so one session has at
// most one in-flight input while distinct sessions proceed concurrently.
type Hub struct {
	log *zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
	rooms    map[string]*Room
	order    []string // room creation order; order[0] is the default room

	wg sync.WaitGroup
}

// NewHub creates a hub with no rooms.
func NewHub(logger *zerolog.Logger) *Hub {
	return &Hub{
		log:      logger,
		sessions: make(map[string]*Session),
		rooms:    make(map[string]*Room),
	}
}

// AddRoom creates and registers a room. The first room added becomes the
// default room new sessions land in.
func (h *Hub) AddRoom(name string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[name]; ok {
		return r
	}
	r := NewRoom(name)
	h.rooms[name] = r
	h.order = append(h.order, name)
	return r
}

// Room returns a room by name, or nil.
func (h *Hub) Room(name string) *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rooms[name]
}

// DefaultRoom returns the first registered room, or nil.
func (h *Hub) DefaultRoom() *Room {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.order) == 0 {
		return nil
	}
	return h.rooms[h.order[0]]
}

// RegisterSession adds a session to the default room and starts its
// worker. The caller closes the session's Inbound channel on disconnect.
func (h *Hub) RegisterSession(s *Session) {
	h.mu.Lock()
	h.sessions[s.ID] = s
	h.mu.Unlock()

	if room := h.DefaultRoom(); room != nil {
		room.AddSession(s)
	}

	h.wg.Add(1)
	go h.runSession(s)
}

// UnregisterSession removes a session from the hub and its room.
func (h *Hub) UnregisterSession(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s.ID)
	h.mu.Unlock()

	if room := h.Room(s.Room); room != nil {
		room.RemoveSession(s)
	}
}

// Wait blocks until all session workers have drained. Used on shutdown.
func (h *Hub) Wait() {
	h.wg.Wait()
}

func (h *Hub) runSession(s *Session) {
	defer h.wg.Done()
	for in := range s.Inbound {
		if in.Kind == InputJoin {
			if err := h.MoveSession(s, in.Text); err != nil {
				s.SendError(err)
			}
			continue
		}
		room := h.Room(s.Room)
		if room == nil {
			s.SendError(ErrRoomNotFound)
			continue
		}
		h.handle(room, in, s)
	}
}

// MoveSession switches a session to another room. Leaving the old room
// happens first so presence lists never show the session twice.
func (h *Hub) MoveSession(s *Session, roomName string) error {
	target := h.Room(roomName)
	if target == nil {
		return ErrRoomNotFound
	}
	if s.Room == roomName {
		return nil
	}
	if old := h.Room(s.Room); old != nil {
		old.RemoveSession(s)
	}
	target.AddSession(s)
	return nil
}

// handle shields the hub from misbehaving plugins: a panic aborts the
// single input, never the session worker.
func (h *Hub) handle(room *Room, in Input, s *Session) {
	defer func() {
		if rec := recover(); rec != nil {
			if h.log != nil {
				h.log.Error().Interface("panic", rec).Str("session", s.ID).Msg("input handler panicked")
			}
			s.SendError(NewChatError(ErrCodeBadRequest, "internal error while processing your message"))
		}
	}()
	room.Handle(in, s)
}

// Sessions returns a snapshot of all live sessions.
func (h *Hub) Sessions() []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}

// SessionByIdentifier returns the live session whose identifier matches
// exactly, or nil.
func (h *Hub) SessionByIdentifier(identifier string) *Session {
	for _, s := range h.Sessions() {
		if s.Identifier() == identifier {
			return s
		}
	}
	return nil
}
