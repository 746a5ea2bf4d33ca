package core

import "sync"

// Handler processes one session input inside a room. Implemented by the
// plugin registry; the core never inspects plugin behavior.
type Handler interface {
	HandleInput(in Input, sess *Session) error
}

// SessionNotifier is an optional Handler extension told when sessions
// join or leave the room, after the membership change took effect.
type SessionNotifier interface {
	NotifyJoin(sess *Session)
	NotifyLeave(sess *Session)
}

// Room groups sessions subscribed to the same broadcast domain. Input
// handling is serialized per room so no two plugin hook chains interleave
// on shared plugin state.
type Room struct {
	Name string

	mu       sync.Mutex // guards sessions
	handleMu sync.Mutex // serializes input handling within the room
	sessions map[*Session]struct{}
	handler  Handler
}

// NewRoom constructs a room with no sessions.
func NewRoom(name string) *Room {
	return &Room{
		Name:     name,
		sessions: make(map[*Session]struct{}),
	}
}

// SetHandler installs the input handler. Called once during wiring,
// before any session joins.
func (r *Room) SetHandler(h Handler) {
	r.handler = h
}

// AddSession inserts a session into the room and notifies the handler.
// Returns true if newly added.
func (r *Room) AddSession(s *Session) bool {
	r.mu.Lock()
	if _, exists := r.sessions[s]; exists {
		r.mu.Unlock()
		return false
	}
	r.sessions[s] = struct{}{}
	s.Room = r.Name
	handler := r.handler
	r.mu.Unlock()

	if n, ok := handler.(SessionNotifier); ok {
		n.NotifyJoin(s)
	}
	return true
}

// RemoveSession deletes a session from the room and notifies the handler.
// Returns true if removed.
func (r *Room) RemoveSession(s *Session) bool {
	r.mu.Lock()
	if _, exists := r.sessions[s]; !exists {
		r.mu.Unlock()
		return false
	}
	delete(r.sessions, s)
	handler := r.handler
	r.mu.Unlock()

	if n, ok := handler.(SessionNotifier); ok {
		n.NotifyLeave(s)
	}
	return true
}

// Sessions returns a snapshot of the room's members.
func (r *Room) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Broadcast sends an event to all sessions in the room.
func (r *Room) Broadcast(ev *Event) {
	for _, s := range r.Sessions() {
		s.Send(ev)
	}
}

// Empty returns true if no sessions are in the room.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions) == 0
}

// Handle runs the room's handler for one input. Handler errors abort only
// the offending input; they are reported to the session and never escape.
func (r *Room) Handle(in Input, sess *Session) {
	if r.handler == nil {
		return
	}
	r.handleMu.Lock()
	defer r.handleMu.Unlock()
	if err := r.handler.HandleInput(in, sess); err != nil {
		sess.SendError(err)
	}
}
