package core

// EventKind is a notification the core emits to sessions.
type EventKind int

const (
	// EventUpdate notifies a session that room or session state changed.
	EventUpdate EventKind = iota
	// EventMessage delivers a single new sanitized message.
	EventMessage
	// EventMessages delivers a batch of messages for history backfill.
	// Receivers must treat the batch idempotently: entries with ID 0 are
	// always appended, entries with a known real ID are ignored.
	EventMessages
	// EventMessageEdit replaces an existing message by ID.
	EventMessageEdit
	// EventInfo is a user-facing notice.
	EventInfo
	// EventError is a user-facing error notice.
	EventError
	// EventAudio carries a binary audio payload to play.
	EventAudio
)

// Event is sent to sessions to describe what happened in the system.
type Event struct {
	Kind     EventKind
	Room     string
	Message  *Message
	Messages []*Message // for EventMessages
	Text     string     // for EventInfo / EventError
	Code     string     // taxonomy code for EventError
	Data     []byte     // for EventAudio
	State    any        // for EventUpdate, opaque room/session state
}

// InputKind describes what a session sent inbound.
type InputKind int

const (
	// InputRaw is a line of user text: a chat message or a command.
	InputRaw InputKind = iota
	// InputAudio is a recorded audio blob to relay to the room.
	InputAudio
	// InputCursor is a cursor position update.
	InputCursor
	// InputSeen acknowledges that the session has seen a message.
	InputSeen
	// InputJoin moves the session into another room. Text carries the
	// room name.
	InputJoin
)

// Input is a single inbound action from a session. Inputs from one session
// are processed strictly one at a time, in arrival order.
type Input struct {
	Kind      InputKind
	Text      string
	Data      []byte
	X, Y      float64
	MessageID int64
}
