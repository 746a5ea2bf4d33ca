package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello  = "hello"
	InboundTypeJoin   = "join"
	InboundTypeRaw    = "raw"
	InboundTypeAudio  = "audio"
	InboundTypeCursor = "cursor"
	InboundTypeSeen   = "seen"

	OutboundTypeUpdate      = "update"
	OutboundTypeMessage     = "message"
	OutboundTypeMessages    = "messages"
	OutboundTypeMessageEdit = "message-edit"
	OutboundTypeInfo        = "info"
	OutboundTypeError       = "error"
	OutboundTypeAudio       = "audio"
)

// HelloData is sent by the client to introduce itself.
type HelloData struct {
	Token    string `json:"token,omitempty"`
	Protocol int    `json:"protocol,omitempty"`
}

// JoinData asks to move the session into another room.
type JoinData struct {
	Room string `json:"room"`
}

// RawData is one line of user input: a chat message or a command.
type RawData struct {
	Text string `json:"text"`
}

// AudioData carries a base64-encoded audio blob.
type AudioData struct {
	Blob []byte `json:"blob"`
}

// CursorData is a cursor position update.
type CursorData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SeenData acknowledges the highest message the client rendered.
type SeenData struct {
	MessageID int64 `json:"messageId"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// MessagePayload is a single sanitized message. ID 0 marks a provisional
// message; clients reconcile those by content and order.
type MessagePayload struct {
	ID       int64  `json:"id"`
	Room     string `json:"room"`
	Author   string `json:"author"`
	Content  string `json:"content"`
	TS       int64  `json:"ts"`
	EditedTS int64  `json:"editedTs,omitempty"`
}

// AudioPayload carries a relayed audio blob and its sender.
type AudioPayload struct {
	Author string `json:"author"`
	Blob   []byte `json:"blob"`
}

// Error describes a user-visible error notice.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
