package plugin

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/store"
)

// Plugin is a named, stateful unit implementing one or more command
// aliases. The registry owns plugin instances and dispatches to them by
// alias; a plugin owns its private storage exclusively.
type Plugin interface {
	// Name identifies the plugin, also keying its persisted storage.
	Name() string
	// Aliases lists the command aliases this plugin answers to, without
	// the leading marker.
	Aliases() []string
	// MinRight is the right level required to invoke any of the aliases.
	MinRight() int
	// Rules returns the argument schema per alias. A nil rule means the
	// alias accepts anything.
	Rules() map[string]*Rule
	// Run executes one validated command invocation.
	Run(alias, args string, sess *core.Session) error
}

// MessageHook is implemented by plugins that intercept new messages.
// Hooks run in registration order; each receives the previous hook's
// output and returns transformed content, or an error to veto the message
// entirely.
type MessageHook interface {
	OnNewMessage(content string, sess *core.Session) (string, error)
}

// AudioHandler is implemented by plugins that consume audio blobs.
type AudioHandler interface {
	OnAudio(data []byte, sess *core.Session) error
}

// CursorHandler is implemented by plugins that consume cursor updates.
type CursorHandler interface {
	OnCursor(x, y float64, sess *core.Session) error
}

// SeenHandler is implemented by plugins that track seen-message acks.
type SeenHandler interface {
	OnSeen(messageID int64, sess *core.Session) error
}

// SessionObserver is implemented by plugins that react to sessions
// joining or leaving the room.
type SessionObserver interface {
	OnSessionJoined(sess *core.Session)
	OnSessionLeft(sess *core.Session)
}

// Base carries the collaborators every plugin needs and implements the
// storage round-trip. Plugins embed it and keep authoritative state in
// memory; persistence is a best-effort mirror.
type Base struct {
	Room  *core.Room
	Store store.PluginStore
	Log   *zerolog.Logger
}

// LoadState unmarshals the plugin's persisted blob into v. Missing data
// leaves v untouched. Called from plugin constructors, before the plugin
// participates in dispatch.
func (b *Base) LoadState(name string, v any) error {
	if b.Store == nil || b.Room == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := b.Store.LoadPluginData(ctx, name, b.Room.Name)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	return json.Unmarshal(data, v)
}

// SaveState persists v asynchronously. The dispatch pipeline never waits
// on storage; a failed write is logged and the in-memory state stays
// authoritative.
func (b *Base) SaveState(name string, v any) {
	if b.Store == nil || b.Room == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		if b.Log != nil {
			b.Log.Error().Err(err).Str("plugin", name).Msg("marshal plugin state")
		}
		return
	}
	room := b.Room.Name
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.Store.SavePluginData(ctx, name, room, data); err != nil && b.Log != nil {
			b.Log.Warn().Err(err).Str("plugin", name).Msg("persist plugin state")
		}
	}()
}
