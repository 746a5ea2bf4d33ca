package plugins

import (
	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/plugin"
)

// maxAudioBytes caps relayed audio blobs.
const maxAudioBytes = 1 << 20

// Audio relays recorded audio blobs to the room. Only logged-in users may
// send audio.
type Audio struct {
	plugin.Base
}

// NewAudio builds the audio relay plugin.
func NewAudio(base plugin.Base) *Audio {
	return &Audio{Base: base}
}

func (a *Audio) Name() string                    { return "audio" }
func (a *Audio) Aliases() []string               { return nil }
func (a *Audio) MinRight() int                   { return 0 }
func (a *Audio) Rules() map[string]*plugin.Rule  { return nil }
func (a *Audio) Run(alias, args string, sess *core.Session) error { return nil }

// OnAudio validates and rebroadcasts the blob.
func (a *Audio) OnAudio(data []byte, sess *core.Session) error {
	if sess.User == nil {
		return core.NewChatError(core.ErrCodeInsufficientRights, "log in to send audio")
	}
	if len(data) == 0 || len(data) > maxAudioBytes {
		return core.NewChatError(core.ErrCodeValidation, "audio blob is empty or too large")
	}
	a.Room.Broadcast(&core.Event{
		Kind: core.EventAudio,
		Room: a.Room.Name,
		Text: sess.Identifier(),
		Data: data,
	})
	return nil
}
