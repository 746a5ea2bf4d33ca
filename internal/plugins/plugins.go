// Package plugins ships the standard plugin set. Each plugin is an
// example payload for the framework in internal/plugin; the framework
// itself knows nothing about any of them.
package plugins

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/format"
	"github.com/roomchat/roomchat-server/internal/plugin"
	"github.com/roomchat/roomchat-server/internal/store"
)

// Options tunes the default plugin set.
type Options struct {
	HistoryPageSize  int
	PrankStickerCode string
}

// RegisterDefaults installs the standard plugins. Registration order is
// the hook priority chain and must stay deterministic: mute runs before
// prank so a muted user is rejected before any cosmetic substitution
// applies.
func RegisterDefaults(reg *plugin.Registry, room *core.Room, hub *core.Hub, st store.Store, f *format.Formatter, logger *zerolog.Logger, opts Options) error {
	base := plugin.Base{Room: room, Store: st, Log: logger}

	all := []plugin.Plugin{
		NewConnectedList(base),
		NewMute(base, hub),
		NewPrank(base, hub, st, opts.PrankStickerCode),
		NewMoney(base, hub, st, reg),
		NewHistory(base, st, f, opts.HistoryPageSize),
		NewEdit(base, st, f),
		NewCursor(base),
		NewAudio(base),
	}
	for _, p := range all {
		if err := reg.Register(p); err != nil {
			return fmt.Errorf("register %s: %w", p.Name(), err)
		}
	}
	return nil
}
