package plugins

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/plugin"
)

// Mute silences users for a duration. The expiry map is authoritative in
// memory; persistence is a best-effort mirror so a restart cannot drop an
// active mute silently.
type Mute struct {
	plugin.Base
	hub *core.Hub

	mu    sync.Mutex
	muted map[string]time.Time
}

// NewMute builds the plugin and loads previously persisted mutes.
func NewMute(base plugin.Base, hub *core.Hub) *Mute {
	m := &Mute{
		Base:  base,
		hub:   hub,
		muted: make(map[string]time.Time),
	}
	if err := m.LoadState(m.Name(), &m.muted); err != nil && base.Log != nil {
		base.Log.Warn().Err(err).Msg("load mute state")
	}
	return m
}

func (m *Mute) Name() string      { return "mute" }
func (m *Mute) Aliases() []string { return []string{"mute", "unmute"} }
func (m *Mute) MinRight() int     { return 100 }

func (m *Mute) Rules() map[string]*plugin.Rule {
	return map[string]*plugin.Rule{
		"mute": {
			MinCount: 2,
			MaxCount: 2,
			Params: []plugin.Param{
				{Name: "username", Pattern: plugin.UsernamePattern},
				{Name: "duration", Pattern: plugin.NumberPattern, Info: "seconds"},
			},
		},
		"unmute": {
			MinCount: 1,
			MaxCount: 1,
			Params: []plugin.Param{
				{Name: "username", Pattern: plugin.UsernamePattern},
			},
		},
	}
}

func (m *Mute) Run(alias, args string, sess *core.Session) error {
	switch alias {
	case "mute":
		return m.handleMute(args, sess)
	case "unmute":
		return m.handleUnmute(args, sess)
	}
	return nil
}

func (m *Mute) handleMute(args string, sess *core.Session) error {
	fields := splitFields(args)
	identifier, err := m.hub.ResolveIdentifier(fields[0])
	if err != nil {
		return err
	}
	seconds, err := strconv.Atoi(fields[1])
	if err != nil {
		return core.NewChatError(core.ErrCodeValidation, "duration must be a number of seconds")
	}

	until := time.Now().Add(time.Duration(seconds) * time.Second)
	m.mu.Lock()
	m.muted[identifier] = until
	m.mu.Unlock()
	m.SaveState(m.Name(), m.snapshot())

	sess.SendInfo(fmt.Sprintf("%s is muted for %ds", identifier, seconds))
	return nil
}

func (m *Mute) handleUnmute(args string, sess *core.Session) error {
	identifier, err := m.hub.ResolveIdentifier(args)
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.muted, identifier)
	m.mu.Unlock()
	m.SaveState(m.Name(), m.snapshot())

	sess.SendInfo(fmt.Sprintf("%s is no longer muted", identifier))
	return nil
}

// OnNewMessage rejects messages from muted identifiers. Expired records
// are evicted lazily here, never swept proactively.
func (m *Mute) OnNewMessage(content string, sess *core.Session) (string, error) {
	identifier := sess.Identifier()

	m.mu.Lock()
	until, ok := m.muted[identifier]
	expired := ok && time.Now().After(until)
	if expired {
		delete(m.muted, identifier)
		ok = false
	}
	m.mu.Unlock()

	if expired {
		m.SaveState(m.Name(), m.snapshot())
	}
	if ok {
		return "", fmt.Errorf("you are muted until %s", until.Format(time.RFC3339))
	}
	return content, nil
}

func (m *Mute) snapshot() map[string]time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]time.Time, len(m.muted))
	for k, v := range m.muted {
		out[k] = v
	}
	return out
}
