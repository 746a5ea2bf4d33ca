package plugin

import (
	"fmt"
	"sync"
	"time"

	"github.com/roomchat/roomchat-server/internal/core"
)

// CooldownGate throttles command invocations per (alias, session) pair.
// Comparisons use time.Now's monotonic reading, so wall-clock adjustments
// cannot shrink or extend a window.
type CooldownGate struct {
	mu   sync.Mutex
	last map[string]time.Time
	now  func() time.Time
}

// NewCooldownGate builds an empty gate.
func NewCooldownGate() *CooldownGate {
	return &CooldownGate{
		last: make(map[string]time.Time),
		now:  time.Now,
	}
}

// Pass checks the window for one invocation. On success it records now as
// the new last-invocation time; a rejected attempt does not touch the
// window.
func (g *CooldownGate) Pass(alias, sessionID string, cooldown time.Duration) error {
	if cooldown <= 0 {
		return nil
	}
	key := alias + "\x00" + sessionID

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if last, ok := g.last[key]; ok {
		if elapsed := now.Sub(last); elapsed < cooldown {
			return core.NewChatError(core.ErrCodeCooldownActive,
				fmt.Sprintf("please wait %s before using this command again", (cooldown - elapsed).Round(time.Millisecond)))
		}
	}
	g.last[key] = now
	return nil
}

// Forget drops all records for a session. Called on disconnect.
func (g *CooldownGate) Forget(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key := range g.last {
		if len(key) > len(sessionID) && key[len(key)-len(sessionID):] == sessionID && key[len(key)-len(sessionID)-1] == '\x00' {
			delete(g.last, key)
		}
	}
}
