package plugins

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/plugin"
	"github.com/roomchat/roomchat-server/internal/store"
)

// Prank is a cosmetic gimmick: anyone can pay to arm a prank on another
// user, whose next message is then replaced with a sticker wall. One
// charge is consumed per intercepted message. Charges are plugin-private
// state, room-scoped and persisted between restarts.
type Prank struct {
	plugin.Base
	hub   *core.Hub
	users store.UserStore
	code  string // sticker code used as the replacement

	mu      sync.Mutex
	charges map[string]int
}

// NewPrank builds the plugin and loads persisted charge counters.
func NewPrank(base plugin.Base, hub *core.Hub, users store.UserStore, stickerCode string) *Prank {
	if stickerCode == "" {
		stickerCode = ":prank:"
	}
	p := &Prank{
		Base:    base,
		hub:     hub,
		users:   users,
		code:    stickerCode,
		charges: make(map[string]int),
	}
	if err := p.LoadState(p.Name(), &p.charges); err != nil && base.Log != nil {
		base.Log.Warn().Err(err).Msg("load prank state")
	}
	return p
}

func (p *Prank) Name() string      { return "prank" }
func (p *Prank) Aliases() []string { return []string{"prank"} }
func (p *Prank) MinRight() int     { return 0 }

func (p *Prank) Rules() map[string]*plugin.Rule {
	return map[string]*plugin.Rule{
		"prank": {
			MinCount: 1,
			MaxCount: 1,
			CoolDown: time.Second,
			Params: []plugin.Param{
				{Name: "username", Pattern: plugin.UsernamePattern, Info: "Target username"},
			},
		},
	}
}

// Run charges the caller and arms one more prank on the target. The price
// grows with the number of already-armed charges.
func (p *Prank) Run(alias, args string, sess *core.Session) error {
	identifier, err := p.hub.ResolveIdentifier(args)
	if err != nil {
		return err
	}
	if sess.User == nil {
		return core.NewChatError(core.ErrCodeInsufficientRights, "log in to use this command")
	}

	cost := int64(1 + p.count(identifier))
	if sess.User.Money < cost {
		return fmt.Errorf("you need $%d for this", cost)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.users.AddMoney(ctx, sess.User.ID, -cost); err != nil {
		return fmt.Errorf("charge: %w", err)
	}
	sess.User.Money -= cost

	p.mu.Lock()
	p.charges[identifier]++
	p.mu.Unlock()
	p.SaveState(p.Name(), p.snapshot())
	return nil
}

// OnNewMessage consumes one armed charge and replaces the message body.
func (p *Prank) OnNewMessage(content string, sess *core.Session) (string, error) {
	if strings.HasPrefix(content, plugin.Marker) {
		// Commands pass through untouched; only chat text is replaced.
		return content, nil
	}
	identifier := sess.Identifier()

	p.mu.Lock()
	n := p.charges[identifier]
	if n > 0 {
		if n == 1 {
			delete(p.charges, identifier)
		} else {
			p.charges[identifier] = n - 1
		}
	}
	p.mu.Unlock()

	if n == 0 {
		return content, nil
	}
	p.SaveState(p.Name(), p.snapshot())
	return strings.Repeat(p.code, n), nil
}

func (p *Prank) count(identifier string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.charges[identifier]
}

func (p *Prank) snapshot() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]int, len(p.charges))
	for k, v := range p.charges {
		out[k] = v
	}
	return out
}
