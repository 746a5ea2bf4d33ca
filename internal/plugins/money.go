package plugins

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/plugin"
	"github.com/roomchat/roomchat-server/internal/store"
)

// BotAuthor is the identifier targeted notices are attributed to.
const BotAuthor = "~server"

// registryLookup is what Money needs from the registry: a by-name lookup
// for cross-plugin calls.
type registryLookup interface {
	Get(name string) (plugin.Plugin, error)
}

// Money lets operators hand out currency. It exercises the cross-plugin
// call pattern: after a transfer it asks the presence plugin to resync
// through the Resyncer capability instead of a concrete type.
type Money struct {
	plugin.Base
	hub      *core.Hub
	users    store.UserStore
	registry registryLookup
}

// NewMoney builds the transfer plugin.
func NewMoney(base plugin.Base, hub *core.Hub, users store.UserStore, registry registryLookup) *Money {
	return &Money{Base: base, hub: hub, users: users, registry: registry}
}

func (m *Money) Name() string      { return "offermoney" }
func (m *Money) Aliases() []string { return []string{"offermoney"} }
func (m *Money) MinRight() int     { return 0 }

func (m *Money) Rules() map[string]*plugin.Rule {
	return map[string]*plugin.Rule{
		"offermoney": {
			MinCount: 2,
			MaxCount: 2,
			OpOnly:   true,
			CoolDown: 50 * time.Millisecond,
			Params: []plugin.Param{
				{Name: "username", Pattern: plugin.UsernamePattern},
				{Name: "amount", Pattern: plugin.NumberPattern},
			},
		},
	}
}

func (m *Money) Run(alias, args string, sess *core.Session) error {
	fields := splitFields(args)
	identifier, err := m.hub.ResolveIdentifier(fields[0])
	if err != nil {
		return err
	}
	target := m.hub.SessionByIdentifier(identifier)
	if target == nil || target.User == nil {
		return core.NewChatError(core.ErrCodeUnknownIdentifier, "user not found")
	}

	amount, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return core.NewChatError(core.ErrCodeValidation, "amount must be a number")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.users.AddMoney(ctx, target.User.ID, amount); err != nil {
		return fmt.Errorf("credit %s: %w", identifier, err)
	}
	target.User.Money += amount

	target.Send(&core.Event{
		Kind: core.EventMessage,
		Room: m.Room.Name,
		Message: &core.Message{
			Room:      m.Room.Name,
			Author:    BotAuthor,
			Content:   fmt.Sprintf("%s sent you $%d", sess.Identifier(), amount),
			CreatedAt: time.Now(),
		},
	})

	if p, err := m.registry.Get("connectedlist"); err == nil {
		if r, ok := p.(Resyncer); ok {
			r.Resync()
		}
	}
	return nil
}
