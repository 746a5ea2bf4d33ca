package plugin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/format"
	"github.com/roomchat/roomchat-server/internal/store"
)

// Marker is the leading character denoting a command.
const Marker = "/"

var (
	// ErrDuplicateAlias is returned when registering a plugin whose alias
	// collides with an already-registered one.
	ErrDuplicateAlias = errors.New("duplicate alias")
	// ErrPluginNotFound is returned by Get for unknown plugin names.
	ErrPluginNotFound = errors.New("plugin not found")
)

// Registry owns a room's installed plugins and dispatches inputs to them.
// Registration order is significant: it determines hook execution order
// and is preserved for the lifetime of the registry.
type Registry struct {
	room      *core.Room
	formatter *format.Formatter
	messages  store.MessageStore
	log       *zerolog.Logger
	gate      *CooldownGate

	plugins []Plugin
	aliases map[string]Plugin
}

// NewRegistry builds an empty registry bound to a room. messages may be
// nil when persistence is disabled (tests).
func NewRegistry(room *core.Room, f *format.Formatter, messages store.MessageStore, logger *zerolog.Logger) *Registry {
	return &Registry{
		room:      room,
		formatter: f,
		messages:  messages,
		log:       logger,
		gate:      NewCooldownGate(),
		aliases:   make(map[string]Plugin),
	}
}

// Register appends a plugin to the chain. Fails if any of its aliases is
// already taken.
func (r *Registry) Register(p Plugin) error {
	for _, alias := range p.Aliases() {
		if _, taken := r.aliases[alias]; taken {
			return fmt.Errorf("%w: %q", ErrDuplicateAlias, alias)
		}
	}
	for _, alias := range p.Aliases() {
		r.aliases[alias] = p
	}
	r.plugins = append(r.plugins, p)
	return nil
}

// Get looks a plugin up by name for cross-plugin calls. Callers assert a
// narrow capability interface on the result rather than a concrete type.
func (r *Registry) Get(name string) (Plugin, error) {
	for _, p := range r.plugins {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrPluginNotFound, name)
}

// Plugins returns the chain in registration order.
func (r *Registry) Plugins() []Plugin {
	return r.plugins
}

// Forget drops per-session dispatcher state. Called on disconnect.
func (r *Registry) Forget(sessionID string) {
	r.gate.Forget(sessionID)
}

// NotifyJoin tells observing plugins a session joined the room.
func (r *Registry) NotifyJoin(sess *core.Session) {
	for _, p := range r.plugins {
		if o, ok := p.(SessionObserver); ok {
			o.OnSessionJoined(sess)
		}
	}
}

// NotifyLeave tells observing plugins a session left, then drops the
// session's dispatcher state.
func (r *Registry) NotifyLeave(sess *core.Session) {
	for _, p := range r.plugins {
		if o, ok := p.(SessionObserver); ok {
			o.OnSessionLeft(sess)
		}
	}
	r.Forget(sess.ID)
}

// HandleInput implements core.Handler. Errors abort the single offending
// input and surface as notices to the originating session; they never
// reach other sessions.
func (r *Registry) HandleInput(in core.Input, sess *core.Session) error {
	switch in.Kind {
	case core.InputRaw:
		if strings.HasPrefix(in.Text, Marker) {
			return r.dispatchCommand(in.Text, sess)
		}
		return r.dispatchMessage(in.Text, sess)
	case core.InputAudio:
		for _, p := range r.plugins {
			if h, ok := p.(AudioHandler); ok {
				if err := h.OnAudio(in.Data, sess); err != nil {
					return err
				}
			}
		}
		return nil
	case core.InputCursor:
		for _, p := range r.plugins {
			if h, ok := p.(CursorHandler); ok {
				if err := h.OnCursor(in.X, in.Y, sess); err != nil {
					return err
				}
			}
		}
		return nil
	case core.InputSeen:
		for _, p := range r.plugins {
			if h, ok := p.(SeenHandler); ok {
				if err := h.OnSeen(in.MessageID, sess); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return nil
}

func (r *Registry) dispatchCommand(text string, sess *core.Session) error {
	body := strings.TrimPrefix(text, Marker)
	alias := body
	args := ""
	if i := strings.IndexByte(body, ' '); i >= 0 {
		alias, args = body[:i], strings.TrimSpace(body[i+1:])
	}

	p, ok := r.aliases[alias]
	if !ok {
		return core.NewChatError(core.ErrCodePluginNotFound, fmt.Sprintf("unknown command %q", alias))
	}

	rule := p.Rules()[alias]
	if rule == nil {
		rule = &Rule{MinCount: 0, MaxCount: -1}
	}
	if _, err := rule.Validate(args, p.MinRight(), sess); err != nil {
		return err
	}
	if err := r.gate.Pass(alias, sess.ID, rule.CoolDown); err != nil {
		return err
	}

	// Commands re-enter the hook chain so cross-cutting policies such as
	// muting apply to command usage too. Hooks may veto; content
	// transformations are ignored on this path since the arguments were
	// already validated.
	if _, err := r.runHooks(text, sess); err != nil {
		return err
	}

	if err := p.Run(alias, args, sess); err != nil {
		if r.log != nil {
			r.log.Debug().Err(err).Str("plugin", p.Name()).Str("alias", alias).Msg("command failed")
		}
		return err
	}
	return nil
}

func (r *Registry) dispatchMessage(text string, sess *core.Session) error {
	content, err := r.runHooks(text, sess)
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return nil
	}

	msg := &core.Message{
		Room:      r.room.Name,
		Author:    sess.Identifier(),
		Content:   r.formatter.Format(content, false, sess.IsOp()),
		CreatedAt: time.Now(),
	}
	// Broadcast first with ID 0; persistence is fire-and-forget and must
	// not delay the pipeline.
	r.room.Broadcast(&core.Event{Kind: core.EventMessage, Room: r.room.Name, Message: msg})
	r.persist(content, msg)
	return nil
}

// runHooks folds content through every plugin's message hook in
// registration order. A hook error aborts the chain; earlier hooks have
// already taken effect and are not rolled back.
func (r *Registry) runHooks(content string, sess *core.Session) (string, error) {
	for _, p := range r.plugins {
		hook, ok := p.(MessageHook)
		if !ok {
			continue
		}
		next, err := hook.OnNewMessage(content, sess)
		if err != nil {
			return "", core.NewChatError(core.ErrCodeHookRejected, err.Error())
		}
		content = next
	}
	return content, nil
}

func (r *Registry) persist(raw string, msg *core.Message) {
	if r.messages == nil {
		return
	}
	rec := &store.Message{
		Room:      msg.Room,
		Author:    msg.Author,
		Body:      raw,
		CreatedAt: msg.CreatedAt,
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.messages.SaveMessage(ctx, rec); err != nil && r.log != nil {
			r.log.Warn().Err(err).Str("room", rec.Room).Msg("persist message")
		}
	}()
}
