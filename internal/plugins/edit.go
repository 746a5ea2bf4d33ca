package plugins

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/format"
	"github.com/roomchat/roomchat-server/internal/plugin"
	"github.com/roomchat/roomchat-server/internal/store"
)

// Edit replaces the body of one of the caller's own persisted messages
// and broadcasts a message-edit event so clients swap it in place.
type Edit struct {
	plugin.Base
	messages  store.MessageStore
	formatter *format.Formatter
}

// NewEdit builds the edit plugin.
func NewEdit(base plugin.Base, messages store.MessageStore, f *format.Formatter) *Edit {
	return &Edit{Base: base, messages: messages, formatter: f}
}

func (e *Edit) Name() string      { return "edit" }
func (e *Edit) Aliases() []string { return []string{"edit"} }
func (e *Edit) MinRight() int     { return 0 }

func (e *Edit) Rules() map[string]*plugin.Rule {
	return map[string]*plugin.Rule{
		"edit": {
			MinCount: 2,
			MaxCount: 2,
			Params: []plugin.Param{
				{Name: "messageId", Pattern: plugin.NumberPattern},
				{Name: "message"},
			},
		},
	}
}

func (e *Edit) Run(alias, args string, sess *core.Session) error {
	fields := splitFields(args)
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return core.NewChatError(core.ErrCodeValidation, "messageId must be a number")
	}
	body := strings.TrimLeft(args[len(fields[0]):], " \t")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec, err := e.messages.GetMessageByID(ctx, id)
	if err != nil {
		return fmt.Errorf("message %d not found", id)
	}
	if rec.Room != e.Room.Name {
		return fmt.Errorf("message %d not found", id)
	}
	if rec.Author != sess.Identifier() && !sess.IsOp() {
		return core.NewChatError(core.ErrCodeInsufficientRights, "you can only edit your own messages")
	}

	if err := e.messages.UpdateMessageBody(ctx, id, body); err != nil {
		return fmt.Errorf("edit message: %w", err)
	}

	now := time.Now()
	e.Room.Broadcast(&core.Event{
		Kind: core.EventMessageEdit,
		Room: e.Room.Name,
		Message: &core.Message{
			ID:        id,
			Room:      rec.Room,
			Author:    rec.Author,
			Content:   e.formatter.Format(body, false, sess.IsOp()),
			CreatedAt: rec.CreatedAt,
			EditedAt:  &now,
		},
	})
	return nil
}
