package plugins

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/format"
	"github.com/roomchat/roomchat-server/internal/plugin"
	"github.com/roomchat/roomchat-server/internal/store"
)

// History answers the /messagehistory pseudo-command: it sends the caller
// a batch of messages older than a given real message ID. Bodies are
// stored raw and re-rendered through the sanitization pipeline here, so
// history honors the same safety guarantees as live broadcast.
type History struct {
	plugin.Base
	messages  store.MessageStore
	formatter *format.Formatter
	pageSize  int
}

// NewHistory builds the backfill plugin.
func NewHistory(base plugin.Base, messages store.MessageStore, f *format.Formatter, pageSize int) *History {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &History{Base: base, messages: messages, formatter: f, pageSize: pageSize}
}

func (h *History) Name() string      { return "messagehistory" }
func (h *History) Aliases() []string { return []string{"messagehistory"} }
func (h *History) MinRight() int     { return 0 }

func (h *History) Rules() map[string]*plugin.Rule {
	return map[string]*plugin.Rule{
		"messagehistory": {
			MinCount: 1,
			MaxCount: 1,
			Params: []plugin.Param{
				{Name: "beforeId", Pattern: plugin.NumberPattern},
			},
		},
	}
}

func (h *History) Run(alias, args string, sess *core.Session) error {
	beforeID, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		return core.NewChatError(core.ErrCodeValidation, "beforeId must be a number")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	records, err := h.messages.ListMessagesBefore(ctx, h.Room.Name, beforeID, h.pageSize)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	batch := make([]*core.Message, 0, len(records))
	for _, rec := range records {
		batch = append(batch, &core.Message{
			ID:        rec.ID,
			Room:      rec.Room,
			Author:    rec.Author,
			Content:   h.formatter.Format(rec.Body, false, false),
			CreatedAt: rec.CreatedAt,
			EditedAt:  rec.EditedAt,
		})
	}

	// Sent only to the caller; receivers apply the batch idempotently.
	sess.Send(&core.Event{Kind: core.EventMessages, Room: h.Room.Name, Messages: batch})
	return nil
}
