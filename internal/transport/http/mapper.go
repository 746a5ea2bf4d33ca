package http

import (
	"encoding/json"
	"strings"

	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/proto"
)

func inboundToInput(inbound proto.Inbound) (*core.Input, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeRaw:
		var raw proto.RawData
		if err := json.Unmarshal(inbound.Data, &raw); err != nil {
			return nil, nil, err
		}
		if strings.TrimSpace(raw.Text) == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "text is required"}, nil
		}
		return &core.Input{Kind: core.InputRaw, Text: raw.Text}, nil, nil
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		if strings.TrimSpace(join.Room) == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "room is required"}, nil
		}
		return &core.Input{Kind: core.InputJoin, Text: join.Room}, nil, nil
	case proto.InboundTypeAudio:
		var audio proto.AudioData
		if err := json.Unmarshal(inbound.Data, &audio); err != nil {
			return nil, nil, err
		}
		if len(audio.Blob) == 0 {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "blob is required"}, nil
		}
		return &core.Input{Kind: core.InputAudio, Data: audio.Blob}, nil, nil
	case proto.InboundTypeCursor:
		var cursor proto.CursorData
		if err := json.Unmarshal(inbound.Data, &cursor); err != nil {
			return nil, nil, err
		}
		return &core.Input{Kind: core.InputCursor, X: cursor.X, Y: cursor.Y}, nil, nil
	case proto.InboundTypeSeen:
		var seen proto.SeenData
		if err := json.Unmarshal(inbound.Data, &seen); err != nil {
			return nil, nil, err
		}
		if seen.MessageID <= 0 {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "messageId is required"}, nil
		}
		return &core.Input{Kind: core.InputSeen, MessageID: seen.MessageID}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventUpdate:
		return proto.Outbound{
			Type: proto.OutboundTypeUpdate,
			Data: event.State,
		}
	case core.EventMessage:
		return proto.Outbound{
			Type: proto.OutboundTypeMessage,
			Data: messagePayload(event.Message),
		}
	case core.EventMessages:
		payloads := make([]proto.MessagePayload, 0, len(event.Messages))
		for _, msg := range event.Messages {
			payloads = append(payloads, messagePayload(msg))
		}
		return proto.Outbound{
			Type: proto.OutboundTypeMessages,
			Data: payloads,
		}
	case core.EventMessageEdit:
		return proto.Outbound{
			Type: proto.OutboundTypeMessageEdit,
			Data: messagePayload(event.Message),
		}
	case core.EventInfo:
		return proto.Outbound{
			Type: proto.OutboundTypeInfo,
			Data: event.Text,
		}
	case core.EventAudio:
		return proto.Outbound{
			Type: proto.OutboundTypeAudio,
			Data: proto.AudioPayload{Author: event.Text, Blob: event.Data},
		}
	case core.EventError:
		code := event.Code
		if code == "" {
			code = core.ErrCodeBadRequest
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: code, Msg: event.Text},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeInfo}
	}
}

func messagePayload(msg *core.Message) proto.MessagePayload {
	p := proto.MessagePayload{
		ID:      msg.ID,
		Room:    msg.Room,
		Author:  msg.Author,
		Content: msg.Content,
		TS:      msg.CreatedAt.Unix(),
	}
	if msg.EditedAt != nil {
		p.EditedTS = msg.EditedAt.Unix()
	}
	return p
}
