package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/roomchat/roomchat-server/internal/auth"
	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/proto"
	"github.com/roomchat/roomchat-server/internal/store"
)

// WSHandler upgrades HTTP connections and bridges them to a core session.
// The first frame must be a hello; everything after it is fed into the
// session's inbound queue in arrival order.
type WSHandler struct {
	hub         *core.Hub
	authService *auth.Service
	msgLimit    int
	log         *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler. msgLimit caps raw inputs
// per connection per minute; zero disables the limit.
func NewWSHandler(hub *core.Hub, authService *auth.Service, msgLimit int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, authService: authService, msgLimit: msgLimit, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	sess, err := h.handshake(ctx, conn)
	if err != nil {
		h.log.Debug().Err(err).Msg("ws handshake failed")
		conn.Close(websocket.StatusPolicyViolation, "handshake failed")
		return
	}

	h.hub.RegisterSession(sess)
	defer func() {
		h.hub.UnregisterSession(sess)
		close(sess.Inbound)
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := newRateLimiter(h.msgLimit)
	limiter.startReset(ctx.Done())

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, sess, limiter)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, sess)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("session_id", sess.ID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// handshake reads the client's hello and builds the session. An invalid
// token or unsupported protocol version is reported to the client before
// the connection is dropped.
func (h *WSHandler) handshake(ctx context.Context, conn *websocket.Conn) (*core.Session, error) {
	var inbound proto.Inbound
	if err := wsjson.Read(ctx, conn, &inbound); err != nil {
		return nil, err
	}
	if inbound.Type != proto.InboundTypeHello {
		_ = writeError(ctx, conn, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "hello expected"})
		return nil, errors.New("first frame was not hello")
	}

	var hello proto.HelloData
	if err := json.Unmarshal(inbound.Data, &hello); err != nil {
		return nil, err
	}
	if hello.Protocol != 0 && hello.Protocol != proto.ProtocolVersion {
		_ = writeError(ctx, conn, &proto.Error{Code: "unsupported_version", Msg: "unsupported protocol version"})
		return nil, errors.New("unsupported protocol version")
	}

	var user *store.User
	if hello.Token != "" {
		u, err := h.authService.UserFromToken(ctx, hello.Token)
		if err != nil {
			_ = writeError(ctx, conn, &proto.Error{Code: "unauthorized", Msg: "invalid token"})
			return nil, err
		}
		user = u
	}

	return core.NewSession(uuid.NewString(), user), nil
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session, limiter *rateLimiter) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}
		if inbound.Type == proto.InboundTypeHello {
			if err := writeError(ctx, conn, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "already said hello"}); err != nil {
				return err
			}
			continue
		}

		in, protoErr, err := inboundToInput(inbound)
		if err != nil {
			h.log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to map inbound")
			return err
		}
		if protoErr != nil {
			if err := writeError(ctx, conn, protoErr); err != nil {
				return err
			}
			continue
		}
		if in.Kind == core.InputRaw && !limiter.allow() {
			if err := writeError(ctx, conn, &proto.Error{Code: "rate_limited", Msg: "too many messages, slow down"}); err != nil {
				return err
			}
			continue
		}

		select {
		case sess.Inbound <- *in:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, sess *core.Session) error {
	for {
		select {
		case event, ok := <-sess.Events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				h.log.Error().Err(err).Str("session_id", sess.ID).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, perr *proto.Error) error {
	return wsjson.Write(ctx, conn, proto.Outbound{Type: proto.OutboundTypeError, Error: perr})
}
