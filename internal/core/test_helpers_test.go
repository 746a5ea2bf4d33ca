package core

import (
	"testing"
	"time"

	"github.com/roomchat/roomchat-server/internal/store"
)

// handlerFunc adapts a plain function to the Handler interface.
type handlerFunc func(in Input, sess *Session) error

func (f handlerFunc) HandleInput(in Input, sess *Session) error { return f(in, sess) }

func testUser(id int64, name string) *store.User {
	return &store.User{ID: id, Username: name}
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}
