package plugins

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/format"
	"github.com/roomchat/roomchat-server/internal/plugin"
	"github.com/roomchat/roomchat-server/internal/store"
	"github.com/roomchat/roomchat-server/internal/store/sqlite"
)

// newTestChain builds a room with the full default plugin set on an
// in-memory store, dispatching synchronously through the registry.
func newTestChain(t *testing.T) (*plugin.Registry, *core.Hub, *core.Room, store.Store) {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	hub := core.NewHub(nil)
	room := hub.AddRoom("general")
	f := format.New(format.Options{PublicURL: "https://chat.example.com"})
	reg := plugin.NewRegistry(room, f, st, nil)
	if err := RegisterDefaults(reg, room, hub, st, f, nil, Options{}); err != nil {
		t.Fatalf("register defaults: %v", err)
	}
	room.SetHandler(reg)
	return reg, hub, room, st
}

// joinUser creates a persisted user with the given privileges and joins
// it to the hub's default room.
func joinUser(t *testing.T, hub *core.Hub, st store.Store, name string, right int, op bool) *core.Session {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	u, err := st.CreateUser(ctx, name, "hash")
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	if right != 0 || op {
		if err := st.SetRight(ctx, u.ID, right, op); err != nil {
			t.Fatalf("set right for %s: %v", name, err)
		}
		u.Right = right
		u.Operator = op
	}

	sess := core.NewSession("sid-"+name, u)
	hub.RegisterSession(sess)
	t.Cleanup(func() {
		hub.UnregisterSession(sess)
		close(sess.Inbound)
	})
	return sess
}

// nextEvent scans already-queued events for the wanted kind. Dispatch in
// these tests is synchronous, so anything expected is queued by now.
func nextEvent(t *testing.T, sess *core.Session, kind core.EventKind) *core.Event {
	t.Helper()

	for {
		select {
		case ev := <-sess.Events:
			if ev.Kind == kind {
				return ev
			}
		default:
			t.Fatalf("expected queued event kind %v", kind)
			return nil
		}
	}
}

func raw(text string) core.Input {
	return core.Input{Kind: core.InputRaw, Text: text}
}

func TestMuteBlocksAndUnmuteRestores(t *testing.T) {
	reg, hub, _, st := newTestChain(t)
	op := joinUser(t, hub, st, "root", 100, true)
	bob := joinUser(t, hub, st, "bob", 0, false)

	if err := reg.HandleInput(raw("/mute bob 60"), op); err != nil {
		t.Fatalf("mute: %v", err)
	}
	nextEvent(t, op, core.EventInfo)

	err := reg.HandleInput(raw("hello"), bob)
	if err == nil || core.CodeOf(err) != core.ErrCodeHookRejected {
		t.Fatalf("expected hook_rejected for muted user, got %v", err)
	}
	if !strings.Contains(err.Error(), "muted until") {
		t.Errorf("error should carry the expiry, got %q", err.Error())
	}

	if err := reg.HandleInput(raw("/unmute bob"), op); err != nil {
		t.Fatalf("unmute: %v", err)
	}
	if err := reg.HandleInput(raw("hello again"), bob); err != nil {
		t.Fatalf("unmuted user should chat: %v", err)
	}
	ev := nextEvent(t, bob, core.EventMessage)
	if ev.Message.Content != "hello again" {
		t.Errorf("content = %q, want %q", ev.Message.Content, "hello again")
	}
}

func TestMuteExpiresLazily(t *testing.T) {
	reg, hub, _, st := newTestChain(t)
	op := joinUser(t, hub, st, "root", 100, true)
	bob := joinUser(t, hub, st, "bob", 0, false)

	// Zero seconds: the mute is already expired by the next message.
	if err := reg.HandleInput(raw("/mute bob 0"), op); err != nil {
		t.Fatalf("mute: %v", err)
	}

	if err := reg.HandleInput(raw("still here"), bob); err != nil {
		t.Fatalf("expired mute must not block: %v", err)
	}
}

func TestMuteRequiresRights(t *testing.T) {
	reg, hub, _, st := newTestChain(t)
	bob := joinUser(t, hub, st, "bob", 0, false)
	joinUser(t, hub, st, "carol", 0, false)

	err := reg.HandleInput(raw("/mute carol 60"), bob)
	if err == nil || core.CodeOf(err) != core.ErrCodeInsufficientRights {
		t.Fatalf("expected insufficient_rights, got %v", err)
	}
}

func TestMuteUnknownTarget(t *testing.T) {
	reg, hub, _, st := newTestChain(t)
	op := joinUser(t, hub, st, "root", 100, true)

	err := reg.HandleInput(raw("/mute ghost 60"), op)
	if err == nil || core.CodeOf(err) != core.ErrCodeUnknownIdentifier {
		t.Fatalf("expected unknown_identifier, got %v", err)
	}
}

func TestOfferMoneyCreditsTarget(t *testing.T) {
	reg, hub, _, st := newTestChain(t)
	op := joinUser(t, hub, st, "root", 100, true)
	bob := joinUser(t, hub, st, "bob", 0, false)

	if err := reg.HandleInput(raw("/offermoney bob 5"), op); err != nil {
		t.Fatalf("offermoney: %v", err)
	}

	ev := nextEvent(t, bob, core.EventMessage)
	if ev.Message.Author != BotAuthor {
		t.Errorf("notice author = %q, want %q", ev.Message.Author, BotAuthor)
	}
	if bob.User.Money != 5 {
		t.Errorf("in-memory balance = %d, want 5", bob.User.Money)
	}

	ctx := context.Background()
	u, err := st.GetUserByID(ctx, bob.User.ID)
	if err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if u.Money != 5 {
		t.Errorf("stored balance = %d, want 5", u.Money)
	}

	// The transfer also refreshes the presence list.
	nextEvent(t, bob, core.EventUpdate)
}

func TestOfferMoneyIsOperatorOnly(t *testing.T) {
	reg, hub, _, st := newTestChain(t)
	bob := joinUser(t, hub, st, "bob", 0, false)
	joinUser(t, hub, st, "carol", 0, false)

	err := reg.HandleInput(raw("/offermoney carol 5"), bob)
	if err == nil || core.CodeOf(err) != core.ErrCodeInsufficientRights {
		t.Fatalf("expected insufficient_rights, got %v", err)
	}
}

func TestPrankReplacesNextMessage(t *testing.T) {
	reg, hub, _, st := newTestChain(t)
	alice := joinUser(t, hub, st, "alice", 0, false)
	bob := joinUser(t, hub, st, "bob", 0, false)

	ctx := context.Background()
	if err := st.AddMoney(ctx, alice.User.ID, 10); err != nil {
		t.Fatalf("fund alice: %v", err)
	}
	alice.User.Money = 10

	if err := reg.HandleInput(raw("/prank bob"), alice); err != nil {
		t.Fatalf("prank: %v", err)
	}
	if alice.User.Money != 9 {
		t.Errorf("alice balance = %d, want 9 after $1 prank", alice.User.Money)
	}

	if err := reg.HandleInput(raw("surprise"), bob); err != nil {
		t.Fatalf("pranked message: %v", err)
	}
	ev := nextEvent(t, bob, core.EventMessage)
	if !strings.Contains(ev.Message.Content, ":prank:") {
		t.Errorf("content = %q, want the sticker substitution", ev.Message.Content)
	}
	if strings.Contains(ev.Message.Content, "surprise") {
		t.Errorf("original text leaked: %q", ev.Message.Content)
	}

	// The charge is consumed; the next message passes untouched.
	if err := reg.HandleInput(raw("normal again"), bob); err != nil {
		t.Fatalf("post-prank message: %v", err)
	}
	ev = nextEvent(t, bob, core.EventMessage)
	if ev.Message.Content != "normal again" {
		t.Errorf("content = %q, want %q", ev.Message.Content, "normal again")
	}
}

func TestPrankRequiresFunds(t *testing.T) {
	reg, hub, _, st := newTestChain(t)
	alice := joinUser(t, hub, st, "alice", 0, false)
	joinUser(t, hub, st, "bob", 0, false)

	err := reg.HandleInput(raw("/prank bob"), alice)
	if err == nil || !strings.Contains(err.Error(), "$1") {
		t.Fatalf("expected funding error, got %v", err)
	}
}

func TestPrankSkipsCommands(t *testing.T) {
	reg, hub, _, st := newTestChain(t)
	alice := joinUser(t, hub, st, "alice", 0, false)
	bob := joinUser(t, hub, st, "bob", 0, false)

	ctx := context.Background()
	if err := st.AddMoney(ctx, alice.User.ID, 10); err != nil {
		t.Fatalf("fund alice: %v", err)
	}
	alice.User.Money = 10

	if err := reg.HandleInput(raw("/prank bob"), alice); err != nil {
		t.Fatalf("prank: %v", err)
	}

	// A command from the pranked user runs normally; the charge stays
	// armed for the next chat message.
	if err := reg.HandleInput(raw("/messagehistory 1"), bob); err != nil {
		t.Fatalf("command while pranked: %v", err)
	}
	nextEvent(t, bob, core.EventMessages)

	if err := reg.HandleInput(raw("chat text"), bob); err != nil {
		t.Fatalf("chat while pranked: %v", err)
	}
	ev := nextEvent(t, bob, core.EventMessage)
	if !strings.Contains(ev.Message.Content, ":prank:") {
		t.Errorf("charge should survive command usage, got %q", ev.Message.Content)
	}
}
