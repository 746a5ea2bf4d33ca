package plugin

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/format"
)

// fakePlugin is a minimal plugin with recordable invocations.
type fakePlugin struct {
	name     string
	aliases  []string
	minRight int
	rules    map[string]*Rule
	runErr   error
	runs     []string
}

func (p *fakePlugin) Name() string           { return p.name }
func (p *fakePlugin) Aliases() []string      { return p.aliases }
func (p *fakePlugin) MinRight() int          { return p.minRight }
func (p *fakePlugin) Rules() map[string]*Rule { return p.rules }

func (p *fakePlugin) Run(alias, args string, sess *core.Session) error {
	p.runs = append(p.runs, alias+"|"+args)
	return p.runErr
}

// hookPlugin additionally intercepts new messages.
type hookPlugin struct {
	fakePlugin
	hook func(content string, sess *core.Session) (string, error)
}

func (p *hookPlugin) OnNewMessage(content string, sess *core.Session) (string, error) {
	return p.hook(content, sess)
}

// audioPlugin records relayed blobs.
type audioPlugin struct {
	fakePlugin
	blobs [][]byte
}

func (p *audioPlugin) OnAudio(data []byte, sess *core.Session) error {
	p.blobs = append(p.blobs, data)
	return nil
}

func newTestRegistry(t *testing.T) (*Registry, *core.Room, *core.Session) {
	t.Helper()

	room := core.NewRoom("general")
	f := format.New(format.Options{PublicURL: "https://chat.example.com"})
	reg := NewRegistry(room, f, nil, nil)

	sess := loggedIn("alice", 0, false)
	room.AddSession(sess)
	return reg, room, sess
}

func drainEvent(t *testing.T, sess *core.Session) *core.Event {
	t.Helper()
	select {
	case ev := <-sess.Events:
		return ev
	default:
		t.Fatal("expected a queued event")
		return nil
	}
}

func TestRegistryRejectsDuplicateAlias(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	require.NoError(t, reg.Register(&fakePlugin{name: "a", aliases: []string{"x", "y"}}))
	err := reg.Register(&fakePlugin{name: "b", aliases: []string{"y"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateAlias))
}

func TestRegistryDispatchesCommand(t *testing.T) {
	reg, _, sess := newTestRegistry(t)

	p := &fakePlugin{name: "echo", aliases: []string{"echo"}}
	require.NoError(t, reg.Register(p))

	require.NoError(t, reg.HandleInput(core.Input{Kind: core.InputRaw, Text: "/echo hello world"}, sess))
	assert.Equal(t, []string{"echo|hello world"}, p.runs)
}

func TestRegistryUnknownCommand(t *testing.T) {
	reg, _, sess := newTestRegistry(t)

	err := reg.HandleInput(core.Input{Kind: core.InputRaw, Text: "/nosuch"}, sess)
	require.Error(t, err)
	assert.Equal(t, core.ErrCodePluginNotFound, core.CodeOf(err))
}

func TestRegistryCommandCooldown(t *testing.T) {
	reg, _, sess := newTestRegistry(t)

	p := &fakePlugin{
		name:    "slow",
		aliases: []string{"slow"},
		rules:   map[string]*Rule{"slow": {MaxCount: -1, CoolDown: time.Hour}},
	}
	require.NoError(t, reg.Register(p))

	require.NoError(t, reg.HandleInput(core.Input{Kind: core.InputRaw, Text: "/slow"}, sess))
	err := reg.HandleInput(core.Input{Kind: core.InputRaw, Text: "/slow"}, sess)
	require.Error(t, err)
	assert.Equal(t, core.ErrCodeCooldownActive, core.CodeOf(err))
	assert.Len(t, p.runs, 1)
}

func TestRegistryMessageBroadcast(t *testing.T) {
	reg, _, sess := newTestRegistry(t)

	require.NoError(t, reg.HandleInput(core.Input{Kind: core.InputRaw, Text: "hello <b>room</b>"}, sess))

	ev := drainEvent(t, sess)
	require.Equal(t, core.EventMessage, ev.Kind)
	assert.Equal(t, int64(0), ev.Message.ID, "broadcast message must be provisional")
	assert.Equal(t, "alice", ev.Message.Author)
	assert.Equal(t, "hello &lt;b&gt;room&lt;/b&gt;", ev.Message.Content)
}

func TestRegistryHooksRunInRegistrationOrder(t *testing.T) {
	reg, _, sess := newTestRegistry(t)

	first := &hookPlugin{
		fakePlugin: fakePlugin{name: "first"},
		hook: func(content string, _ *core.Session) (string, error) {
			return content + " one", nil
		},
	}
	second := &hookPlugin{
		fakePlugin: fakePlugin{name: "second"},
		hook: func(content string, _ *core.Session) (string, error) {
			return content + " two", nil
		},
	}
	require.NoError(t, reg.Register(first))
	require.NoError(t, reg.Register(second))

	require.NoError(t, reg.HandleInput(core.Input{Kind: core.InputRaw, Text: "msg"}, sess))

	ev := drainEvent(t, sess)
	assert.Equal(t, "msg one two", ev.Message.Content)
}

func TestRegistryHookVetoSuppressesBroadcast(t *testing.T) {
	reg, _, sess := newTestRegistry(t)

	veto := &hookPlugin{
		fakePlugin: fakePlugin{name: "veto"},
		hook: func(string, *core.Session) (string, error) {
			return "", errors.New("you are muted")
		},
	}
	require.NoError(t, reg.Register(veto))

	err := reg.HandleInput(core.Input{Kind: core.InputRaw, Text: "msg"}, sess)
	require.Error(t, err)
	assert.Equal(t, core.ErrCodeHookRejected, core.CodeOf(err))
	assert.True(t, strings.Contains(err.Error(), "muted"))

	select {
	case ev := <-sess.Events:
		t.Fatalf("vetoed message must not broadcast, got %+v", ev)
	default:
	}
}

func TestRegistryHookVetoAppliesToCommands(t *testing.T) {
	reg, _, sess := newTestRegistry(t)

	p := &fakePlugin{name: "echo", aliases: []string{"echo"}}
	veto := &hookPlugin{
		fakePlugin: fakePlugin{name: "veto"},
		hook: func(string, *core.Session) (string, error) {
			return "", errors.New("you are muted")
		},
	}
	require.NoError(t, reg.Register(veto))
	require.NoError(t, reg.Register(p))

	err := reg.HandleInput(core.Input{Kind: core.InputRaw, Text: "/echo hi"}, sess)
	require.Error(t, err)
	assert.Equal(t, core.ErrCodeHookRejected, core.CodeOf(err))
	assert.Empty(t, p.runs)
}

func TestRegistryEmptyMessageAfterHooksIsDropped(t *testing.T) {
	reg, _, sess := newTestRegistry(t)

	blank := &hookPlugin{
		fakePlugin: fakePlugin{name: "blank"},
		hook: func(string, *core.Session) (string, error) {
			return "   ", nil
		},
	}
	require.NoError(t, reg.Register(blank))

	require.NoError(t, reg.HandleInput(core.Input{Kind: core.InputRaw, Text: "msg"}, sess))

	select {
	case ev := <-sess.Events:
		t.Fatalf("blank message must not broadcast, got %+v", ev)
	default:
	}
}

func TestRegistryAudioFanout(t *testing.T) {
	reg, _, sess := newTestRegistry(t)

	p := &audioPlugin{fakePlugin: fakePlugin{name: "audio"}}
	require.NoError(t, reg.Register(p))

	blob := []byte{1, 2, 3}
	require.NoError(t, reg.HandleInput(core.Input{Kind: core.InputAudio, Data: blob}, sess))
	require.Len(t, p.blobs, 1)
	assert.Equal(t, blob, p.blobs[0])
}

func TestRegistryGetByName(t *testing.T) {
	reg, _, _ := newTestRegistry(t)

	p := &fakePlugin{name: "target"}
	require.NoError(t, reg.Register(p))

	got, err := reg.Get("target")
	require.NoError(t, err)
	assert.Same(t, Plugin(p), got)

	_, err = reg.Get("missing")
	assert.True(t, errors.Is(err, ErrPluginNotFound))
}
