package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomchat/roomchat-server/internal/core"
	"github.com/roomchat/roomchat-server/internal/store"
)

func loggedIn(name string, right int, op bool) *core.Session {
	return core.NewSession("sid-"+name, &store.User{ID: 1, Username: name, Right: right, Operator: op})
}

func TestRuleValidate(t *testing.T) {
	rule := &Rule{
		MinCount: 2,
		MaxCount: 2,
		Params: []Param{
			{Name: "username", Pattern: UsernamePattern},
			{Name: "duration", Pattern: NumberPattern},
		},
	}
	sess := loggedIn("alice", 0, false)

	t.Run("valid args parse", func(t *testing.T) {
		tokens, err := rule.Validate("bob 30", 0, sess)
		require.NoError(t, err)
		assert.Equal(t, []string{"bob", "30"}, tokens)
	})

	t.Run("too few arguments", func(t *testing.T) {
		_, err := rule.Validate("bob", 0, sess)
		require.Error(t, err)
		assert.Equal(t, core.ErrCodeValidation, core.CodeOf(err))
	})

	t.Run("too many arguments never happens with rejoin", func(t *testing.T) {
		// The tail is folded into the last token, so extra words hit the
		// last parameter's pattern instead of the arity check.
		_, err := rule.Validate("bob 30 extra", 0, sess)
		require.Error(t, err)
		assert.Equal(t, core.ErrCodePatternMismatch, core.CodeOf(err))
	})

	t.Run("pattern mismatch", func(t *testing.T) {
		_, err := rule.Validate("bob soon", 0, sess)
		require.Error(t, err)
		assert.Equal(t, core.ErrCodePatternMismatch, core.CodeOf(err))
	})

	t.Run("star identifier accepted", func(t *testing.T) {
		_, err := rule.Validate("*abc123 5", 0, sess)
		require.NoError(t, err)
	})

	t.Run("insufficient right", func(t *testing.T) {
		_, err := rule.Validate("bob 30", 100, sess)
		require.Error(t, err)
		assert.Equal(t, core.ErrCodeInsufficientRights, core.CodeOf(err))
	})

	t.Run("anonymous sits below right zero", func(t *testing.T) {
		anon := core.NewSession("anon-1", nil)
		_, err := rule.Validate("bob 30", 0, anon)
		require.Error(t, err)
		assert.Equal(t, core.ErrCodeInsufficientRights, core.CodeOf(err))
	})
}

func TestRuleValidateOpOnly(t *testing.T) {
	rule := &Rule{OpOnly: true, MaxCount: -1}

	_, err := rule.Validate("", 0, loggedIn("alice", 100, false))
	require.Error(t, err)
	assert.Equal(t, core.ErrCodeInsufficientRights, core.CodeOf(err))

	_, err = rule.Validate("", 0, loggedIn("root", 0, true))
	require.NoError(t, err)
}

func TestSplitArgs(t *testing.T) {
	t.Run("tail rejoined into last token", func(t *testing.T) {
		assert.Equal(t, []string{"42", "hello there world"}, splitArgs("42 hello there world", 2))
	})

	t.Run("unbounded keeps all fields", func(t *testing.T) {
		assert.Equal(t, []string{"a", "b", "c"}, splitArgs("a  b\tc", -1))
	})

	t.Run("empty input yields no tokens", func(t *testing.T) {
		assert.Nil(t, splitArgs("   ", 3))
	})
}
