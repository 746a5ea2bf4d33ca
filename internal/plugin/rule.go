package plugin

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/roomchat/roomchat-server/internal/core"
)

// Param is one named positional parameter of a command.
type Param struct {
	Name    string
	Pattern *regexp.Regexp
	Info    string
}

// Rule is the immutable argument schema attached to a plugin alias.
// A command with declared parameters keeps MinCount/MaxCount consistent
// with the parameter list length.
type Rule struct {
	MinCount int
	MaxCount int
	CoolDown time.Duration
	OpOnly   bool
	Params   []Param
}

// UsernamePattern matches the identifiers users target each other by,
// including the star prefix of anonymous sessions.
var UsernamePattern = regexp.MustCompile(`^\*?[a-zA-Z0-9_]{1,32}$`)

// NumberPattern matches a non-negative integer argument.
var NumberPattern = regexp.MustCompile(`^\d+$`)

// Validate checks a raw argument string against the rule and the caller's
// authorization, returning the parsed tokens. It is pure: it runs to
// completion before any plugin state mutates, so a rejected command has no
// side effects.
func (r *Rule) Validate(args string, minRight int, sess *core.Session) ([]string, error) {
	if r.OpOnly && !sess.IsOp() {
		return nil, core.NewChatError(core.ErrCodeInsufficientRights, "this command is reserved for operators")
	}
	if sess.Right() < minRight {
		return nil, core.NewChatError(core.ErrCodeInsufficientRights, "you do not have the right to use this command")
	}

	tokens := splitArgs(args, r.MaxCount)
	if len(tokens) < r.MinCount || (r.MaxCount >= 0 && len(tokens) > r.MaxCount) {
		return nil, core.NewChatError(core.ErrCodeValidation,
			fmt.Sprintf("expected between %d and %d arguments, got %d", r.MinCount, r.MaxCount, len(tokens)))
	}
	for i, tok := range tokens {
		if i >= len(r.Params) {
			break
		}
		p := r.Params[i]
		if p.Pattern != nil && !p.Pattern.MatchString(tok) {
			return nil, core.NewChatError(core.ErrCodePatternMismatch,
				fmt.Sprintf("invalid value for %s", p.Name))
		}
	}
	return tokens, nil
}

// splitArgs splits on whitespace into at most max tokens; the tail beyond
// the last parameter is rejoined into the final token so a free-text
// message can be the last argument. max <= 0 disables the rejoin.
func splitArgs(args string, max int) []string {
	args = strings.TrimSpace(args)
	if args == "" {
		return nil
	}
	fields := strings.Fields(args)
	if max <= 0 || len(fields) <= max {
		return fields
	}
	tokens := fields[:max-1]
	rest := strings.Join(fields[max-1:], " ")
	return append(tokens, rest)
}
