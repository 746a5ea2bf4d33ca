package core

import "strings"

// ResolveIdentifier maps a partial or full identifier to the single live
// session identifier it uniquely designates, using case-insensitive prefix
// matching. An exact match wins even when it prefixes other identifiers
// ("alice" resolves despite "alicia" existing). The hub's session set is
// queried fresh on every call; results are never cached since membership
// changes continuously.
func (h *Hub) ResolveIdentifier(partial string) (string, error) {
	partial = strings.ToLower(strings.TrimSpace(partial))
	if partial == "" {
		return "", ErrUnknownIdentifier
	}

	var match string
	for _, s := range h.Sessions() {
		id := s.Identifier()
		if id == partial {
			return id, nil
		}
		if strings.HasPrefix(id, partial) {
			if match != "" && match != id {
				return "", ErrAmbiguousIdentifier
			}
			match = id
		}
	}
	if match == "" {
		return "", ErrUnknownIdentifier
	}
	return match, nil
}
