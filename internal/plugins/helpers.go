package plugins

import "strings"

// splitFields splits validated command arguments the same way the rule
// validator tokenized them.
func splitFields(args string) []string {
	return strings.Fields(args)
}
