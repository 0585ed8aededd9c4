package persist

import "strings"

// DefaultReplaceCharacter substitutes illegal key characters when
// Options.ReplaceCharacter is empty.
const DefaultReplaceCharacter = "_"

// Replacer maps a raw key to one the facility accepts. It must be
// deterministic and must not retain or modify its inputs.
type Replacer func(key, replaceCharacter string) string

// DefaultReplacer replaces every rune outside [A-Za-z0-9._-] with
// replaceCharacter, one replacement per rune.
func DefaultReplacer(key, replaceCharacter string) string {
	var b strings.Builder
	b.Grow(len(key))
	for _, r := range key {
		if isKeyChar(r) {
			b.WriteRune(r)
		} else {
			b.WriteString(replaceCharacter)
		}
	}
	return b.String()
}

// isKeyChar mirrors securestore.IsKeyChar so the adapter does not depend on
// the facility package. TestIsKeyChar_MatchesStore keeps the two in step.
func isKeyChar(r rune) bool {
	return r >= 'a' && r <= 'z' ||
		r >= 'A' && r <= 'Z' ||
		r >= '0' && r <= '9' ||
		r == '.' || r == '-' || r == '_'
}
