package generator

import (
	"encoding/json"
	"strings"
)

// ExtractJSON returns the first balanced JSON array or object in text.
// Surrounding prose and markdown fences are ignored. Brackets inside string
// literals do not count.
func ExtractJSON(text string) (string, bool) {
	for start := 0; start < len(text); start++ {
		idx := strings.IndexAny(text[start:], "[{")
		if idx < 0 {
			return "", false
		}
		start += idx

		end, ok := matchClose(text, start)
		if !ok {
			continue
		}
		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	return "", false
}

// matchClose finds the index of the bracket closing the one at start.
func matchClose(text string, start int) (int, bool) {
	var stack []byte
	inString, escaped := false, false

	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '[':
			stack = append(stack, ']')
		case '{':
			stack = append(stack, '}')
		case ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
