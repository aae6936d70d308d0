package llm

import "encoding/json"

// Models wrap JSON payloads in prose or markdown fences more often than not,
// so responses are scanned for the first balanced, valid JSON value instead
// of being parsed directly.

// FirstJSONArray extracts the first well-formed JSON array substring.
func FirstJSONArray(s string) (string, bool) {
	return firstBalanced(s, '[', ']')
}

// FirstJSONObject extracts the first well-formed JSON object substring.
func FirstJSONObject(s string) (string, bool) {
	return firstBalanced(s, '{', '}')
}

func firstBalanced(s string, open, closer byte) (string, bool) {
	for start := 0; start < len(s); start++ {
		if s[start] != open {
			continue
		}
		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(s); i++ {
			ch := s[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case ch == '\\':
					escaped = true
				case ch == '"':
					inString = false
				}
				continue
			}
			switch ch {
			case '"':
				inString = true
			case open:
				depth++
			case closer:
				depth--
				if depth == 0 {
					candidate := s[start : i+1]
					if json.Valid([]byte(candidate)) {
						return candidate, true
					}
					i = len(s) // malformed, resume scan at the next opener
				}
			}
		}
	}
	return "", false
}
