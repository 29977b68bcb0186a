package hhconfig

import (
	"regexp"
	"strings"
)

// skipNonCode returns the index just past the string, template literal or
// comment that starts at i. If none starts at i, i is returned unchanged.
// Unterminated constructs run to the end of the text.
func skipNonCode(text string, i int) int {
	if i >= len(text) {
		return i
	}
	switch c := text[i]; c {
	case '"', '\'':
		j := i + 1
		for j < len(text) {
			switch text[j] {
			case '\\':
				j += 2
				continue
			case c, '\n':
				return j + 1
			}
			j++
		}
		return len(text)
	case '`':
		j := i + 1
		for j < len(text) {
			switch text[j] {
			case '\\':
				j += 2
				continue
			case '`':
				return j + 1
			}
			j++
		}
		return len(text)
	case '/':
		if i+1 >= len(text) {
			return i
		}
		switch text[i+1] {
		case '/':
			if k := strings.IndexByte(text[i:], '\n'); k >= 0 {
				return i + k
			}
			return len(text)
		case '*':
			if k := strings.Index(text[i+2:], "*/"); k >= 0 {
				return i + 2 + k + 2
			}
			return len(text)
		}
	}
	return i
}

// mask returns a copy of text of the same length in which comment bodies and
// string interiors are blanked out. Quote characters are kept so string
// positions stay visible; newlines are kept so line anchors still work.
func mask(text string) string {
	b := []byte(text)
	for i := 0; i < len(text); {
		end := skipNonCode(text, i)
		if end == i {
			i++
			continue
		}
		isString := text[i] == '"' || text[i] == '\'' || text[i] == '`'
		for k := i; k < end; k++ {
			if b[k] == '\n' {
				continue
			}
			if isString && (k == i || (k == end-1 && text[k] == text[i])) {
				continue
			}
			b[k] = ' '
		}
		i = end
	}
	return string(b)
}

// stripComments removes line and block comments, leaving strings intact.
func stripComments(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	for i := 0; i < len(text); {
		end := skipNonCode(text, i)
		switch {
		case end == i:
			sb.WriteByte(text[i])
			i++
		case text[i] == '/':
			i = end
		default:
			sb.WriteString(text[i:end])
			i = end
		}
	}
	return sb.String()
}

// replaceInCode applies re only to the code segments of text, never inside
// strings or comments.
func replaceInCode(text string, re *regexp.Regexp, repl string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	start := 0
	flush := func(end int) {
		if end > start {
			sb.WriteString(re.ReplaceAllString(text[start:end], repl))
		}
	}
	for i := 0; i < len(text); {
		end := skipNonCode(text, i)
		if end == i {
			i++
			continue
		}
		flush(i)
		sb.WriteString(text[i:end])
		i = end
		start = end
	}
	flush(len(text))
	return sb.String()
}

// matchBracket returns the index of the bracket closing the one at open.
// Brackets inside strings and comments are ignored.
func matchBracket(text string, open int) (int, bool) {
	if open >= len(text) {
		return 0, false
	}
	depth := 0
	for i := open; i < len(text); {
		if end := skipNonCode(text, i); end != i {
			i = end
			continue
		}
		switch text[i] {
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
			if depth == 0 {
				return i, true
			}
		}
		i++
	}
	return 0, false
}

// keyPos is a top-level key of an object literal and the offset of its value.
type keyPos struct {
	name  string
	value int
}

// topLevelKeys lists the keys declared directly inside the object literal
// spanning [open, close] of raw. masked must be mask(raw).
func topLevelKeys(raw, masked string, open, close int) []keyPos {
	var keys []keyPos
	depth := 0
	expectKey := true
	for i := open + 1; i < close; i++ {
		c := masked[i]
		switch {
		case c == '{' || c == '[' || c == '(':
			depth++
			expectKey = false
		case c == '}' || c == ']' || c == ')':
			depth--
		case c == ',' && depth == 0:
			expectKey = true
		case expectKey && depth == 0 && !isSpace(c):
			expectKey = false
			name, end, ok := readKey(raw, masked, i)
			if !ok {
				continue
			}
			j := skipSpaces(masked, end)
			if j < close && masked[j] == ':' {
				keys = append(keys, keyPos{name: name, value: skipSpaces(masked, j+1)})
				i = j
			}
		}
	}
	return keys
}

// readKey reads an identifier or quoted property name starting at i.
func readKey(raw, masked string, i int) (string, int, bool) {
	c := masked[i]
	if c == '"' || c == '\'' {
		k := strings.IndexByte(masked[i+1:], c)
		if k < 0 {
			return "", 0, false
		}
		return raw[i+1 : i+1+k], i + 2 + k, true
	}
	if !isIdentStart(c) && !isDigit(c) {
		return "", 0, false
	}
	j := i
	for j < len(masked) && isIdentPart(masked[j]) {
		j++
	}
	return raw[i:j], j, true
}

// valueEnd returns the end offset (exclusive) of the property value that
// starts at start, stopping at the next top-level ',' or closing bracket.
func valueEnd(raw string, start int) (int, bool) {
	if start >= len(raw) {
		return 0, false
	}
	switch raw[start] {
	case '{', '[':
		end, ok := matchBracket(raw, start)
		return end + 1, ok
	case '"', '\'', '`':
		return skipNonCode(raw, start), true
	}
	depth := 0
	for i := start; i < len(raw); {
		if end := skipNonCode(raw, i); end != i {
			i = end
			continue
		}
		switch raw[i] {
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			if depth == 0 {
				return i, true
			}
			depth--
		case ',', ';', '\n':
			if depth == 0 {
				return i, true
			}
		}
		i++
	}
	return len(raw), true
}

func skipSpaces(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
