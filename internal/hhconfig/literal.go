package hhconfig

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// undefined marks a JavaScript undefined value. Object properties holding it
// are omitted and array elements become null, as JSON.stringify does.
type undefined struct{}

// DecodeLiteral decodes a JavaScript data literal: objects, arrays, strings,
// template strings without substitutions, numbers, booleans, null and
// undefined. Keys may be unquoted and trailing commas are accepted. Anything
// that would need evaluation (identifiers, calls, operators) is an error.
func DecodeLiteral(src string) (any, error) {
	d := &literalDecoder{src: src}
	v, err := d.value()
	if err != nil {
		return nil, err
	}
	d.skipSpace()
	if d.pos < len(d.src) && d.src[d.pos] == ';' {
		d.pos++
		d.skipSpace()
	}
	if d.pos != len(d.src) {
		return nil, d.errorf("unexpected %q after value", d.rest())
	}
	if _, ok := v.(undefined); ok {
		return nil, nil
	}
	return v, nil
}

type literalDecoder struct {
	src string
	pos int
}

func (d *literalDecoder) errorf(format string, args ...any) error {
	return fmt.Errorf("literal offset %d: %s", d.pos, fmt.Sprintf(format, args...))
}

func (d *literalDecoder) rest() string {
	r := d.src[d.pos:]
	if len(r) > 24 {
		r = r[:24] + "..."
	}
	return r
}

func (d *literalDecoder) skipSpace() {
	for d.pos < len(d.src) {
		c := d.src[d.pos]
		if isSpace(c) {
			d.pos++
			continue
		}
		if c == '/' && d.pos+1 < len(d.src) && (d.src[d.pos+1] == '/' || d.src[d.pos+1] == '*') {
			d.pos = skipNonCode(d.src, d.pos)
			continue
		}
		return
	}
}

func (d *literalDecoder) value() (any, error) {
	d.skipSpace()
	if d.pos >= len(d.src) {
		return nil, d.errorf("unexpected end of input")
	}
	switch c := d.src[d.pos]; {
	case c == '{':
		return d.object()
	case c == '[':
		return d.array()
	case c == '"' || c == '\'':
		return d.quoted()
	case c == '`':
		return d.template()
	case c == '-' || c == '+' || c == '.' || isDigit(c):
		return d.number()
	case isIdentStart(c):
		word := d.ident()
		switch word {
		case "true":
			return true, nil
		case "false":
			return false, nil
		case "null":
			return nil, nil
		case "undefined":
			return undefined{}, nil
		}
		return nil, fmt.Errorf("literal offset %d: non-literal expression %q", d.pos-len(word), word)
	default:
		return nil, d.errorf("unexpected %q", d.rest())
	}
}

func (d *literalDecoder) object() (any, error) {
	d.pos++ // {
	obj := make(map[string]any)
	for {
		d.skipSpace()
		if d.pos >= len(d.src) {
			return nil, d.errorf("unterminated object")
		}
		if d.src[d.pos] == '}' {
			d.pos++
			return obj, nil
		}
		key, err := d.key()
		if err != nil {
			return nil, err
		}
		d.skipSpace()
		if d.pos >= len(d.src) || d.src[d.pos] != ':' {
			return nil, d.errorf("expected ':' after key %q", key)
		}
		d.pos++
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		if _, ok := v.(undefined); !ok {
			obj[key] = v
		}
		d.skipSpace()
		if d.pos < len(d.src) && d.src[d.pos] == ',' {
			d.pos++
			continue
		}
		if d.pos < len(d.src) && d.src[d.pos] == '}' {
			continue
		}
		return nil, d.errorf("expected ',' or '}' in object")
	}
}

func (d *literalDecoder) key() (string, error) {
	c := d.src[d.pos]
	switch {
	case c == '"' || c == '\'':
		return d.quoted()
	case isIdentStart(c):
		return d.ident(), nil
	case isDigit(c):
		start := d.pos
		for d.pos < len(d.src) && isIdentPart(d.src[d.pos]) {
			d.pos++
		}
		return d.src[start:d.pos], nil
	}
	return "", d.errorf("unsupported property key %q", d.rest())
}

func (d *literalDecoder) array() (any, error) {
	d.pos++ // [
	arr := make([]any, 0)
	for {
		d.skipSpace()
		if d.pos >= len(d.src) {
			return nil, d.errorf("unterminated array")
		}
		if d.src[d.pos] == ']' {
			d.pos++
			return arr, nil
		}
		v, err := d.value()
		if err != nil {
			return nil, err
		}
		if _, ok := v.(undefined); ok {
			v = nil
		}
		arr = append(arr, v)
		d.skipSpace()
		if d.pos < len(d.src) && d.src[d.pos] == ',' {
			d.pos++
			continue
		}
		if d.pos < len(d.src) && d.src[d.pos] == ']' {
			continue
		}
		return nil, d.errorf("expected ',' or ']' in array")
	}
}

func (d *literalDecoder) ident() string {
	start := d.pos
	for d.pos < len(d.src) && isIdentPart(d.src[d.pos]) {
		d.pos++
	}
	return d.src[start:d.pos]
}

func (d *literalDecoder) number() (any, error) {
	start := d.pos
	for d.pos < len(d.src) {
		c := d.src[d.pos]
		if isIdentPart(c) || c == '.' || c == '+' || c == '-' {
			// a sign is only part of the number at the start or after an exponent
			if (c == '+' || c == '-') && d.pos != start {
				prev := d.src[d.pos-1]
				if prev != 'e' && prev != 'E' || strings.HasPrefix(strings.ToLower(strings.TrimLeft(d.src[start:d.pos], "+-")), "0x") {
					break
				}
			}
			d.pos++
			continue
		}
		break
	}
	raw := strings.ReplaceAll(d.src[start:d.pos], "_", "")
	neg := false
	body := raw
	switch {
	case strings.HasPrefix(body, "-"):
		neg, body = true, body[1:]
	case strings.HasPrefix(body, "+"):
		body = body[1:]
	}
	if body == "Infinity" {
		return nil, fmt.Errorf("literal offset %d: non-finite number", start)
	}
	lower := strings.ToLower(body)
	if strings.HasPrefix(lower, "0x") || strings.HasPrefix(lower, "0o") || strings.HasPrefix(lower, "0b") {
		u, err := strconv.ParseUint(body[2:], map[byte]int{'x': 16, 'o': 8, 'b': 2}[lower[1]], 64)
		if err != nil || u > math.MaxInt64 {
			return nil, fmt.Errorf("literal offset %d: invalid number %q", start, raw)
		}
		if neg {
			return -int64(u), nil
		}
		return int64(u), nil
	}
	if n, err := strconv.ParseInt(body, 10, 64); err == nil {
		if neg {
			return -n, nil
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(body, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("literal offset %d: invalid number %q", start, raw)
	}
	if neg {
		f = -f
	}
	return f, nil
}

func (d *literalDecoder) quoted() (string, error) {
	quote := d.src[d.pos]
	d.pos++
	var sb strings.Builder
	for d.pos < len(d.src) {
		c := d.src[d.pos]
		switch {
		case c == quote:
			d.pos++
			return sb.String(), nil
		case c == '\n':
			return "", d.errorf("unterminated string")
		case c == '\\':
			if err := d.escape(&sb); err != nil {
				return "", err
			}
		default:
			sb.WriteByte(c)
			d.pos++
		}
	}
	return "", d.errorf("unterminated string")
}

func (d *literalDecoder) template() (any, error) {
	d.pos++ // `
	var sb strings.Builder
	for d.pos < len(d.src) {
		c := d.src[d.pos]
		switch {
		case c == '`':
			d.pos++
			return sb.String(), nil
		case c == '$' && d.pos+1 < len(d.src) && d.src[d.pos+1] == '{':
			return nil, d.errorf("template substitution needs evaluation")
		case c == '\\':
			if err := d.escape(&sb); err != nil {
				return nil, err
			}
		default:
			sb.WriteByte(c)
			d.pos++
		}
	}
	return nil, d.errorf("unterminated template string")
}

// escape decodes the escape sequence at d.pos (which holds the backslash).
func (d *literalDecoder) escape(sb *strings.Builder) error {
	d.pos++
	if d.pos >= len(d.src) {
		return d.errorf("unterminated escape")
	}
	c := d.src[d.pos]
	d.pos++
	switch c {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case '0':
		sb.WriteByte(0)
	case '\n':
		// line continuation
	case '\r':
		if d.pos < len(d.src) && d.src[d.pos] == '\n' {
			d.pos++
		}
	case 'x':
		return d.hexRune(sb, 2)
	case 'u':
		if d.pos < len(d.src) && d.src[d.pos] == '{' {
			end := strings.IndexByte(d.src[d.pos:], '}')
			if end < 0 {
				return d.errorf("invalid unicode escape")
			}
			r, err := strconv.ParseUint(d.src[d.pos+1:d.pos+end], 16, 32)
			if err != nil || !utf8.ValidRune(rune(r)) {
				return d.errorf("invalid unicode escape")
			}
			sb.WriteRune(rune(r))
			d.pos += end + 1
			return nil
		}
		return d.hexRune(sb, 4)
	default:
		sb.WriteByte(c)
	}
	return nil
}

func (d *literalDecoder) hexRune(sb *strings.Builder, n int) error {
	r, err := d.hexUnit(n)
	if err != nil {
		return err
	}
	if n == 4 && utf16.IsSurrogate(r) && strings.HasPrefix(d.src[d.pos:], `\u`) {
		save := d.pos
		d.pos += 2
		if low, err := d.hexUnit(4); err == nil {
			if pair := utf16.DecodeRune(r, low); pair != utf8.RuneError {
				sb.WriteRune(pair)
				return nil
			}
		}
		d.pos = save
	}
	sb.WriteRune(r)
	return nil
}

func (d *literalDecoder) hexUnit(n int) (rune, error) {
	if d.pos+n > len(d.src) {
		return 0, d.errorf("invalid escape")
	}
	r, err := strconv.ParseUint(d.src[d.pos:d.pos+n], 16, 32)
	if err != nil {
		return 0, d.errorf("invalid escape")
	}
	d.pos += n
	return rune(r), nil
}
