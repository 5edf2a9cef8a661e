package templating

import (
	"sort"
	"strings"
)

type tokenKind int

const (
	tokenLiteral tokenKind = iota
	tokenGroup
	tokenKeyRef
)

// token is one unit of a scanned template. Literal tokens carry text, group
// tokens carry their raw options and key references carry the key name.
type token struct {
	kind    tokenKind
	text    string
	options []string
}

func isGroupEscape(c byte) bool {
	return c == '{' || c == '}' || c == '|'
}

// scanGroups splits text into literal runs and alternation groups.
//
// A group runs from an unescaped '{' to its matching unescaped '}'. Groups
// nest; an opening brace that is never closed, and a closing brace that was
// never opened, are literal. Escapes of braces and pipes are consumed in
// literal runs and kept verbatim inside options, which are scanned again
// when chosen.
func scanGroups(text string) []token {
	var tokens []token
	var lit strings.Builder

	flush := func() {
		if lit.Len() > 0 {
			tokens = append(tokens, token{kind: tokenLiteral, text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '\\' && i+1 < len(text) && isGroupEscape(text[i+1]):
			lit.WriteByte(text[i+1])
			i++
		case c == '{':
			end := matchBrace(text, i)
			if end < 0 {
				lit.WriteByte(c)
				continue
			}
			flush()
			tokens = append(tokens, token{kind: tokenGroup, options: splitOptions(text[i+1 : end])})
			i = end
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return tokens
}

// matchBrace returns the index of the '}' closing the '{' at open, or -1.
func matchBrace(text string, open int) int {
	depth := 0
	for j := open; j < len(text); j++ {
		switch text[j] {
		case '\\':
			if j+1 < len(text) && isGroupEscape(text[j+1]) {
				j++
			}
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

// splitOptions splits a group body on unescaped '|' outside nested groups.
// Empty options are kept.
func splitOptions(body string) []string {
	var options []string
	depth, start := 0, 0
	for j := 0; j < len(body); j++ {
		switch body[j] {
		case '\\':
			if j+1 < len(body) && isGroupEscape(body[j+1]) {
				j++
			}
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '|':
			if depth == 0 {
				options = append(options, body[start:j])
				start = j + 1
			}
		}
	}
	return append(options, body[start:])
}

// unescapeGroup drops the backslash of every brace or pipe escape outside
// nested groups. Nested groups are kept byte for byte so they still parse
// the same way.
func unescapeGroup(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) && isGroupEscape(s[i+1]) {
			if depth > 0 {
				b.WriteByte(c)
			}
			b.WriteByte(s[i+1])
			i++
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// candidateKeys orders keys longest first so that a key is never shadowed by
// one of its own prefixes.
func candidateKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) > len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}

// scanRefs splits text into literal runs and key references. At every
// unescaped '$' the first candidate key that prefixes the rest of the text
// is taken; candidates must already be ordered longest first. "\$" is a
// literal dollar sign and a '$' that matches no key stays literal.
func scanRefs(text string, keys []string) []token {
	var tokens []token
	var lit strings.Builder

	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == '\\' && i+1 < len(text) && text[i+1] == '$' {
			lit.WriteByte('$')
			i++
			continue
		}
		if c != '$' {
			lit.WriteByte(c)
			continue
		}
		key := matchKey(text[i+1:], keys)
		if key == "" {
			lit.WriteByte(c)
			continue
		}
		if lit.Len() > 0 {
			tokens = append(tokens, token{kind: tokenLiteral, text: lit.String()})
			lit.Reset()
		}
		tokens = append(tokens, token{kind: tokenKeyRef, text: key})
		i += len(key)
	}
	if lit.Len() > 0 {
		tokens = append(tokens, token{kind: tokenLiteral, text: lit.String()})
	}
	return tokens
}

func matchKey(rest string, keys []string) string {
	for _, k := range keys {
		if strings.HasPrefix(rest, k) {
			return k
		}
	}
	return ""
}
