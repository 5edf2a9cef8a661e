package templating

import (
	"errors"
	"fmt"
	"strings"

	"github.com/CTAG07/Anthology/pkg/store"
)

// Source supplies the values behind key references. *store.Store satisfies it.
type Source interface {
	Keys() []string
	Read(key string) []store.Value
}

// resolver performs one random expansion. It is not safe for concurrent use.
type resolver struct {
	src    Source
	keys   []string
	known  map[string]bool
	config TemplateConfig
	intn   func(n int) int
}

// expand sanitizes text and resolves it completely. It is used for the
// top-level template and for every stored value a reference picks.
func (r *resolver) expand(text string, depth int) (string, error) {
	if depth > r.config.MaxDepth {
		return "", fmt.Errorf("%w: key references nested deeper than %d", ErrMalformedTemplate, r.config.MaxDepth)
	}
	passes := 0
	grouped, err := r.resolveGroups(StripComments(text), depth, &passes, true)
	if err != nil {
		return "", err
	}
	return r.resolveRefs(grouped, depth)
}

// resolveGroups replaces every alternation group with one of its options,
// resolving groups inside the chosen option as well. With lookup set, a
// chosen option that names a key is replaced by a random value of that key.
// A group written right after '$' selects a key name, so neither it nor the
// groups nested in it are looked up.
func (r *resolver) resolveGroups(text string, depth int, passes *int, lookup bool) (string, error) {
	if depth > r.config.MaxDepth {
		return "", fmt.Errorf("%w: groups nested deeper than %d", ErrMalformedTemplate, r.config.MaxDepth)
	}
	var b strings.Builder
	for _, tok := range scanGroups(text) {
		if tok.kind == tokenLiteral {
			b.WriteString(tok.text)
			continue
		}
		*passes++
		if *passes > r.config.MaxPasses {
			return "", fmt.Errorf("%w: more than %d alternation groups", ErrMalformedTemplate, r.config.MaxPasses)
		}
		naming := endsWithRefMarker(b.String())
		option := tok.options[r.intn(len(tok.options))]
		resolved, err := r.resolveGroups(option, depth+1, passes, lookup && !naming)
		if err != nil {
			return "", err
		}
		if lookup && !naming {
			if resolved, err = r.lookupOption(resolved, depth); err != nil {
				return "", err
			}
		}
		b.WriteString(resolved)
	}
	return b.String(), nil
}

// lookupOption replaces option by a random, fully expanded value when its
// trimmed text is a candidate key with values. The result is escaped so the
// reference pass leaves it alone.
func (r *resolver) lookupOption(option string, depth int) (string, error) {
	key := strings.TrimSpace(option)
	if !r.known[key] {
		return option, nil
	}
	values := r.src.Read(key)
	if len(values) == 0 {
		return option, nil
	}
	expanded, err := r.expand(store.Text(values[r.intn(len(values))]), depth+1)
	if err != nil {
		return "", wrapKey(key, err)
	}
	return escapeDollar(expanded), nil
}

// resolveRefs substitutes every key reference with a random, fully expanded
// value of that key. Substituted text is not scanned again.
func (r *resolver) resolveRefs(text string, depth int) (string, error) {
	if len(r.keys) == 0 {
		return unescapeDollar(text), nil
	}
	var b strings.Builder
	for _, tok := range scanRefs(text, r.keys) {
		if tok.kind == tokenLiteral {
			b.WriteString(tok.text)
			continue
		}
		values := r.src.Read(tok.text)
		if len(values) == 0 {
			continue
		}
		value := store.Text(values[r.intn(len(values))])
		expanded, err := r.expand(value, depth+1)
		if err != nil {
			return "", wrapKey(tok.text, err)
		}
		b.WriteString(expanded)
	}
	return b.String(), nil
}

// keyError names the key whose value failed to expand.
type keyError struct {
	key string
	err error
}

func (e *keyError) Error() string { return "$" + e.key + ": " + e.err.Error() }
func (e *keyError) Unwrap() error { return e.err }

// wrapKey names key in err unless an inner key is already named, so a
// cyclic reference reports its key once.
func wrapKey(key string, err error) error {
	var ke *keyError
	if errors.As(err, &ke) {
		return err
	}
	return &keyError{key: key, err: err}
}

// endsWithRefMarker reports whether s ends in an unescaped '$'.
func endsWithRefMarker(s string) bool {
	return strings.HasSuffix(s, "$") && !strings.HasSuffix(s, `\$`)
}

func escapeDollar(s string) string {
	return strings.ReplaceAll(s, "$", `\$`)
}

func unescapeDollar(s string) string {
	return strings.ReplaceAll(s, `\$`, "$")
}
