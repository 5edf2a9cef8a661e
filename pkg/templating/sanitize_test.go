package templating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripComments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no comments", "a {b|c} $d", "a {b|c} $d"},
		{"block", "a /* hidden */b", "a b"},
		{"block across lines", "a/* one\ntwo */b", "ab"},
		{"block is minimal", "a/*x*/b/*y*/c", "abc"},
		{"line", "keep // drop\nnext", "keep \nnext"},
		{"line at end", "keep // drop", "keep "},
		{"mixed", "/* a */x // b\n// c\ny", "x \n\ny"},
		{"unterminated block stays", "a /* b", "a /* b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripComments(tt.in))
		})
	}
}
