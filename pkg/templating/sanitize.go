package templating

import "regexp"

var commentPattern = regexp.MustCompile(`/\*[\s\S]*?\*/|//[^\r\n]*`)

// StripComments removes /* block */ and // line comments from text.
// Block comments do not nest; a line comment runs to the end of its line.
func StripComments(text string) string {
	return commentPattern.ReplaceAllString(text, "")
}
