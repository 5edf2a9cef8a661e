/*
Package templating expands Anthology templates.

A template is plain text with three kinds of markup:

	{a|b|c}   an alternation group; one option is chosen
	$name     a key reference; one value stored under name is chosen and expanded
	\{ \} \| \$   escapes; the character after the backslash is literal

Line and block comments are removed before expansion.

Templates can be evaluated in two modes. Expand picks one random result.
Spread enumerates every combination of the top-level alternation groups,
ordered as a mixed-radix counter whose first group varies fastest.

The Engine bounds every evaluation with the limits in Config, so malformed or
self-referencing input fails with ErrMalformedTemplate instead of running away.
*/
package templating
