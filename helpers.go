package prender

import (
	"strconv"
	"strings"
)

// jsEscape escapes a string for safe embedding in JavaScript source code.
// Uses %q formatting which produces a Go-quoted string that is also valid JS.
func jsEscape(s string) string {
	return strconv.Quote(s)
}

// escapeInlineJSON makes a JSON payload safe inside an inline <script>
// element by breaking any "</" sequence (e.g. a "</script>" in a prop
// value) so the parser cannot close the element early.
func escapeInlineJSON(s string) string {
	return strings.ReplaceAll(s, "</", "<\\/")
}
