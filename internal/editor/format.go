// Package editor holds the buffer helpers behind the editor's toolbar:
// formatting, comment toggling, file load/save and code templates.
package editor

import "strings"

// bodyStatements are indented one level by Format.
var bodyStatements = []string{"return", "break", "continue", "pass", "print(", "input("}

// Format is a naive line trimmer, not a real formatter. Every line is
// stripped, then common body statements (return, print(...) and so on) are
// re-indented to exactly one level. Nesting is not tracked.
func Format(code string) string {
	lines := strings.Split(code, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		switch {
		case stripped == "":
			out = append(out, "")
		case hasAnyPrefix(stripped, bodyStatements):
			out = append(out, "    "+stripped)
		default:
			out = append(out, stripped)
		}
	}
	return strings.Join(out, "\n")
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// ToggleComment comments out line with "# ", or removes the first '#'
// (and the whitespace before the text) from a commented line.
func ToggleComment(line string) string {
	if strings.HasPrefix(strings.TrimSpace(line), "#") {
		return strings.TrimLeft(strings.Replace(line, "#", "", 1), " \t")
	}
	return "# " + line
}

// ToggleCommentAt applies ToggleComment to the zero-based line row of text.
// Out-of-range rows return text unchanged.
func ToggleCommentAt(text string, row int) string {
	lines := strings.Split(text, "\n")
	if row < 0 || row >= len(lines) {
		return text
	}
	lines[row] = ToggleComment(lines[row])
	return strings.Join(lines, "\n")
}
