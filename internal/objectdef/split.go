package objectdef

import "strings"

// Split breaks text into individual statements on ';'.
//
// Delimiters inside comments, quoted strings, quoted identifiers and
// $$-quoted bodies do not split. Comments are removed from the output.
// Statements are trimmed and returned without the trailing delimiter;
// statements that are empty after comment removal are dropped.
func Split(text string) []string {
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	n := len(text)
	for i := 0; i < n; {
		c := text[i]
		var next byte
		if i+1 < n {
			next = text[i+1]
		}

		switch {
		case c == '-' && next == '-':
			// Line comment; keep the newline so tokens stay separated.
			j := strings.IndexByte(text[i:], '\n')
			if j < 0 {
				i = n
				continue
			}
			i += j

		case c == '/' && next == '*':
			j := strings.Index(text[i+2:], "*/")
			if j < 0 {
				i = n
				continue
			}
			i += 2 + j + 2
			cur.WriteByte(' ')

		case c == '\'' || c == '"':
			end := quotedEnd(text, i, c)
			cur.WriteString(text[i:end])
			i = end

		case c == '$' && next == '$':
			end := n
			if j := strings.Index(text[i+2:], "$$"); j >= 0 {
				end = i + 2 + j + 2
			}
			cur.WriteString(text[i:end])
			i = end

		case c == ';':
			flush()
			i++

		default:
			cur.WriteByte(c)
			i++
		}
	}
	flush()
	return out
}

// quotedEnd returns the offset just past the quoted run that opens at
// text[start] with quote q. A doubled quote is an escaped quote; inside
// single-quoted strings a backslash escapes the next byte. An unterminated
// run extends to the end of text.
func quotedEnd(text string, start int, q byte) int {
	n := len(text)
	for j := start + 1; j < n; j++ {
		switch text[j] {
		case '\\':
			if q == '\'' {
				j++
			}
		case q:
			if j+1 < n && text[j+1] == q {
				j++
				continue
			}
			return j + 1
		}
	}
	return n
}
