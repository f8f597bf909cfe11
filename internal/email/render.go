package email

import (
	"html"
	"strings"
)

// blockEnd lists closing tags that end a line in the text body.
var blockEnd = map[string]bool{
	"br": true, "br/": true, "/div": true, "/p": true, "/h1": true, "/h2": true, "/h3": true, "/li": true, "/tr": true,
}

// plainText renders the text/plain alternative of an HTML mail body.
// Tags are dropped, block ends become newlines, entities are decoded, and
// blank lines are removed.
func plainText(body string) string {
	var b strings.Builder
	for len(body) > 0 {
		start := strings.IndexByte(body, '<')
		if start < 0 {
			b.WriteString(body)
			break
		}
		b.WriteString(body[:start])

		end := strings.IndexByte(body[start:], '>')
		if end < 0 {
			b.WriteString(body[start:])
			break
		}
		tag := strings.ToLower(strings.TrimSpace(body[start+1 : start+end]))
		if name, _, _ := strings.Cut(tag, " "); blockEnd[name] || blockEnd[strings.ReplaceAll(tag, " ", "")] {
			b.WriteByte('\n')
		}
		body = body[start+end+1:]
	}

	text := strings.ReplaceAll(html.UnescapeString(b.String()), "\u00a0", " ")
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
