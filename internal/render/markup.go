package render

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

const CursorMarker = "▌"

// Markup turns frames into the styled response block. The text is read as
// Markdown; anything outside the UGC policy is stripped from the result.
type Markup struct {
	policy *bluemonday.Policy
}

func NewMarkup() *Markup {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return &Markup{policy: p}
}

func (m *Markup) HTML(f Frame) string {
	body := strings.TrimSpace(string(m.policy.SanitizeBytes(
		blackfriday.Run([]byte(f.Text)),
	)))
	if f.Cursor {
		body = withCursor(body)
	}

	var b strings.Builder
	b.WriteString(`<div class="response-box">`)
	b.WriteString(body)
	b.WriteString(`</div>`)
	return b.String()
}

// withCursor keeps the marker on the line being written when the text ends
// in a paragraph.
func withCursor(body string) string {
	if strings.HasSuffix(body, "</p>") {
		return strings.TrimSuffix(body, "</p>") + CursorMarker + "</p>"
	}
	return body + CursorMarker
}
