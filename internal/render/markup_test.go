package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkup_CursorOnlyWhileStreaming(t *testing.T) {
	m := NewMarkup()
	assert.Equal(t, `<div class="response-box"><p>Hello world▌</p></div>`, m.HTML(Frame{Text: "Hello world", Cursor: true}))
	assert.Equal(t, `<div class="response-box"><p>Hello world</p></div>`, m.HTML(Frame{Text: "Hello world"}))
	assert.Equal(t, `<div class="response-box"></div>`, m.HTML(Frame{}))
	assert.Equal(t, `<div class="response-box">▌</div>`, m.HTML(Frame{Cursor: true}))
}

func TestMarkup_RendersMarkdown(t *testing.T) {
	m := NewMarkup()
	out := m.HTML(Frame{Text: "**Go** is:\n\n1. fast\n2. simple"})

	assert.Contains(t, out, "<strong>Go</strong> is:")
	assert.Contains(t, out, "<ol>")
	assert.Contains(t, out, "<li>fast</li>")
	assert.Contains(t, out, "<li>simple</li>")
	assert.NotContains(t, out, "**")
	assert.NotContains(t, out, "1.")
}

func TestMarkup_CursorAfterList(t *testing.T) {
	m := NewMarkup()
	out := m.HTML(Frame{Text: "- a\n- b", Cursor: true})
	assert.Contains(t, out, "</ul>"+CursorMarker+"</div>")
}

func TestMarkup_StripsScripts(t *testing.T) {
	m := NewMarkup()
	out := m.HTML(Frame{Text: `<b>bold</b><script>alert(1)</script>`})
	assert.Contains(t, out, "<b>bold</b>")
	assert.NotContains(t, out, "script")
	assert.NotContains(t, out, "alert")
}
