package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderHTML(t *testing.T) {
	html := RenderHTML("**bold** and [a link](https://example.com)")
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.Contains(t, html, `href="https://example.com"`)
}

func TestRenderHTMLStripsScripts(t *testing.T) {
	html := RenderHTML("hello <script>alert(1)</script> world")
	assert.NotContains(t, html, "<script")
	assert.Contains(t, html, "hello")
}
