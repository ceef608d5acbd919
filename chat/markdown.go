package chat

import (
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

var htmlPolicy = bluemonday.UGCPolicy()

// RenderHTML turns the model's markdown reply into HTML safe to inject
// into the dashboard.
func RenderHTML(markdown string) string {
	unsafe := blackfriday.Run([]byte(markdown))
	return string(htmlPolicy.SanitizeBytes(unsafe))
}
