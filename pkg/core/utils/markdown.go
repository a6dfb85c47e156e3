package utils

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
)

// CleanMarkdown strips outer code fences and surrounding whitespace so model
// output is plain Markdown (or JSON) ready for further processing.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)

	for _, lang := range []string{"```markdown", "```json", "```"} {
		if strings.HasPrefix(cleaned, lang) && strings.HasSuffix(cleaned, "```") {
			cleaned = strings.TrimPrefix(cleaned, lang)
			cleaned = strings.TrimSuffix(cleaned, "```")
			return strings.TrimSpace(cleaned)
		}
	}
	return cleaned
}

// RenderMarkdown converts Markdown to HTML for API responses. On conversion
// failure the raw text is returned so advisory content is never lost.
func RenderMarkdown(md string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return md
	}
	return buf.String()
}
