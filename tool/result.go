package tool

import "strings"

// ContentTypeText is the only content type produced by tools today.
const ContentTypeText = "text"

// Content is one block of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the success payload of a tool invocation.
type Result struct {
	Content []Content `json:"content"`
}

// TextResult builds a single-block text result.
func TextResult(text string) Result {
	return Result{Content: []Content{{Type: ContentTypeText, Text: text}}}
}

// Text joins all text blocks with newlines.
func (r Result) Text() string {
	parts := make([]string, 0, len(r.Content))
	for _, block := range r.Content {
		if block.Type == ContentTypeText {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}
