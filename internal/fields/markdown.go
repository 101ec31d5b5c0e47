package fields

import (
	"bytes"
	"context"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdownEngine = goldmark.New(goldmark.WithExtensions(extension.GFM))
	markdownPolicy = bluemonday.UGCPolicy()
)

// MarkdownText is the value of a markdown field: the source text plus an
// HTML rendering for templates.
type MarkdownText string

// HTML renders the markdown source and sanitizes the output.
func (m MarkdownText) HTML() template.HTML {
	out, err := RenderMarkdown(string(m))
	if err != nil {
		return template.HTML(template.HTMLEscapeString(string(m)))
	}
	return out
}

func (m MarkdownText) String() string { return string(m) }

// RenderMarkdown converts source to sanitized HTML.
func RenderMarkdown(source string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return template.HTML(markdownPolicy.SanitizeBytes(buf.Bytes())), nil
}

// Markdown stores markdown source text.
type Markdown struct{}

func (Markdown) Label() string { return "Markdown" }

func (Markdown) ToDatabase(_ context.Context, value any, _ Context) (*string, error) {
	return stringValue(value), nil
}

func (Markdown) ToValue(stored *string, _ Context) (any, error) {
	if stored == nil {
		return MarkdownText(""), nil
	}
	return MarkdownText(*stored), nil
}

func (Markdown) EditorField(opts EditorOptions) EditorField {
	return editorField(opts, CodeMarkdown, "markdown", "textarea", "")
}
