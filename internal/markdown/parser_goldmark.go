package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// ParseOptions selects goldmark extensions and output handling.
type ParseOptions struct {
	// Extensions lists extension names; empty means gfm, linkify and
	// tasklist.
	Extensions []string
	HardWraps  bool
	// Sanitize runs the output through the bluemonday UGC policy. Raw HTML
	// in the source is kept either way.
	Sanitize bool
}

// Parser converts markdown to HTML. It is safe for concurrent use.
type Parser struct {
	engine goldmark.Markdown
	policy *bluemonday.Policy
}

func NewParser(opts ParseOptions) *Parser {
	p := &Parser{engine: newGoldmarkEngine(opts)}
	if opts.Sanitize {
		p.policy = bluemonday.UGCPolicy()
	}
	return p
}

func (p *Parser) Parse(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.engine.Convert(source, &buf); err != nil {
		return nil, fmt.Errorf("markdown parse: %w", err)
	}
	if p.policy != nil {
		return p.policy.SanitizeBytes(buf.Bytes()), nil
	}
	return buf.Bytes(), nil
}

func newGoldmarkEngine(opts ParseOptions) goldmark.Markdown {
	rendererOptions := []renderer.Option{html.WithUnsafe()}
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	engineOptions := []goldmark.Option{
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOptions...),
	}
	if exts := collectExtensions(opts.Extensions); len(exts) > 0 {
		engineOptions = append(engineOptions, goldmark.WithExtensions(exts...))
	}
	return goldmark.New(engineOptions...)
}

var extensionRegistry = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"tables":        extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"autolink":      extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
}

// collectExtensions ignores unknown names.
func collectExtensions(names []string) []goldmark.Extender {
	if len(names) == 0 {
		return []goldmark.Extender{extension.GFM, extension.Linkify, extension.TaskList}
	}
	var out []goldmark.Extender
	seen := map[string]bool{}
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		ext, ok := extensionRegistry[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, ext)
	}
	return out
}
