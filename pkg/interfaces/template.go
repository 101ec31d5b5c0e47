package interfaces

import (
	"context"
	"io"
)

// TemplateRenderer renders named templates and inline template strings.
type TemplateRenderer interface {
	RenderTemplate(ctx context.Context, name string, data any, out ...io.Writer) (string, error)
	RenderString(ctx context.Context, templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFunc(name string, fn any) error
}

// TemplateSource resolves template bodies by name.
type TemplateSource interface {
	Lookup(ctx context.Context, name string) (content string, mimeType string, err error)
}
