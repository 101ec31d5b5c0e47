package logging

import (
	"context"

	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

const (
	RootModule      = "cms"
	ResourcesModule = "cms.resources"
	RenderModule    = "cms.render"
	CacheModule     = "cms.cache"
	HTTPModule      = "cms.http"
	CommandsModule  = "cms.commands"
	FieldsModule    = "cms.fields"
	MarkdownModule  = "cms.markdown"
)

// ModuleLogger returns the provider's logger for module tagged with a
// "module" field. A nil provider yields the no-op logger.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = RootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{"module": module})
}

// NoOp returns a logger that discards everything.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var (
	_ interfaces.Logger       = noopLogger{}
	_ interfaces.FieldsLogger = noopLogger{}
)

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger   { return n }
func (n noopLogger) WithContext(context.Context) interfaces.Logger { return n }
