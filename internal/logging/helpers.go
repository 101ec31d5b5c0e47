package logging

import (
	"maps"

	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

const (
	FieldRequestID  = "request_id"
	FieldPath       = "uri_path"
	FieldSite       = "site"
	FieldResourceID = "resource_id"
	FieldCacheKey   = "cache_key"
)

// WithFields attaches fields when the logger implements FieldsLogger and
// returns it unchanged otherwise.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fl, ok := logger.(interfaces.FieldsLogger); ok {
		return fl.WithFields(maps.Clone(fields))
	}
	return logger
}

// OrNoOp returns logger, or the no-op logger when logger is nil.
func OrNoOp(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return NoOp()
	}
	return logger
}
