package logging

import (
	"context"
	"maps"
)

type contextKey struct{}

var fieldsKey contextKey

// ContextWithFields returns ctx annotated with fields that loggers merge into
// each entry. Fields already present on ctx are kept unless overridden.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}
	merged := ContextFields(ctx)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return context.WithValue(ctx, fieldsKey, merged)
}

// ContextFields returns a copy of the fields stored on ctx.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, ok := ctx.Value(fieldsKey).(map[string]any)
	if !ok || len(fields) == 0 {
		return nil
	}
	return maps.Clone(fields)
}

// RequestFields annotates ctx with the request identifiers used by the http
// boundary (request id, path, site).
func RequestFields(ctx context.Context, requestID, path, site string) context.Context {
	fields := map[string]any{}
	if requestID != "" {
		fields[FieldRequestID] = requestID
	}
	if path != "" {
		fields[FieldPath] = path
	}
	if site != "" {
		fields[FieldSite] = site
	}
	return ContextWithFields(ctx, fields)
}
