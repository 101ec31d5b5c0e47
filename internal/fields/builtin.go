package fields

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"
)

const (
	CodeChar     = "char"
	CodeBool     = "bool"
	CodeDate     = "date"
	CodeDateTime = "datetime"
	CodeTime     = "time"
	CodeText     = "text"
	CodeHTML     = "html"
	CodeMarkdown = "markdown"
	CodeFile     = "file"
	CodeImage    = "image"
)

// Storage layouts for the temporal descriptors.
const (
	DateLayout     = "2006-01-02"
	TimeLayout     = "15:04:05"
	DateTimeLayout = "2006-01-02T15:04:05"
)

// Char stores single line text. It is the default descriptor.
type Char struct{}

func (Char) Label() string { return "Text" }

func (Char) ToDatabase(_ context.Context, value any, _ Context) (*string, error) {
	return stringValue(value), nil
}

func (Char) ToValue(stored *string, _ Context) (any, error) {
	if stored == nil {
		return "", nil
	}
	return *stored, nil
}

func (Char) EditorField(opts EditorOptions) EditorField {
	return editorField(opts, CodeChar, "text", "text", "")
}

// Text stores multi line text.
type Text struct{ Char }

func (Text) Label() string { return "Text Area" }

func (Text) EditorField(opts EditorOptions) EditorField {
	return editorField(opts, CodeText, "textarea", "textarea", "")
}

// HTML stores trusted markup and exposes it as template.HTML.
type HTML struct{}

func (HTML) Label() string { return "HTML" }

func (HTML) ToDatabase(_ context.Context, value any, _ Context) (*string, error) {
	return stringValue(value), nil
}

func (HTML) ToValue(stored *string, _ Context) (any, error) {
	if stored == nil {
		return template.HTML(""), nil
	}
	return template.HTML(*stored), nil
}

func (HTML) EditorField(opts EditorOptions) EditorField {
	return editorField(opts, CodeHTML, "html", "textarea", "")
}

// Bool stores "true" or "false". Stored "false" and "0" (any case) read as
// false; every other non-empty value reads as true.
type Bool struct{}

func (Bool) Label() string { return "Checkbox" }

func (Bool) ToDatabase(_ context.Context, value any, _ Context) (*string, error) {
	if ParseBool(value) {
		return strPtr("true"), nil
	}
	return strPtr("false"), nil
}

func (Bool) ToValue(stored *string, _ Context) (any, error) {
	if stored == nil {
		return false, nil
	}
	return ParseBool(*stored), nil
}

func (Bool) EditorField(opts EditorOptions) EditorField {
	return editorField(opts, CodeBool, "checkbox", "checkbox", "")
}

// ParseBool applies the boolean field truthiness rules to value.
func ParseBool(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case *bool:
		return v != nil && *v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "false", "0":
			return false
		}
		return true
	case *string:
		return v != nil && ParseBool(*v)
	case int:
		return v != 0
	case int64:
		return v != 0
	default:
		return true
	}
}

// Date stores a calendar date as YYYY-MM-DD.
type Date struct{}

func (Date) Label() string { return "Date" }

func (Date) ToDatabase(_ context.Context, value any, fc Context) (*string, error) {
	return formatTemporal(value, fc, DateLayout, false)
}

func (Date) ToValue(stored *string, fc Context) (any, error) {
	return parseTemporal(stored, fc, DateLayout)
}

func (Date) EditorField(opts EditorOptions) EditorField {
	return editorField(opts, CodeDate, "date", "date", DateLayout)
}

// Time stores a time of day as HH:MM:SS. Parsed values carry the zero date.
type Time struct{}

func (Time) Label() string { return "Time" }

func (Time) ToDatabase(_ context.Context, value any, fc Context) (*string, error) {
	return formatTemporal(value, fc, TimeLayout, false)
}

func (Time) ToValue(stored *string, fc Context) (any, error) {
	return parseTemporal(stored, fc, TimeLayout)
}

func (Time) EditorField(opts EditorOptions) EditorField {
	return editorField(opts, CodeTime, "time", "time", TimeLayout)
}

// DateTime stores a UTC timestamp without zone as YYYY-MM-DDTHH:MM:SS.
// Values in other zones are converted to UTC, so they read back as the same
// instant in UTC rather than in their original location.
type DateTime struct{}

func (DateTime) Label() string { return "Date Time" }

func (DateTime) ToDatabase(_ context.Context, value any, fc Context) (*string, error) {
	return formatTemporal(value, fc, DateTimeLayout, true)
}

func (DateTime) ToValue(stored *string, fc Context) (any, error) {
	return parseTemporal(stored, fc, DateTimeLayout)
}

func (DateTime) EditorField(opts EditorOptions) EditorField {
	return editorField(opts, CodeDateTime, "datetime", "datetime-local", DateTimeLayout)
}

func formatTemporal(value any, fc Context, layout string, utc bool) (*string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		if v.IsZero() {
			return nil, nil
		}
		if utc {
			v = v.UTC()
		}
		return strPtr(v.Format(layout)), nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return formatTemporal(*v, fc, layout, utc)
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, nil
		}
		parsed, err := time.Parse(layout, trimmed)
		if err != nil {
			return nil, invalid(fc, v, fmt.Sprintf("expected format %s", layout))
		}
		return strPtr(parsed.Format(layout)), nil
	case *string:
		if v == nil {
			return nil, nil
		}
		return formatTemporal(*v, fc, layout, utc)
	default:
		return nil, invalid(fc, value, fmt.Sprintf("unsupported type %T", value))
	}
}

func parseTemporal(stored *string, fc Context, layout string) (any, error) {
	if stored == nil || strings.TrimSpace(*stored) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(layout, strings.TrimSpace(*stored))
	if err != nil {
		return nil, invalid(fc, *stored, fmt.Sprintf("expected format %s", layout))
	}
	return parsed, nil
}

func stringValue(value any) *string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return strPtr(v)
	case *string:
		if v == nil {
			return nil
		}
		return strPtr(*v)
	case template.HTML:
		return strPtr(string(v))
	case fmt.Stringer:
		return strPtr(v.String())
	default:
		return strPtr(fmt.Sprint(v))
	}
}
