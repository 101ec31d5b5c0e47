package fields

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
)

var (
	// ErrCodeTooLong is returned by Register for codes over MaxCodeLength.
	ErrCodeTooLong = errors.New("fields: code must be 25 characters or less")
	// ErrCodeRequired is returned by Register for blank codes.
	ErrCodeRequired = errors.New("fields: code is required")
	// ErrInvalidValue marks values a descriptor cannot serialize or parse.
	ErrInvalidValue = errors.New("fields: invalid value")
	// ErrStorageUnavailable is returned when a file field is written without
	// a configured file storage.
	ErrStorageUnavailable = errors.New("fields: file storage is not configured")
)

// MaxCodeLength bounds field type codes.
const MaxCodeLength = 25

// Context identifies the resource field a value belongs to.
type Context struct {
	ResourceID uuid.UUID
	Code       string
}

// Descriptor converts dynamic field values between their typed form and
// the text stored in resource_fields.
type Descriptor interface {
	Label() string
	// ToDatabase serializes value. Already serialized input is accepted and
	// normalized. A nil result stores NULL.
	ToDatabase(ctx context.Context, value any, fc Context) (*string, error)
	// ToValue parses a stored value. NULL and "" yield nil for temporal and
	// file descriptors.
	ToValue(stored *string, fc Context) (any, error)
	EditorField(opts EditorOptions) EditorField
}

// EditorOptions carries the per-field settings an admin surface knows.
type EditorOptions struct {
	Code     string
	Label    string
	HelpText string
	Required bool
	Initial  any
}

// EditorField describes how an admin form should edit one dynamic field.
type EditorField struct {
	Code      string `json:"code"`
	Label     string `json:"label"`
	HelpText  string `json:"help_text,omitempty"`
	Required  bool   `json:"required"`
	FieldType string `json:"field_type"`
	Widget    string `json:"widget"`
	// Input is the html input type the widget maps to.
	Input   string `json:"input"`
	Format  string `json:"format,omitempty"`
	Initial any    `json:"initial,omitempty"`
}

// Upload is a file submitted for a file or image field.
type Upload struct {
	Name    string
	Content io.Reader
}

// InvalidValueError reports a value rejected by a descriptor.
type InvalidValueError struct {
	Code   string
	Value  any
	Reason string
}

func (e *InvalidValueError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("fields: invalid value %v: %s", e.Value, e.Reason)
	}
	return fmt.Sprintf("fields: invalid value for %q: %s", e.Code, e.Reason)
}

func (e *InvalidValueError) Unwrap() error { return ErrInvalidValue }

func invalid(fc Context, value any, reason string) error {
	return &InvalidValueError{Code: fc.Code, Value: value, Reason: reason}
}

func editorField(opts EditorOptions, fieldType, widget, input, format string) EditorField {
	label := opts.Label
	if label == "" {
		label = opts.Code
	}
	return EditorField{
		Code:      opts.Code,
		Label:     label,
		HelpText:  opts.HelpText,
		Required:  opts.Required,
		FieldType: fieldType,
		Widget:    widget,
		Input:     input,
		Format:    format,
		Initial:   opts.Initial,
	}
}

func strPtr(s string) *string { return &s }
