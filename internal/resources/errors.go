package resources

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
)

var (
	// ErrNotFound never tells why a resource is invisible.
	ErrNotFound             = errors.New("resources: not found")
	ErrValidation           = errors.New("resources: validation failed")
	ErrPublishWindowInvalid = errors.New("resources: publish date must precede unpublish date")
	ErrUnknownResourceType  = errors.New("resources: unknown resource type")
	ErrChildTypeNotAllowed  = errors.New("resources: resource type not allowed under parent")
	ErrHasChildren          = errors.New("resources: resource has children")
	ErrTypeCodeInUse        = errors.New("resources: type code is referenced by resources")
	ErrDuplicate            = errors.New("resources: duplicate record")
	ErrEditLocked           = errors.New("resources: resource is locked")
	ErrIDRequired           = errors.New("resources: id required")
	ErrSiteRequired         = errors.New("resources: site required")
)

// NotFoundError reports a missing record. It unwraps to ErrNotFound.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ValidationError carries field level messages for the edit boundary.
type ValidationError struct {
	Fields map[string]string
	Cause  error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, key := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, key+": "+e.Fields[key])
	}
	return "resources: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Unwrap() error { return e.Cause }

func fieldError(field, message string, cause error) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}, Cause: cause}
}

// ConfigurationError is raised when a write references unknown schema.
type ConfigurationError struct {
	Code  string
	Cause error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%v: %q", e.Cause, e.Code)
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

// IsNotFound reports whether err is a not found condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: resource, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}
