package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-resource-cms/internal/resources"
)

const (
	codeValidation     = "COMMAND_VALIDATION_FAILED"
	codeContextCancel  = "COMMAND_CONTEXT_CANCELED"
	codeContextTimeout = "COMMAND_CONTEXT_TIMEOUT"
	codeContextError   = "COMMAND_CONTEXT_ERROR"
	codeExecute        = "COMMAND_EXECUTION_FAILED"
	codeNotFound       = "RESOURCE_NOT_FOUND"
	codeLocked         = "RESOURCE_EDIT_LOCKED"
)

func wrapValidationError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "command validation failed").
		WithTextCode(codeValidation)
}

func wrapContextError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution cancelled").
			WithTextCode(codeContextCancel)
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution deadline exceeded").
			WithTextCode(codeContextTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command context error").
			WithTextCode(codeContextError)
	}
}

// wrapExecuteError keeps service validation failures in the validation
// category so callers can report field errors.
func wrapExecuteError(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	switch {
	case errors.Is(err, resources.ErrValidation):
		return goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()).
			WithTextCode(codeValidation)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return wrapContextError(err)
	case resources.IsNotFound(err):
		return goerrors.Wrap(err, goerrors.CategoryCommand, err.Error()).
			WithTextCode(codeNotFound)
	case errors.Is(err, resources.ErrEditLocked):
		return goerrors.Wrap(err, goerrors.CategoryCommand, err.Error()).
			WithTextCode(codeLocked)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "command execution failed").
			WithTextCode(codeExecute)
	}
}
