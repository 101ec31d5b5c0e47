package markdowncmd

import (
	"context"
	"sync/atomic"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-resource-cms/internal/commands"
	"github.com/goliatone/go-resource-cms/internal/logging"
	"github.com/goliatone/go-resource-cms/internal/markdown"
	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

const importOperation = "markdown.import_directory"

// Registry receives handlers, for example a go-command dispatcher adapter.
type Registry interface {
	RegisterCommand(handler any) error
}

// ImportDirectoryHandler loads a directory and hands its documents to the
// importer. Failed documents are logged and reported through Last.
type ImportDirectoryHandler struct {
	*commands.Handler[ImportDirectoryCommand]
	last atomic.Pointer[markdown.ImportResult]
}

var _ command.Commander[ImportDirectoryCommand] = (*ImportDirectoryHandler)(nil)

func NewImportDirectoryHandler(loader *markdown.Loader, importer *markdown.Importer, logger interfaces.Logger, opts ...commands.HandlerOption[ImportDirectoryCommand]) *ImportDirectoryHandler {
	logger = logging.OrNoOp(logger)
	h := &ImportDirectoryHandler{}

	exec := func(ctx context.Context, msg ImportDirectoryCommand) error {
		docs, err := loader.LoadDirectory(ctx, msg.Directory)
		if err != nil {
			return err
		}
		result, err := importer.Import(ctx, docs, markdown.ImportOptions{DryRun: msg.DryRun})
		if err != nil {
			return err
		}
		h.last.Store(result)
		logging.WithFields(logger, map[string]any{
			"created_count": len(result.Created),
			"updated_count": len(result.Updated),
			"skipped_count": len(result.Skipped),
			"error_count":   len(result.Errors),
			"dry_run":       msg.DryRun,
		}).Info("markdown.command.import_directory.completed")
		return result.Err()
	}

	handlerOpts := []commands.HandlerOption[ImportDirectoryCommand]{
		commands.WithLogger[ImportDirectoryCommand](logger),
		commands.WithOperation[ImportDirectoryCommand](importOperation),
		commands.WithMessageFields(func(msg ImportDirectoryCommand) map[string]any {
			return map[string]any{"directory": msg.Directory, "dry_run": msg.DryRun}
		}),
	}
	h.Handler = commands.NewHandler(command.CommandFunc[ImportDirectoryCommand](exec), append(handlerOpts, opts...)...)
	return h
}

// Last returns the result of the most recent run.
func (h *ImportDirectoryHandler) Last() *markdown.ImportResult {
	return h.last.Load()
}

// Register adds the handler to registry.
func (h *ImportDirectoryHandler) Register(registry Registry) error {
	return registry.RegisterCommand(h)
}
