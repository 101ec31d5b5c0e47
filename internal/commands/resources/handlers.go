package resourcescmd

import (
	"context"

	command "github.com/goliatone/go-command"
	"github.com/google/uuid"

	"github.com/goliatone/go-resource-cms/internal/commands"
	"github.com/goliatone/go-resource-cms/internal/logging"
	"github.com/goliatone/go-resource-cms/internal/resources"
	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

// Registry receives handlers, for example a go-command dispatcher adapter.
type Registry interface {
	RegisterCommand(handler any) error
}

// Handlers groups the admin command handlers bound to one service.
type Handlers struct {
	Add       *commands.Handler[AddResourceCommand]
	Edit      *commands.Handler[EditResourceCommand]
	SetFields *commands.Handler[SetFieldsCommand]
	Publish   *commands.Handler[PublishCommand]
	Unpublish *commands.Handler[UnpublishCommand]
	Clear     *commands.Handler[ClearCacheCommand]
	Delete    *commands.Handler[DeleteResourceCommand]
}

// NewHandlers builds every resource command handler around service.
func NewHandlers(service resources.Service, logger interfaces.Logger) *Handlers {
	logger = logging.OrNoOp(logger)
	return &Handlers{
		Add: newHandler(logger, "resources.add", func(ctx context.Context, msg AddResourceCommand) error {
			record, err := service.AddResource(ctx, msg.AddResourceRequest)
			if err != nil {
				return err
			}
			logger.Info("resources.command.added", logging.FieldResourceID, record.ID.String(), logging.FieldPath, record.URIPath)
			return nil
		}, func(msg AddResourceCommand) map[string]any {
			fields := map[string]any{"type": msg.Type, "title": msg.Title}
			if msg.ParentID != nil {
				fields["parent_id"] = *msg.ParentID
			}
			return fields
		}),
		Edit: newHandler(logger, "resources.edit", func(ctx context.Context, msg EditResourceCommand) error {
			_, err := service.UpdateResource(ctx, msg.UpdateResourceRequest)
			return err
		}, func(msg EditResourceCommand) map[string]any {
			return map[string]any{logging.FieldResourceID: msg.ID}
		}),
		SetFields: newHandler(logger, "resources.set_fields", func(ctx context.Context, msg SetFieldsCommand) error {
			return service.SetFields(ctx, msg.ResourceID, msg.Values)
		}, func(msg SetFieldsCommand) map[string]any {
			return map[string]any{logging.FieldResourceID: msg.ResourceID, "field_count": len(msg.Values)}
		}),
		Publish: newHandler(logger, "resources.publish", func(ctx context.Context, msg PublishCommand) error {
			return bulk(ctx, logger, "resources.command.published", msg.IDs, service.Publish)
		}, idsFields[PublishCommand](func(m PublishCommand) []uuid.UUID { return m.IDs })),
		Unpublish: newHandler(logger, "resources.unpublish", func(ctx context.Context, msg UnpublishCommand) error {
			return bulk(ctx, logger, "resources.command.unpublished", msg.IDs, service.Unpublish)
		}, idsFields[UnpublishCommand](func(m UnpublishCommand) []uuid.UUID { return m.IDs })),
		Clear: newHandler(logger, "resources.clear_cache", func(ctx context.Context, msg ClearCacheCommand) error {
			return bulk(ctx, logger, "resources.command.cache_cleared", msg.IDs, service.ClearCache)
		}, idsFields[ClearCacheCommand](func(m ClearCacheCommand) []uuid.UUID { return m.IDs })),
		Delete: newHandler(logger, "resources.delete", func(ctx context.Context, msg DeleteResourceCommand) error {
			if msg.Soft {
				return service.SoftDelete(ctx, msg.ID)
			}
			return service.Delete(ctx, msg.ID)
		}, func(msg DeleteResourceCommand) map[string]any {
			return map[string]any{logging.FieldResourceID: msg.ID, "soft": msg.Soft}
		}),
	}
}

// Register hands every handler to registry.
func (h *Handlers) Register(registry Registry) error {
	for _, handler := range h.all() {
		if err := registry.RegisterCommand(handler); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handlers) all() []any {
	return []any{h.Add, h.Edit, h.SetFields, h.Publish, h.Unpublish, h.Clear, h.Delete}
}

func newHandler[T command.Message](logger interfaces.Logger, operation string, fn command.CommandFunc[T], fields func(T) map[string]any) *commands.Handler[T] {
	return commands.NewHandler(fn,
		commands.WithLogger[T](logger),
		commands.WithOperation[T](operation),
		commands.WithMessageFields(fields),
		commands.WithTelemetry(commands.DefaultTelemetry[T](nil)),
	)
}

func bulk(ctx context.Context, logger interfaces.Logger, event string, ids []uuid.UUID, fn func(context.Context, ...uuid.UUID) (int, error)) error {
	n, err := fn(ctx, ids...)
	if err != nil {
		return err
	}
	logger.Info(event, "requested", len(ids), "affected", n)
	return nil
}

func idsFields[T any](ids func(T) []uuid.UUID) func(T) map[string]any {
	return func(msg T) map[string]any {
		return map[string]any{"id_count": len(ids(msg))}
	}
}
