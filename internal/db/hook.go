package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-resource-cms/internal/logging"
	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

// QueryLogger writes every query bun executes to a cms logger.
type QueryLogger struct {
	logger interfaces.Logger
}

var _ bun.QueryHook = (*QueryLogger)(nil)

func NewQueryLogger(logger interfaces.Logger) *QueryLogger {
	return &QueryLogger{logger: logging.OrNoOp(logger)}
}

func (h *QueryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryLogger) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	logger := logging.WithFields(h.logger, logging.ContextFields(ctx))
	args := []any{
		"operation", event.Operation(),
		"duration", time.Since(event.StartTime).String(),
		"query", event.Query,
	}
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		logger.Warn("db.query.failed", append(args, "error", event.Err)...)
		return
	}
	logger.Debug("db.query", args...)
}
