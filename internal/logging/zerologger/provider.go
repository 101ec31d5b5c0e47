package zerologger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-resource-cms/internal/logging"
	"github.com/goliatone/go-resource-cms/pkg/interfaces"
)

// Config selects the writer and minimum level of the zerolog root logger.
type Config struct {
	Level  string
	Writer io.Writer
	// Pretty switches to zerolog's human readable console writer.
	Pretty bool
}

// Provider hands out zerolog backed loggers.
type Provider struct {
	root zerolog.Logger
}

func NewProvider(cfg Config) (*Provider, error) {
	w := cfg.Writer
	if w == nil {
		w = os.Stdout
	}
	if cfg.Pretty {
		w = zerolog.ConsoleWriter{Out: w}
	}

	level := zerolog.InfoLevel
	if raw := strings.TrimSpace(cfg.Level); raw != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(raw))
		if err != nil {
			return nil, fmt.Errorf("zerolog: %w", err)
		}
		level = parsed
	}

	root := zerolog.New(zerolog.SyncWriter(w)).Level(level).With().Timestamp().Logger()
	return &Provider{root: root}, nil
}

func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil {
		return logging.NoOp()
	}
	return &logger{zl: p.root.With().Str("logger", name).Logger()}
}

type logger struct {
	zl  zerolog.Logger
	ctx context.Context
}

var (
	_ interfaces.Logger       = (*logger)(nil)
	_ interfaces.FieldsLogger = (*logger)(nil)
)

func (l *logger) Trace(msg string, args ...any) { l.emit(l.zl.Trace(), msg, args) }
func (l *logger) Debug(msg string, args ...any) { l.emit(l.zl.Debug(), msg, args) }
func (l *logger) Info(msg string, args ...any)  { l.emit(l.zl.Info(), msg, args) }
func (l *logger) Warn(msg string, args ...any)  { l.emit(l.zl.Warn(), msg, args) }
func (l *logger) Error(msg string, args ...any) { l.emit(l.zl.Error(), msg, args) }

// Fatal logs at fatal severity without exiting the process.
func (l *logger) Fatal(msg string, args ...any) { l.emit(l.zl.WithLevel(zerolog.FatalLevel), msg, args) }

func (l *logger) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	return &logger{zl: l.zl.With().Fields(fields).Logger(), ctx: l.ctx}
}

func (l *logger) WithContext(ctx context.Context) interfaces.Logger {
	return &logger{zl: l.zl, ctx: ctx}
}

func (l *logger) emit(ev *zerolog.Event, msg string, args []any) {
	if ev == nil {
		return
	}
	if fields := logging.ContextFields(l.ctx); len(fields) > 0 {
		ev = ev.Fields(fields)
	}
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			ev = ev.Interface(fmt.Sprintf("arg_%d", i), args[i])
			break
		}
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = fmt.Sprintf("arg_%d", i)
		}
		if err, isErr := args[i+1].(error); isErr {
			ev = ev.AnErr(key, err)
			continue
		}
		ev = ev.Interface(key, args[i+1])
	}
	ev.Msg(msg)
}
