package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	cms "github.com/goliatone/go-resource-cms"
)

var moduleBuilder = func(ctx context.Context, cfg cms.Config) (*cms.Module, error) {
	return cms.Open(ctx, cfg)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("cms: %v", err)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: cms <serve|import> [flags]")
	}
	if err := loadEnv(); err != nil {
		return err
	}
	cfg, err := cms.LoadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "serve":
		return runServe(ctx, cfg, args[1:])
	case "import":
		return runImport(ctx, cfg, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// loadEnv reads .env when present. Variables already set win.
func loadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func runServe(ctx context.Context, cfg cms.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.HTTP.Addr, "Listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Close()

	logger := module.Logger("cms.server")
	srv := &http.Server{
		Addr:              *addr,
		Handler:           module.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server.listening", "addr", *addr, "site", cfg.Site)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("server.shutdown")
	return srv.Shutdown(shutdownCtx)
}

func runImport(ctx context.Context, cfg cms.Config, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	contentDir := fs.String("content-dir", cfg.Markdown.ContentDir, "Path to the markdown content root")
	pattern := fs.String("pattern", cfg.Markdown.Pattern, "Glob matched against file names")
	defaultType := fs.String("type", cfg.Markdown.DefaultType, "Resource type of documents without one")
	directory := fs.String("directory", ".", "Directory to import, relative to the content root")
	dryRun := fs.Bool("dry-run", false, "Resolve documents without writing resources")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.Markdown.Enabled = true
	cfg.Markdown.ContentDir = *contentDir
	cfg.Markdown.Pattern = *pattern
	cfg.Markdown.DefaultType = *defaultType

	module, err := moduleBuilder(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	defer module.Close()

	result, err := module.ImportMarkdown(ctx, *directory, *dryRun)
	if result != nil {
		fmt.Printf("created=%d updated=%d skipped=%d failed=%d\n",
			len(result.Created), len(result.Updated), len(result.Skipped), len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("  %s\n", e.Error())
		}
	}
	return err
}
