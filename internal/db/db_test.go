package db_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/goliatone/go-resource-cms/internal/db"
	"github.com/goliatone/go-resource-cms/internal/logging/console"
	"github.com/goliatone/go-resource-cms/internal/resources"
	"github.com/goliatone/go-resource-cms/pkg/testsupport"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := db.Open("oracle", "x"); !errors.Is(err, db.ErrUnsupportedDriver) {
		t.Fatalf("expected ErrUnsupportedDriver, got %v", err)
	}
}

func TestCreateSchemaIsIdempotent(t *testing.T) {
	ctx := context.Background()
	bunDB, err := db.Open(db.DriverSQLite, testsupport.SQLiteMemoryDSN())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = bunDB.Close() })

	for i := 0; i < 2; i++ {
		if err := db.CreateSchema(ctx, bunDB); err != nil {
			t.Fatalf("create schema pass %d: %v", i, err)
		}
	}
	count, err := bunDB.NewSelect().Model((*resources.Resource)(nil)).Count(ctx)
	if err != nil || count != 0 {
		t.Fatalf("expected empty resources table, got %d (%v)", count, err)
	}
}

func TestQueryLoggerWritesQueries(t *testing.T) {
	ctx := context.Background()
	bunDB, err := db.Open("sqlite3", "file::memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = bunDB.Close() })

	var buf bytes.Buffer
	provider := console.NewProvider(console.Options{Writer: &buf, MinLevel: console.LevelDebug})
	bunDB.AddQueryHook(db.NewQueryLogger(provider.GetLogger("db")))

	if _, err := bunDB.ExecContext(ctx, "SELECT 1"); err != nil {
		t.Fatalf("exec: %v", err)
	}
	if _, err := bunDB.ExecContext(ctx, "SELECT * FROM missing_table"); err == nil {
		t.Fatalf("expected error for missing table")
	}

	out := buf.String()
	if !strings.Contains(out, "db.query") || !strings.Contains(out, "SELECT 1") {
		t.Fatalf("expected query line, got %q", out)
	}
	if !strings.Contains(out, "db.query.failed") {
		t.Fatalf("expected failure line, got %q", out)
	}
}
