package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-resource-cms/internal/resources"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ErrUnsupportedDriver = errors.New("db: unsupported driver")

// Open connects to dsn with driver and wraps the handle with the matching
// bun dialect. SQLite handles are limited to one connection so in-memory
// databases survive across queries.
func Open(driver, dsn string) (*bun.DB, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite, "sqlite3":
		sqlDB, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("db: open sqlite: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil
	case DriverPostgres, "pgx", "postgresql":
		sqlDB, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("db: open postgres: %w", err)
		}
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

// Models lists the tables owned by the resource CMS in creation order.
func Models() []any {
	return []any{
		(*resources.Template)(nil),
		(*resources.ResourceType)(nil),
		(*resources.ResourceTypeField)(nil),
		(*resources.ResourceTypeChild)(nil),
		(*resources.Resource)(nil),
		(*resources.ResourceField)(nil),
	}
}

type index struct {
	name    string
	model   any
	columns []string
	unique  bool
}

var indexes = []index{
	{"resource_type_fields_type_code_uq", (*resources.ResourceTypeField)(nil), []string{"resource_type_id", "code"}, true},
	{"resources_site_parent_slug_uq", (*resources.Resource)(nil), []string{"site_id", "parent_id", "slug"}, true},
	{"resources_site_uri_path_idx", (*resources.Resource)(nil), []string{"site_id", "uri_path"}, false},
	{"resources_parent_idx", (*resources.Resource)(nil), []string{"parent_id"}, false},
	{"resource_fields_resource_code_uq", (*resources.ResourceField)(nil), []string{"resource_id", "code"}, true},
}

// CreateSchema creates every table and index that does not exist yet.
// Root resources have a NULL parent, so the (site, parent, slug) index does
// not constrain them; the service checks root uniqueness.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("db: create table %T: %w", model, err)
		}
	}
	for _, idx := range indexes {
		q := db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.columns...).IfNotExists()
		if idx.unique {
			q = q.Unique()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("db: create index %s: %w", idx.name, err)
		}
	}
	return nil
}
