package source

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // driver: sqlite (pure Go)

	"github.com/FedericoTs/dora-comply/internal/registry"
)

// =============================================================================
// DIALECTS
// =============================================================================

// Dialect selects SQL placeholder syntax and the goose dialect.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// DriverDialect maps a database/sql driver name to its dialect.
func DriverDialect(driver string) (Dialect, error) {
	switch driver {
	case "pgx", "postgres":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	}
	return "", fmt.Errorf("unsupported driver %q", driver)
}

func (d Dialect) placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// =============================================================================
// CONNECTION AND MIGRATIONS
// =============================================================================

// Open opens a connection pool and verifies it with a ping.
//
// PARAMETERS:
//   - driver: "pgx" for Postgres or "sqlite" for SQLite.
//   - dsn:    the driver's connection string or file path.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}
	return db, nil
}

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies the embedded export-table migrations.
func Migrate(db *sql.DB, dialect Dialect) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// MigrationVersion returns the current schema version.
func MigrationVersion(db *sql.DB, dialect Dialect) (int64, error) {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(string(dialect)); err != nil {
		return 0, fmt.Errorf("failed to set dialect: %w", err)
	}
	return goose.GetDBVersion(db)
}

// =============================================================================
// SQL SOURCE
// =============================================================================

// SQLSource reads template records from the export tables.
type SQLSource struct {
	db       *sql.DB
	dialect  Dialect
	registry *registry.Registry
	orgID    string
	logger   *slog.Logger
}

// SQLOption configures an SQLSource.
type SQLOption func(*SQLSource)

// WithOrganization restricts every query to one organisation.
func WithOrganization(id string) SQLOption {
	return func(s *SQLSource) { s.orgID = id }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) SQLOption {
	return func(s *SQLSource) { s.logger = l }
}

// NewSQLSource creates a source over db.
func NewSQLSource(db *sql.DB, dialect Dialect, reg *registry.Registry, opts ...SQLOption) *SQLSource {
	s := &SQLSource{
		db:       db,
		dialect:  dialect,
		registry: reg,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query returns the SELECT statement and arguments used for a template.
func (s *SQLSource) Query(def registry.TemplateDefinition) (string, []any) {
	columns := dbColumns(def)
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(quoted, ", "), quoteIdent(def.DBTable))
	var args []any
	if s.orgID != "" {
		fmt.Fprintf(&b, " WHERE organization_id = %s", s.dialect.placeholder(1))
		args = append(args, s.orgID)
	}
	b.WriteString(" ORDER BY row_order")
	return b.String(), args
}

// FetchTemplateData implements Fetcher.
func (s *SQLSource) FetchTemplateData(ctx context.Context, templateID string) (*Result, error) {
	def, err := s.registry.Get(templateID)
	if err != nil {
		return nil, &FetchError{TemplateID: templateID, Err: err}
	}

	query, args := s.Query(def)
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &FetchError{TemplateID: templateID, Err: fmt.Errorf("failed to query %s: %w", def.DBTable, err)}
	}
	defer rows.Close()

	columns := dbColumns(def)
	var records []Record
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, &FetchError{TemplateID: templateID, Err: fmt.Errorf("failed to scan row: %w", err)}
		}

		rec, err := NewRecord(templateID)
		if err != nil {
			return nil, &FetchError{TemplateID: templateID, Err: err}
		}
		for i, c := range columns {
			if err := Assign(rec, c, values[i]); err != nil {
				return nil, &FetchError{TemplateID: templateID, Err: err}
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &FetchError{TemplateID: templateID, Err: fmt.Errorf("failed to read rows: %w", err)}
	}

	s.logger.Debug("fetched template",
		slog.String("template", templateID),
		slog.Int("rows", len(records)),
		slog.Duration("elapsed", time.Since(start)))
	return newResult(templateID, records), nil
}

// dbColumns returns the distinct DB columns of a template in column order.
func dbColumns(def registry.TemplateDefinition) []string {
	seen := make(map[string]bool, len(def.Columns))
	out := make([]string, 0, len(def.Columns))
	for _, c := range def.Columns {
		if c.DBColumn == "" || seen[c.DBColumn] {
			continue
		}
		seen[c.DBColumn] = true
		out = append(out, c.DBColumn)
	}
	return out
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
