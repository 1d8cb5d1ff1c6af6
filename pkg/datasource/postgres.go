package datasource

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver for database/sql
)

// PostgresConfig mirrors config.DB, kept separate so this package has no
// import-time dependency on pkg/config.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// dsn builds a pgx-compatible connection string.
func (c PostgresConfig) dsn() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, sslMode,
	)
}

// Postgres is a DataSource backed by a live database/sql pool over pgx.
// Each factName maps to a fixed, parameterised SELECT registered via
// RegisterQuery; the core never builds SQL from request data.
type Postgres struct {
	db      *sql.DB
	queries map[string]string
}

// NewPostgres opens a connection pool against cfg and pings it once.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	db, err := sql.Open("pgx", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("datasource: failed to open postgres connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("datasource: failed to ping postgres: %w", err)
	}
	return &Postgres{db: db, queries: make(map[string]string)}, nil
}

// RegisterQuery associates factName with a parameterised SQL query. The
// query must accept (location, status, recency_days) as its first three
// placeholders, in that order, and return rows whose columns are scanned
// into a map[string]any via column names.
func (p *Postgres) RegisterQuery(factName, query string) {
	p.queries[factName] = query
}

// Query implements DataSource. An unregistered factName returns an empty
// list rather than an error; the error path here is reserved for a
// registered query actually failing.
func (p *Postgres) Query(ctx context.Context, factName string, filter Filter) ([]map[string]any, error) {
	query, ok := p.queries[factName]
	if !ok {
		return []map[string]any{}, nil
	}

	rows, err := p.db.QueryContext(ctx, query, filter.Location, filter.Status, filter.RecencyDays)
	if err != nil {
		return nil, fmt.Errorf("datasource: query %q failed: %w", factName, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("datasource: query %q column introspection failed: %w", factName, err)
	}

	out := make([]map[string]any, 0)
	for rows.Next() {
		scanTargets := make([]any, len(cols))
		scanValues := make([]any, len(cols))
		for i := range scanValues {
			scanTargets[i] = &scanValues[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("datasource: query %q scan failed: %w", factName, err)
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			record[col] = scanValues[i]
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("datasource: query %q row iteration failed: %w", factName, err)
	}
	return out, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}
