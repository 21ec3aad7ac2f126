// Package db provides an in-memory DuckDB catalog of the rendered
// earthquake markers for ad-hoc SQL exploration. Nothing is written to disk.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/samber/lo"

	"github.com/joeblew999/plat-quake/internal/service"
)

const createEarthquakes = `CREATE TABLE IF NOT EXISTS earthquakes (
	id     VARCHAR,
	lon    DOUBLE,
	lat    DOUBLE,
	depth  DOUBLE,
	mag    DOUBLE,
	place  VARCHAR,
	color  VARCHAR,
	radius DOUBLE
)`

// lockDown stops statements from reaching the filesystem or network and
// freezes the settings so a query cannot undo it.
var lockDown = []string{
	"SET enable_external_access = false",
	"SET lock_configuration = true",
}

// ErrReadOnly is returned by Query for statements that are not reads.
var ErrReadOnly = errors.New("catalog is read-only")

// readVerbs are the leading keywords Query accepts.
var readVerbs = []string{"SELECT", "WITH", "FROM", "SHOW", "DESCRIBE", "SUMMARIZE", "EXPLAIN", "VALUES"}

// Catalog wraps an in-memory DuckDB connection.
type Catalog struct {
	db *sql.DB

	mu     sync.Mutex
	loaded bool
}

// Open creates an in-memory catalog with the earthquakes table.
func Open(ctx context.Context) (*Catalog, error) {
	conn, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("opening duckdb: %w", err)
	}
	// Loads and reads are serialized on one connection.
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, createEarthquakes); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating earthquakes table: %w", err)
	}
	for _, stmt := range lockDown {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return &Catalog{db: conn}, nil
}

// Close closes the connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// LoadMarkers inserts the markers. Only the first call has an effect since
// the layer is populated once.
func (c *Catalog) LoadMarkers(ctx context.Context, markers []service.Marker) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO earthquakes (id, lon, lat, depth, mag, place, color, radius) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, m := range markers {
		f := m.Feature
		var mag any = f.Magnitude
		if f.MagnitudeMissing {
			mag = nil
		}
		if _, err := stmt.ExecContext(ctx,
			f.ID, f.Position.Lon(), f.Position.Lat(), f.Depth, mag, f.Place,
			m.Style.FillColor, m.Style.Radius,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("inserting %s: %w", f.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	c.loaded = true
	return nil
}

// Tables lists the catalog tables.
func (c *Catalog) Tables(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, "SHOW TABLES")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tables := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Result is a generic query result.
type Result struct {
	Columns []string
	Rows    []map[string]any
}

// Query runs a read statement and collects every row. The statement runs in
// a transaction that is always rolled back, so the catalog never changes.
func (c *Catalog) Query(ctx context.Context, query string) (Result, error) {
	if !isRead(query) {
		return Result{}, ErrReadOnly
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return Result{}, err
	}

	results := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return Result{}, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}
	return Result{Columns: columns, Rows: results}, rows.Err()
}

// isRead accepts a single statement that starts with a read keyword.
func isRead(query string) bool {
	q := strings.TrimRight(strings.TrimSpace(query), "; \t\r\n")
	if strings.Contains(q, ";") {
		return false
	}
	fields := strings.Fields(strings.TrimLeft(q, "("))
	if len(fields) == 0 {
		return false
	}
	return lo.Contains(readVerbs, strings.ToUpper(fields[0]))
}
