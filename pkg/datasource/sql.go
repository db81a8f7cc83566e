package datasource

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite driver
	"github.com/qustavo/dotsql"

	"corvid-labs/vigil/pkg/vex/ast"
)

//go:embed queries.sql
var queriesSQL string

// sqlQueries holds the named probe statements from queries.sql. A parse
// failure here is a build defect, not a runtime condition.
var sqlQueries = mustLoadQueries()

func mustLoadQueries() *dotsql.DotSql {
	dot, err := dotsql.LoadFromString(queriesSQL)
	if err != nil {
		panic(fmt.Sprintf("datasource: parse embedded queries: %v", err))
	}
	return dot
}

// identPattern accepts plain SQL identifiers. Table names are
// interpolated into SELECT statements, so anything fancier is rejected
// outright rather than quoted.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func sqliteDSN(path string) string {
	return "file:" + path + "?mode=ro&_busy_timeout=5000"
}

// SQLTable reads every row of a single table. Each Open establishes a
// fresh connection, verifies the table exists, and scans it in a stable
// order (sqlite by rowid, postgres by ctid) so that row indices in
// findings are reproducible.
type SQLTable struct {
	name   string
	driver string
	dsn    string
	table  string
	probe  string
	query  string
}

// NewSQLiteTable creates a read-only source over one table of a SQLite
// database file.
func NewSQLiteTable(path, table string) (*SQLTable, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &SQLTable{
		name:   path + "#" + table,
		driver: "sqlite3",
		dsn:    sqliteDSN(path),
		table:  table,
		probe:  "sqlite-table-exists",
		query:  fmt.Sprintf(`SELECT * FROM "%s" ORDER BY rowid`, table),
	}, nil
}

// NewPostgresTable creates a source over one table of a PostgreSQL
// database. name is the registry name the source is published under.
func NewPostgresTable(name, dsn, table string) (*SQLTable, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &SQLTable{
		name:   name,
		driver: "postgres",
		dsn:    dsn,
		table:  table,
		probe:  "postgres-table-exists",
		query:  fmt.Sprintf(`SELECT * FROM "%s" ORDER BY ctid`, table),
	}, nil
}

// Name returns the source name ("path#table" for sqlite files, the
// registry name for configured sources).
func (s *SQLTable) Name() string { return s.name }

// Open connects, confirms the table exists, and starts the scan.
func (s *SQLTable) Open(ctx context.Context) (RowIterator, error) {
	db, err := sqlx.Open(s.driver, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.name, err)
	}
	// A scan holds a single cursor.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", s.name, err)
	}

	probe, err := sqlQueries.Raw(s.probe)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}
	var count int
	if err := db.GetContext(ctx, &count, db.Rebind(probe), s.table); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: check table: %w", s.name, err)
	}
	if count == 0 {
		db.Close()
		return nil, fmt.Errorf("%s: table %q does not exist", s.name, s.table)
	}

	rows, err := db.QueryxContext(ctx, s.query)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}
	return &sqlIterator{src: s.name, db: db, rows: rows}, nil
}

// SQLQuery runs a configured SELECT statement and exposes its result set
// as rows. The statement is trusted configuration; it should carry its
// own ORDER BY if stable row indices matter.
type SQLQuery struct {
	name   string
	driver string
	dsn    string
	query  string
}

// NewSQLQuery creates a source from a configured query. kind selects the
// driver: "sqlite"/"sqlite3" (dsn is a file path) or
// "postgres"/"postgresql" (dsn passed through).
func NewSQLQuery(name, kind, dsn, query string) (*SQLQuery, error) {
	if query == "" {
		return nil, fmt.Errorf("source %q: query cannot be empty", name)
	}
	switch kind {
	case "sqlite", "sqlite3":
		return &SQLQuery{name: name, driver: "sqlite3", dsn: sqliteDSN(dsn), query: query}, nil
	case "postgres", "postgresql":
		return &SQLQuery{name: name, driver: "postgres", dsn: dsn, query: query}, nil
	default:
		return nil, fmt.Errorf("source %q: unsupported driver %q (expected sqlite or postgres)", name, kind)
	}
}

// Name returns the registry name.
func (s *SQLQuery) Name() string { return s.name }

// Open connects and runs the query.
func (s *SQLQuery) Open(ctx context.Context) (RowIterator, error) {
	db, err := sqlx.Open(s.driver, s.dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.name, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", s.name, err)
	}

	rows, err := db.QueryxContext(ctx, s.query)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}
	return &sqlIterator{src: s.name, db: db, rows: rows}, nil
}

type sqlIterator struct {
	src  string
	db   *sqlx.DB
	rows *sqlx.Rows
}

func (it *sqlIterator) Next(ctx context.Context) (Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !it.rows.Next() {
		if err := it.rows.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", it.src, err)
		}
		return nil, io.EOF
	}

	dest := make(map[string]interface{})
	if err := it.rows.MapScan(dest); err != nil {
		return nil, fmt.Errorf("%s: %w", it.src, err)
	}

	row := make(Row, len(dest))
	for col, v := range dest {
		row[col] = sqlValue(v)
	}
	return row, nil
}

func (it *sqlIterator) Close() error {
	it.rows.Close()
	return it.db.Close()
}

// sqlValue converts a driver-scanned column into a typed value. SQLite
// text arrives as []byte and carries no type information (dates live in
// TEXT columns), so it gets full inference. Typed strings from postgres
// get the date probe only. Date and timestamp columns both map onto the
// calendar-day value type.
func sqlValue(v interface{}) ast.Value {
	switch val := v.(type) {
	case nil:
		return ast.NullValue()
	case bool:
		return ast.BoolValue(val)
	case int64:
		return ast.NumberValue(float64(val))
	case float64:
		return ast.NumberValue(val)
	case []byte:
		return InferValue(string(val))
	case string:
		return ValueOf(val)
	case time.Time:
		return ast.DateValue(val)
	default:
		return ast.StringValue(fmt.Sprint(val))
	}
}
