package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite

	"github.com/mesh-intelligence/entityprop/pkg/types"
)

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// dialect hides the differences between the SQL engines.
type dialect interface {
	name() string
	// rebind rewrites "?" placeholders for the engine.
	rebind(query string) string
	columnType(c types.Column) string
	tableColumns(ctx context.Context, q queryer, table string) ([]string, error)
	isDuplicateColumn(err error) bool
	isUndefinedColumn(err error) bool
}

type sqliteDialect struct{}

func (sqliteDialect) name() string { return types.DriverSQLite }

func (sqliteDialect) rebind(query string) string { return query }

func (sqliteDialect) columnType(c types.Column) string {
	switch c.Type {
	case types.ColumnInt, types.ColumnBool:
		return "INTEGER"
	case types.ColumnFloat:
		return "REAL"
	case types.ColumnNumeric:
		return fmt.Sprintf("NUMERIC(%d,%d)", c.Precision, c.Scale)
	default:
		return "TEXT"
	}
}

func (sqliteDialect) tableColumns(ctx context.Context, q queryer, table string) ([]string, error) {
	return scanNames(q.QueryContext(ctx, "SELECT name FROM pragma_table_info(?) ORDER BY cid", table))
}

func (sqliteDialect) isDuplicateColumn(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "duplicate column name")
}

func (sqliteDialect) isUndefinedColumn(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "no such column")
}

type postgresDialect struct{}

func (postgresDialect) name() string { return types.DriverPostgres }

func (postgresDialect) rebind(query string) string {
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (postgresDialect) columnType(c types.Column) string {
	switch c.Type {
	case types.ColumnVarchar:
		length := c.Length
		if length <= 0 {
			length = 255
		}
		return fmt.Sprintf("varchar(%d)", length)
	case types.ColumnInt:
		return "bigint"
	case types.ColumnFloat:
		return "double precision"
	case types.ColumnNumeric:
		return fmt.Sprintf("numeric(%d,%d)", c.Precision, c.Scale)
	case types.ColumnBool:
		return "boolean"
	default:
		return "text"
	}
}

func (postgresDialect) tableColumns(ctx context.Context, q queryer, table string) ([]string, error) {
	return scanNames(q.QueryContext(ctx,
		"SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1 ORDER BY ordinal_position",
		table))
}

// duplicate_column (42701) and undefined_column (42703).
func (postgresDialect) isDuplicateColumn(err error) bool { return pgCode(err) == "42701" }

func (postgresDialect) isUndefinedColumn(err error) bool { return pgCode(err) == "42703" }

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func scanNames(rows *sql.Rows, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// columnDDL renders a column for ALTER TABLE ADD COLUMN.
func columnDDL(d dialect, name string, c types.Column) string {
	ddl := quote(name) + " " + d.columnType(c)
	if c.Unsigned && d.name() == types.DriverPostgres {
		ddl += fmt.Sprintf(" CHECK (%s >= 0)", quote(name))
	}
	return ddl
}
