package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// System columns present in every entity table, in table order.
var systemColumns = []string{"id", "uuid", "bundle", "label", "created_at", "updated_at"}

// Entity is one row of an entity table. Values is keyed by physical column
// name and holds the installed field columns only.
type Entity struct {
	ID        string         `json:"id"`
	UUID      string         `json:"uuid"`
	Bundle    string         `json:"bundle,omitempty"`
	Label     string         `json:"label,omitempty"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
	Values    map[string]any `json:"values,omitempty"`
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (b *Backend) ensureEntityTable(ctx context.Context, e execer, entityType string) error {
	if !types.ValidIdentifier(entityType) {
		return fmt.Errorf("%w: entity type %q", types.ErrInvalidDefinition, entityType)
	}
	stmt := "CREATE TABLE IF NOT EXISTS " + quote(entityType) + ` (
    id TEXT PRIMARY KEY,
    uuid TEXT NOT NULL,
    bundle TEXT,
    label TEXT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`
	if _, err := e.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("creating entity table %s: %w", entityType, err)
	}
	return nil
}

// UpdateEntityType creates the entity table when missing and bumps the
// entity type's schema version.
func (b *Backend) UpdateEntityType(ctx context.Context, et types.EntityType) error {
	if err := b.rlock(); err != nil {
		return err
	}
	defer b.mu.RUnlock()

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := b.ensureEntityTable(ctx, tx, et.ID); err != nil {
		return err
	}
	label := et.Label
	if label == "" {
		label = et.ID
	}
	_, err = tx.ExecContext(ctx, b.dialect.rebind(
		"INSERT INTO "+entityTypesTable+" (id, label, schema_version, updated_at) VALUES (?, ?, 1, ?) "+
			"ON CONFLICT (id) DO UPDATE SET label = excluded.label, "+
			"schema_version = "+entityTypesTable+".schema_version + 1, updated_at = excluded.updated_at"),
		et.ID, label, now())
	if err != nil {
		return fmt.Errorf("updating entity type %s: %w", et.ID, err)
	}
	return tx.Commit()
}

// SchemaVersion returns how many times the entity type has been updated;
// zero when it never was.
func (b *Backend) SchemaVersion(ctx context.Context, entityType string) (int64, error) {
	if err := b.rlock(); err != nil {
		return 0, err
	}
	defer b.mu.RUnlock()

	var v int64
	err := b.db.QueryRowContext(ctx,
		b.dialect.rebind("SELECT schema_version FROM "+entityTypesTable+" WHERE id = ?"), entityType).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading schema version of %s: %w", entityType, err)
	}
	return v, nil
}

// Columns returns the physical columns of the entity table in table order.
// It returns ErrEntityTypeNotFound when the table does not exist.
func (b *Backend) Columns(ctx context.Context, entityType string) ([]string, error) {
	if err := b.rlock(); err != nil {
		return nil, err
	}
	defer b.mu.RUnlock()
	return b.columns(ctx, entityType)
}

func (b *Backend) columns(ctx context.Context, entityType string) ([]string, error) {
	cols, err := b.dialect.tableColumns(ctx, b.db, entityType)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", entityType, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: %s has no storage table", types.ErrEntityTypeNotFound, entityType)
	}
	return cols, nil
}

// SaveEntity inserts or updates an entity row and returns its id. An empty
// ID inserts a new row with a generated UUID v7. Values must name installed
// field columns.
func (b *Backend) SaveEntity(ctx context.Context, entityType string, e Entity) (string, error) {
	if err := b.rlock(); err != nil {
		return "", err
	}
	defer b.mu.RUnlock()

	cols, err := b.columns(ctx, entityType)
	if err != nil {
		return "", err
	}
	known := make(map[string]bool, len(cols))
	for _, c := range cols {
		known[c] = true
	}
	for _, sc := range systemColumns {
		delete(known, sc)
	}

	names := make([]string, 0, len(e.Values))
	for name := range e.Values {
		if !known[name] {
			return "", fmt.Errorf("%w: %s.%s", types.ErrUnknownColumn, entityType, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	ts := now()
	table := quote(entityType)

	if e.ID != "" {
		var one int
		err := b.db.QueryRowContext(ctx, b.dialect.rebind("SELECT 1 FROM "+table+" WHERE id = ?"), e.ID).Scan(&one)
		switch {
		case err == nil:
			sets := []string{"bundle = ?", "label = ?", "updated_at = ?"}
			args := []any{e.Bundle, e.Label, ts}
			for _, n := range names {
				sets = append(sets, quote(n)+" = ?")
				args = append(args, e.Values[n])
			}
			args = append(args, e.ID)
			query := "UPDATE " + table + " SET " + strings.Join(sets, ", ") + " WHERE id = ?"
			if _, err := b.db.ExecContext(ctx, b.dialect.rebind(query), args...); err != nil {
				return "", fmt.Errorf("updating %s entity %s: %w", entityType, e.ID, err)
			}
			return e.ID, nil
		case !errors.Is(err, sql.ErrNoRows):
			return "", fmt.Errorf("checking %s entity %s: %w", entityType, e.ID, err)
		}
	} else {
		e.ID = newUUID()
	}

	insertCols := append([]string{}, systemColumns...)
	args := []any{e.ID, newUUID(), e.Bundle, e.Label, ts, ts}
	for _, n := range names {
		insertCols = append(insertCols, quote(n))
		args = append(args, e.Values[n])
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(insertCols)), ", ")
	query := "INSERT INTO " + table + " (" + strings.Join(insertCols, ", ") + ") VALUES (" + placeholders + ")"
	if _, err := b.db.ExecContext(ctx, b.dialect.rebind(query), args...); err != nil {
		return "", fmt.Errorf("inserting %s entity: %w", entityType, err)
	}
	return e.ID, nil
}

// LoadEntity reads one entity row.
func (b *Backend) LoadEntity(ctx context.Context, entityType, id string) (*Entity, error) {
	if err := b.rlock(); err != nil {
		return nil, err
	}
	defer b.mu.RUnlock()

	cols, err := b.columns(ctx, entityType)
	if err != nil {
		return nil, err
	}
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quote(c)
	}
	query := "SELECT " + strings.Join(quoted, ", ") + " FROM " + quote(entityType) + " WHERE id = ?"
	rows, err := b.db.QueryContext(ctx, b.dialect.rebind(query), id)
	if err != nil {
		return nil, fmt.Errorf("loading %s entity %s: %w", entityType, id, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s %s", types.ErrEntityNotFound, entityType, id)
	}

	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scanning %s entity %s: %w", entityType, id, err)
	}

	e := &Entity{Values: map[string]any{}}
	for i, c := range cols {
		v := raw[i]
		if bs, ok := v.([]byte); ok {
			v = string(bs)
		}
		switch c {
		case "id":
			e.ID = asString(v)
		case "uuid":
			e.UUID = asString(v)
		case "bundle":
			e.Bundle = asString(v)
		case "label":
			e.Label = asString(v)
		case "created_at":
			e.CreatedAt = asString(v)
		case "updated_at":
			e.UpdatedAt = asString(v)
		default:
			e.Values[c] = v
		}
	}
	return e, rows.Err()
}

func asString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
