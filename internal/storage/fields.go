package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/entityprop/pkg/types"
)

// InstallFieldStorageDefinition adds the definition's columns to the entity
// table and records the definition. The entity table is created if it does
// not exist yet. Installing a field twice returns ErrFieldStorageExists.
func (b *Backend) InstallFieldStorageDefinition(ctx context.Context, def types.FieldDefinition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if err := b.rlock(); err != nil {
		return err
	}
	defer b.mu.RUnlock()

	encoded, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("encoding field definition: %w", err)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := b.ensureEntityTable(ctx, tx, def.TargetEntityType); err != nil {
		return err
	}

	var one int
	err = tx.QueryRowContext(ctx,
		b.dialect.rebind("SELECT 1 FROM "+fieldStorageTable+" WHERE entity_type = ? AND name = ?"),
		def.TargetEntityType, def.Name).Scan(&one)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s.%s", types.ErrFieldStorageExists, def.TargetEntityType, def.Name)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("checking field storage: %w", err)
	}

	table := quote(def.TargetEntityType)
	for _, c := range def.Columns {
		col := def.ColumnName(c)
		stmt := "ALTER TABLE " + table + " ADD COLUMN " + columnDDL(b.dialect, col, c)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			if b.dialect.isDuplicateColumn(err) {
				return fmt.Errorf("%w: column %s.%s", types.ErrFieldStorageExists, def.TargetEntityType, col)
			}
			return fmt.Errorf("adding column %s.%s: %w", def.TargetEntityType, col, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		b.dialect.rebind("INSERT INTO "+fieldStorageTable+" (entity_type, name, provider, type, definition, installed_at) VALUES (?, ?, ?, ?, ?, ?)"),
		def.TargetEntityType, def.Name, def.Provider, def.Type, string(encoded), now())
	if err != nil {
		return fmt.Errorf("recording field storage: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing field storage: %w", err)
	}
	b.logger.Printf("installed field storage %s.%s (%s)", def.TargetEntityType, def.Name, def.Type)
	return nil
}

// UninstallFieldStorageDefinition drops the columns recorded for the field
// and forgets the definition. The recorded columns are used, not the ones
// in def, so later settings changes cannot strand a column.
func (b *Backend) UninstallFieldStorageDefinition(ctx context.Context, def types.FieldDefinition) error {
	if err := b.rlock(); err != nil {
		return err
	}
	defer b.mu.RUnlock()

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	installed, err := b.fieldDefinition(ctx, tx, def.TargetEntityType, def.Name)
	if err != nil {
		return err
	}
	if installed == nil {
		return fmt.Errorf("%w: %s.%s", types.ErrFieldStorageMissing, def.TargetEntityType, def.Name)
	}

	table := quote(installed.TargetEntityType)
	for _, c := range installed.Columns {
		col := installed.ColumnName(c)
		if _, err := tx.ExecContext(ctx, "ALTER TABLE "+table+" DROP COLUMN "+quote(col)); err != nil {
			if b.dialect.isUndefinedColumn(err) {
				b.logger.Printf("column %s.%s already gone, skipping", installed.TargetEntityType, col)
				continue
			}
			return fmt.Errorf("dropping column %s.%s: %w", installed.TargetEntityType, col, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		b.dialect.rebind("DELETE FROM "+fieldStorageTable+" WHERE entity_type = ? AND name = ?"),
		def.TargetEntityType, def.Name)
	if err != nil {
		return fmt.Errorf("removing field storage record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing field storage removal: %w", err)
	}
	b.logger.Printf("uninstalled field storage %s.%s", def.TargetEntityType, def.Name)
	return nil
}

// GetFieldStorageDefinition returns the installed definition of a field, or
// nil when the field is not installed.
func (b *Backend) GetFieldStorageDefinition(ctx context.Context, entityType, name string) (*types.FieldDefinition, error) {
	if err := b.rlock(); err != nil {
		return nil, err
	}
	defer b.mu.RUnlock()
	return b.fieldDefinition(ctx, b.db, entityType, name)
}

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (b *Backend) fieldDefinition(ctx context.Context, q rowQueryer, entityType, name string) (*types.FieldDefinition, error) {
	var encoded string
	err := q.QueryRowContext(ctx,
		b.dialect.rebind("SELECT definition FROM "+fieldStorageTable+" WHERE entity_type = ? AND name = ?"),
		entityType, name).Scan(&encoded)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading field storage %s.%s: %w", entityType, name, err)
	}
	return decodeDefinition(encoded)
}

// FieldStorageDefinitions returns every installed field of an entity type,
// ordered by name.
func (b *Backend) FieldStorageDefinitions(ctx context.Context, entityType string) ([]types.FieldDefinition, error) {
	if err := b.rlock(); err != nil {
		return nil, err
	}
	defer b.mu.RUnlock()

	rows, err := b.db.QueryContext(ctx,
		b.dialect.rebind("SELECT definition FROM "+fieldStorageTable+" WHERE entity_type = ? ORDER BY name"),
		entityType)
	if err != nil {
		return nil, fmt.Errorf("listing field storage: %w", err)
	}
	defer rows.Close()

	var defs []types.FieldDefinition
	for rows.Next() {
		var encoded string
		if err := rows.Scan(&encoded); err != nil {
			return nil, fmt.Errorf("scanning field storage: %w", err)
		}
		def, err := decodeDefinition(encoded)
		if err != nil {
			return nil, err
		}
		defs = append(defs, *def)
	}
	return defs, rows.Err()
}

func decodeDefinition(encoded string) (*types.FieldDefinition, error) {
	var def types.FieldDefinition
	if err := json.Unmarshal([]byte(encoded), &def); err != nil {
		return nil, fmt.Errorf("decoding field definition: %w", err)
	}
	return &def, nil
}

// CountFieldData returns the number of entity rows holding a non-null value
// in any of the field's installed columns. A field that is not installed
// has no data.
func (b *Backend) CountFieldData(ctx context.Context, entityType, name string) (int64, error) {
	if err := b.rlock(); err != nil {
		return 0, err
	}
	defer b.mu.RUnlock()

	def, err := b.fieldDefinition(ctx, b.db, entityType, name)
	if err != nil || def == nil {
		return 0, err
	}

	conds := make([]string, 0, len(def.Columns))
	for _, c := range def.Columns {
		conds = append(conds, quote(def.ColumnName(c))+" IS NOT NULL")
	}
	var n int64
	query := "SELECT COUNT(*) FROM " + quote(entityType) + " WHERE " + strings.Join(conds, " OR ")
	if err := b.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s.%s data: %w", entityType, name, err)
	}
	return n, nil
}
