package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/entityprop/pkg/types"
)

func openTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := Open(context.Background(), types.StorageConfig{Driver: types.DriverSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func priorityField() types.FieldDefinition {
	return types.FieldDefinition{
		Name:             "priority",
		Label:            "Priority",
		Type:             "integer",
		TargetEntityType: "node",
		Provider:         types.ProviderEntityProperty,
		Revisionable:     true,
		Columns:          []types.Column{{Name: "value", Type: types.ColumnInt}},
	}
}

func linkField() types.FieldDefinition {
	return types.FieldDefinition{
		Name:             "homepage",
		Label:            "Homepage",
		Type:             "link",
		TargetEntityType: "node",
		Provider:         types.ProviderEntityProperty,
		Columns: []types.Column{
			{Name: "uri", Type: types.ColumnVarchar, Length: 2048},
			{Name: "title", Type: types.ColumnVarchar, Length: 255},
		},
	}
}

func TestOpenRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  types.StorageConfig
		want error
	}{
		{"empty driver", types.StorageConfig{}, types.ErrDriverEmpty},
		{"unknown driver", types.StorageConfig{Driver: "mysql"}, types.ErrDriverUnknown},
		{"postgres without dsn", types.StorageConfig{Driver: types.DriverPostgres}, types.ErrDSNEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFieldStorageLifecycle(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		check func(t *testing.T, b *Backend)
	}{
		{
			name: "install adds column and records definition",
			check: func(t *testing.T, b *Backend) {
				require.NoError(t, b.InstallFieldStorageDefinition(ctx, priorityField()))

				cols, err := b.Columns(ctx, "node")
				require.NoError(t, err)
				assert.Equal(t, append(append([]string{}, systemColumns...), "priority"), cols)

				def, err := b.GetFieldStorageDefinition(ctx, "node", "priority")
				require.NoError(t, err)
				require.NotNil(t, def)
				assert.Equal(t, "integer", def.Type)
				assert.Equal(t, types.ProviderEntityProperty, def.Provider)
			},
		},
		{
			name: "multi column field uses prefixed names",
			check: func(t *testing.T, b *Backend) {
				require.NoError(t, b.InstallFieldStorageDefinition(ctx, linkField()))
				cols, err := b.Columns(ctx, "node")
				require.NoError(t, err)
				assert.Contains(t, cols, "homepage__uri")
				assert.Contains(t, cols, "homepage__title")
			},
		},
		{
			name: "second install fails",
			check: func(t *testing.T, b *Backend) {
				require.NoError(t, b.InstallFieldStorageDefinition(ctx, priorityField()))
				err := b.InstallFieldStorageDefinition(ctx, priorityField())
				assert.ErrorIs(t, err, types.ErrFieldStorageExists)
			},
		},
		{
			name: "invalid definition is rejected before touching storage",
			check: func(t *testing.T, b *Backend) {
				def := priorityField()
				def.Columns = []types.Column{{Name: "value", Type: types.ColumnNumeric, Precision: 2, Scale: 4}}
				err := b.InstallFieldStorageDefinition(ctx, def)
				assert.ErrorIs(t, err, types.ErrInvalidDefinition)

				got, err := b.GetFieldStorageDefinition(ctx, "node", "priority")
				require.NoError(t, err)
				assert.Nil(t, got)
			},
		},
		{
			name: "missing definition is nil",
			check: func(t *testing.T, b *Backend) {
				def, err := b.GetFieldStorageDefinition(ctx, "node", "nope")
				require.NoError(t, err)
				assert.Nil(t, def)
			},
		},
		{
			name: "definitions are ordered by name",
			check: func(t *testing.T, b *Backend) {
				require.NoError(t, b.InstallFieldStorageDefinition(ctx, priorityField()))
				require.NoError(t, b.InstallFieldStorageDefinition(ctx, linkField()))
				defs, err := b.FieldStorageDefinitions(ctx, "node")
				require.NoError(t, err)
				require.Len(t, defs, 2)
				assert.Equal(t, "homepage", defs[0].Name)
				assert.Equal(t, "priority", defs[1].Name)
			},
		},
		{
			name: "uninstall drops columns",
			check: func(t *testing.T, b *Backend) {
				require.NoError(t, b.InstallFieldStorageDefinition(ctx, linkField()))
				require.NoError(t, b.UninstallFieldStorageDefinition(ctx, linkField()))

				cols, err := b.Columns(ctx, "node")
				require.NoError(t, err)
				assert.Equal(t, systemColumns, cols)

				def, err := b.GetFieldStorageDefinition(ctx, "node", "homepage")
				require.NoError(t, err)
				assert.Nil(t, def)
			},
		},
		{
			name: "uninstall of missing field fails",
			check: func(t *testing.T, b *Backend) {
				err := b.UninstallFieldStorageDefinition(ctx, priorityField())
				assert.ErrorIs(t, err, types.ErrFieldStorageMissing)
			},
		},
		{
			name: "count field data",
			check: func(t *testing.T, b *Backend) {
				require.NoError(t, b.InstallFieldStorageDefinition(ctx, priorityField()))

				n, err := b.CountFieldData(ctx, "node", "priority")
				require.NoError(t, err)
				assert.Zero(t, n)

				_, err = b.SaveEntity(ctx, "node", Entity{Label: "empty"})
				require.NoError(t, err)
				_, err = b.SaveEntity(ctx, "node", Entity{Label: "filled", Values: map[string]any{"priority": 3}})
				require.NoError(t, err)

				n, err = b.CountFieldData(ctx, "node", "priority")
				require.NoError(t, err)
				assert.Equal(t, int64(1), n)
			},
		},
		{
			name: "count of uninstalled field is zero",
			check: func(t *testing.T, b *Backend) {
				n, err := b.CountFieldData(ctx, "node", "priority")
				require.NoError(t, err)
				assert.Zero(t, n)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, openTestBackend(t))
		})
	}
}

func TestEntities(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		check func(t *testing.T, b *Backend)
	}{
		{
			name: "save generates id and load returns values",
			check: func(t *testing.T, b *Backend) {
				require.NoError(t, b.InstallFieldStorageDefinition(ctx, priorityField()))
				id, err := b.SaveEntity(ctx, "node", Entity{Bundle: "article", Label: "Hello", Values: map[string]any{"priority": 5}})
				require.NoError(t, err)
				assert.Len(t, id, 36)

				e, err := b.LoadEntity(ctx, "node", id)
				require.NoError(t, err)
				assert.Equal(t, id, e.ID)
				assert.Equal(t, "article", e.Bundle)
				assert.Equal(t, "Hello", e.Label)
				assert.NotEmpty(t, e.UUID)
				assert.NotEmpty(t, e.CreatedAt)
				assert.EqualValues(t, 5, e.Values["priority"])
			},
		},
		{
			name: "save with existing id updates",
			check: func(t *testing.T, b *Backend) {
				require.NoError(t, b.InstallFieldStorageDefinition(ctx, priorityField()))
				id, err := b.SaveEntity(ctx, "node", Entity{Label: "v1", Values: map[string]any{"priority": 1}})
				require.NoError(t, err)

				got, err := b.SaveEntity(ctx, "node", Entity{ID: id, Label: "v2", Values: map[string]any{"priority": 2}})
				require.NoError(t, err)
				assert.Equal(t, id, got)

				e, err := b.LoadEntity(ctx, "node", id)
				require.NoError(t, err)
				assert.Equal(t, "v2", e.Label)
				assert.EqualValues(t, 2, e.Values["priority"])
			},
		},
		{
			name: "unknown column rejected",
			check: func(t *testing.T, b *Backend) {
				require.NoError(t, b.UpdateEntityType(ctx, types.EntityType{ID: "node"}))
				_, err := b.SaveEntity(ctx, "node", Entity{Values: map[string]any{"nope": 1}})
				assert.ErrorIs(t, err, types.ErrUnknownColumn)
			},
		},
		{
			name: "system columns cannot be set through values",
			check: func(t *testing.T, b *Backend) {
				require.NoError(t, b.UpdateEntityType(ctx, types.EntityType{ID: "node"}))
				_, err := b.SaveEntity(ctx, "node", Entity{Values: map[string]any{"uuid": "x"}})
				assert.ErrorIs(t, err, types.ErrUnknownColumn)
			},
		},
		{
			name: "missing entity",
			check: func(t *testing.T, b *Backend) {
				require.NoError(t, b.UpdateEntityType(ctx, types.EntityType{ID: "node"}))
				_, err := b.LoadEntity(ctx, "node", "missing")
				assert.ErrorIs(t, err, types.ErrEntityNotFound)
			},
		},
		{
			name: "entity type without table",
			check: func(t *testing.T, b *Backend) {
				_, err := b.Columns(ctx, "user")
				assert.ErrorIs(t, err, types.ErrEntityTypeNotFound)
			},
		},
		{
			name: "update entity type bumps schema version",
			check: func(t *testing.T, b *Backend) {
				v, err := b.SchemaVersion(ctx, "user")
				require.NoError(t, err)
				assert.Zero(t, v)

				require.NoError(t, b.UpdateEntityType(ctx, types.EntityType{ID: "user", Label: "User"}))
				require.NoError(t, b.UpdateEntityType(ctx, types.EntityType{ID: "user", Label: "User"}))

				v, err = b.SchemaVersion(ctx, "user")
				require.NoError(t, err)
				assert.Equal(t, int64(2), v)

				cols, err := b.Columns(ctx, "user")
				require.NoError(t, err)
				assert.Equal(t, systemColumns, cols)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, openTestBackend(t))
		})
	}
}

func TestPersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	cfg := types.StorageConfig{Driver: types.DriverSQLite, DataDir: t.TempDir()}

	b, err := Open(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, b.InstallFieldStorageDefinition(ctx, priorityField()))
	require.NoError(t, b.Close())

	b, err = Open(ctx, cfg)
	require.NoError(t, err)
	defer b.Close()

	def, err := b.GetFieldStorageDefinition(ctx, "node", "priority")
	require.NoError(t, err)
	assert.NotNil(t, def)
}

func TestClose(t *testing.T) {
	b := openTestBackend(t)
	require.NoError(t, b.Close())
	require.NoError(t, b.Close(), "Close is idempotent")

	_, err := b.Columns(context.Background(), "node")
	assert.ErrorIs(t, err, types.ErrStorageClosed)
	err = b.InstallFieldStorageDefinition(context.Background(), priorityField())
	assert.ErrorIs(t, err, types.ErrStorageClosed)
}

func TestPostgresRebind(t *testing.T) {
	got := postgresDialect{}.rebind("SELECT 1 FROM t WHERE a = ? AND b = ?")
	assert.Equal(t, "SELECT 1 FROM t WHERE a = $1 AND b = $2", got)
}

func TestColumnTypes(t *testing.T) {
	tests := []struct {
		col      types.Column
		sqlite   string
		postgres string
	}{
		{types.Column{Type: types.ColumnVarchar, Length: 64}, "TEXT", "varchar(64)"},
		{types.Column{Type: types.ColumnVarchar}, "TEXT", "varchar(255)"},
		{types.Column{Type: types.ColumnText}, "TEXT", "text"},
		{types.Column{Type: types.ColumnInt}, "INTEGER", "bigint"},
		{types.Column{Type: types.ColumnFloat}, "REAL", "double precision"},
		{types.Column{Type: types.ColumnNumeric, Precision: 10, Scale: 2}, "NUMERIC(10,2)", "numeric(10,2)"},
		{types.Column{Type: types.ColumnBool}, "INTEGER", "boolean"},
	}
	for _, tt := range tests {
		t.Run(string(tt.col.Type), func(t *testing.T) {
			assert.Equal(t, tt.sqlite, sqliteDialect{}.columnType(tt.col))
			assert.Equal(t, tt.postgres, postgresDialect{}.columnType(tt.col))
		})
	}
}
