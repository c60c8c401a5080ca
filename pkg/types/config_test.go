package types

import (
	"errors"
	"testing"
)

func TestStorageConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  StorageConfig
		wantErr error
	}{
		{"empty driver", StorageConfig{}, ErrDriverEmpty},
		{"unknown driver", StorageConfig{Driver: "mysql"}, ErrDriverUnknown},
		{"sqlite", StorageConfig{Driver: DriverSQLite, DataDir: "/tmp/data"}, nil},
		{"postgres without dsn", StorageConfig{Driver: DriverPostgres}, ErrDSNEmpty},
		{"postgres", StorageConfig{Driver: DriverPostgres, DSN: "postgres://localhost/db"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.ShowAllProperties {
		t.Error("ShowAllProperties should default to false")
	}
	if !s.AllowsFieldType("integer") {
		t.Error("integer should be enabled by default")
	}
	if s.AllowsFieldType("entity_reference") {
		t.Error("entity_reference is offered separately and is not part of the defaults")
	}
	s.FieldTypes[0] = "changed"
	if DefaultFieldTypes[0] == "changed" {
		t.Error("DefaultSettings must copy the default field types")
	}
}
