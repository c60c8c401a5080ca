package types

import "errors"

// Lookup errors.
var (
	ErrEntityTypeNotFound = errors.New("entity type not found")
	ErrPropertyNotFound   = errors.New("property not found")
	ErrFieldTypeNotFound  = errors.New("field type not found")
	ErrHandlerNotFound    = errors.New("selection handler not found")
	ErrEntityNotFound     = errors.New("entity not found")
)

// Validation errors.
var (
	ErrInvalidName       = errors.New("invalid machine name")
	ErrDuplicateName     = errors.New("machine name is already in use")
	ErrNameReserved      = errors.New("machine name collides with existing columns")
	ErrNameImmutable     = errors.New("machine name cannot be changed")
	ErrInvalidDefinition = errors.New("invalid field definition")
	ErrInvalidDocument   = errors.New("invalid configuration document")
	ErrUnknownColumn     = errors.New("unknown column")
)

// Storage errors.
var (
	ErrFieldStorageExists  = errors.New("field storage already installed")
	ErrFieldStorageMissing = errors.New("field storage not installed")
	ErrHasData             = errors.New("field has data")
	ErrStorageClosed       = errors.New("storage is closed")
)
