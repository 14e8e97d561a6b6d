package persistence

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate indicates a unique constraint rejected the record.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrVersionConflict indicates a version-checked write found a stale
	// version, or an atomic commit observed state newer than the caller's read.
	ErrVersionConflict = errors.New("persistence: version conflict")
	// ErrConstraintViolation indicates a check constraint rejected the record.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation indicates a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
)
