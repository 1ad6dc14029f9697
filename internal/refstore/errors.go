package refstore

import "errors"

var (
	// ErrNotFound reports a filename with no stored reference.
	ErrNotFound = errors.New("reference not found")
	// ErrCorruptEncoding reports a stored array that fails validation.
	ErrCorruptEncoding = errors.New("corrupt array encoding")
	// ErrInvalidReference reports a reference that cannot be stored.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrLocked reports that another writer holds the database lock.
	ErrLocked = errors.New("reference database is locked by another writer")
)
