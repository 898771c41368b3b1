package galleon

import "errors"

// Usage errors. They are returned wrapped with context; match them with errors.Is.
var (
	ErrColumnNotFound   = errors.New("column not found")
	ErrDuplicateColumn  = errors.New("duplicate column name")
	ErrLengthMismatch   = errors.New("column length mismatch")
	ErrUnknownJoinKind  = errors.New("unknown join kind")
	ErrMissingJoinKeys  = errors.New("join keys required")
	ErrCrossJoinKeys    = errors.New("cross join does not take join keys")
	ErrKeyMismatch      = errors.New("incompatible join keys")
	ErrNotUnique        = errors.New("join keys are not unique")
	ErrUnsupportedDType = errors.New("unsupported dtype")
	ErrSchemaMismatch   = errors.New("schema mismatch")
)

// ErrKeyNotFound is returned by strict lookups when no group matches a row.
var ErrKeyNotFound = errors.New("key not found")

// ErrProbeOverflow means a slot probe visited every slot without resolving.
// It can only happen if the slot table was sized or hashed incorrectly.
var ErrProbeOverflow = errors.New("row group probe exceeded table size")
