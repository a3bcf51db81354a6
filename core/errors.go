package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a single-target read or a singleton
	// mutation matched zero rows.
	ErrNotFound = errors.New("record not found")
	// ErrUnprocessable is returned when a bulk mutation affected fewer rows
	// than the caller's stated target set.
	ErrUnprocessable = errors.New("unprocessable: fewer rows affected than expected")
	// ErrUnknownModel is returned when an entity name has no bound model.
	ErrUnknownModel = errors.New("unknown model")
	// ErrInvalidSettings is returned when a settings tree cannot be
	// translated into a native query.
	ErrInvalidSettings = errors.New("invalid settings")
)

// CardinalityViolationError reports that a query matched or affected more
// rows than the caller's stated cardinality allowed. It indicates an
// unsound filter in the caller, not a recoverable runtime condition, and is
// never remapped to ErrNotFound or ErrUnprocessable.
type CardinalityViolationError struct {
	Op       string
	Expected int64
	Actual   int64
}

func (e *CardinalityViolationError) Error() string {
	return fmt.Sprintf("%s: cardinality violation: expected at most %d row(s), got %d", e.Op, e.Expected, e.Actual)
}

// IsFatal reports whether err is a cardinality violation, the one error
// class this layer never recovers into a typed result.
func IsFatal(err error) bool {
	var cv *CardinalityViolationError
	return errors.As(err, &cv)
}
