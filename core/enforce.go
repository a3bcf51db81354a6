package core

import "fmt"

// oneOrError unwraps a result set that must hold exactly one record.
// Zero records is ErrNotFound; more than one is a cardinality violation,
// never a silent pick of the first row.
func oneOrError(op string, rows []Record) (Record, error) {
	switch len(rows) {
	case 0:
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	case 1:
		return rows[0], nil
	default:
		return nil, &CardinalityViolationError{Op: op, Expected: 1, Actual: int64(len(rows))}
	}
}

// enforceAffected checks the affected-row count of a mutation against the
// caller's expected count. A shortfall is ErrUnprocessable, remapped to
// ErrNotFound for singleton operations where "fewer than 1" and "not found"
// are the same user-facing condition. An excess is a cardinality violation.
func enforceAffected(op string, affected, expected int64, singleton bool) error {
	switch {
	case affected == expected:
		return nil
	case affected < expected:
		if singleton {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return fmt.Errorf("%s: affected %d of %d: %w", op, affected, expected, ErrUnprocessable)
	default:
		return &CardinalityViolationError{Op: op, Expected: expected, Actual: affected}
	}
}
