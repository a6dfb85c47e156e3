package valuation

import (
	"errors"
	"fmt"
)

// ErrInsufficientInputs means no methodology could run at all. Per-method
// gaps are reported as InsufficientDataError and recovered by excluding the
// method; this sentinel is returned only when every method is excluded.
var ErrInsufficientInputs = errors.New("insufficient inputs for any valuation methodology")

// InsufficientDataError excludes a single methodology without failing the
// valuation.
type InsufficientDataError struct {
	Method Method
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s excluded: %s", e.Method, e.Reason)
}

// InvalidAssumptionError rejects a caller-supplied assumption before any
// simulation runs. Always fatal: a bad explicit input is a caller bug, not a
// data gap.
type InvalidAssumptionError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidAssumptionError) Error() string {
	return fmt.Sprintf("invalid assumption %s=%g: %s", e.Field, e.Value, e.Reason)
}
