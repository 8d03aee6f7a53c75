package errors

import (
	"errors"
	"fmt"
)

// Operation identifies the accounting operation that generated an error.
type Operation string

const (
	OperationExecute Operation = "execute_order"
	OperationFill    Operation = "apply_fill"
	OperationMark    Operation = "mark_to_market"
)

// OrderError provides additional context for order-related failures.
type OrderError struct {
	Op     Operation
	Target string
	Err    error
}

// Error implements the error interface.
func (e *OrderError) Error() string {
	if e == nil {
		return ""
	}
	if e.Target != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the wrapped error.
func (e *OrderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New constructs a new OrderError. Errors that already carry an operation
// are returned unchanged so the innermost context wins.
func New(op Operation, target string, err error) error {
	if err == nil {
		return nil
	}
	var oe *OrderError
	if errors.As(err, &oe) {
		return err
	}
	return &OrderError{Op: op, Target: target, Err: err}
}
