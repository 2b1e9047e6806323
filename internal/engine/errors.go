package engine

import (
	"errors"
	"fmt"
)

// ExecErrorCode categorizes action execution failures.
type ExecErrorCode string

const (
	// ErrCodeMaterialization indicates the artifact could not be written.
	// The rule is not marked executed and is retried on the next cycle.
	ErrCodeMaterialization ExecErrorCode = "MATERIALIZATION_FAILURE"

	// ErrCodeEventAppend indicates the artifact was written but its event
	// record could not be appended. The rule is retried; materialization
	// overwrites, so the retry converges on the same artifact.
	ErrCodeEventAppend ExecErrorCode = "EVENT_APPEND_FAILURE"
)

// ExecError reports a failed action execution for one rule. No ExecError
// is fatal to a cycle: the scheduler logs it and continues with the
// remaining rules.
type ExecError struct {
	Code ExecErrorCode
	Rule string // rule description, for diagnostics
	Err  error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("%s: rule %q: %v", e.Code, e.Rule, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// IsMaterializationError reports whether err is a materialization failure.
func IsMaterializationError(err error) bool {
	var ee *ExecError
	return errors.As(err, &ee) && ee.Code == ErrCodeMaterialization
}
