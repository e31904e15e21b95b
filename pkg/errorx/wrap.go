package errorx

import "errors"

// OpError attaches the name of the failing operation to an error.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }

// Wrap returns nil when err is nil, so it is safe to use as `return errorx.Wrap(err, op)`.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Err: err}
}

// Op returns the innermost operation recorded on err, or "" if none.
func Op(err error) string {
	var (
		op    string
		opErr *OpError
	)
	for errors.As(err, &opErr) {
		op = opErr.Op
		err = opErr.Err
	}
	return op
}
