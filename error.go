package keyceremony

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Error is a failure of an operation on election records, such as opening
// a store or decoding a trustee. It keeps the name of the operation and the
// place it was called from, printed with `%+v`.
type Error struct {
	Op    string
	err   error
	frame xerrors.Frame
}

// Errorf annotates err with the operation described by format. It returns
// nil when err is nil, so it can wrap the result of a call directly.
func Errorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{
		Op:    fmt.Sprintf(format, args...),
		err:   err,
		frame: xerrors.Caller(1),
	}
}

// WrapError records where err was returned without naming an operation.
func WrapError(err error) error {
	if err == nil {
		return nil
	}
	return &Error{err: err, frame: xerrors.Caller(1)}
}

// Operations returns the operations err went through, outermost first.
func Operations(err error) []string {
	var ops []string
	for err != nil {
		var e *Error
		if !xerrors.As(err, &e) {
			break
		}
		if e.Op != "" {
			ops = append(ops, e.Op)
		}
		err = e.err
	}
	return ops
}

func (e *Error) Error() string {
	return fmt.Sprint(e)
}

func (e *Error) Unwrap() error {
	return e.err
}

func (e *Error) Format(s fmt.State, verb rune) {
	xerrors.FormatError(e, s, verb)
}

// FormatError prints the operation and the wrapped error, followed in
// detail mode by the frame and the detail of the wrapped error.
func (e *Error) FormatError(p xerrors.Printer) error {
	if e.Op == "" {
		p.Print(e.err)
	} else {
		p.Printf("%s: %v", e.Op, e.err)
	}
	if p.Detail() {
		e.frame.Format(p)
		p.Printf("%+v", e.err)
	}
	return nil
}
