// Package errors mirrors the github.com/pkg/errors API and adds the coded errors surfaced by colload.
//
// Every wrap with pkg/errors records a fresh stack trace, which makes logged errors noisy when an error travels up
// through several layers that all call WithStack. The stack errors in this package drop a trace when it is a suffix
// of the trace already carried by the cause, so a report usually shows only the root stack.
package errors

import (
	stderrors "errors" //nolint: depguard
	"fmt"
	"io"
	"runtime"

	"github.com/pkg/errors" //nolint: depguard
)

// New returns an error with the supplied message and the current stack trace.
func New(message string) error {
	return newStackErr(nil, message)
}

// Errorf formats the message and records the current stack trace.
func Errorf(format string, args ...interface{}) error {
	return newStackErr(nil, fmt.Sprintf(format, args...))
}

// Wrap annotates err with a message and a stack trace. Wrap returns nil if err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return newStackErr(err, message)
}

// Wrapf annotates err with a formatted message and a stack trace. Wrapf returns nil if err is nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return newStackErr(err, fmt.Sprintf(format, args...))
}

// WithStack annotates err with a stack trace. WithStack returns nil if err is nil.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	return newStackErr(err, "")
}

// Cause walks the Cause() chain and returns the innermost error.
func Cause(err error) error {
	for err != nil {
		c, ok := err.(causer)
		if !ok || c.Cause() == nil {
			break
		}
		err = c.Cause()
	}
	return err
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return stderrors.As(err, target) }

type stackErr struct {
	cause error
	stack errors.StackTrace
	msg   string
}

func newStackErr(cause error, msg string) error {
	// drop this function and the exported caller (New, Wrap, ...)
	stack := errors.New("").(stackTracer).StackTrace()[2:]
	return &stackErr{cause: cause, stack: stack, msg: msg}
}

func (e *stackErr) Error() string {
	switch {
	case e.cause == nil:
		return e.msg
	case e.msg == "":
		return e.cause.Error()
	default:
		return e.msg + ": " + e.cause.Error()
	}
}

func (e *stackErr) Cause() error { return e.cause }

func (e *stackErr) Unwrap() error { return e.cause }

// StackTrace returns nil when the trace of this error is already contained in the trace of its cause.
func (e *stackErr) StackTrace() errors.StackTrace {
	var causeStack errors.StackTrace
	switch c := e.cause.(type) {
	case *stackErr:
		causeStack = c.stack
	case stackTracer:
		causeStack = c.StackTrace()
	}
	if len(causeStack) < len(e.stack) {
		return e.stack
	}
	for i := 1; i < len(e.stack); i++ {
		if causeStack[len(causeStack)-i] != e.stack[len(e.stack)-i] {
			return e.stack
		}
	}
	// the innermost frame differs by line number in the usual `return errors.WithStack(err)` idiom, so compare
	// functions only
	if sameFunc(causeStack[len(causeStack)-len(e.stack)], e.stack[0]) {
		return nil
	}
	return e.stack
}

// nolint:errcheck
func (e *stackErr) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if !s.Flag('+') {
			io.WriteString(s, e.Error())
			return
		}
		if e.cause != nil {
			fmt.Fprintf(s, "%+v", e.cause)
		}
		if e.msg != "" {
			if e.cause != nil {
				io.WriteString(s, "\n")
			}
			io.WriteString(s, e.msg)
		}
		if stack := e.StackTrace(); stack != nil {
			fmt.Fprintf(s, "%+v", stack)
		}
	case 's':
		io.WriteString(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

func sameFunc(f1 errors.Frame, f2 errors.Frame) bool {
	file1, name1 := frameInfo(f1)
	file2, name2 := frameInfo(f2)
	return file1 == file2 && name1 == name2
}

func frameInfo(f errors.Frame) (string, string) {
	pc := uintptr(f) - 1
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknown", "unknown"
	}
	file, _ := fn.FileLine(pc)
	return file, fn.Name()
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

type causer interface {
	Cause() error
}
