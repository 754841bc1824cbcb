// Package errors carries context, detail and data alongside an error while
// keeping the original (root) error comparable.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}

type wrapperError struct {
	msg    string
	detail []string
	data   map[string]interface{}
	stack  []StackFrame
	root   error
}

func (e wrapperError) Error() string {
	return e.msg
}

// Unwrap exposes the root error to the standard errors.Is and errors.As.
func (e wrapperError) Unwrap() error {
	return e.root
}

// Root returns the original error that was wrapped by one or more
// calls to Wrap. If e does not wrap other errors, it will be returned
// as-is.
func Root(e error) error {
	if wErr, ok := e.(wrapperError); ok {
		return wErr.root
	}
	return e
}

// wrap prefixes msg to err and records a stack trace the first time err is
// wrapped. stackSkip counts frames above the caller of wrap.
func wrap(err error, msg string, stackSkip int) error {
	if err == nil {
		return nil
	}

	werr, ok := err.(wrapperError)
	if !ok {
		werr.root = err
		werr.msg = err.Error()
		werr.stack = getStack(stackSkip+2, stackTraceSize)
	}
	if msg != "" {
		werr.msg = msg + ": " + werr.msg
	}
	return werr
}

// Wrap adds a context message and stack trace to err.
// Arguments are handled as in fmt.Print. Wrap returns nil if err is nil.
func Wrap(err error, a ...interface{}) error {
	return wrap(err, fmt.Sprint(a...), 1)
}

// Wrapf is like Wrap, but arguments are handled as in fmt.Printf.
func Wrapf(err error, format string, a ...interface{}) error {
	return wrap(err, fmt.Sprintf(format, a...), 1)
}

// WithDetail wraps err with text as context and records text so
// that Detail returns it.
func WithDetail(err error, text string) error {
	if err == nil {
		return nil
	}
	if text == "" {
		return err
	}
	e1 := wrap(err, text, 1).(wrapperError)
	e1.detail = append(e1.detail, text)
	return e1
}

// WithDetailf is like WithDetail, except it formats the detail message
// as in fmt.Printf.
func WithDetailf(err error, format string, v ...interface{}) error {
	if err == nil {
		return nil
	}
	text := fmt.Sprintf(format, v...)
	e1 := wrap(err, text, 1).(wrapperError)
	e1.detail = append(e1.detail, text)
	return e1
}

// Detail returns the detail messages contained in err, if any,
// joined with "; ".
func Detail(err error) string {
	wrapper, _ := err.(wrapperError)
	return strings.Join(wrapper.detail, "; ")
}

// WithData returns a new error wrapping err that carries the data items
// already in err plus the items in keyval. Keyval takes the form
//   k1, v1, k2, v2, ...
// and every kN must be a string.
func WithData(err error, keyval ...interface{}) error {
	if err == nil {
		return nil
	}
	newkv := make(map[string]interface{})
	for k, v := range Data(err) {
		newkv[k] = v
	}
	for i := 0; i+1 < len(keyval); i += 2 {
		newkv[keyval[i].(string)] = keyval[i+1]
	}

	e1 := wrap(err, "", 1).(wrapperError)
	e1.data = newkv
	return e1
}

// Data returns the data items attached to err, if any.
func Data(err error) map[string]interface{} {
	wrapper, _ := err.(wrapperError)
	return wrapper.data
}

// Sub returns an error containing root as its root and taking all other
// metadata (stack trace, detail, message, and data items) from err.
//
// Sub returns nil when either root or err is nil.
//
// Use this when you need to substitute a new root error in place of an
// existing error that may already hold a stack trace or other metadata.
func Sub(root, err error) error {
	if wrapper, ok := err.(wrapperError); ok && root != nil {
		wrapper.root = Root(root)
		wrapper.msg = root.Error()
		root = wrapper
	}
	if err == nil {
		return nil
	}
	return Wrap(root, err.Error())
}
