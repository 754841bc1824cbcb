package errors

import (
	"fmt"
	"runtime"
)

const stackTraceSize = 10

// StackFrame is one entry of a recorded stack trace.
type StackFrame struct {
	Func string
	File string
	Line int
}

func (f StackFrame) String() string {
	return fmt.Sprintf("%s:%d - %s", f.File, f.Line, f.Func)
}

// Stack returns the stack trace recorded when err was first wrapped.
func Stack(err error) []StackFrame {
	if wErr, ok := err.(wrapperError); ok {
		return wErr.stack
	}
	return nil
}

func getStack(skip int, size int) []StackFrame {
	var (
		pc    = make([]uintptr, size)
		calls = runtime.Callers(skip+1, pc)
		trace []StackFrame
	)

	for i := 0; i < calls; i++ {
		f := runtime.FuncForPC(pc[i])
		file, line := f.FileLine(pc[i] - 1)
		trace = append(trace, StackFrame{
			Func: f.Name(),
			File: file,
			Line: line,
		})
	}
	return trace
}
