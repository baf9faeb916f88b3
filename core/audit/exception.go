package audit

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// ExceptionInfo is the body of an ExceptionInfo document.
type ExceptionInfo struct {
	Source     string `json:"source"`
	Message    string `json:"message"`
	StackTrace string `json:"stack_trace"`
}

// stackTracer is implemented by errors that captured their own stack.
type stackTracer interface {
	StackTrace() string
}

// NewExceptionInfo describes err. Source is the dynamic type of the innermost
// wrapped error. The stack is taken from the error when it carries one,
// otherwise from the caller.
func NewExceptionInfo(err error) ExceptionInfo {
	if err == nil {
		return ExceptionInfo{}
	}

	root := err
	for {
		next := errors.Unwrap(root)
		if next == nil {
			break
		}
		root = next
	}

	info := ExceptionInfo{
		Source:  fmt.Sprintf("%T", root),
		Message: err.Error(),
	}

	var st stackTracer
	if errors.As(err, &st) {
		info.StackTrace = st.StackTrace()
	} else {
		info.StackTrace = string(debug.Stack())
	}
	return info
}
