package logger

import (
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Helpers return the empty Attr for absent values, which slog drops, so
// callers can write log.Info("msg", logger.Error(err)) without nil checks.

// Group creates a group of attributes under a single key.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups the non-nil errors under "errors", keyed by their position.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Duration creates an attribute for a duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Elapsed records the time passed since start.
func Elapsed(start time.Time) slog.Attr {
	return slog.Duration("elapsed", time.Since(start))
}

// ID creates an identifier attribute with a custom key.
func ID(key string, value any) slog.Attr {
	if value == nil {
		return slog.Attr{}
	}
	return slog.Any(key, value)
}

// Key creates an attribute with an arbitrary key and value.
func Key(key string, value any) slog.Attr {
	if value == nil {
		return slog.Attr{}
	}
	return slog.Any(key, value)
}

// ============================================================================
// Dispatch
// ============================================================================

// Request names the request or notification being dispatched.
func Request(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("request", name)
}

// Username identifies the caller of a dispatch.
func Username(name string) slog.Attr {
	if name == "" {
		return slog.Attr{}
	}
	return slog.String("username", name)
}

// Roles lists the caller roles as a comma separated string.
func Roles(roles []string) slog.Attr {
	if len(roles) == 0 {
		return slog.Attr{}
	}
	return slog.String("roles", strings.Join(roles, ","))
}

// Policy names the authorization policy applied to a request.
func Policy(policy string) slog.Attr {
	return slog.String("policy", policy)
}

// Task names a background task.
func Task(name string) slog.Attr {
	return slog.String("task", name)
}

// ============================================================================
// HTTP
// ============================================================================

// Method creates an attribute for the HTTP method.
func Method(method string) slog.Attr {
	return slog.String("method", method)
}

// Path creates an attribute for the request path.
func Path(path string) slog.Attr {
	return slog.String("path", path)
}

// RequestID creates an attribute for the request correlation ID.
func RequestID(id string) slog.Attr {
	return slog.String("request_id", id)
}

// RemoteAddr creates an attribute for the client address.
func RemoteAddr(addr string) slog.Attr {
	return slog.String("remote_addr", addr)
}

// StatusCode creates an attribute for the HTTP status code.
func StatusCode(code int) slog.Attr {
	return slog.Int("status_code", code)
}

// ============================================================================
// Metadata
// ============================================================================

// Component identifies the subsystem emitting the record.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Event names a lifecycle event.
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// Type records a type name.
func Type(t string) slog.Attr {
	return slog.String("type", t)
}

// Action names the operation being performed.
func Action(action string) slog.Attr {
	return slog.String("action", action)
}

// Count records a quantity under key.
func Count(key string, n int) slog.Attr {
	return slog.Int(key, n)
}

// ============================================================================
// Debugging
// ============================================================================

// Stack captures the current goroutine's stack trace.
func Stack() slog.Attr {
	const size = 64 << 10
	buf := make([]byte, size)
	buf = buf[:runtime.Stack(buf, false)]
	return slog.String("stack", string(buf))
}

// Caller returns the file and line of the calling function.
func Caller() slog.Attr {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		return slog.Attr{}
	}
	return slog.String("caller", file+":"+strconv.Itoa(line))
}
