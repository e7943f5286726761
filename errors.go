package agentscope

import "errors"

// Error kinds, mirroring the taxonomy of §7. Tool errors and dialect
// parse errors are recovered locally into ToolResultBlock / text-only
// Msg and never surface through this taxonomy; only the conditions
// that must propagate to the caller are constructed as one of these.
var (
	ErrInvalidInput    = errors.New("agentscope: invalid input")
	ErrProviderError   = errors.New("agentscope: provider error")
	ErrTimeout         = errors.New("agentscope: timeout")
	ErrParseError      = errors.New("agentscope: parse error")
	ErrToolError       = errors.New("agentscope: tool error")
	ErrInterrupted     = errors.New("agentscope: interrupted")
	ErrSessionNotFound = errors.New("agentscope: session not found")

	ErrToolNotFound      = errors.New("agentscope: tool not found")
	ErrToolAlreadyExists = errors.New("agentscope: tool already exists")
	ErrGroupInactive     = errors.New("agentscope: tool group inactive")
)

// KernelError wraps a kernel-level failure with the operation that
// produced it and the error kind it should be classified under.
type KernelError struct {
	Op   string
	Kind error
	Err  error
}

func (e *KernelError) Error() string {
	if e.Err == nil {
		return "agentscope: " + e.Op + ": " + e.Kind.Error()
	}
	return "agentscope: " + e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
}

// Unwrap exposes Kind first so errors.Is(err, ErrProviderError) and
// friends classify correctly regardless of whether Err is also set;
// Err (the underlying cause, if any) is still visible in Error()'s
// message even though it isn't part of the Unwrap chain.
func (e *KernelError) Unwrap() error {
	if e.Kind != nil {
		return e.Kind
	}
	return e.Err
}

func NewKernelError(op string, kind, err error) *KernelError {
	return &KernelError{Op: op, Kind: kind, Err: err}
}

// ToolError wraps a registry or invoker failure for a named tool.
type ToolError struct {
	ToolName string
	Op       string
	Err      error
}

func (e *ToolError) Error() string {
	return "agentscope: tool " + e.ToolName + " " + e.Op + ": " + e.Err.Error()
}

func (e *ToolError) Unwrap() error { return e.Err }

func NewToolError(name, op string, err error) *ToolError {
	return &ToolError{ToolName: name, Op: op, Err: err}
}

// DialectError wraps a provider-dialect formatting/parsing failure.
type DialectError struct {
	Provider string
	Op       string
	Err      error
}

func (e *DialectError) Error() string {
	return "agentscope: dialect " + e.Provider + " " + e.Op + ": " + e.Err.Error()
}

func (e *DialectError) Unwrap() error { return e.Err }

func NewDialectError(provider, op string, err error) *DialectError {
	return &DialectError{Provider: provider, Op: op, Err: err}
}

// SessionError wraps a session-store failure for a given key.
type SessionError struct {
	Key string
	Op  string
	Err error
}

func (e *SessionError) Error() string {
	return "agentscope: session " + e.Key + " " + e.Op + ": " + e.Err.Error()
}

func (e *SessionError) Unwrap() error { return e.Err }

func NewSessionError(key, op string, err error) *SessionError {
	return &SessionError{Key: key, Op: op, Err: err}
}

// IsRetryable classifies a kernel-level error as transient per §4.10 /
// §7: PROVIDER_ERROR and TIMEOUT are retryable, everything else is not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrProviderError) || errors.Is(err, ErrTimeout)
}