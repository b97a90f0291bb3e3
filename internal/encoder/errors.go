package encoder

import "fmt"

// EncodeError is the structured outcome of a failed encoder invocation.
// SpawnFailed distinguishes "could not start the process" from a nonzero
// exit; DiagnosticTail carries the last bytes of the encoder's stderr.
type EncodeError struct {
	Op             string // "segment", "gap" or "concat"
	ExitCode       int
	SpawnFailed    bool
	DiagnosticTail string
	Err            error
}

func (e *EncodeError) Error() string {
	if e.SpawnFailed {
		return fmt.Sprintf("%s: cannot start encoder: %v", e.Op, e.Err)
	}
	if e.DiagnosticTail != "" {
		return fmt.Sprintf("%s: encoder exited %d: %s", e.Op, e.ExitCode, e.DiagnosticTail)
	}
	return fmt.Sprintf("%s: encoder exited %d", e.Op, e.ExitCode)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}
