package binding

import (
	"errors"
	"fmt"
)

// Pipeline stages. A *CallError always matches exactly one of them with
// errors.Is.
var (
	ErrResolutionFailed = errors.New("resolution failed")
	ErrEncodingFailed   = errors.New("encoding failed")
	ErrSigningFailed    = errors.New("signing failed")
	ErrTransportFailed  = errors.New("transport failed")
	ErrReverted         = errors.New("reverted")
	ErrDecodingFailed   = errors.New("decoding failed")
)

// Caller mistakes detected before anything is dispatched.
var (
	ErrInvalidValueForMutability = errors.New("invalid value for mutability")
	ErrMutabilityMismatch        = errors.New("member mutability not allowed here")
	ErrNoTransport               = errors.New("no transport configured")
	ErrNoAddress                 = errors.New("no contract address configured")
	ErrNoSigner                  = errors.New("no signer configured")
)

// ErrDecodeFailed marks a single log in an event stream that could not be
// decoded. The stream keeps running.
var ErrDecodeFailed = errors.New("event decode failed")

// Operation names used in errors, logs and metrics.
const (
	OpRead     = "read"
	OpWrite    = "write"
	OpSimulate = "simulate"
	OpWatch    = "watch"
)

// CallError reports a failed pipeline invocation. It matches both its stage
// sentinel and the underlying cause, so errors.Is(err, ErrResolutionFailed)
// and errors.Is(err, abi.ErrAmbiguousMember) both hold for an ambiguous name.
type CallError struct {
	Op     string
	Member string
	Stage  error
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Member, e.Stage, e.Err)
}

func (e *CallError) Unwrap() []error { return []error{e.Stage, e.Err} }

// Retryable reports whether repeating the same invocation may succeed.
// Only transport failures qualify; nothing in this package retries on its own.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransportFailed)
}

// stageOf names the stage of err for metrics.
func stageOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrResolutionFailed):
		return "resolution_failed"
	case errors.Is(err, ErrEncodingFailed):
		return "encoding_failed"
	case errors.Is(err, ErrSigningFailed):
		return "signing_failed"
	case errors.Is(err, ErrTransportFailed):
		return "transport_failed"
	case errors.Is(err, ErrReverted):
		return "reverted"
	case errors.Is(err, ErrDecodingFailed):
		return "decoding_failed"
	}
	return "error"
}
