// Package apierr types the error taxonomy of §7 as distinct Go error
// structs, each reporting its HTTP status, grounded on atc/db's typed
// error pattern (e.g. ContainerOwnerDisappearedError) rather than
// stringly-typed errors. internal/api dispatches on these with a
// single errors.As chain.
package apierr

import "fmt"

// InputValidationError covers bad URLs, oversize uploads, invalid
// signatures, depth/size/count breaches, symlinks, dangerous files, and
// secret-scan-mode incoherent with input type.
type InputValidationError struct {
	Reason string
}

func (e InputValidationError) Error() string  { return e.Reason }
func (InputValidationError) HTTPStatus() int  { return 400 }

// StructuralRefusalError wraps a validator REFUSED verdict.
type StructuralRefusalError struct {
	Errors []string
}

func (e StructuralRefusalError) Error() string {
	return fmt.Sprintf("structural refusal: %v", e.Errors)
}
func (StructuralRefusalError) HTTPStatus() int { return 400 }

// NotFoundError covers unknown jobs, missing reports, and requests for a
// skipped stage's logs.
type NotFoundError struct {
	Reason string
}

func (e NotFoundError) Error() string  { return e.Reason }
func (NotFoundError) HTTPStatus() int  { return 404 }

// ConflictError covers reports/logs requested before the job has
// started or finished the relevant stage.
type ConflictError struct {
	Reason string
}

func (e ConflictError) Error() string  { return e.Reason }
func (ConflictError) HTTPStatus() int  { return 409 }

// InternalCorruptionError covers a missing or unreadable metadata.json.
type InternalCorruptionError struct {
	Reason string
}

func (e InternalCorruptionError) Error() string  { return e.Reason }
func (InternalCorruptionError) HTTPStatus() int  { return 500 }

// InfrastructureError covers container-runtime failures, clone
// timeouts, a missing result.json, an unsupported stack, or an absent
// compose fragment — always causes the job to finalize FAILED.
type InfrastructureError struct {
	Reason string
}

func (e InfrastructureError) Error() string { return e.Reason }
func (InfrastructureError) HTTPStatus() int { return 500 }

// HasHTTPStatus is implemented by every taxonomy member above; handlers
// dispatch with a single errors.As against this interface rather than
// per-type checks.
type HasHTTPStatus interface {
	error
	HTTPStatus() int
}
