package dispatch

import (
	"errors"
	"fmt"
)

// Kind classifies a dispatch error so callers can map it to transport
// semantics (HTTP status codes, retry policy) without string matching.
type Kind int

const (
	// KindNotFound: a referenced bowser, location or deployment does not exist.
	KindNotFound Kind = iota + 1
	// KindValidation: a field is outside its allowed domain or range.
	KindValidation
	// KindConflict: the bowser already has an open deployment.
	KindConflict
	// KindInvalidState: the operation is not legal for the deployment's status.
	KindInvalidState
	// KindReferentialConflict: a delete is blocked by an open reference.
	KindReferentialConflict
	// KindStorage: the entity store failed; the operation was not applied
	// (or was rolled back). Retrying is the caller's decision.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "resource_conflict"
	case KindInvalidState:
		return "invalid_state"
	case KindReferentialConflict:
		return "referential_conflict"
	case KindStorage:
		return "storage"
	}
	return "unknown"
}

// Error is the typed error returned by all dispatch operations.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func notFoundErr(entity, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %q not found", entity, id)}
}

func validationErr(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func conflictErr(format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func invalidStateErr(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func referentialErr(format string, args ...interface{}) *Error {
	return &Error{Kind: KindReferentialConflict, Message: fmt.Sprintf(format, args...)}
}

func storageErr(op string, err error) *Error {
	return &Error{Kind: KindStorage, Message: op, Err: err}
}

// KindOf extracts the Kind from err, or 0 if err is not a dispatch error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// IsKind reports whether err is a dispatch error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
