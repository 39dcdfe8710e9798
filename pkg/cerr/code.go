package cerr

import "net/http"

// Code classifies an error for transport mapping and logging.
type Code int

const (
	OK Code = iota
	Canceled
	Unknown
	InvalidArgument
	NotFound
	AlreadyExists
	PermissionDenied
	FailedPrecondition
	Internal
	Unavailable
	Unauthenticated
)

func (c Code) String() string {
	switch c {
	case OK:
		return "ok"
	case Canceled:
		return "canceled"
	case InvalidArgument:
		return "invalid_argument"
	case NotFound:
		return "not_found"
	case AlreadyExists:
		return "already_exists"
	case PermissionDenied:
		return "permission_denied"
	case FailedPrecondition:
		return "failed_precondition"
	case Internal:
		return "internal"
	case Unavailable:
		return "unavailable"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// HTTPCode maps a Code to the HTTP status the API responds with.
func (c Code) HTTPCode() int {
	switch c {
	case OK:
		return http.StatusOK
	case Canceled:
		return 499
	case InvalidArgument:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case AlreadyExists:
		return http.StatusConflict
	case PermissionDenied:
		return http.StatusForbidden
	case FailedPrecondition:
		return http.StatusPreconditionFailed
	case Unavailable:
		return http.StatusServiceUnavailable
	case Unauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
