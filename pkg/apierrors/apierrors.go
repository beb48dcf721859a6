package apierrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error into a closed set of categories so that call
// sites can dispatch on a finite enumeration instead of inspecting
// response bodies.
type Kind int

const (
	// KindUnknown is anything we could not classify.
	KindUnknown Kind = iota
	// KindNetwork means no response was received at all.
	KindNetwork
	// KindValidation covers 400/422 responses the client can correct.
	KindValidation
	// KindAuthentication covers 401 responses.
	KindAuthentication
	// KindAuthorization covers 403 responses.
	KindAuthorization
	// KindNotFound covers 404 responses.
	KindNotFound
	// KindRateLimit covers 429 responses and local limiter rejections.
	KindRateLimit
	// KindServer covers 5xx responses.
	KindServer
	// KindDelivery covers failures reported by the messaging send path.
	KindDelivery
)

// String returns a short name for the kind, used in logs.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindRateLimit:
		return "rate_limit"
	case KindServer:
		return "server"
	case KindDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}

// Error is a classified API error. Message is safe to show to end users;
// the wrapped error keeps the transport detail for internal logging.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the short actionable message for the end user.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Kind {
	case KindNetwork:
		return "Network error. Check your connection and try again"
	case KindAuthentication:
		return "Session expired. Please log in again"
	case KindAuthorization:
		return "You do not have permission to perform this action"
	case KindNotFound:
		return "The requested resource was not found"
	case KindRateLimit:
		return "Too many requests. Please wait and try again"
	case KindServer:
		return "Server error. Please try again later"
	case KindDelivery:
		return "Message delivery failed"
	default:
		return "An unexpected error occurred"
	}
}

// New creates a classified error without an HTTP status.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// FromStatus is the centralized status-code classifier. Every HTTP call
// site funnels non-2xx responses through here.
func FromStatus(status int, message string) *Error {
	e := &Error{Status: status, Message: message}

	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		e.Kind = KindValidation
	case status == http.StatusUnauthorized:
		e.Kind = KindAuthentication
	case status == http.StatusForbidden:
		e.Kind = KindAuthorization
	case status == http.StatusNotFound:
		e.Kind = KindNotFound
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimit
	case status >= 500:
		e.Kind = KindServer
	default:
		e.Kind = KindUnknown
	}

	return e
}

// KindOf extracts the kind from an error chain. Unclassified errors
// report KindUnknown.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// Retryable reports whether retrying the failed operation could succeed.
// Client errors (validation, auth, authz, not found) and any response in
// the 4xx range cannot be fixed by retrying. Network errors, 5xx and
// unclassified errors are worth another attempt.
func Retryable(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return true
	}

	switch apiErr.Kind {
	case KindValidation, KindAuthentication, KindAuthorization, KindNotFound, KindRateLimit:
		return false
	}

	if apiErr.Status >= 400 && apiErr.Status < 500 {
		return false
	}

	return true
}
