package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// MsgCannotConnect is shown when the backend could not be reached at all.
const MsgCannotConnect = "Cannot connect to server. Please check your connection."

// BackendError is a response that arrived but did not succeed: a non-2xx
// status or an envelope with success=false. Message is the backend's own
// message when it sent one, otherwise the per-action fallback.
type BackendError struct {
	Status  int
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %d: %s", e.Status, e.Message)
}

// NetworkError is a request that never produced a response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "backend unreachable: " + e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }

// IsUnauthorized reports whether the backend rejected the bearer token.
func IsUnauthorized(err error) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Status == http.StatusUnauthorized
}

// UserMessage converts err into the text shown to the user.
func UserMessage(err error, fallback string) string {
	var be *BackendError
	if errors.As(err, &be) && be.Message != "" {
		return be.Message
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return MsgCannotConnect
	}
	return fallback
}
