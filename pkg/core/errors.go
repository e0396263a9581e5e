package core

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound indicates the looked-up resource does not exist. A login that
// matches zero or several users is reported with it as well.
var ErrNotFound = errors.New("intra: resource not found")

// NetworkError is a transport failure or a non-success HTTP status returned by
// either the authorization endpoint or a resource endpoint.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
	// Authorization marks a failure of the token endpoint. Those never match
	// ErrNotFound, whatever the status.
	Authorization bool
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("intra: %s failed: status=%d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("intra: %s failed: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is makes a resource endpoint 404 match ErrNotFound.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNotFound && !e.Authorization && e.StatusCode == http.StatusNotFound
}

// IsNotFound reports whether err means the resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNetworkError reports whether err carries a NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
