package classroom

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrUnauthenticated is returned when no access token is available for the current session.
var ErrUnauthenticated = errors.New("no autenticado")

// UpstreamFetchError is returned when a Classroom API call does not succeed.
// Message is a human readable (Spanish) description suitable for end users.
type UpstreamFetchError struct {
	Op      string
	Code    int // HTTP status; 0 when the request never got a response
	Message string
	Err     error
}

func NewUpstreamFetchError(op, message string, code int, err error) *UpstreamFetchError {
	return &UpstreamFetchError{Op: op, Code: code, Message: message, Err: err}
}

func (e *UpstreamFetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *UpstreamFetchError) Unwrap() error { return e.Err }

// AsUpstreamFetchError finds the first UpstreamFetchError in err's chain.
func AsUpstreamFetchError(err error) (*UpstreamFetchError, bool) {
	var upErr *UpstreamFetchError
	if errors.As(err, &upErr) {
		return upErr, true
	}
	return nil, false
}
