package feed

import (
	"fmt"
	"net/http"
)

// Kind classifies a feed failure.
type Kind string

const (
	KindTransport Kind = "transport"
	KindStatus    Kind = "status"
	KindDecode    Kind = "decode"
)

// FetchError reports which feed failed and why.
type FetchError struct {
	Err        error
	Feed       string
	URL        string
	Kind       Kind
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s feed (%s): %v", e.Feed, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt may succeed.
func (e *FetchError) Retryable() bool {
	switch e.Kind {
	case KindTransport:
		return true
	case KindStatus:
		return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
	default:
		return false
	}
}
