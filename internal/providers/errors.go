package providers

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// UpstreamAuthError reports a provider that rejected a token, profile or
// activity call. StatusCode is zero when the provider could not be reached.
type UpstreamAuthError struct {
	Provider   string
	Op         string
	StatusCode int
	Status     string
	Err        error
}

func (e *UpstreamAuthError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s failed: %v", e.Provider, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Provider, e.Op, e.Status)
}

func (e *UpstreamAuthError) Unwrap() error {
	return e.Err
}

func IsUpstreamAuthError(err error) bool {
	var upstream *UpstreamAuthError
	return errors.As(err, &upstream)
}

// upstreamError converts token endpoint and transport failures into an UpstreamAuthError.
func upstreamError(provider, op string, err error) error {
	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) && retrieve.Response != nil {
		return &UpstreamAuthError{
			Provider:   provider,
			Op:         op,
			StatusCode: retrieve.Response.StatusCode,
			Status:     retrieve.Response.Status,
			Err:        err,
		}
	}
	return &UpstreamAuthError{Provider: provider, Op: op, Err: err}
}
