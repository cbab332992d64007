package auth

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrMissingAuthorization is returned when the Authorization header is absent or empty.
	ErrMissingAuthorization = errors.New("API key is missing")

	// ErrMalformedAuthorization is returned when the header is not "Bearer <token>".
	ErrMalformedAuthorization = errors.New("Invalid authorization header format")
)

// TokenValidator decides whether a bearer token may call the API.
type TokenValidator interface {
	Validate(ctx context.Context, token string) error
}

// NoopTokenValidator accepts every token. It is a placeholder for a real key
// store and provides no access control.
type NoopTokenValidator struct{}

// Validate always succeeds.
func (NoopTokenValidator) Validate(context.Context, string) error {
	return nil
}

// ParseBearer extracts the token from an Authorization header value.
// The header must be exactly two whitespace-separated fields, the first being
// "bearer" in any case.
// Parameters:
//   - header: raw Authorization header value.
//
// Returns:
//   - string: the token, unverified.
//   - error: ErrMissingAuthorization or ErrMalformedAuthorization.
func ParseBearer(header string) (string, error) {
	if header == "" {
		return "", ErrMissingAuthorization
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMalformedAuthorization
	}
	return parts[1], nil
}
