package hammerfest

import (
	"errors"
	"fmt"
)

// InvalidValueError is the validation failure for every identifier and
// scraped scalar: the raw captured text failed its format pattern.
type InvalidValueError struct {
	Kind string
	Raw  string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid hammerfest %s: %q", e.Kind, e.Raw)
}

// InvalidCredentialsError is returned by CreateSession when the game
// rejected the username/password pair. Distinct from transport and
// structural errors so callers can react to it specifically.
type InvalidCredentialsError struct {
	Server   Server
	Username Username
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials on %s for username %s", e.Server, e.Username)
}

// UnexpectedResponseError is returned when the game answered with a
// page that is neither the expected document nor a recognizable error.
type UnexpectedResponseError struct {
	Url    string
	Status int
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("hammerfest returned an unexpected response for %s (status %d)", e.Url, e.Status)
}

var (
	ErrMissingSessionCookie = errors.New("missing hammerfest session cookie from login response")
	ErrInvalidSessionCookie = errors.New("hammerfest session cookie is invalid or malformed")
	// a freshly minted session failed its immediate re-validation; not
	// retried here, the caller decides what to do about it
	ErrLoginSessionRevoked = errors.New("session was revoked by hammerfest during login")
)

// ScrapeError wraps a structural extraction failure with the identity
// of the page it happened on.
type ScrapeError struct {
	Page string
	Err  error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("failed to scrape %s: %s", e.Page, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }
