package dinoparc

import (
	"errors"
	"fmt"
)

type InvalidValueError struct {
	Kind string
	Raw  string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid dinoparc %s: %q", e.Kind, e.Raw)
}

type InvalidCredentialsError struct {
	Server   Server
	Username Username
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials on %s for username %s", e.Server, e.Username)
}

type UnexpectedResponseError struct {
	Url    string
	Status int
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("dinoparc returned an unexpected response for %s (status %d)", e.Url, e.Status)
}

var (
	ErrMissingSessionCookie = errors.New("missing dinoparc session cookie from login response")
	ErrInvalidSessionCookie = errors.New("dinoparc session cookie is invalid or malformed")
	ErrLoginSessionRevoked  = errors.New("session was revoked by dinoparc during login")
)

type ScrapeError struct {
	Page string
	Err  error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("failed to scrape %s: %s", e.Page, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }
