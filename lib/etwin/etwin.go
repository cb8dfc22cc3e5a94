// Package etwin holds the identity side of the archive: first-party
// users and the time-versioned links binding game accounts to them.
package etwin

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type UserId string

func NewUserId() UserId {
	return UserId(uuid.NewString())
}

func ParseUserId(raw string) (UserId, error) {
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", &InvalidValueError{Kind: "user id", Raw: raw}
	}
	return UserId(parsed.String()), nil
}

func (v UserId) String() string { return string(v) }

type InvalidValueError struct {
	Kind string
	Raw  string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid etwin %s: %q", e.Kind, e.Raw)
}

var (
	// ErrBrokenLink reports an archive inconsistency: a link references
	// an account or user the store has no record of. This is fatal,
	// never papered over with partial data.
	ErrBrokenLink = errors.New("link references an unknown user or game account")
	// ErrLinkConflict is returned when touching a remote account that
	// is actively linked to a different user.
	ErrLinkConflict = errors.New("remote account is already linked to another user")
	ErrLinkNotFound = errors.New("no active link for this remote account")
	ErrUserNotFound = errors.New("no such user")
)

type ShortUser struct {
	Id          UserId `json:"id"`
	DisplayName string `json:"display_name"`
}

type User struct {
	Id          UserId    `json:"id"`
	DisplayName string    `json:"display_name"`
	CTime       time.Time `json:"ctime"`
	IsDeleted   bool      `json:"is_deleted"`
}

func (u User) Short() ShortUser {
	return ShortUser{Id: u.Id, DisplayName: u.DisplayName}
}
