package etwin

import (
	"context"
	"errors"
	"time"

	"etwin-backend/lib/dinoparc"
	"etwin-backend/lib/hammerfest"
)

// UserDot is a point on a user's timeline: who acted, and when.
type UserDot struct {
	Time time.Time `json:"time"`
	User UserId    `json:"user"`
}

// RawLink is an active binding between an etwin user and one remote
// game account. R is the remote account reference type.
type RawLink[R any] struct {
	Link   UserDot `json:"link"`
	Etwin  UserId  `json:"etwin"`
	Remote R       `json:"remote"`
}

// OldRawLink is a link that was severed at Unlink. History is append
// only: deleting a link moves it here, nothing is erased.
type OldRawLink[R any] struct {
	RawLink[R]
	Unlink UserDot `json:"unlink"`
}

// VersionedRawLink is the full link timeline for one remote account:
// at most one active link, any number of severed ones.
type VersionedRawLink[R any] struct {
	Current *RawLink[R]     `json:"current"`
	Old     []OldRawLink[R] `json:"old"`
}

type GetLinkOptions[R any] struct {
	Remote R `json:"remote"`
	// Time asks for the state of the link at that instant; nil means
	// now.
	Time *time.Time `json:"time,omitempty"`
}

type TouchLinkOptions[R any] struct {
	Etwin    UserId `json:"etwin"`
	Remote   R      `json:"remote"`
	LinkedBy UserId `json:"linked_by"`
}

type DeleteLinkOptions[R any] struct {
	Remote     R      `json:"remote"`
	UnlinkedBy UserId `json:"unlinked_by"`
}

// LinkStore archives account links per platform. Touching an already
// linked pair refreshes nothing and returns the existing timeline;
// touching a remote account actively linked to another user is an
// error.
type LinkStore interface {
	GetLinkFromHammerfest(ctx context.Context, options *GetLinkOptions[hammerfest.UserIdRef]) (*VersionedRawLink[hammerfest.UserIdRef], error)
	TouchHammerfestLink(ctx context.Context, options *TouchLinkOptions[hammerfest.UserIdRef]) (*VersionedRawLink[hammerfest.UserIdRef], error)
	DeleteHammerfestLink(ctx context.Context, options *DeleteLinkOptions[hammerfest.UserIdRef]) (*VersionedRawLink[hammerfest.UserIdRef], error)

	GetLinkFromDinoparc(ctx context.Context, options *GetLinkOptions[dinoparc.UserIdRef]) (*VersionedRawLink[dinoparc.UserIdRef], error)
	TouchDinoparcLink(ctx context.Context, options *TouchLinkOptions[dinoparc.UserIdRef]) (*VersionedRawLink[dinoparc.UserIdRef], error)
	DeleteDinoparcLink(ctx context.Context, options *DeleteLinkOptions[dinoparc.UserIdRef]) (*VersionedRawLink[dinoparc.UserIdRef], error)
}

// LinkAction is a UserDot with the acting user expanded for display.
type LinkAction struct {
	Time time.Time `json:"time"`
	User ShortUser `json:"user"`
}

// EtwinLink is the display view of an active link: who it binds, and
// who created it.
type EtwinLink struct {
	Link LinkAction `json:"link"`
	User ShortUser  `json:"user"`
}

type OldEtwinLink struct {
	EtwinLink
	Unlink LinkAction `json:"unlink"`
}

// VersionedEtwinLink is the display view of a link timeline, produced
// by the linking services from a VersionedRawLink.
type VersionedEtwinLink struct {
	Current *EtwinLink     `json:"current"`
	Old     []OldEtwinLink `json:"old"`
}

// UserStore archives first-party users. GetShortUser takes the same
// as-of instant as link reads; a user that did not exist yet at that
// instant is ErrUserNotFound.
type UserStore interface {
	CreateUser(ctx context.Context, displayName string) (*User, error)
	GetUser(ctx context.Context, id UserId) (*User, error)
	GetShortUser(ctx context.Context, id UserId, at *time.Time) (*ShortUser, error)
}

// ExpandLink resolves the user ids of a raw link timeline into display
// users, all at the same as-of instant the timeline was projected at.
// A link naming an unknown user means the archive is inconsistent and
// yields ErrBrokenLink; any other store failure passes through.
func ExpandLink[R any](ctx context.Context, users UserStore, raw *VersionedRawLink[R], at *time.Time) (*VersionedEtwinLink, error) {
	lookup := func(id UserId) (*ShortUser, error) {
		user, err := users.GetShortUser(ctx, id, at)
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrBrokenLink
		}
		return user, err
	}

	expandOne := func(link RawLink[R]) (*EtwinLink, error) {
		user, err := lookup(link.Etwin)
		if err != nil {
			return nil, err
		}
		actor, err := lookup(link.Link.User)
		if err != nil {
			return nil, err
		}
		return &EtwinLink{
			Link: LinkAction{Time: link.Link.Time, User: *actor},
			User: *user,
		}, nil
	}

	out := &VersionedEtwinLink{Old: []OldEtwinLink{}}
	if raw.Current != nil {
		current, err := expandOne(*raw.Current)
		if err != nil {
			return nil, err
		}
		out.Current = current
	}
	for _, old := range raw.Old {
		expanded, err := expandOne(old.RawLink)
		if err != nil {
			return nil, err
		}
		unlinkActor, err := lookup(old.Unlink.User)
		if err != nil {
			return nil, err
		}
		out.Old = append(out.Old, OldEtwinLink{
			EtwinLink: *expanded,
			Unlink:    LinkAction{Time: old.Unlink.Time, User: *unlinkActor},
		})
	}
	return out, nil
}
