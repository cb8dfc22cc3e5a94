// Package hammerfest orchestrates the hammerfest scraper client, the
// account archive and the link archive behind one service surface.
package hammerfest

import (
	"context"
	"time"

	"etwin-backend/lib/etwin"
	hflib "etwin-backend/lib/hammerfest"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/hammerfest")

type Service struct {
	client hflib.Client
	store  hflib.Store
	links  etwin.LinkStore
	users  etwin.UserStore
}

func NewService(client hflib.Client, store hflib.Store, links etwin.LinkStore, users etwin.UserStore) Service {
	return Service{
		client: client,
		store:  store,
		links:  links,
		users:  users,
	}
}

// User is the archive view of a game account: the last observed
// projection plus its link timeline.
type User struct {
	hflib.ShortUser
	Etwin etwin.VersionedEtwinLink `json:"etwin"`
}

type GetUserOptions struct {
	Server hflib.Server `json:"server"`
	Id     hflib.UserId `json:"id"`
	// Time views the link state at that instant; nil means now.
	Time *time.Time `json:"time,omitempty"`
}

// GetUser answers from the archive when it can and falls back to one
// anonymous profile fetch when it cannot. An account unknown to both
// is a nil record.
func (s Service) GetUser(ctx context.Context, options *GetUserOptions) (*User, error) {
	ctx, span := tracer.Start(ctx, "GetUser")
	defer span.End()
	span.SetAttributes(
		attribute.String("server", options.Server.String()),
		attribute.String("user_id", options.Id.String()),
	)

	short, err := s.store.GetShortUser(ctx, &hflib.GetUserOptions{
		Server: options.Server,
		Id:     options.Id,
		Time:   options.Time,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if short == nil {
		// a live fetch observes the present; it cannot answer a query
		// about the past
		if options.Time != nil {
			return nil, nil
		}
		profile, err := s.client.GetProfileById(ctx, nil, &hflib.GetProfileByIdOptions{
			Server: options.Server,
			UserId: options.Id,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if profile == nil {
			return nil, nil
		}
		short, err = s.store.TouchShortUser(ctx, &profile.User)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	raw, err := s.links.GetLinkFromHammerfest(ctx, &etwin.GetLinkOptions[hflib.UserIdRef]{
		Remote: short.Ref(),
		Time:   options.Time,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	link, err := etwin.ExpandLink(ctx, s.users, raw, options.Time)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return &User{ShortUser: *short, Etwin: *link}, nil
}

// CreateSession logs into the game and archives the observed account
// on the way through.
func (s Service) CreateSession(ctx context.Context, options *hflib.Credentials) (*hflib.Session, error) {
	ctx, span := tracer.Start(ctx, "CreateSession")
	defer span.End()
	span.SetAttributes(
		attribute.String("server", options.Server.String()),
		attribute.String("username", options.Username.String()),
	)

	session, err := s.client.CreateSession(ctx, options)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if _, err := s.store.TouchShortUser(ctx, &session.User); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return session, nil
}

// TestSession re-validates a session key. nil means the key no longer
// grants access.
func (s Service) TestSession(ctx context.Context, server hflib.Server, key hflib.SessionKey) (*hflib.Session, error) {
	ctx, span := tracer.Start(ctx, "TestSession")
	defer span.End()
	span.SetAttributes(
		attribute.String("server", server.String()),
		attribute.String("key", key.Redacted()),
	)

	session, err := s.client.TestSession(ctx, server, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if session == nil {
		return nil, nil
	}
	if _, err := s.store.TouchShortUser(ctx, &session.User); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return session, nil
}

// GetForumThemes passes through to the scraper; forum pages are public
// and not archived.
func (s Service) GetForumThemes(ctx context.Context, session *hflib.Session, server hflib.Server) ([]hflib.ForumTheme, error) {
	ctx, span := tracer.Start(ctx, "GetForumThemes")
	defer span.End()
	span.SetAttributes(attribute.String("server", server.String()))

	themes, err := s.client.GetForumThemes(ctx, session, server)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return themes, nil
}

func (s Service) GetForumThemePage(ctx context.Context, session *hflib.Session, server hflib.Server, themeId hflib.ForumThemeId, page1 uint32) (*hflib.ForumThemePage, error) {
	ctx, span := tracer.Start(ctx, "GetForumThemePage")
	defer span.End()
	span.SetAttributes(
		attribute.String("server", server.String()),
		attribute.String("theme_id", themeId.String()),
	)

	page, err := s.client.GetForumThemePage(ctx, session, server, themeId, page1)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return page, nil
}

func (s Service) GetForumThreadPage(ctx context.Context, session *hflib.Session, server hflib.Server, threadId hflib.ForumThreadId, page1 uint32) (*hflib.ForumThreadPage, error) {
	ctx, span := tracer.Start(ctx, "GetForumThreadPage")
	defer span.End()
	span.SetAttributes(
		attribute.String("server", server.String()),
		attribute.String("thread_id", threadId.String()),
	)

	page, err := s.client.GetForumThreadPage(ctx, session, server, threadId, page1)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return page, nil
}

type TouchLinkOptions struct {
	Server   hflib.Server `json:"server"`
	Id       hflib.UserId `json:"id"`
	Etwin    etwin.UserId `json:"etwin"`
	LinkedBy etwin.UserId `json:"linked_by"`
}

// TouchLink binds a game account to an etwin user. The account must be
// known to the archive first; GetUser is the way to get it there.
func (s Service) TouchLink(ctx context.Context, options *TouchLinkOptions) (*etwin.VersionedEtwinLink, error) {
	ctx, span := tracer.Start(ctx, "TouchLink")
	defer span.End()

	short, err := s.store.GetShortUser(ctx, &hflib.GetUserOptions{
		Server: options.Server,
		Id:     options.Id,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if short == nil {
		span.SetStatus(codes.Error, etwin.ErrBrokenLink.Error())
		return nil, etwin.ErrBrokenLink
	}

	raw, err := s.links.TouchHammerfestLink(ctx, &etwin.TouchLinkOptions[hflib.UserIdRef]{
		Etwin:    options.Etwin,
		Remote:   short.Ref(),
		LinkedBy: options.LinkedBy,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return etwin.ExpandLink(ctx, s.users, raw, nil)
}

type DeleteLinkOptions struct {
	Server     hflib.Server `json:"server"`
	Id         hflib.UserId `json:"id"`
	UnlinkedBy etwin.UserId `json:"unlinked_by"`
}

func (s Service) DeleteLink(ctx context.Context, options *DeleteLinkOptions) (*etwin.VersionedEtwinLink, error) {
	ctx, span := tracer.Start(ctx, "DeleteLink")
	defer span.End()

	raw, err := s.links.DeleteHammerfestLink(ctx, &etwin.DeleteLinkOptions[hflib.UserIdRef]{
		Remote:     hflib.UserIdRef{Server: options.Server, Id: options.Id},
		UnlinkedBy: options.UnlinkedBy,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return etwin.ExpandLink(ctx, s.users, raw, nil)
}
