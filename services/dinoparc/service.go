// Package dinoparc orchestrates the dinoparc scraper client, the
// account archive and the link archive. Unlike hammerfest the game has
// no public profile pages, so an account enters the archive only when
// a session observes it.
package dinoparc

import (
	"context"
	"time"

	dplib "etwin-backend/lib/dinoparc"
	"etwin-backend/lib/etwin"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/dinoparc")

type Service struct {
	client dplib.Client
	store  dplib.Store
	links  etwin.LinkStore
	users  etwin.UserStore
}

func NewService(client dplib.Client, store dplib.Store, links etwin.LinkStore, users etwin.UserStore) Service {
	return Service{
		client: client,
		store:  store,
		links:  links,
		users:  users,
	}
}

type User struct {
	dplib.ShortUser
	Etwin etwin.VersionedEtwinLink `json:"etwin"`
}

type GetUserOptions struct {
	Server dplib.Server `json:"server"`
	Id     dplib.UserId `json:"id"`
	Time   *time.Time   `json:"time,omitempty"`
}

// GetUser answers from the archive only: there is no anonymous page to
// fall back to. An account never observed by a session is a nil
// record.
func (s Service) GetUser(ctx context.Context, options *GetUserOptions) (*User, error) {
	ctx, span := tracer.Start(ctx, "GetUser")
	defer span.End()
	span.SetAttributes(
		attribute.String("server", options.Server.String()),
		attribute.String("user_id", options.Id.String()),
	)

	short, err := s.store.GetShortUser(ctx, &dplib.GetUserOptions{
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
		return nil, nil
	}

	raw, err := s.links.GetLinkFromDinoparc(ctx, &etwin.GetLinkOptions[dplib.UserIdRef]{
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

func (s Service) CreateSession(ctx context.Context, options *dplib.Credentials) (*dplib.Session, error) {
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

func (s Service) TestSession(ctx context.Context, server dplib.Server, key dplib.SessionKey) (*dplib.Session, error) {
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

// GetDinoz passes through to the scraper; dinoz sheets are public and
// not archived.
func (s Service) GetDinoz(ctx context.Context, session *dplib.Session, options *dplib.GetDinozOptions) (*dplib.Dinoz, error) {
	ctx, span := tracer.Start(ctx, "GetDinoz")
	defer span.End()
	span.SetAttributes(
		attribute.String("server", options.Server.String()),
		attribute.String("dinoz_id", options.DinozId.String()),
	)

	dinoz, err := s.client.GetDinoz(ctx, session, options)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return dinoz, nil
}

type TouchLinkOptions struct {
	Server   dplib.Server `json:"server"`
	Id       dplib.UserId `json:"id"`
	Etwin    etwin.UserId `json:"etwin"`
	LinkedBy etwin.UserId `json:"linked_by"`
}

func (s Service) TouchLink(ctx context.Context, options *TouchLinkOptions) (*etwin.VersionedEtwinLink, error) {
	ctx, span := tracer.Start(ctx, "TouchLink")
	defer span.End()

	short, err := s.store.GetShortUser(ctx, &dplib.GetUserOptions{
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

	raw, err := s.links.TouchDinoparcLink(ctx, &etwin.TouchLinkOptions[dplib.UserIdRef]{
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
	Server     dplib.Server `json:"server"`
	Id         dplib.UserId `json:"id"`
	UnlinkedBy etwin.UserId `json:"unlinked_by"`
}

func (s Service) DeleteLink(ctx context.Context, options *DeleteLinkOptions) (*etwin.VersionedEtwinLink, error) {
	ctx, span := tracer.Start(ctx, "DeleteLink")
	defer span.End()

	raw, err := s.links.DeleteDinoparcLink(ctx, &etwin.DeleteLinkOptions[dplib.UserIdRef]{
		Remote:     dplib.UserIdRef{Server: options.Server, Id: options.Id},
		UnlinkedBy: options.UnlinkedBy,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return etwin.ExpandLink(ctx, s.users, raw, nil)
}
