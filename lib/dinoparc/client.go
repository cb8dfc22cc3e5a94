package dinoparc

import "context"

// Client is the capability contract shared by the live scraper and the
// in-memory fake. Unlike hammerfest there are no public profile pages:
// everything except dinoz sheets requires a session.
type Client interface {
	CreateSession(ctx context.Context, options *Credentials) (*Session, error)
	TestSession(ctx context.Context, server Server, key SessionKey) (*Session, error)
	GetBank(ctx context.Context, session *Session) (*BankPage, error)
	GetDinoz(ctx context.Context, session *Session, options *GetDinozOptions) (*Dinoz, error)
}

// Store archives the short projection of game accounts.
type Store interface {
	GetShortUser(ctx context.Context, options *GetUserOptions) (*ShortUser, error)
	TouchShortUser(ctx context.Context, user *ShortUser) (*ShortUser, error)
}
