package hammerfest

import "context"

// Client is the capability contract shared by the live scraper and the
// in-memory fake. A nil *Session means the operation runs anonymously;
// "own" operations always require one.
//
// Absent entities come back as a nil record, never as an error.
type Client interface {
	CreateSession(ctx context.Context, options *Credentials) (*Session, error)
	TestSession(ctx context.Context, server Server, key SessionKey) (*Session, error)
	GetProfileById(ctx context.Context, session *Session, options *GetProfileByIdOptions) (*Profile, error)
	GetOwnItems(ctx context.Context, session *Session) (map[ItemId]uint32, error)
	GetOwnGodChildren(ctx context.Context, session *Session) ([]GodChild, error)
	GetOwnShop(ctx context.Context, session *Session) (*Shop, error)
	GetForumThemes(ctx context.Context, session *Session, server Server) ([]ForumTheme, error)
	GetForumThemePage(ctx context.Context, session *Session, server Server, themeId ForumThemeId, page1 uint32) (*ForumThemePage, error)
	GetForumThreadPage(ctx context.Context, session *Session, server Server, threadId ForumThreadId, page1 uint32) (*ForumThreadPage, error)
}

// Store archives the short projection of game accounts. Touching an
// account updates its observed username, never its id.
type Store interface {
	GetShortUser(ctx context.Context, options *GetUserOptions) (*ShortUser, error)
	TouchShortUser(ctx context.Context, user *ShortUser) (*ShortUser, error)
}
