package hammerfest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"etwin-backend/lib/timezone"

	"github.com/mazen160/go-random"
)

// MemClient is an in-memory Client for tests and offline development.
// It is seeded through CreateUser and friends, then behaves like the
// live scraper: same nil-record conventions, same error types.
type MemClient struct {
	mu      sync.RWMutex
	servers map[Server]*memServer
}

type memServer struct {
	users    map[UserId]*memUser
	sessions map[SessionKey]UserId
	themes   []ForumTheme
}

type memUser struct {
	user        ShortUser
	password    string
	bestScore   uint32
	bestLevel   uint32
	seasonScore uint32
	rank        uint8
	hasCarrot   bool
	items       map[ItemId]uint32
	quests      map[QuestId]QuestStatus
	shop        Shop
	godChildren []GodChild
}

var _ Client = (*MemClient)(nil)

func NewMemClient() *MemClient {
	servers := map[Server]*memServer{}
	for _, server := range Servers() {
		servers[server] = &memServer{
			users:    map[UserId]*memUser{},
			sessions: map[SessionKey]UserId{},
		}
	}
	return &MemClient{servers: servers}
}

// CreateUser seeds a game account. Ids and usernames must be unique
// within a server.
func (c *MemClient) CreateUser(server Server, id UserId, username Username, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	srv := c.servers[server]
	if _, ok := srv.users[id]; ok {
		return fmt.Errorf("user %s already exists on %s", id, server)
	}
	for _, other := range srv.users {
		if other.user.Username == username {
			return fmt.Errorf("username %s already exists on %s", username, server)
		}
	}

	srv.users[id] = &memUser{
		user:     ShortUser{Server: server, Id: id, Username: username},
		password: password,
		rank:     4,
		items:    map[ItemId]uint32{},
		quests:   map[QuestId]QuestStatus{},
		shop:     Shop{Tokens: 0, WeeklyTokens: 0},
	}
	return nil
}

// SetOwnItems seeds the inventory returned by GetOwnItems.
func (c *MemClient) SetOwnItems(server Server, id UserId, items map[ItemId]uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	user, ok := c.servers[server].users[id]
	if !ok {
		return fmt.Errorf("user %s does not exist on %s", id, server)
	}
	user.items = items
	return nil
}

// SetOwnShop seeds the counters returned by GetOwnShop.
func (c *MemClient) SetOwnShop(server Server, id UserId, shop Shop) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	user, ok := c.servers[server].users[id]
	if !ok {
		return fmt.Errorf("user %s does not exist on %s", id, server)
	}
	user.shop = shop
	return nil
}

// CreateForumTheme seeds a theme listed by GetForumThemes.
func (c *MemClient) CreateForumTheme(server Server, id ForumThemeId, name, description string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	srv := c.servers[server]
	srv.themes = append(srv.themes, ForumTheme{
		ShortForumTheme: ShortForumTheme{Server: server, Id: id, Name: name},
		Description:     description,
	})
}

func (c *MemClient) CreateSession(ctx context.Context, options *Credentials) (*Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	srv := c.servers[options.Server]
	var user *memUser
	for _, candidate := range srv.users {
		if candidate.user.Username == options.Username {
			user = candidate
			break
		}
	}
	if user == nil || user.password != options.Password {
		return nil, &InvalidCredentialsError{Server: options.Server, Username: options.Username}
	}

	raw, err := random.String(26)
	if err != nil {
		return nil, err
	}
	key, err := ParseSessionKey(strings.ToLower(raw))
	if err != nil {
		return nil, err
	}

	// the game keeps a single active session per account
	for old, uid := range srv.sessions {
		if uid == user.user.Id {
			delete(srv.sessions, old)
		}
	}
	srv.sessions[key] = user.user.Id

	now := timezone.Now()
	return &Session{CTime: now, ATime: now, Key: key, User: user.user}, nil
}

func (c *MemClient) TestSession(ctx context.Context, server Server, key SessionKey) (*Session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	srv := c.servers[server]
	id, ok := srv.sessions[key]
	if !ok {
		return nil, nil
	}
	user := srv.users[id]

	now := timezone.Now()
	return &Session{CTime: now, ATime: now, Key: key, User: user.user}, nil
}

func (c *MemClient) GetProfileById(ctx context.Context, session *Session, options *GetProfileByIdOptions) (*Profile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	user, ok := c.servers[options.Server].users[options.UserId]
	if !ok {
		return nil, nil
	}

	items := map[ItemId]struct{}{}
	for id := range user.items {
		items[id] = struct{}{}
	}
	quests := map[QuestId]QuestStatus{}
	for id, status := range user.quests {
		quests[id] = status
	}

	return &Profile{
		User:        user.user,
		BestScore:   user.bestScore,
		BestLevel:   user.bestLevel,
		HasCarrot:   user.hasCarrot,
		SeasonScore: user.seasonScore,
		Rank:        user.rank,
		Items:       items,
		Quests:      quests,
	}, nil
}

func (c *MemClient) ownUser(session *Session) (*memUser, error) {
	srv := c.servers[session.User.Server]
	id, ok := srv.sessions[session.Key]
	if !ok {
		return nil, ErrInvalidSessionCookie
	}
	return srv.users[id], nil
}

func (c *MemClient) GetOwnItems(ctx context.Context, session *Session) (map[ItemId]uint32, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	user, err := c.ownUser(session)
	if err != nil {
		return nil, err
	}
	items := map[ItemId]uint32{}
	for id, qty := range user.items {
		items[id] = qty
	}
	return items, nil
}

func (c *MemClient) GetOwnGodChildren(ctx context.Context, session *Session) ([]GodChild, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	user, err := c.ownUser(session)
	if err != nil {
		return nil, err
	}
	return append([]GodChild{}, user.godChildren...), nil
}

func (c *MemClient) GetOwnShop(ctx context.Context, session *Session) (*Shop, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	user, err := c.ownUser(session)
	if err != nil {
		return nil, err
	}
	shop := user.shop
	return &shop, nil
}

func (c *MemClient) GetForumThemes(ctx context.Context, session *Session, server Server) ([]ForumTheme, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]ForumTheme{}, c.servers[server].themes...), nil
}

func (c *MemClient) GetForumThemePage(ctx context.Context, session *Session, server Server, themeId ForumThemeId, page1 uint32) (*ForumThemePage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, theme := range c.servers[server].themes {
		if theme.Id == themeId {
			return &ForumThemePage{
				Theme:  theme.ShortForumTheme,
				Sticky: []ForumThread{},
				Threads: ForumThreadListing{
					Page1: page1,
					Pages: page1,
					Items: []ForumThread{},
				},
			}, nil
		}
	}
	return nil, nil
}

func (c *MemClient) GetForumThreadPage(ctx context.Context, session *Session, server Server, threadId ForumThreadId, page1 uint32) (*ForumThreadPage, error) {
	// thread seeding is not implemented, every thread reads as absent
	return nil, nil
}
