package dinoparc

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"etwin-backend/lib/timezone"

	"github.com/mazen160/go-random"
)

// MemClient is an in-memory Client for tests and offline development.
type MemClient struct {
	mu      sync.RWMutex
	servers map[Server]*memServer
}

type memServer struct {
	users    map[UserId]*memUser
	dinoz    map[DinozId]*Dinoz
	sessions map[SessionKey]UserId
}

type memUser struct {
	user     ShortUser
	password string
	coins    uint32
	dinoz    []DinozId
}

var _ Client = (*MemClient)(nil)

func NewMemClient() *MemClient {
	servers := map[Server]*memServer{}
	for _, server := range Servers() {
		servers[server] = &memServer{
			users:    map[UserId]*memUser{},
			dinoz:    map[DinozId]*Dinoz{},
			sessions: map[SessionKey]UserId{},
		}
	}
	return &MemClient{servers: servers}
}

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
	}
	return nil
}

// CreateDinoz seeds a dinoz sheet and, when the owner exists, appends
// it to their roster.
func (c *MemClient) CreateDinoz(server Server, dinoz Dinoz) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	srv := c.servers[server]
	if _, ok := srv.dinoz[dinoz.Id]; ok {
		return fmt.Errorf("dinoz %s already exists on %s", dinoz.Id, server)
	}

	stored := dinoz
	stored.Server = server
	srv.dinoz[dinoz.Id] = &stored

	if dinoz.Owner != nil {
		owner, ok := srv.users[dinoz.Owner.Id]
		if !ok {
			return fmt.Errorf("dinoz owner %s does not exist on %s", dinoz.Owner.Id, server)
		}
		owner.dinoz = append(owner.dinoz, dinoz.Id)
	}
	return nil
}

func (c *MemClient) SetCoins(server Server, id UserId, coins uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	user, ok := c.servers[server].users[id]
	if !ok {
		return fmt.Errorf("user %s does not exist on %s", id, server)
	}
	user.coins = coins
	return nil
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

	raw, err := random.String(32)
	if err != nil {
		return nil, err
	}
	key, err := ParseSessionKey(strings.ToLower(raw))
	if err != nil {
		return nil, err
	}

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

	now := timezone.Now()
	return &Session{CTime: now, ATime: now, Key: key, User: srv.users[id].user}, nil
}

func (c *MemClient) GetBank(ctx context.Context, session *Session) (*BankPage, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	srv := c.servers[session.User.Server]
	id, ok := srv.sessions[session.Key]
	if !ok {
		return nil, ErrInvalidSessionCookie
	}
	user := srv.users[id]

	roster := []ShortDinoz{}
	for _, dinozId := range user.dinoz {
		dinoz := srv.dinoz[dinozId]
		roster = append(roster, dinoz.ShortDinoz)
	}

	return &BankPage{User: user.user, Coins: user.coins, Dinoz: roster}, nil
}

func (c *MemClient) GetDinoz(ctx context.Context, session *Session, options *GetDinozOptions) (*Dinoz, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dinoz, ok := c.servers[options.Server].dinoz[options.DinozId]
	if !ok {
		return nil, nil
	}

	out := *dinoz
	if dinoz.Owner != nil {
		owner := *dinoz.Owner
		out.Owner = &owner
	}
	out.Skills = map[string]uint8{}
	for name, level := range dinoz.Skills {
		out.Skills[name] = level
	}
	return &out, nil
}
