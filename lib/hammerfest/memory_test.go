package hammerfest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func seedMemClient(t *testing.T) *MemClient {
	client := NewMemClient()
	require.NoError(t, client.CreateUser(ServerFr, "127", "elseabora", "hunter2"))
	require.NoError(t, client.CreateUser(ServerFr, "651", "moulins", "secret"))
	require.NoError(t, client.CreateUser(ServerEs, "1", "admin", "admin"))
	return client
}

func TestMemClientSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	client := seedMemClient(t)

	session, err := client.CreateSession(ctx, &Credentials{
		Server:   ServerFr,
		Username: "elseabora",
		Password: "hunter2",
	})
	require.NoError(t, err)
	require.Equal(t, UserId("127"), session.User.Id)
	require.Equal(t, Username("elseabora"), session.User.Username)

	// the key has the same shape as a live SID cookie
	_, err = ParseSessionKey(session.Key.String())
	require.NoError(t, err)

	revalidated, err := client.TestSession(ctx, ServerFr, session.Key)
	require.NoError(t, err)
	require.NotNil(t, revalidated)
	require.Equal(t, session.Key, revalidated.Key)
	require.Equal(t, session.User, revalidated.User)
}

func TestMemClientBadCredentials(t *testing.T) {
	ctx := context.Background()
	client := seedMemClient(t)

	_, err := client.CreateSession(ctx, &Credentials{
		Server:   ServerFr,
		Username: "elseabora",
		Password: "wrong",
	})
	var invalid *InvalidCredentialsError
	require.ErrorAs(t, err, &invalid)

	// same username on another server is a different account
	_, err = client.CreateSession(ctx, &Credentials{
		Server:   ServerEs,
		Username: "elseabora",
		Password: "hunter2",
	})
	require.ErrorAs(t, err, &invalid)
}

func TestMemClientTestSessionUnknownKey(t *testing.T) {
	ctx := context.Background()
	client := seedMemClient(t)

	session, err := client.TestSession(ctx, ServerFr, "aaaabbbbccccddddeeeeffffgg")
	require.NoError(t, err)
	require.Nil(t, session)
}

func TestMemClientSecondLoginRevokesFirst(t *testing.T) {
	ctx := context.Background()
	client := seedMemClient(t)

	creds := &Credentials{Server: ServerFr, Username: "elseabora", Password: "hunter2"}
	first, err := client.CreateSession(ctx, creds)
	require.NoError(t, err)
	second, err := client.CreateSession(ctx, creds)
	require.NoError(t, err)
	require.NotEqual(t, first.Key, second.Key)

	stale, err := client.TestSession(ctx, ServerFr, first.Key)
	require.NoError(t, err)
	require.Nil(t, stale)

	fresh, err := client.TestSession(ctx, ServerFr, second.Key)
	require.NoError(t, err)
	require.NotNil(t, fresh)
}

func TestMemClientGetProfileById(t *testing.T) {
	ctx := context.Background()
	client := seedMemClient(t)

	profile, err := client.GetProfileById(ctx, nil, &GetProfileByIdOptions{
		Server: ServerFr,
		UserId: "127",
	})
	require.NoError(t, err)
	require.NotNil(t, profile)
	require.Equal(t, Username("elseabora"), profile.User.Username)
	require.Nil(t, profile.Email)

	absent, err := client.GetProfileById(ctx, nil, &GetProfileByIdOptions{
		Server: ServerFr,
		UserId: "999",
	})
	require.NoError(t, err)
	require.Nil(t, absent)
}

func TestMemClientOwnOperations(t *testing.T) {
	ctx := context.Background()
	client := seedMemClient(t)
	require.NoError(t, client.SetOwnItems(ServerFr, "127", map[ItemId]uint32{"1000": 3}))
	require.NoError(t, client.SetOwnShop(ServerFr, "127", Shop{Tokens: 539, WeeklyTokens: 12}))

	session, err := client.CreateSession(ctx, &Credentials{
		Server:   ServerFr,
		Username: "elseabora",
		Password: "hunter2",
	})
	require.NoError(t, err)

	items, err := client.GetOwnItems(ctx, session)
	require.NoError(t, err)
	require.Equal(t, map[ItemId]uint32{"1000": 3}, items)

	shop, err := client.GetOwnShop(ctx, session)
	require.NoError(t, err)
	require.Equal(t, uint32(539), shop.Tokens)

	godChildren, err := client.GetOwnGodChildren(ctx, session)
	require.NoError(t, err)
	require.Empty(t, godChildren)

	// a revoked session no longer grants access
	_, err = client.CreateSession(ctx, &Credentials{
		Server:   ServerFr,
		Username: "elseabora",
		Password: "hunter2",
	})
	require.NoError(t, err)
	_, err = client.GetOwnItems(ctx, session)
	require.ErrorIs(t, err, ErrInvalidSessionCookie)
}

func TestMemClientForumThemes(t *testing.T) {
	ctx := context.Background()
	client := seedMemClient(t)
	client.CreateForumTheme(ServerFr, "3", "Discussions", "Parler de tout et de rien")

	themes, err := client.GetForumThemes(ctx, nil, ServerFr)
	require.NoError(t, err)
	require.Len(t, themes, 1)
	require.Equal(t, ForumThemeId("3"), themes[0].Id)

	// themes are per server
	themes, err = client.GetForumThemes(ctx, nil, ServerEs)
	require.NoError(t, err)
	require.Empty(t, themes)
}
