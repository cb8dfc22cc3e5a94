package hammerfest

import (
	"context"
	"testing"
	"time"

	"etwin-backend/lib/etwin"
	"etwin-backend/lib/etwinstore"
	hflib "etwin-backend/lib/hammerfest"

	"github.com/stretchr/testify/require"
)

// countingClient tracks how often the service reaches for the network.
type countingClient struct {
	hflib.Client
	profileCalls int
}

func (c *countingClient) GetProfileById(ctx context.Context, session *hflib.Session, options *hflib.GetProfileByIdOptions) (*hflib.Profile, error) {
	c.profileCalls++
	return c.Client.GetProfileById(ctx, session, options)
}

type fixture struct {
	service Service
	client  *countingClient
	store   *etwinstore.MemHammerfestStore
	etwin   *etwinstore.MemEtwinStore
}

func setup(t *testing.T) fixture {
	mem := hflib.NewMemClient()
	require.NoError(t, mem.CreateUser(hflib.ServerFr, "127", "elseabora", "hunter2"))

	client := &countingClient{Client: mem}
	store := etwinstore.NewMemHammerfestStore()
	etwinStore := etwinstore.NewMemEtwinStore()

	return fixture{
		service: NewService(client, store, etwinStore, etwinStore),
		client:  client,
		store:   store,
		etwin:   etwinStore,
	}
}

func TestGetUserUnknownEverywhere(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	user, err := f.service.GetUser(ctx, &GetUserOptions{Server: hflib.ServerFr, Id: "999"})
	require.NoError(t, err)
	require.Nil(t, user)
	require.Equal(t, 1, f.client.profileCalls)
}

func TestGetUserRemoteFallback(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	user, err := f.service.GetUser(ctx, &GetUserOptions{Server: hflib.ServerFr, Id: "127"})
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, hflib.Username("elseabora"), user.Username)
	require.Nil(t, user.Etwin.Current)
	require.Equal(t, 1, f.client.profileCalls)

	// the fetch archived the account
	short, err := f.store.GetShortUser(ctx, &hflib.GetUserOptions{Server: hflib.ServerFr, Id: "127"})
	require.NoError(t, err)
	require.NotNil(t, short)

	// a second read is answered from the archive alone
	user, err = f.service.GetUser(ctx, &GetUserOptions{Server: hflib.ServerFr, Id: "127"})
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, 1, f.client.profileCalls)
}

func TestGetUserFromArchiveOnly(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.store.TouchShortUser(ctx, &hflib.ShortUser{
		Server:   hflib.ServerFr,
		Id:       "651",
		Username: "moulins",
	})
	require.NoError(t, err)

	user, err := f.service.GetUser(ctx, &GetUserOptions{Server: hflib.ServerFr, Id: "651"})
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, hflib.Username("moulins"), user.Username)
	require.Equal(t, 0, f.client.profileCalls)
}

func TestGetUserAsOfPast(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	// archive the account now
	user, err := f.service.GetUser(ctx, &GetUserOptions{Server: hflib.ServerFr, Id: "127"})
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, 1, f.client.profileCalls)

	// at an instant before the first observation the account is absent,
	// and a past query never reaches for the network
	past := time.Now().Add(-time.Hour)
	user, err = f.service.GetUser(ctx, &GetUserOptions{Server: hflib.ServerFr, Id: "127", Time: &past})
	require.NoError(t, err)
	require.Nil(t, user)
	require.Equal(t, 1, f.client.profileCalls)

	user, err = f.service.GetUser(ctx, &GetUserOptions{Server: hflib.ServerFr, Id: "999", Time: &past})
	require.NoError(t, err)
	require.Nil(t, user)
	require.Equal(t, 1, f.client.profileCalls)
}

func TestLinkRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	alice, err := f.etwin.CreateUser(ctx, "Alice")
	require.NoError(t, err)

	// archive the account, then bind it
	_, err = f.service.GetUser(ctx, &GetUserOptions{Server: hflib.ServerFr, Id: "127"})
	require.NoError(t, err)

	link, err := f.service.TouchLink(ctx, &TouchLinkOptions{
		Server:   hflib.ServerFr,
		Id:       "127",
		Etwin:    alice.Id,
		LinkedBy: alice.Id,
	})
	require.NoError(t, err)
	require.NotNil(t, link.Current)
	require.Equal(t, "Alice", link.Current.User.DisplayName)
	require.Equal(t, "Alice", link.Current.Link.User.DisplayName)

	user, err := f.service.GetUser(ctx, &GetUserOptions{Server: hflib.ServerFr, Id: "127"})
	require.NoError(t, err)
	require.NotNil(t, user.Etwin.Current)
	require.Equal(t, alice.Id, user.Etwin.Current.User.Id)

	link, err = f.service.DeleteLink(ctx, &DeleteLinkOptions{
		Server:     hflib.ServerFr,
		Id:         "127",
		UnlinkedBy: alice.Id,
	})
	require.NoError(t, err)
	require.Nil(t, link.Current)
	require.Len(t, link.Old, 1)
	require.Equal(t, "Alice", link.Old[0].Unlink.User.DisplayName)
}

func TestTouchLinkUnknownAccount(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	alice, err := f.etwin.CreateUser(ctx, "Alice")
	require.NoError(t, err)

	_, err = f.service.TouchLink(ctx, &TouchLinkOptions{
		Server:   hflib.ServerFr,
		Id:       "999",
		Etwin:    alice.Id,
		LinkedBy: alice.Id,
	})
	require.ErrorIs(t, err, etwin.ErrBrokenLink)
}

func TestCreateSessionArchivesUser(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	session, err := f.service.CreateSession(ctx, &hflib.Credentials{
		Server:   hflib.ServerFr,
		Username: "elseabora",
		Password: "hunter2",
	})
	require.NoError(t, err)
	require.Equal(t, hflib.UserId("127"), session.User.Id)

	short, err := f.store.GetShortUser(ctx, &hflib.GetUserOptions{Server: hflib.ServerFr, Id: "127"})
	require.NoError(t, err)
	require.NotNil(t, short)
	require.Equal(t, hflib.Username("elseabora"), short.Username)

	// an invalidated key reads as no session, not an error
	fresh, err := f.service.CreateSession(ctx, &hflib.Credentials{
		Server:   hflib.ServerFr,
		Username: "elseabora",
		Password: "hunter2",
	})
	require.NoError(t, err)

	stale, err := f.service.TestSession(ctx, hflib.ServerFr, session.Key)
	require.NoError(t, err)
	require.Nil(t, stale)

	active, err := f.service.TestSession(ctx, hflib.ServerFr, fresh.Key)
	require.NoError(t, err)
	require.NotNil(t, active)
}
