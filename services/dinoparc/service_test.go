package dinoparc

import (
	"context"
	"testing"
	"time"

	dplib "etwin-backend/lib/dinoparc"
	"etwin-backend/lib/etwinstore"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	service Service
	client  *dplib.MemClient
	store   *etwinstore.MemDinoparcStore
	etwin   *etwinstore.MemEtwinStore
}

func setup(t *testing.T) fixture {
	client := dplib.NewMemClient()
	require.NoError(t, client.CreateUser(dplib.ServerFr, "1941", "djtoph", "hunter2"))

	store := etwinstore.NewMemDinoparcStore()
	etwinStore := etwinstore.NewMemEtwinStore()

	return fixture{
		service: NewService(client, store, etwinStore, etwinStore),
		client:  client,
		store:   store,
		etwin:   etwinStore,
	}
}

func TestGetUserNeverObserved(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	// the account exists in the game but no session ever observed it,
	// and there is no public page to fetch
	user, err := f.service.GetUser(ctx, &GetUserOptions{Server: dplib.ServerFr, Id: "1941"})
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestSessionObservationArchivesUser(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	session, err := f.service.CreateSession(ctx, &dplib.Credentials{
		Server:   dplib.ServerFr,
		Username: "djtoph",
		Password: "hunter2",
	})
	require.NoError(t, err)
	require.Equal(t, dplib.UserId("1941"), session.User.Id)

	user, err := f.service.GetUser(ctx, &GetUserOptions{Server: dplib.ServerFr, Id: "1941"})
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, dplib.Username("djtoph"), user.Username)
}

func TestGetUserAsOfPast(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.service.CreateSession(ctx, &dplib.Credentials{
		Server:   dplib.ServerFr,
		Username: "djtoph",
		Password: "hunter2",
	})
	require.NoError(t, err)

	// before the first session observation the account is absent
	past := time.Now().Add(-time.Hour)
	user, err := f.service.GetUser(ctx, &GetUserOptions{Server: dplib.ServerFr, Id: "1941", Time: &past})
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestLinkRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	alice, err := f.etwin.CreateUser(ctx, "Alice")
	require.NoError(t, err)

	_, err = f.service.CreateSession(ctx, &dplib.Credentials{
		Server:   dplib.ServerFr,
		Username: "djtoph",
		Password: "hunter2",
	})
	require.NoError(t, err)

	link, err := f.service.TouchLink(ctx, &TouchLinkOptions{
		Server:   dplib.ServerFr,
		Id:       "1941",
		Etwin:    alice.Id,
		LinkedBy: alice.Id,
	})
	require.NoError(t, err)
	require.NotNil(t, link.Current)
	require.Equal(t, "Alice", link.Current.User.DisplayName)

	user, err := f.service.GetUser(ctx, &GetUserOptions{Server: dplib.ServerFr, Id: "1941"})
	require.NoError(t, err)
	require.NotNil(t, user.Etwin.Current)
	require.Equal(t, alice.Id, user.Etwin.Current.User.Id)

	link, err = f.service.DeleteLink(ctx, &DeleteLinkOptions{
		Server:     dplib.ServerFr,
		Id:         "1941",
		UnlinkedBy: alice.Id,
	})
	require.NoError(t, err)
	require.Nil(t, link.Current)
	require.Len(t, link.Old, 1)
}

func TestGetDinoz(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	owner := dplib.ShortUser{Server: dplib.ServerFr, Id: "1941", Username: "djtoph"}
	require.NoError(t, f.client.CreateDinoz(dplib.ServerFr, dplib.Dinoz{
		ShortDinoz: dplib.ShortDinoz{Server: dplib.ServerFr, Id: "3453", Name: "Balboa"},
		Owner:      &owner,
		Race:       "Moueffe",
	}))

	dinoz, err := f.service.GetDinoz(ctx, nil, &dplib.GetDinozOptions{
		Server:  dplib.ServerFr,
		DinozId: "3453",
	})
	require.NoError(t, err)
	require.NotNil(t, dinoz)
	require.Equal(t, "Balboa", dinoz.Name)

	absent, err := f.service.GetDinoz(ctx, nil, &dplib.GetDinozOptions{
		Server:  dplib.ServerFr,
		DinozId: "404",
	})
	require.NoError(t, err)
	require.Nil(t, absent)
}
