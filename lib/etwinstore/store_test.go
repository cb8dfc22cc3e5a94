package etwinstore

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"etwin-backend/lib/dinoparc"
	"etwin-backend/lib/etwin"
	"etwin-backend/lib/etwinstore/db"
	"etwin-backend/lib/hammerfest"

	"github.com/stretchr/testify/require"
)

type storeSet struct {
	hammerfest hammerfest.Store
	dinoparc   dinoparc.Store
	users      etwin.UserStore
	links      etwin.LinkStore
}

func openTestDB(t *testing.T) *sql.DB {
	database, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	database.SetMaxOpenConns(1)
	_, err = database.Exec(db.Schema)
	require.NoError(t, err)
	return database
}

func storeBackends(t *testing.T) map[string]storeSet {
	mem := NewMemEtwinStore()
	database := openTestDB(t)
	sqlite := NewSqliteEtwinStore(database)

	return map[string]storeSet{
		"memory": {
			hammerfest: NewMemHammerfestStore(),
			dinoparc:   NewMemDinoparcStore(),
			users:      mem,
			links:      mem,
		},
		"sqlite": {
			hammerfest: NewSqliteHammerfestStore(database),
			dinoparc:   NewSqliteDinoparcStore(database),
			users:      sqlite,
			links:      sqlite,
		},
	}
}

func TestTouchShortUser(t *testing.T) {
	ctx := context.Background()

	for name, stores := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			absent, err := stores.hammerfest.GetShortUser(ctx, &hammerfest.GetUserOptions{
				Server: hammerfest.ServerFr,
				Id:     "127",
			})
			require.NoError(t, err)
			require.Nil(t, absent)

			_, err = stores.hammerfest.TouchShortUser(ctx, &hammerfest.ShortUser{
				Server:   hammerfest.ServerFr,
				Id:       "127",
				Username: "elseabora",
			})
			require.NoError(t, err)

			found, err := stores.hammerfest.GetShortUser(ctx, &hammerfest.GetUserOptions{
				Server: hammerfest.ServerFr,
				Id:     "127",
			})
			require.NoError(t, err)
			require.NotNil(t, found)
			require.Equal(t, hammerfest.Username("elseabora"), found.Username)

			// a rename is just a later observation of the same account
			_, err = stores.hammerfest.TouchShortUser(ctx, &hammerfest.ShortUser{
				Server:   hammerfest.ServerFr,
				Id:       "127",
				Username: "renamed",
			})
			require.NoError(t, err)

			found, err = stores.hammerfest.GetShortUser(ctx, &hammerfest.GetUserOptions{
				Server: hammerfest.ServerFr,
				Id:     "127",
			})
			require.NoError(t, err)
			require.Equal(t, hammerfest.Username("renamed"), found.Username)

			// same id on another server is a different account
			other, err := stores.hammerfest.GetShortUser(ctx, &hammerfest.GetUserOptions{
				Server: hammerfest.ServerEs,
				Id:     "127",
			})
			require.NoError(t, err)
			require.Nil(t, other)
		})
	}
}

func TestShortUserAsOfTime(t *testing.T) {
	ctx := context.Background()

	for name, stores := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := stores.hammerfest.TouchShortUser(ctx, &hammerfest.ShortUser{
				Server:   hammerfest.ServerFr,
				Id:       "127",
				Username: "elseabora",
			})
			require.NoError(t, err)

			// before the first observation the account is absent
			past := time.Now().Add(-time.Hour)
			absent, err := stores.hammerfest.GetShortUser(ctx, &hammerfest.GetUserOptions{
				Server: hammerfest.ServerFr,
				Id:     "127",
				Time:   &past,
			})
			require.NoError(t, err)
			require.Nil(t, absent)

			// any later instant sees the observation
			future := time.Now().Add(time.Hour)
			found, err := stores.hammerfest.GetShortUser(ctx, &hammerfest.GetUserOptions{
				Server: hammerfest.ServerFr,
				Id:     "127",
				Time:   &future,
			})
			require.NoError(t, err)
			require.NotNil(t, found)
			require.Equal(t, hammerfest.Username("elseabora"), found.Username)
		})
	}
}

func TestGetShortUserBeforeCreation(t *testing.T) {
	ctx := context.Background()

	for name, stores := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			alice, err := stores.users.CreateUser(ctx, "Alice")
			require.NoError(t, err)

			short, err := stores.users.GetShortUser(ctx, alice.Id, nil)
			require.NoError(t, err)
			require.Equal(t, "Alice", short.DisplayName)

			// the user did not exist yet at a past instant
			past := time.Now().Add(-time.Hour)
			_, err = stores.users.GetShortUser(ctx, alice.Id, &past)
			require.ErrorIs(t, err, etwin.ErrUserNotFound)
		})
	}
}

func TestLinkLifecycle(t *testing.T) {
	ctx := context.Background()

	for name, stores := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			alice, err := stores.users.CreateUser(ctx, "Alice")
			require.NoError(t, err)
			bob, err := stores.users.CreateUser(ctx, "Bob")
			require.NoError(t, err)

			remote := hammerfest.UserIdRef{Server: hammerfest.ServerFr, Id: "127"}

			// no link yet
			links, err := stores.links.GetLinkFromHammerfest(ctx, &etwin.GetLinkOptions[hammerfest.UserIdRef]{Remote: remote})
			require.NoError(t, err)
			require.Nil(t, links.Current)
			require.Empty(t, links.Old)

			links, err = stores.links.TouchHammerfestLink(ctx, &etwin.TouchLinkOptions[hammerfest.UserIdRef]{
				Etwin:    alice.Id,
				Remote:   remote,
				LinkedBy: alice.Id,
			})
			require.NoError(t, err)
			require.NotNil(t, links.Current)
			require.Equal(t, alice.Id, links.Current.Etwin)
			require.Equal(t, alice.Id, links.Current.Link.User)

			// touching the same pair again is idempotent
			links, err = stores.links.TouchHammerfestLink(ctx, &etwin.TouchLinkOptions[hammerfest.UserIdRef]{
				Etwin:    alice.Id,
				Remote:   remote,
				LinkedBy: alice.Id,
			})
			require.NoError(t, err)
			require.NotNil(t, links.Current)
			require.Empty(t, links.Old)

			// linking the same account to another user is a conflict
			_, err = stores.links.TouchHammerfestLink(ctx, &etwin.TouchLinkOptions[hammerfest.UserIdRef]{
				Etwin:    bob.Id,
				Remote:   remote,
				LinkedBy: bob.Id,
			})
			require.ErrorIs(t, err, etwin.ErrLinkConflict)

			links, err = stores.links.DeleteHammerfestLink(ctx, &etwin.DeleteLinkOptions[hammerfest.UserIdRef]{
				Remote:     remote,
				UnlinkedBy: alice.Id,
			})
			require.NoError(t, err)
			require.Nil(t, links.Current)
			require.Len(t, links.Old, 1)
			require.Equal(t, alice.Id, links.Old[0].Etwin)
			require.Equal(t, alice.Id, links.Old[0].Unlink.User)

			_, err = stores.links.DeleteHammerfestLink(ctx, &etwin.DeleteLinkOptions[hammerfest.UserIdRef]{
				Remote:     remote,
				UnlinkedBy: alice.Id,
			})
			require.ErrorIs(t, err, etwin.ErrLinkNotFound)

			// the account is free for bob now
			links, err = stores.links.TouchHammerfestLink(ctx, &etwin.TouchLinkOptions[hammerfest.UserIdRef]{
				Etwin:    bob.Id,
				Remote:   remote,
				LinkedBy: bob.Id,
			})
			require.NoError(t, err)
			require.NotNil(t, links.Current)
			require.Equal(t, bob.Id, links.Current.Etwin)
			require.Len(t, links.Old, 1)
		})
	}
}

func TestLinkAsOfTime(t *testing.T) {
	ctx := context.Background()

	for name, stores := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			alice, err := stores.users.CreateUser(ctx, "Alice")
			require.NoError(t, err)

			remote := hammerfest.UserIdRef{Server: hammerfest.ServerFr, Id: "651"}
			_, err = stores.links.TouchHammerfestLink(ctx, &etwin.TouchLinkOptions[hammerfest.UserIdRef]{
				Etwin:    alice.Id,
				Remote:   remote,
				LinkedBy: alice.Id,
			})
			require.NoError(t, err)

			// before the link existed
			past := time.Now().Add(-time.Hour)
			links, err := stores.links.GetLinkFromHammerfest(ctx, &etwin.GetLinkOptions[hammerfest.UserIdRef]{
				Remote: remote,
				Time:   &past,
			})
			require.NoError(t, err)
			require.Nil(t, links.Current)
			require.Empty(t, links.Old)

			// severing moves the link into history for any later as-of
			_, err = stores.links.DeleteHammerfestLink(ctx, &etwin.DeleteLinkOptions[hammerfest.UserIdRef]{
				Remote:     remote,
				UnlinkedBy: alice.Id,
			})
			require.NoError(t, err)

			future := time.Now().Add(time.Hour)
			links, err = stores.links.GetLinkFromHammerfest(ctx, &etwin.GetLinkOptions[hammerfest.UserIdRef]{
				Remote: remote,
				Time:   &future,
			})
			require.NoError(t, err)
			require.Nil(t, links.Current)
			require.Len(t, links.Old, 1)
			require.Equal(t, alice.Id, links.Old[0].Etwin)
		})
	}
}

func TestTouchLinkUnknownUser(t *testing.T) {
	ctx := context.Background()

	for name, stores := range storeBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := stores.links.TouchDinoparcLink(ctx, &etwin.TouchLinkOptions[dinoparc.UserIdRef]{
				Etwin:    etwin.NewUserId(),
				Remote:   dinoparc.UserIdRef{Server: dinoparc.ServerFr, Id: "1941"},
				LinkedBy: etwin.NewUserId(),
			})
			require.ErrorIs(t, err, etwin.ErrBrokenLink)
		})
	}
}
