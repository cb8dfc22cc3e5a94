package dinoparc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func seedMemClient(t *testing.T) *MemClient {
	client := NewMemClient()
	require.NoError(t, client.CreateUser(ServerFr, "1941", "djtoph", "hunter2"))
	require.NoError(t, client.SetCoins(ServerFr, "1941", 2500))

	owner := ShortUser{Server: ServerFr, Id: "1941", Username: "djtoph"}
	require.NoError(t, client.CreateDinoz(ServerFr, Dinoz{
		ShortDinoz: ShortDinoz{Server: ServerFr, Id: "3453", Name: "Balboa"},
		Owner:      &owner,
		Race:       "Moueffe",
		Skin:       "Ac9OWnr8Yo5d",
		Life:       87,
		Level:      12,
		Skills:     map[string]uint8{"Force": 3},
	}))
	return client
}

func TestMemClientSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	client := seedMemClient(t)

	session, err := client.CreateSession(ctx, &Credentials{
		Server:   ServerFr,
		Username: "djtoph",
		Password: "hunter2",
	})
	require.NoError(t, err)
	require.Equal(t, UserId("1941"), session.User.Id)

	_, err = ParseSessionKey(session.Key.String())
	require.NoError(t, err)

	revalidated, err := client.TestSession(ctx, ServerFr, session.Key)
	require.NoError(t, err)
	require.NotNil(t, revalidated)
	require.Equal(t, session.User, revalidated.User)

	_, err = client.CreateSession(ctx, &Credentials{
		Server:   ServerFr,
		Username: "djtoph",
		Password: "wrong",
	})
	var invalid *InvalidCredentialsError
	require.ErrorAs(t, err, &invalid)
}

func TestMemClientGetBank(t *testing.T) {
	ctx := context.Background()
	client := seedMemClient(t)

	session, err := client.CreateSession(ctx, &Credentials{
		Server:   ServerFr,
		Username: "djtoph",
		Password: "hunter2",
	})
	require.NoError(t, err)

	bank, err := client.GetBank(ctx, session)
	require.NoError(t, err)
	require.Equal(t, uint32(2500), bank.Coins)
	require.Len(t, bank.Dinoz, 1)
	require.Equal(t, DinozId("3453"), bank.Dinoz[0].Id)
}

func TestMemClientGetDinoz(t *testing.T) {
	ctx := context.Background()
	client := seedMemClient(t)

	dinoz, err := client.GetDinoz(ctx, nil, &GetDinozOptions{Server: ServerFr, DinozId: "3453"})
	require.NoError(t, err)
	require.NotNil(t, dinoz)
	require.Equal(t, "Balboa", dinoz.Name)
	require.NotNil(t, dinoz.Owner)
	require.Equal(t, UserId("1941"), dinoz.Owner.Id)

	absent, err := client.GetDinoz(ctx, nil, &GetDinozOptions{Server: ServerFr, DinozId: "999"})
	require.NoError(t, err)
	require.Nil(t, absent)
}
