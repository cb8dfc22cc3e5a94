package hammerfest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseUserId(t *testing.T) {
	for _, raw := range []string{"1", "127", "999999999"} {
		id, err := ParseUserId(raw)
		require.NoError(t, err, raw)
		require.Equal(t, raw, id.String())
	}
	for _, raw := range []string{"", "0", "01", "1000000000", "-1", "abc"} {
		_, err := ParseUserId(raw)
		require.Error(t, err, raw)

		var invalid *InvalidValueError
		require.ErrorAs(t, err, &invalid)
	}
}

func TestParseUsername(t *testing.T) {
	for _, raw := range []string{"a", "elseabora", "Kissa2kiX", "123456789012"} {
		_, err := ParseUsername(raw)
		require.NoError(t, err, raw)
	}
	for _, raw := range []string{"", "1234567890123", "with space", "émile"} {
		_, err := ParseUsername(raw)
		require.Error(t, err, raw)
	}
}

func TestParseSessionKey(t *testing.T) {
	valid := "aaaabbbbccccddddeeeeffffgg"
	key, err := ParseSessionKey(valid)
	require.NoError(t, err)
	require.Equal(t, valid, key.String())

	for _, raw := range []string{
		"",
		"aaaabbbbccccddddeeeefffFgg",
		"aaaabbbbccccddddeeeeffffg",
		"aaaabbbbccccddddeeeeffffggg",
	} {
		_, err := ParseSessionKey(raw)
		require.Error(t, err, raw)
		// the raw value is a credential, it must not leak through the error
		if raw != "" {
			require.NotContains(t, err.Error(), raw)
		}
		require.Contains(t, err.Error(), "<redacted>")
	}
}

func TestSessionKeyRedacted(t *testing.T) {
	key, err := ParseSessionKey("aaaabbbbccccddddeeeeffffgg")
	require.NoError(t, err)

	redacted := key.Redacted()
	require.True(t, strings.HasPrefix(redacted, "aaaa"))
	require.NotContains(t, redacted, "bbbb")
}

func TestParseItemId(t *testing.T) {
	for _, raw := range []string{"0", "1", "1000", "9999"} {
		_, err := ParseItemId(raw)
		require.NoError(t, err, raw)
	}
	for _, raw := range []string{"", "00", "01", "10000", "-1"} {
		_, err := ParseItemId(raw)
		require.Error(t, err, raw)
	}
}

func TestParseForumIds(t *testing.T) {
	_, err := ParseForumThemeId("3")
	require.NoError(t, err)
	_, err = ParseForumThemeId("12")
	require.NoError(t, err)
	_, err = ParseForumThemeId("123")
	require.Error(t, err)

	_, err = ParseForumThreadId("123456789")
	require.NoError(t, err)
	_, err = ParseForumThreadId("1234567890")
	require.Error(t, err)

	_, err = ParseForumPostId("987654321")
	require.NoError(t, err)
	_, err = ParseForumPostId("")
	require.Error(t, err)
}

func TestParseServer(t *testing.T) {
	for _, raw := range []string{"hammerfest.fr", "hfest.net", "hammerfest.es"} {
		server, err := ParseServer(raw)
		require.NoError(t, err)
		require.Equal(t, raw, server.String())
	}
	_, err := ParseServer("hammerfest.com")
	require.Error(t, err)
}
