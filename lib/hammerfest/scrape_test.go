package hammerfest

import (
	"bytes"
	_ "embed"
	"testing"
	"time"

	"etwin-backend/lib/htmlutil"
	"etwin-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/root_signed_in.html
var rootSignedInHtml []byte

//go:embed testdata/root_signed_out.html
var rootSignedOutHtml []byte

//go:embed testdata/root_two_anchors.html
var rootTwoAnchorsHtml []byte

//go:embed testdata/login_error.html
var loginErrorHtml []byte

//go:embed testdata/profile.html
var profileHtml []byte

//go:embed testdata/profile_evni.html
var profileEvniHtml []byte

//go:embed testdata/inventory.html
var inventoryHtml []byte

//go:embed testdata/shop.html
var shopHtml []byte

//go:embed testdata/godchildren.html
var godChildrenHtml []byte

//go:embed testdata/forum_home.html
var forumHomeHtml []byte

//go:embed testdata/forum_theme.html
var forumThemeHtml []byte

//go:embed testdata/forum_thread.html
var forumThreadHtml []byte

func parseFixture(t *testing.T, raw []byte) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(raw))
	require.NoError(t, err)
	return doc
}

func TestScrapeUserBase(t *testing.T) {
	user, err := ScrapeUserBase(ServerFr, parseFixture(t, rootSignedInHtml))
	require.NoError(t, err)
	require.NotNil(t, user)
	require.Equal(t, ShortUser{
		Server:   ServerFr,
		Id:       "127",
		Username: "elseabora",
	}, *user)
}

func TestScrapeUserBaseSignedOut(t *testing.T) {
	user, err := ScrapeUserBase(ServerFr, parseFixture(t, rootSignedOutHtml))
	require.NoError(t, err)
	require.Nil(t, user)
}

func TestScrapeUserBaseTwoAnchors(t *testing.T) {
	_, err := ScrapeUserBase(ServerFr, parseFixture(t, rootTwoAnchorsHtml))
	require.Error(t, err)

	var nonUnique *htmlutil.NonUniqueError
	require.ErrorAs(t, err, &nonUnique)
	require.Equal(t, 2, nonUnique.Count)
}

func TestScrapeUserBaseMissingBar(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBufferString("<html><body></body></html>"))
	require.NoError(t, err)

	_, err = ScrapeUserBase(ServerFr, doc)
	require.Error(t, err)

	var nonUnique *htmlutil.NonUniqueError
	require.ErrorAs(t, err, &nonUnique)
	require.Equal(t, 0, nonUnique.Count)
}

func TestIsLoginErrorPage(t *testing.T) {
	// wrong credentials re-render the form with the error marker
	require.True(t, IsLoginErrorPage(parseFixture(t, loginErrorHtml)))
	require.False(t, IsLoginErrorPage(parseFixture(t, rootSignedOutHtml)))
	require.False(t, IsLoginErrorPage(parseFixture(t, rootSignedInHtml)))
}

func TestScrapeProfile(t *testing.T) {
	profile, err := ScrapeProfile(ServerFr, "127", parseFixture(t, profileHtml))
	require.NoError(t, err)
	require.NotNil(t, profile)

	email := "elseabora@example.com"
	expected := Profile{
		User:        ShortUser{Server: ServerFr, Id: "127", Username: "elseabora"},
		Email:       &email,
		BestScore:   13416310,
		BestLevel:   112,
		HasCarrot:   true,
		SeasonScore: 841480,
		Rank:        2,
		HallOfFame: &HallOfFameMessage{
			Date:    time.Date(2010, time.May, 21, 0, 0, 0, 0, timezone.Location),
			Message: "Premier !",
		},
		Items: map[ItemId]struct{}{
			"1000": {},
			"112":  {},
			"0":    {},
		},
		Quests: map[QuestId]QuestStatus{
			"1": QuestComplete,
			"8": QuestComplete,
			"5": QuestPending,
		},
	}
	if diff := cmp.Diff(expected, *profile); diff != "" {
		t.Fatalf("profile mismatch (-want +got):\n%s", diff)
	}
}

func TestScrapeProfileEvni(t *testing.T) {
	profile, err := ScrapeProfile(ServerFr, "9999", parseFixture(t, profileEvniHtml))
	require.NoError(t, err)
	require.Nil(t, profile)
}

func TestScrapeInventory(t *testing.T) {
	items, err := ScrapeInventory(ServerFr, parseFixture(t, inventoryHtml))
	require.NoError(t, err)
	require.Equal(t, map[ItemId]uint32{"1000": 3, "112": 1}, items)
}

func TestScrapeInventorySignedOut(t *testing.T) {
	items, err := ScrapeInventory(ServerFr, parseFixture(t, rootSignedOutHtml))
	require.NoError(t, err)
	require.Nil(t, items)
}

func TestScrapeShop(t *testing.T) {
	shop, err := ScrapeShop(ServerFr, parseFixture(t, shopHtml))
	require.NoError(t, err)
	require.NotNil(t, shop)

	purchased := uint32(1200)
	require.Equal(t, Shop{
		Tokens:          539,
		WeeklyTokens:    12,
		PurchasedTokens: &purchased,
		HasQuestBonus:   true,
	}, *shop)
}

func TestScrapeGodChildren(t *testing.T) {
	godChildren, err := ScrapeGodChildren(ServerFr, parseFixture(t, godChildrenHtml))
	require.NoError(t, err)
	require.Equal(t, []GodChild{
		{User: ShortUser{Server: ServerFr, Id: "651", Username: "moulins"}, Tokens: 10},
		{User: ShortUser{Server: ServerFr, Id: "7010", Username: "Kissa2kiX"}, Tokens: 0},
	}, godChildren)
}

func TestScrapeForumThemes(t *testing.T) {
	themes, err := ScrapeForumThemes(ServerFr, parseFixture(t, forumHomeHtml))
	require.NoError(t, err)
	require.Equal(t, []ForumTheme{
		{
			ShortForumTheme: ShortForumTheme{Server: ServerFr, Id: "3", Name: "Discussions"},
			Description:     "Parler de tout et de rien",
		},
		{
			ShortForumTheme: ShortForumTheme{Server: ServerFr, Id: "5", Name: "Aide aux joueurs"},
			Description:     "Questions sur le jeu",
		},
	}, themes)
}

func TestScrapeForumTheme(t *testing.T) {
	page, err := ScrapeForumTheme(ServerFr, parseFixture(t, forumThemeHtml))
	require.NoError(t, err)
	require.NotNil(t, page)

	require.Equal(t, ShortForumTheme{Server: ServerFr, Id: "3", Name: "Discussions"}, page.Theme)

	require.Len(t, page.Sticky, 1)
	require.Equal(t, ForumThreadId("101"), page.Sticky[0].Id)
	require.True(t, page.Sticky[0].IsSticky)
	require.False(t, page.Sticky[0].IsClosed)

	require.Equal(t, uint32(1), page.Threads.Page1)
	require.Equal(t, uint32(3), page.Threads.Pages)
	require.Len(t, page.Threads.Items, 2)

	first := page.Threads.Items[0]
	require.Equal(t, ForumThread{
		ShortForumThread: ShortForumThread{Server: ServerFr, Id: "123", Name: "Le grand concours"},
		Author:           ShortUser{Server: ServerFr, Id: "127", Username: "elseabora"},
		LastMessageDate:  ForumDate{Month: 5, Day: 21, Weekday: 7, Hour: 14, Minute: 36},
		ReplyCount:       1042,
		IsSticky:         false,
		IsClosed:         false,
	}, first)

	require.True(t, page.Threads.Items[1].IsClosed)
}

func TestScrapeForumThread(t *testing.T) {
	page, err := ScrapeForumThread(ServerFr, "123", parseFixture(t, forumThreadHtml))
	require.NoError(t, err)
	require.NotNil(t, page)

	require.Equal(t, ShortForumTheme{Server: ServerFr, Id: "3", Name: "Discussions"}, page.Theme)
	require.Equal(t, ShortForumThread{Server: ServerFr, Id: "123", Name: "Le grand concours"}, page.Thread)

	require.Equal(t, uint32(2), page.Messages.Page1)
	require.Equal(t, uint32(3), page.Messages.Pages)
	require.Len(t, page.Messages.Items, 2)

	first := page.Messages.Items[0]
	require.NotNil(t, first.Id)
	require.Equal(t, ForumPostId("789"), *first.Id)
	require.Equal(t, RoleModerator, first.Author.Role)
	require.True(t, first.Author.HasCarrot)
	require.Equal(t, uint8(0), first.Author.Rank)
	require.Equal(t, ForumDate{Month: 5, Day: 22, Weekday: 1, Hour: 10, Minute: 1}, first.CTime)
	require.Equal(t, "Le concours commence aujourd'hui !", first.Content)

	second := page.Messages.Items[1]
	require.Nil(t, second.Id)
	require.Equal(t, RoleNone, second.Author.Role)
	require.False(t, second.Author.HasCarrot)
	require.Equal(t, ShortUser{Server: ServerFr, Id: "127", Username: "elseabora"}, second.Author.ShortUser)
}

func TestScrapeForumThreadIdMismatch(t *testing.T) {
	_, err := ScrapeForumThread(ServerFr, "456", parseFixture(t, forumThreadHtml))
	require.Error(t, err)

	var invalid *InvalidValueError
	require.ErrorAs(t, err, &invalid)
}

func TestParseCount(t *testing.T) {
	cases := map[string]uint32{
		"0":          0,
		"42":         42,
		"13 416 310": 13416310,
		"1 042":      1042,
	}
	for raw, expected := range cases {
		n, err := parseCount(raw)
		require.NoError(t, err, raw)
		require.Equal(t, expected, n, raw)
	}

	for _, raw := range []string{"", "-1", "12a", "4294967296"} {
		_, err := parseCount(raw)
		require.Error(t, err, raw)
	}
}

func TestParseForumDate(t *testing.T) {
	date, err := parseForumDate("Dim 21/05 à 14:36")
	require.NoError(t, err)
	require.Equal(t, ForumDate{Month: 5, Day: 21, Weekday: 7, Hour: 14, Minute: 36}, date)

	for _, raw := range []string{
		"",
		"Xyz 21/05 à 14:36",
		"Dim 32/05 à 14:36",
		"Dim 21/13 à 14:36",
		"Dim 21/05 à 24:00",
	} {
		_, err := parseForumDate(raw)
		require.Error(t, err, raw)
	}
}
