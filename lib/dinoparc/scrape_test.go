package dinoparc

import (
	"bytes"
	_ "embed"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/bank.html
var bankHtml []byte

//go:embed testdata/bank_signed_out.html
var bankSignedOutHtml []byte

//go:embed testdata/login_error.html
var loginErrorHtml []byte

//go:embed testdata/dinoz.html
var dinozHtml []byte

//go:embed testdata/dinoz_unknown.html
var dinozUnknownHtml []byte

func parseFixture(t *testing.T, raw []byte) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(raw))
	require.NoError(t, err)
	return doc
}

func TestScrapeBank(t *testing.T) {
	bank, err := ScrapeBank(ServerFr, parseFixture(t, bankHtml))
	require.NoError(t, err)
	require.NotNil(t, bank)

	expected := BankPage{
		User:  ShortUser{Server: ServerFr, Id: "1941", Username: "djtoph"},
		Coins: 2500,
		Dinoz: []ShortDinoz{
			{Server: ServerFr, Id: "3453", Name: "Balboa"},
			{Server: ServerFr, Id: "3661", Name: "Smiley"},
		},
	}
	if diff := cmp.Diff(expected, *bank); diff != "" {
		t.Fatalf("bank mismatch (-want +got):\n%s", diff)
	}
}

func TestScrapeBankSignedOut(t *testing.T) {
	bank, err := ScrapeBank(ServerFr, parseFixture(t, bankSignedOutHtml))
	require.NoError(t, err)
	require.Nil(t, bank)
}

func TestIsLoginErrorPage(t *testing.T) {
	// wrong credentials re-render the form with the error marker
	require.True(t, IsLoginErrorPage(parseFixture(t, loginErrorHtml)))
	require.False(t, IsLoginErrorPage(parseFixture(t, bankSignedOutHtml)))
	require.False(t, IsLoginErrorPage(parseFixture(t, bankHtml)))
}

func TestScrapeDinoz(t *testing.T) {
	dinoz, err := ScrapeDinoz(ServerFr, "3453", parseFixture(t, dinozHtml))
	require.NoError(t, err)
	require.NotNil(t, dinoz)

	owner := ShortUser{Server: ServerFr, Id: "1941", Username: "djtoph"}
	expected := Dinoz{
		ShortDinoz:   ShortDinoz{Server: ServerFr, Id: "3453", Name: "Balboa"},
		Owner:        &owner,
		Race:         "Moueffe",
		Skin:         "Ac9OWnr8Yo5d",
		Life:         87,
		Level:        12,
		Experience:   45,
		Danger:       -3,
		InTournament: false,
		Elements:     Elements{Fire: 10, Earth: 2, Water: 0, Thunder: 4, Air: 1},
		Skills:       map[string]uint8{"Force": 3, "Camouflage": 1},
	}
	if diff := cmp.Diff(expected, *dinoz); diff != "" {
		t.Fatalf("dinoz mismatch (-want +got):\n%s", diff)
	}
}

func TestScrapeDinozUnknown(t *testing.T) {
	dinoz, err := ScrapeDinoz(ServerFr, "999999", parseFixture(t, dinozUnknownHtml))
	require.NoError(t, err)
	require.Nil(t, dinoz)
}

func TestParseIds(t *testing.T) {
	_, err := ParseUsername("djtoph")
	require.NoError(t, err)
	_, err = ParseUsername("with-dash")
	require.NoError(t, err)
	_, err = ParseUsername("fifteen-chars-x")
	require.Error(t, err)

	_, err = ParseUserId("1941")
	require.NoError(t, err)
	_, err = ParseUserId("0")
	require.Error(t, err)

	// dinoparc keys are 32 chars, not 26 like hammerfest
	_, err = ParseSessionKey("aaaabbbbccccddddeeeeffffgggghhhh")
	require.NoError(t, err)
	_, err = ParseSessionKey("aaaabbbbccccddddeeeeffffgg")
	require.Error(t, err)
}
