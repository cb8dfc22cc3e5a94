package hammerfest

import (
	"strings"
	"time"

	"etwin-backend/lib/htmlutil"
	"etwin-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
)

// Every Scrape* function is a pure function of the parsed document:
// no I/O, unit-testable against captured fixture pages. A nil record
// means "the page says the entity/session is absent", an error means
// "the page does not look like what we expected".

// IsLoginErrorPage reports whether a page is the login form re-rendered
// with its bad-credentials marker. The game answers wrong credentials
// with a plain 200, never an HTTP error.
func IsLoginErrorPage(doc *goquery.Document) bool {
	return len(doc.Find("div.loginError").Nodes) > 0
}

// ScrapeUserBase reads the signed-in account from the top bar present
// on every page. nil means the page renders as logged out.
func ScrapeUserBase(server Server, doc *goquery.Document) (*ShortUser, error) {
	bar, err := htmlutil.SelectOne(doc.Selection, "div#topMainBar", "top main bar")
	if err != nil {
		return nil, err
	}

	links := bar.Find("div.playerInfo a")
	if len(links.Nodes) == 0 {
		return nil, nil
	}
	if len(links.Nodes) > 1 {
		return nil, &htmlutil.NonUniqueError{Fragment: "player info link", Count: len(links.Nodes)}
	}

	user, err := userFromLink(server, links.First(), "player info link")
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// isEvni reports whether the page is the game's own 404 ("EVNI").
func isEvni(doc *goquery.Document) bool {
	return len(doc.Find("div.evni").Nodes) > 0
}

// questNames maps the French quest titles rendered on profile pages to
// their stable ids. The game offers no other way to identify a quest.
var questNames = map[string]QuestId{
	"Le pays de Hammerfest":                "1",
	"Premiers pas":                         "2",
	"L'aventure commence":                  "3",
	"Fervent pèlerin":                      "4",
	"Armageddon":                           "5",
	"Régime MotionTwin":                    "6",
	"Le pouvoir de la carotte":             "7",
	"Miam !":                               "8",
	"Festin de cristaux":                   "9",
	"Maître joaillier":                     "10",
	"Le grand ménage d'hiver":              "11",
	"La quête des constellations":          "12",
	"Pas op !":                             "13",
	"Un bon investissement":                "14",
	"Igor et Cortex":                       "15",
	"Mission secrète : sauver Tuber":       "16",
	"Le trésor de Tuberculoz":              "17",
	"Rigor Dangerous":                      "18",
	"Souffre-douleur":                      "19",
	"Toujours plus haut":                   "20",
}

func scrapeQuests(sel *goquery.Selection, selector string, status QuestStatus, out map[QuestId]QuestStatus) error {
	var inner error
	sel.Find(selector).EachWithBreak(func(_ int, quest *goquery.Selection) bool {
		name := htmlutil.CleanedText(quest)
		id, ok := questNames[name]
		if !ok {
			inner = &InvalidValueError{Kind: "quest name", Raw: name}
			return false
		}
		out[id] = status
		return true
	})
	return inner
}

// ScrapeProfile reads a public user page. nil means the game reports
// no user under that id.
func ScrapeProfile(server Server, userId UserId, doc *goquery.Document) (*Profile, error) {
	if isEvni(doc) {
		return nil, nil
	}

	root, err := htmlutil.SelectOne(doc.Selection, "div.profile", "profile block")
	if err != nil {
		return nil, err
	}

	usernameSel, err := htmlutil.SelectOne(root, "h2.username", "profile username")
	if err != nil {
		return nil, err
	}
	username, err := ParseUsername(htmlutil.CleanedText(usernameSel))
	if err != nil {
		return nil, err
	}

	bestScore, err := scrapeStat(root, "dd.score", "best score")
	if err != nil {
		return nil, err
	}
	bestLevel, err := scrapeStat(root, "dd.level", "best level")
	if err != nil {
		return nil, err
	}
	seasonScore, err := scrapeStat(root, "dd.seasonScore", "season score")
	if err != nil {
		return nil, err
	}

	rankSrc, err := htmlutil.SelectAttr(root, "img.rank", "src", "ladder rank image")
	if err != nil {
		return nil, err
	}
	rank, err := parseRankImg(rankSrc)
	if err != nil {
		return nil, err
	}

	var email *string
	emails := root.Find("dd.email")
	if len(emails.Nodes) > 1 {
		return nil, &htmlutil.NonUniqueError{Fragment: "profile email", Count: len(emails.Nodes)}
	}
	if len(emails.Nodes) == 1 {
		v := htmlutil.CleanedText(emails)
		email = &v
	}

	hallOfFame, err := scrapeHallOfFame(root)
	if err != nil {
		return nil, err
	}

	items := map[ItemId]struct{}{}
	var inner error
	root.Find("ul.items img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, err := htmlutil.AttrOf(img, "src", "profile item image")
		if err != nil {
			inner = err
			return false
		}
		groups := itemImgPattern.FindStringSubmatch(src)
		if groups == nil {
			inner = &InvalidValueError{Kind: "item image", Raw: src}
			return false
		}
		id, err := ParseItemId(groups[1])
		if err != nil {
			inner = err
			return false
		}
		items[id] = struct{}{}
		return true
	})
	if inner != nil {
		return nil, inner
	}

	quests := map[QuestId]QuestStatus{}
	if err := scrapeQuests(root, "div.quests ul.complete li", QuestComplete, quests); err != nil {
		return nil, err
	}
	if err := scrapeQuests(root, "div.quests ul.pending li", QuestPending, quests); err != nil {
		return nil, err
	}

	return &Profile{
		User:        ShortUser{Server: server, Id: userId, Username: username},
		Email:       email,
		BestScore:   bestScore,
		BestLevel:   bestLevel,
		HasCarrot:   len(root.Find("img.carrot").Nodes) > 0,
		SeasonScore: seasonScore,
		Rank:        rank,
		HallOfFame:  hallOfFame,
		Items:       items,
		Quests:      quests,
	}, nil
}

func scrapeStat(root *goquery.Selection, selector, fragment string) (uint32, error) {
	sel, err := htmlutil.SelectOne(root, selector, fragment)
	if err != nil {
		return 0, err
	}
	return parseCount(htmlutil.CleanedText(sel))
}

func scrapeHallOfFame(root *goquery.Selection) (*HallOfFameMessage, error) {
	blocks := root.Find("div.hallOfFame")
	if len(blocks.Nodes) == 0 {
		return nil, nil
	}
	if len(blocks.Nodes) > 1 {
		return nil, &htmlutil.NonUniqueError{Fragment: "hall of fame block", Count: len(blocks.Nodes)}
	}

	dateSel, err := htmlutil.SelectOne(blocks, "span.date", "hall of fame date")
	if err != nil {
		return nil, err
	}
	raw := htmlutil.CleanedText(dateSel)
	date, err := time.ParseInLocation("02/01/2006", raw, timezone.Location)
	if err != nil {
		return nil, &InvalidValueError{Kind: "hall of fame date", Raw: raw}
	}

	messageSel, err := htmlutil.SelectOne(blocks, "p.message", "hall of fame message")
	if err != nil {
		return nil, err
	}

	return &HallOfFameMessage{
		Date:    date,
		Message: htmlutil.CleanedText(messageSel),
	}, nil
}

// ScrapeInventory reads the signed-in inventory page. A nil map means
// the page renders as logged out.
func ScrapeInventory(server Server, doc *goquery.Document) (map[ItemId]uint32, error) {
	user, err := ScrapeUserBase(server, doc)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	table, err := htmlutil.SelectOne(doc.Selection, "table.inventory", "inventory table")
	if err != nil {
		return nil, err
	}

	items := map[ItemId]uint32{}
	var inner error
	table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		src, err := htmlutil.SelectAttr(row, "td.icon img", "src", "inventory item image")
		if err != nil {
			inner = err
			return false
		}
		groups := itemImgPattern.FindStringSubmatch(src)
		if groups == nil {
			inner = &InvalidValueError{Kind: "item image", Raw: src}
			return false
		}
		id, err := ParseItemId(groups[1])
		if err != nil {
			inner = err
			return false
		}

		qtySel, err := htmlutil.SelectOne(row, "td.qty", "inventory item count")
		if err != nil {
			inner = err
			return false
		}
		qty, err := parseCount(strings.TrimPrefix(htmlutil.CleanedText(qtySel), "x"))
		if err != nil {
			inner = err
			return false
		}

		items[id] = qty
		return true
	})
	if inner != nil {
		return nil, inner
	}
	return items, nil
}

// ScrapeShop reads the token counters off the shop page. nil means the
// page renders as logged out.
func ScrapeShop(server Server, doc *goquery.Document) (*Shop, error) {
	user, err := ScrapeUserBase(server, doc)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	root, err := htmlutil.SelectOne(doc.Selection, "div.shop", "shop block")
	if err != nil {
		return nil, err
	}

	tokensSel, err := htmlutil.SelectOne(root, "span.tokens", "shop tokens")
	if err != nil {
		return nil, err
	}
	tokens, err := parseCount(htmlutil.CleanedText(tokensSel))
	if err != nil {
		return nil, err
	}

	weeklySel, err := htmlutil.SelectOne(root, "span.weeklyTokens", "shop weekly tokens")
	if err != nil {
		return nil, err
	}
	weekly, err := parseCount(htmlutil.CleanedText(weeklySel))
	if err != nil {
		return nil, err
	}

	// only rendered for accounts that ever bought tokens
	var purchased *uint32
	purchasedSels := root.Find("span.purchasedTokens")
	if len(purchasedSels.Nodes) > 1 {
		return nil, &htmlutil.NonUniqueError{Fragment: "shop purchased tokens", Count: len(purchasedSels.Nodes)}
	}
	if len(purchasedSels.Nodes) == 1 {
		n, err := parseCount(htmlutil.CleanedText(purchasedSels))
		if err != nil {
			return nil, err
		}
		purchased = &n
	}

	return &Shop{
		Tokens:          tokens,
		WeeklyTokens:    weekly,
		PurchasedTokens: purchased,
		HasQuestBonus:   len(root.Find("div.questBonus").Nodes) > 0,
	}, nil
}

// ScrapeGodChildren reads the sponsorship page. A nil slice means the
// page renders as logged out; no god children is a non-nil empty slice.
func ScrapeGodChildren(server Server, doc *goquery.Document) ([]GodChild, error) {
	user, err := ScrapeUserBase(server, doc)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	table, err := htmlutil.SelectOne(doc.Selection, "table.godChildren", "god children table")
	if err != nil {
		return nil, err
	}

	godChildren := []GodChild{}
	var inner error
	table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		link, err := htmlutil.SelectOne(row, "td.user a", "god child link")
		if err != nil {
			inner = err
			return false
		}
		child, err := userFromLink(server, link, "god child link")
		if err != nil {
			inner = err
			return false
		}

		tokensSel, err := htmlutil.SelectOne(row, "td.tokens", "god child tokens")
		if err != nil {
			inner = err
			return false
		}
		tokens, err := parseCount(htmlutil.CleanedText(tokensSel))
		if err != nil {
			inner = err
			return false
		}

		godChildren = append(godChildren, GodChild{User: child, Tokens: tokens})
		return true
	})
	if inner != nil {
		return nil, inner
	}
	return godChildren, nil
}
