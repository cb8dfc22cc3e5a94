package dinoparc

import (
	"regexp"
	"strconv"
	"strings"

	"etwin-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var (
	userLinkPattern  = regexp.MustCompile(`^/user/([0-9]+)$`)
	dinozLinkPattern = regexp.MustCompile(`^/dinoz/([0-9]+)$`)
)

// parseCount strips the space separators the game prints inside large
// amounts ("2 500") before parsing.
func parseCount(raw string) (uint32, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	n, err := strconv.ParseUint(cleaned, 10, 32)
	if err != nil {
		return 0, &InvalidValueError{Kind: "integer", Raw: raw}
	}
	return uint32(n), nil
}

func userFromLink(server Server, sel *goquery.Selection, fragment string) (ShortUser, error) {
	href, err := htmlutil.AttrOf(sel, "href", fragment)
	if err != nil {
		return ShortUser{}, err
	}
	groups := userLinkPattern.FindStringSubmatch(href)
	if groups == nil {
		return ShortUser{}, &InvalidValueError{Kind: "user link", Raw: href}
	}
	id, err := ParseUserId(groups[1])
	if err != nil {
		return ShortUser{}, err
	}
	username, err := ParseUsername(htmlutil.CleanedText(sel))
	if err != nil {
		return ShortUser{}, err
	}
	return ShortUser{Server: server, Id: id, Username: username}, nil
}

func dinozFromLink(server Server, sel *goquery.Selection) (ShortDinoz, error) {
	href, err := htmlutil.AttrOf(sel, "href", "dinoz link")
	if err != nil {
		return ShortDinoz{}, err
	}
	groups := dinozLinkPattern.FindStringSubmatch(href)
	if groups == nil {
		return ShortDinoz{}, &InvalidValueError{Kind: "dinoz link", Raw: href}
	}
	id, err := ParseDinozId(groups[1])
	if err != nil {
		return ShortDinoz{}, err
	}
	return ShortDinoz{Server: server, Id: id, Name: htmlutil.CleanedText(sel)}, nil
}

// IsLoginErrorPage reports whether a page is the login form re-rendered
// with its bad-credentials marker. Wrong credentials come back as a
// plain 200, never an HTTP error.
func IsLoginErrorPage(doc *goquery.Document) bool {
	return len(doc.Find("div.loginError").Nodes) > 0
}

// ScrapeBank reads the signed-in landing page. nil means the page
// renders as logged out.
func ScrapeBank(server Server, doc *goquery.Document) (*BankPage, error) {
	menus := doc.Find("div#menu")
	if len(menus.Nodes) == 0 {
		return nil, nil
	}
	if len(menus.Nodes) > 1 {
		return nil, &htmlutil.NonUniqueError{Fragment: "menu block", Count: len(menus.Nodes)}
	}

	userLink, err := htmlutil.SelectOne(menus, "a.playerLink", "player link")
	if err != nil {
		return nil, err
	}
	user, err := userFromLink(server, userLink, "player link")
	if err != nil {
		return nil, err
	}

	coinsSel, err := htmlutil.SelectOne(menus, "span.money", "coin balance")
	if err != nil {
		return nil, err
	}
	coins, err := parseCount(htmlutil.CleanedText(coinsSel))
	if err != nil {
		return nil, err
	}

	dinoz := []ShortDinoz{}
	var inner error
	menus.Find("ul.dinozList li a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		short, err := dinozFromLink(server, link)
		if err != nil {
			inner = err
			return false
		}
		dinoz = append(dinoz, short)
		return true
	})
	if inner != nil {
		return nil, inner
	}

	return &BankPage{User: user, Coins: coins, Dinoz: dinoz}, nil
}

func scrapePercent(root *goquery.Selection, selector, fragment string) (uint8, error) {
	sel, err := htmlutil.SelectOne(root, selector, fragment)
	if err != nil {
		return 0, err
	}
	raw := strings.TrimSuffix(htmlutil.CleanedText(sel), "%")
	n, err := strconv.ParseUint(raw, 10, 8)
	if err != nil || n > 100 {
		return 0, &InvalidValueError{Kind: fragment, Raw: raw}
	}
	return uint8(n), nil
}

func scrapeElement(root *goquery.Selection, selector, fragment string) (uint16, error) {
	sel, err := htmlutil.SelectOne(root, selector, fragment)
	if err != nil {
		return 0, err
	}
	raw := htmlutil.CleanedText(sel)
	n, err := strconv.ParseUint(raw, 10, 16)
	if err != nil {
		return 0, &InvalidValueError{Kind: fragment, Raw: raw}
	}
	return uint16(n), nil
}

// ScrapeDinoz reads a dinoz sheet. nil means the game reports no dinoz
// under that id.
func ScrapeDinoz(server Server, dinozId DinozId, doc *goquery.Document) (*Dinoz, error) {
	if len(doc.Find("div.unknownDinoz").Nodes) > 0 {
		return nil, nil
	}

	root, err := htmlutil.SelectOne(doc.Selection, "div.dinozSheet", "dinoz sheet")
	if err != nil {
		return nil, err
	}

	nameSel, err := htmlutil.SelectOne(root, "h1.dinozName", "dinoz name")
	if err != nil {
		return nil, err
	}

	var owner *ShortUser
	ownerLinks := root.Find("a.ownerLink")
	if len(ownerLinks.Nodes) > 1 {
		return nil, &htmlutil.NonUniqueError{Fragment: "owner link", Count: len(ownerLinks.Nodes)}
	}
	if len(ownerLinks.Nodes) == 1 {
		user, err := userFromLink(server, ownerLinks, "owner link")
		if err != nil {
			return nil, err
		}
		owner = &user
	}

	raceSel, err := htmlutil.SelectOne(root, "span.race", "dinoz race")
	if err != nil {
		return nil, err
	}
	skin, err := htmlutil.SelectAttr(root, "img.skin", "data-skin", "dinoz skin")
	if err != nil {
		return nil, err
	}

	life, err := scrapePercent(root, "span.life", "dinoz life")
	if err != nil {
		return nil, err
	}
	experience, err := scrapePercent(root, "span.experience", "dinoz experience")
	if err != nil {
		return nil, err
	}

	levelSel, err := htmlutil.SelectOne(root, "span.level", "dinoz level")
	if err != nil {
		return nil, err
	}
	level, err := strconv.ParseUint(htmlutil.CleanedText(levelSel), 10, 16)
	if err != nil {
		return nil, &InvalidValueError{Kind: "dinoz level", Raw: htmlutil.CleanedText(levelSel)}
	}

	// danger goes negative for well-rested dinoz
	dangerSel, err := htmlutil.SelectOne(root, "span.danger", "dinoz danger")
	if err != nil {
		return nil, err
	}
	danger, err := strconv.ParseInt(htmlutil.CleanedText(dangerSel), 10, 16)
	if err != nil {
		return nil, &InvalidValueError{Kind: "dinoz danger", Raw: htmlutil.CleanedText(dangerSel)}
	}

	var elements Elements
	for _, field := range []struct {
		selector string
		fragment string
		out      *uint16
	}{
		{"ul.elements li.fire", "fire element", &elements.Fire},
		{"ul.elements li.earth", "earth element", &elements.Earth},
		{"ul.elements li.water", "water element", &elements.Water},
		{"ul.elements li.thunder", "thunder element", &elements.Thunder},
		{"ul.elements li.air", "air element", &elements.Air},
	} {
		n, err := scrapeElement(root, field.selector, field.fragment)
		if err != nil {
			return nil, err
		}
		*field.out = n
	}

	skills := map[string]uint8{}
	var inner error
	root.Find("table.skills tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		nameSel, err := htmlutil.SelectOne(row, "td.skill", "skill name")
		if err != nil {
			inner = err
			return false
		}
		levelSel, err := htmlutil.SelectOne(row, "td.level", "skill level")
		if err != nil {
			inner = err
			return false
		}
		raw := htmlutil.CleanedText(levelSel)
		level, err := strconv.ParseUint(raw, 10, 8)
		if err != nil || level > 5 {
			inner = &InvalidValueError{Kind: "skill level", Raw: raw}
			return false
		}
		skills[htmlutil.CleanedText(nameSel)] = uint8(level)
		return true
	})
	if inner != nil {
		return nil, inner
	}

	return &Dinoz{
		ShortDinoz: ShortDinoz{
			Server: server,
			Id:     dinozId,
			Name:   htmlutil.CleanedText(nameSel),
		},
		Owner:        owner,
		Race:         htmlutil.CleanedText(raceSel),
		Skin:         skin,
		Life:         life,
		Level:        uint16(level),
		Experience:   experience,
		Danger:       int16(danger),
		InTournament: len(root.Find("div.tournament").Nodes) > 0,
		Elements:     elements,
		Skills:       skills,
	}, nil
}
