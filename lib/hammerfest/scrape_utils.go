package hammerfest

import (
	"regexp"
	"strconv"
	"strings"

	"etwin-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

var (
	userLinkPattern   = regexp.MustCompile(`^/user\.html/([0-9]+)$`)
	themeLinkPattern  = regexp.MustCompile(`^/forum\.html/theme/([0-9]+)(?:\?.*)?$`)
	threadLinkPattern = regexp.MustCompile(`^/forum\.html/thread/([0-9]+)(?:\?.*)?$`)
	itemImgPattern    = regexp.MustCompile(`/([0-9]{1,4})\.gif$`)
	rankImgPattern    = regexp.MustCompile(`rank_([0-9])\.gif$`)
	forumDatePattern  = regexp.MustCompile(`^(Lun|Mar|Mer|Jeu|Ven|Sam|Dim)\w* ([0-9]{1,2})/([0-9]{1,2}) à ([0-9]{1,2}):([0-9]{2})$`)
)

var frenchWeekdays = map[string]uint8{
	"Lun": 1, "Mar": 2, "Mer": 3, "Jeu": 4, "Ven": 5, "Sam": 6, "Dim": 7,
}

// parseCount parses a score/count the way the game prints it, with
// non-breaking spaces as thousands separators ("13 416 310").
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

// parseForumDate parses the forum's yearless French date rendering,
// e.g. "Dim 21/05 à 14:36".
func parseForumDate(raw string) (ForumDate, error) {
	groups := forumDatePattern.FindStringSubmatch(strings.TrimSpace(raw))
	if groups == nil {
		return ForumDate{}, &InvalidValueError{Kind: "forum date", Raw: raw}
	}

	day, _ := strconv.ParseUint(groups[2], 10, 8)
	month, _ := strconv.ParseUint(groups[3], 10, 8)
	hour, _ := strconv.ParseUint(groups[4], 10, 8)
	minute, _ := strconv.ParseUint(groups[5], 10, 8)
	if day < 1 || day > 31 || month < 1 || month > 12 || hour > 23 || minute > 59 {
		return ForumDate{}, &InvalidValueError{Kind: "forum date", Raw: raw}
	}

	return ForumDate{
		Month:   uint8(month),
		Day:     uint8(day),
		Weekday: frenchWeekdays[groups[1]],
		Hour:    uint8(hour),
		Minute:  uint8(minute),
	}, nil
}

// userFromLink turns an `/user.html/{id}` anchor into a ShortUser.
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

// scrapePagination reads the page indicator shared by every forum
// listing: a unique div with the current page and links to the others.
func scrapePagination(sel *goquery.Selection) (page1, pages uint32, err error) {
	block, err := htmlutil.SelectOne(sel, "div.pagination", "pagination block")
	if err != nil {
		return 0, 0, err
	}
	current, err := htmlutil.SelectOne(block, "span.current", "current page marker")
	if err != nil {
		return 0, 0, err
	}
	page1, err = parseCount(htmlutil.CleanedText(current))
	if err != nil {
		return 0, 0, err
	}

	pages = page1
	var inner error
	block.Find("a").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		n, err := parseCount(htmlutil.CleanedText(link))
		if err != nil {
			inner = err
			return false
		}
		if n > pages {
			pages = n
		}
		return true
	})
	if inner != nil {
		return 0, 0, inner
	}
	if page1 == 0 || pages == 0 {
		return 0, 0, &InvalidValueError{Kind: "pagination", Raw: htmlutil.CleanedText(block)}
	}
	return page1, pages, nil
}

func parseRankImg(src string) (uint8, error) {
	groups := rankImgPattern.FindStringSubmatch(src)
	if groups == nil {
		return 0, &InvalidValueError{Kind: "ladder rank image", Raw: src}
	}
	rank, _ := strconv.ParseUint(groups[1], 10, 8)
	if rank > 4 {
		return 0, &InvalidValueError{Kind: "ladder rank image", Raw: src}
	}
	return uint8(rank), nil
}
