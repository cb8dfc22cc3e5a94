package hammerfest

import (
	"strings"

	"etwin-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// ScrapeForumThemes reads the forum home listing.
func ScrapeForumThemes(server Server, doc *goquery.Document) ([]ForumTheme, error) {
	table, err := htmlutil.SelectOne(doc.Selection, "div.forum table.themes", "forum theme table")
	if err != nil {
		return nil, err
	}

	themes := []ForumTheme{}
	var inner error
	table.Find("tr.theme").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		link, err := htmlutil.SelectOne(row, "td.name a", "theme link")
		if err != nil {
			inner = err
			return false
		}
		short, err := themeFromLink(server, link)
		if err != nil {
			inner = err
			return false
		}

		descSel, err := htmlutil.SelectOne(row, "td.description", "theme description")
		if err != nil {
			inner = err
			return false
		}

		themes = append(themes, ForumTheme{
			ShortForumTheme: short,
			Description:     htmlutil.CleanedText(descSel),
		})
		return true
	})
	if inner != nil {
		return nil, inner
	}
	return themes, nil
}

func themeFromLink(server Server, sel *goquery.Selection) (ShortForumTheme, error) {
	href, err := htmlutil.AttrOf(sel, "href", "theme link")
	if err != nil {
		return ShortForumTheme{}, err
	}
	groups := themeLinkPattern.FindStringSubmatch(href)
	if groups == nil {
		return ShortForumTheme{}, &InvalidValueError{Kind: "theme link", Raw: href}
	}
	id, err := ParseForumThemeId(groups[1])
	if err != nil {
		return ShortForumTheme{}, err
	}
	return ShortForumTheme{
		Server: server,
		Id:     id,
		Name:   htmlutil.CleanedText(sel),
	}, nil
}

func threadFromLink(server Server, sel *goquery.Selection) (ShortForumThread, error) {
	href, err := htmlutil.AttrOf(sel, "href", "thread link")
	if err != nil {
		return ShortForumThread{}, err
	}
	groups := threadLinkPattern.FindStringSubmatch(href)
	if groups == nil {
		return ShortForumThread{}, &InvalidValueError{Kind: "thread link", Raw: href}
	}
	id, err := ParseForumThreadId(groups[1])
	if err != nil {
		return ShortForumThread{}, err
	}
	return ShortForumThread{
		Server: server,
		Id:     id,
		Name:   htmlutil.CleanedText(sel),
	}, nil
}

func scrapeThreadRow(server Server, row *goquery.Selection, sticky bool) (ForumThread, error) {
	link, err := htmlutil.SelectOne(row, "td.name a", "thread link")
	if err != nil {
		return ForumThread{}, err
	}
	short, err := threadFromLink(server, link)
	if err != nil {
		return ForumThread{}, err
	}

	authorLink, err := htmlutil.SelectOne(row, "td.author a", "thread author link")
	if err != nil {
		return ForumThread{}, err
	}
	author, err := userFromLink(server, authorLink, "thread author link")
	if err != nil {
		return ForumThread{}, err
	}

	repliesSel, err := htmlutil.SelectOne(row, "td.replies", "thread reply count")
	if err != nil {
		return ForumThread{}, err
	}
	replies, err := parseCount(htmlutil.CleanedText(repliesSel))
	if err != nil {
		return ForumThread{}, err
	}

	dateSel, err := htmlutil.SelectOne(row, "td.lastMessage", "thread last message date")
	if err != nil {
		return ForumThread{}, err
	}
	lastMessage, err := parseForumDate(htmlutil.CleanedText(dateSel))
	if err != nil {
		return ForumThread{}, err
	}

	return ForumThread{
		ShortForumThread: short,
		Author:           author,
		LastMessageDate:  lastMessage,
		ReplyCount:       replies,
		IsSticky:         sticky,
		IsClosed:         row.HasClass("closed"),
	}, nil
}

func scrapeThreadRows(server Server, table *goquery.Selection, sticky bool) ([]ForumThread, error) {
	threads := []ForumThread{}
	var inner error
	table.Find("tr.thread").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		thread, err := scrapeThreadRow(server, row, sticky)
		if err != nil {
			inner = err
			return false
		}
		threads = append(threads, thread)
		return true
	})
	if inner != nil {
		return nil, inner
	}
	return threads, nil
}

// ScrapeForumTheme reads one page of a theme: its sticky threads plus
// a paginated listing of regular threads.
func ScrapeForumTheme(server Server, doc *goquery.Document) (*ForumThemePage, error) {
	forum, err := htmlutil.SelectOne(doc.Selection, "div.forum", "forum block")
	if err != nil {
		return nil, err
	}

	themeLink, err := htmlutil.SelectOne(forum, "h1.themeName a", "theme name link")
	if err != nil {
		return nil, err
	}
	theme, err := themeFromLink(server, themeLink)
	if err != nil {
		return nil, err
	}

	stickyTable, err := htmlutil.SelectOne(forum, "table.threads.sticky", "sticky thread table")
	if err != nil {
		return nil, err
	}
	sticky, err := scrapeThreadRows(server, stickyTable, true)
	if err != nil {
		return nil, err
	}

	normalTable, err := htmlutil.SelectOne(forum, "table.threads.normal", "thread table")
	if err != nil {
		return nil, err
	}
	threads, err := scrapeThreadRows(server, normalTable, false)
	if err != nil {
		return nil, err
	}

	page1, pages, err := scrapePagination(forum)
	if err != nil {
		return nil, err
	}

	return &ForumThemePage{
		Theme:  theme,
		Sticky: sticky,
		Threads: ForumThreadListing{
			Page1: page1,
			Pages: pages,
			Items: threads,
		},
	}, nil
}

func scrapePostAuthor(server Server, cell *goquery.Selection) (ForumPostAuthor, error) {
	link, err := htmlutil.SelectOne(cell, "a", "post author link")
	if err != nil {
		return ForumPostAuthor{}, err
	}
	user, err := userFromLink(server, link, "post author link")
	if err != nil {
		return ForumPostAuthor{}, err
	}

	rankSrc, err := htmlutil.SelectAttr(cell, "img.rank", "src", "post author rank image")
	if err != nil {
		return ForumPostAuthor{}, err
	}
	rank, err := parseRankImg(rankSrc)
	if err != nil {
		return ForumPostAuthor{}, err
	}

	role := RoleNone
	roles := cell.Find("span.role")
	if len(roles.Nodes) > 1 {
		return ForumPostAuthor{}, &htmlutil.NonUniqueError{Fragment: "post author role", Count: len(roles.Nodes)}
	}
	if len(roles.Nodes) == 1 {
		switch raw := htmlutil.CleanedText(roles); raw {
		case "modérateur":
			role = RoleModerator
		case "administrateur":
			role = RoleAdministrator
		default:
			return ForumPostAuthor{}, &InvalidValueError{Kind: "forum role", Raw: raw}
		}
	}

	return ForumPostAuthor{
		ShortUser: user,
		HasCarrot: len(cell.Find("img.carrot").Nodes) > 0,
		Rank:      rank,
		Role:      role,
	}, nil
}

func scrapePost(server Server, row *goquery.Selection) (ForumPost, error) {
	authorCell, err := htmlutil.SelectOne(row, "td.author", "post author cell")
	if err != nil {
		return ForumPost{}, err
	}
	author, err := scrapePostAuthor(server, authorCell)
	if err != nil {
		return ForumPost{}, err
	}

	postCell, err := htmlutil.SelectOne(row, "td.post", "post cell")
	if err != nil {
		return ForumPost{}, err
	}

	// posts from before the anchor rework have no stable id
	var id *ForumPostId
	anchors := postCell.Find("a.anchor")
	if len(anchors.Nodes) > 1 {
		return ForumPost{}, &htmlutil.NonUniqueError{Fragment: "post anchor", Count: len(anchors.Nodes)}
	}
	if len(anchors.Nodes) == 1 {
		name, err := htmlutil.AttrOf(anchors, "name", "post anchor")
		if err != nil {
			return ForumPost{}, err
		}
		raw := strings.TrimPrefix(name, "msg")
		parsed, err := ParseForumPostId(raw)
		if err != nil {
			return ForumPost{}, err
		}
		id = &parsed
	}

	dateSel, err := htmlutil.SelectOne(postCell, "div.date", "post date")
	if err != nil {
		return ForumPost{}, err
	}
	ctime, err := parseForumDate(htmlutil.CleanedText(dateSel))
	if err != nil {
		return ForumPost{}, err
	}

	contentSel, err := htmlutil.SelectOne(postCell, "div.content", "post content")
	if err != nil {
		return ForumPost{}, err
	}

	return ForumPost{
		Id:      id,
		Author:  author,
		CTime:   ctime,
		Content: htmlutil.CleanedText(contentSel),
	}, nil
}

// ScrapeForumThread reads one page of a thread's messages.
func ScrapeForumThread(server Server, threadId ForumThreadId, doc *goquery.Document) (*ForumThreadPage, error) {
	forum, err := htmlutil.SelectOne(doc.Selection, "div.forum", "forum block")
	if err != nil {
		return nil, err
	}

	themeLink, err := htmlutil.SelectOne(forum, "h1.themeName a", "theme name link")
	if err != nil {
		return nil, err
	}
	theme, err := themeFromLink(server, themeLink)
	if err != nil {
		return nil, err
	}

	threadLink, err := htmlutil.SelectOne(forum, "h2.threadName a", "thread name link")
	if err != nil {
		return nil, err
	}
	thread, err := threadFromLink(server, threadLink)
	if err != nil {
		return nil, err
	}
	if thread.Id != threadId {
		return nil, &InvalidValueError{Kind: "thread id", Raw: thread.Id.String()}
	}

	table, err := htmlutil.SelectOne(forum, "table.messages", "message table")
	if err != nil {
		return nil, err
	}

	posts := []ForumPost{}
	var inner error
	table.Find("tr.message").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		post, err := scrapePost(server, row)
		if err != nil {
			inner = err
			return false
		}
		posts = append(posts, post)
		return true
	})
	if inner != nil {
		return nil, inner
	}

	page1, pages, err := scrapePagination(forum)
	if err != nil {
		return nil, err
	}

	return &ForumThreadPage{
		Theme:  theme,
		Thread: thread,
		Messages: ForumPostListing{
			Page1: page1,
			Pages: pages,
			Items: posts,
		},
	}, nil
}
