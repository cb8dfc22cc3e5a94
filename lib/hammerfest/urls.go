package hammerfest

import (
	"fmt"
	"net/url"
)

// The game predates https and serves everything over plain http.
type serverUrls struct {
	base url.URL
}

func urlsFor(server Server) serverUrls {
	return serverUrls{base: url.URL{
		Scheme: "http",
		Host:   "www." + string(server),
	}}
}

func (u serverUrls) page(path string, query url.Values) string {
	out := u.base
	out.Path = path
	if query != nil {
		out.RawQuery = query.Encode()
	}
	return out.String()
}

func (u serverUrls) root() string  { return u.page("/", nil) }
func (u serverUrls) login() string { return u.page("/login.html", nil) }

func (u serverUrls) user(id UserId) string {
	return u.page(fmt.Sprintf("/user.html/%s", id), nil)
}

func (u serverUrls) inventory() string   { return u.page("/user.html/inventory", nil) }
func (u serverUrls) godChildren() string { return u.page("/user.html/godchildren", nil) }
func (u serverUrls) shop() string        { return u.page("/shop.html", nil) }
func (u serverUrls) forumHome() string   { return u.page("/forum.html", nil) }

func (u serverUrls) forumTheme(id ForumThemeId, page1 uint32) string {
	return u.page(
		fmt.Sprintf("/forum.html/theme/%s", id),
		url.Values{"page": []string{fmt.Sprint(page1)}},
	)
}

func (u serverUrls) forumThread(id ForumThreadId, page1 uint32) string {
	return u.page(
		fmt.Sprintf("/forum.html/thread/%s", id),
		url.Values{"page": []string{fmt.Sprint(page1)}},
	)
}
