package dinoparc

import (
	"fmt"
	"net/url"
)

type serverUrls struct {
	base url.URL
}

func urlsFor(server Server) serverUrls {
	return serverUrls{base: url.URL{
		Scheme: "http",
		Host:   string(server),
	}}
}

func (u serverUrls) page(path string) string {
	out := u.base
	out.Path = path
	return out.String()
}

func (u serverUrls) login() string { return u.page("/login") }
func (u serverUrls) bank() string  { return u.page("/bank") }

func (u serverUrls) dinoz(id DinozId) string {
	return u.page(fmt.Sprintf("/dinoz/%s", id))
}
