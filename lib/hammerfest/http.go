package hammerfest

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"etwin-backend/lib/telemetry"
	"etwin-backend/lib/timezone"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("etwin.lib.hammerfest")

const userAgent = "EtwinHammerfestScraper"
const requestTimeout = time.Second * 5

// HttpClient is the live Client. One long-lived transport, a fixed
// short timeout and no automatic redirect following: the login flow
// needs to observe the redirect itself, it is the success signal.
type HttpClient struct {
	http *resty.Client
}

var _ Client = (*HttpClient)(nil)

func NewHttpClient() *HttpClient {
	client := resty.New()
	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(requestTimeout)
	client.SetRedirectPolicy(resty.RedirectPolicyFunc(
		func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	))

	telemetry.InstrumentResty(client, "etwin.lib.hammerfest.http")

	return &HttpClient{http: client}
}

func (c *HttpClient) getHtml(ctx context.Context, pageUrl string, key *SessionKey) (*goquery.Document, error) {
	req := c.http.R().SetContext(ctx)
	if key != nil {
		// no escaping needed per the SessionKey pattern
		req.SetHeader("Cookie", "SID="+key.String())
	}

	res, err := req.Get(pageUrl)
	if err != nil {
		return nil, err
	}
	if res.StatusCode() != http.StatusOK {
		return nil, &UnexpectedResponseError{Url: pageUrl, Status: res.StatusCode()}
	}

	return goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
}

func (c *HttpClient) CreateSession(ctx context.Context, options *Credentials) (*Session, error) {
	ctx, span := tracer.Start(ctx, "client:CreateSession")
	defer span.End()
	span.SetAttributes(
		attribute.String("server", options.Server.String()),
		attribute.String("username", options.Username.String()),
	)

	urls := urlsFor(options.Server)
	now := timezone.Now()

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"login": options.Username.String(),
			"pass":  options.Password,
		}).
		Post(urls.login())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login request failed")
		return nil, err
	}

	// a successful login answers with a redirect; a plain 200 is the
	// login form again, either resubmitted with an error marker or
	// something unexpected entirely
	if res.StatusCode() != http.StatusFound {
		doc, parseErr := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
		if parseErr == nil && IsLoginErrorPage(doc) {
			err := &InvalidCredentialsError{Server: options.Server, Username: options.Username}
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		err := &UnexpectedResponseError{Url: urls.login(), Status: res.StatusCode()}
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var rawKey string
	for _, cookie := range res.Cookies() {
		if cookie.Name == "SID" {
			rawKey = cookie.Value
			break
		}
	}
	if rawKey == "" {
		span.SetStatus(codes.Error, ErrMissingSessionCookie.Error())
		return nil, ErrMissingSessionCookie
	}
	key, err := ParseSessionKey(rawKey)
	if err != nil {
		span.SetStatus(codes.Error, ErrInvalidSessionCookie.Error())
		return nil, ErrInvalidSessionCookie
	}

	doc, err := c.getHtml(ctx, urls.root(), &key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch root after login")
		return nil, err
	}
	user, err := ScrapeUserBase(options.Server, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scrape root after login")
		return nil, &ScrapeError{Page: urls.root(), Err: err}
	}
	if user == nil {
		span.SetStatus(codes.Error, ErrLoginSessionRevoked.Error())
		return nil, ErrLoginSessionRevoked
	}

	return &Session{CTime: now, ATime: now, Key: key, User: *user}, nil
}

func (c *HttpClient) TestSession(ctx context.Context, server Server, key SessionKey) (*Session, error) {
	ctx, span := tracer.Start(ctx, "client:TestSession")
	defer span.End()
	span.SetAttributes(
		attribute.String("server", server.String()),
		attribute.String("key", key.Redacted()),
	)

	urls := urlsFor(server)
	now := timezone.Now()

	doc, err := c.getHtml(ctx, urls.root(), &key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch root")
		return nil, err
	}
	user, err := ScrapeUserBase(server, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scrape root")
		return nil, &ScrapeError{Page: urls.root(), Err: err}
	}
	if user == nil {
		return nil, nil
	}

	return &Session{CTime: now, ATime: now, Key: key, User: *user}, nil
}

func sessionKey(session *Session) *SessionKey {
	if session == nil {
		return nil
	}
	return &session.Key
}

func (c *HttpClient) GetProfileById(ctx context.Context, session *Session, options *GetProfileByIdOptions) (*Profile, error) {
	ctx, span := tracer.Start(ctx, "client:GetProfileById")
	defer span.End()
	span.SetAttributes(
		attribute.String("server", options.Server.String()),
		attribute.String("user_id", options.UserId.String()),
	)

	pageUrl := urlsFor(options.Server).user(options.UserId)
	doc, err := c.getHtml(ctx, pageUrl, sessionKey(session))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch profile")
		return nil, err
	}
	profile, err := ScrapeProfile(options.Server, options.UserId, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scrape profile")
		return nil, &ScrapeError{Page: pageUrl, Err: err}
	}
	return profile, nil
}

func (c *HttpClient) GetOwnItems(ctx context.Context, session *Session) (map[ItemId]uint32, error) {
	ctx, span := tracer.Start(ctx, "client:GetOwnItems")
	defer span.End()

	pageUrl := urlsFor(session.User.Server).inventory()
	doc, err := c.getHtml(ctx, pageUrl, &session.Key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch inventory")
		return nil, err
	}
	items, err := ScrapeInventory(session.User.Server, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scrape inventory")
		return nil, &ScrapeError{Page: pageUrl, Err: err}
	}
	if items == nil {
		return nil, ErrInvalidSessionCookie
	}
	return items, nil
}

func (c *HttpClient) GetOwnGodChildren(ctx context.Context, session *Session) ([]GodChild, error) {
	ctx, span := tracer.Start(ctx, "client:GetOwnGodChildren")
	defer span.End()

	pageUrl := urlsFor(session.User.Server).godChildren()
	doc, err := c.getHtml(ctx, pageUrl, &session.Key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch god children")
		return nil, err
	}
	godChildren, err := ScrapeGodChildren(session.User.Server, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scrape god children")
		return nil, &ScrapeError{Page: pageUrl, Err: err}
	}
	if godChildren == nil {
		return nil, ErrInvalidSessionCookie
	}
	return godChildren, nil
}

func (c *HttpClient) GetOwnShop(ctx context.Context, session *Session) (*Shop, error) {
	ctx, span := tracer.Start(ctx, "client:GetOwnShop")
	defer span.End()

	pageUrl := urlsFor(session.User.Server).shop()
	doc, err := c.getHtml(ctx, pageUrl, &session.Key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch shop")
		return nil, err
	}
	shop, err := ScrapeShop(session.User.Server, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scrape shop")
		return nil, &ScrapeError{Page: pageUrl, Err: err}
	}
	if shop == nil {
		return nil, ErrInvalidSessionCookie
	}
	return shop, nil
}

func (c *HttpClient) GetForumThemes(ctx context.Context, session *Session, server Server) ([]ForumTheme, error) {
	ctx, span := tracer.Start(ctx, "client:GetForumThemes")
	defer span.End()

	pageUrl := urlsFor(server).forumHome()
	doc, err := c.getHtml(ctx, pageUrl, sessionKey(session))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch forum home")
		return nil, err
	}
	themes, err := ScrapeForumThemes(server, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scrape forum home")
		return nil, &ScrapeError{Page: pageUrl, Err: err}
	}
	return themes, nil
}

func (c *HttpClient) GetForumThemePage(ctx context.Context, session *Session, server Server, themeId ForumThemeId, page1 uint32) (*ForumThemePage, error) {
	ctx, span := tracer.Start(ctx, "client:GetForumThemePage")
	defer span.End()

	pageUrl := urlsFor(server).forumTheme(themeId, page1)
	doc, err := c.getHtml(ctx, pageUrl, sessionKey(session))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch theme page")
		return nil, err
	}
	page, err := ScrapeForumTheme(server, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scrape theme page")
		return nil, &ScrapeError{Page: pageUrl, Err: err}
	}
	return page, nil
}

func (c *HttpClient) GetForumThreadPage(ctx context.Context, session *Session, server Server, threadId ForumThreadId, page1 uint32) (*ForumThreadPage, error) {
	ctx, span := tracer.Start(ctx, "client:GetForumThreadPage")
	defer span.End()

	pageUrl := urlsFor(server).forumThread(threadId, page1)
	doc, err := c.getHtml(ctx, pageUrl, sessionKey(session))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch thread page")
		return nil, err
	}
	page, err := ScrapeForumThread(server, threadId, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scrape thread page")
		return nil, &ScrapeError{Page: pageUrl, Err: err}
	}
	return page, nil
}
