package dinoparc

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

var tracer = otel.Tracer("etwin.lib.dinoparc")

const userAgent = "EtwinDinoparcScraper"
const requestTimeout = time.Second * 5

// HttpClient is the live Client. Same transport discipline as the
// hammerfest scraper: fixed timeout, redirects surfaced to the caller.
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

	telemetry.InstrumentResty(client, "etwin.lib.dinoparc.http")

	return &HttpClient{http: client}
}

func (c *HttpClient) getHtml(ctx context.Context, pageUrl string, key *SessionKey) (*goquery.Document, error) {
	req := c.http.R().SetContext(ctx)
	if key != nil {
		req.SetHeader("Cookie", "sid="+key.String())
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
		if cookie.Name == "sid" {
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

	doc, err := c.getHtml(ctx, urls.bank(), &key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch bank after login")
		return nil, err
	}
	bank, err := ScrapeBank(options.Server, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scrape bank after login")
		return nil, &ScrapeError{Page: urls.bank(), Err: err}
	}
	if bank == nil {
		span.SetStatus(codes.Error, ErrLoginSessionRevoked.Error())
		return nil, ErrLoginSessionRevoked
	}

	return &Session{CTime: now, ATime: now, Key: key, User: bank.User}, nil
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

	doc, err := c.getHtml(ctx, urls.bank(), &key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch bank")
		return nil, err
	}
	bank, err := ScrapeBank(server, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scrape bank")
		return nil, &ScrapeError{Page: urls.bank(), Err: err}
	}
	if bank == nil {
		return nil, nil
	}

	return &Session{CTime: now, ATime: now, Key: key, User: bank.User}, nil
}

func (c *HttpClient) GetBank(ctx context.Context, session *Session) (*BankPage, error) {
	ctx, span := tracer.Start(ctx, "client:GetBank")
	defer span.End()

	pageUrl := urlsFor(session.User.Server).bank()
	doc, err := c.getHtml(ctx, pageUrl, &session.Key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch bank")
		return nil, err
	}
	bank, err := ScrapeBank(session.User.Server, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scrape bank")
		return nil, &ScrapeError{Page: pageUrl, Err: err}
	}
	if bank == nil {
		return nil, ErrInvalidSessionCookie
	}
	return bank, nil
}

func (c *HttpClient) GetDinoz(ctx context.Context, session *Session, options *GetDinozOptions) (*Dinoz, error) {
	ctx, span := tracer.Start(ctx, "client:GetDinoz")
	defer span.End()
	span.SetAttributes(
		attribute.String("server", options.Server.String()),
		attribute.String("dinoz_id", options.DinozId.String()),
	)

	var key *SessionKey
	if session != nil {
		key = &session.Key
	}

	pageUrl := urlsFor(options.Server).dinoz(options.DinozId)
	doc, err := c.getHtml(ctx, pageUrl, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch dinoz sheet")
		return nil, err
	}
	dinoz, err := ScrapeDinoz(options.Server, options.DinozId, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scrape dinoz sheet")
		return nil, &ScrapeError{Page: pageUrl, Err: err}
	}
	return dinoz, nil
}
