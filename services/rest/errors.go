package rest

import (
	"errors"
	"net/http"

	dplib "etwin-backend/lib/dinoparc"
	"etwin-backend/lib/etwin"
	hflib "etwin-backend/lib/hammerfest"

	"github.com/gin-gonic/gin"
)

// statusFor maps the domain error taxonomy onto HTTP statuses:
// validation failures are the caller's fault, rejected logins are 401,
// archive misses are 404 and upstream scrape trouble is a bad gateway.
func statusFor(err error) int {
	var hfInvalid *hflib.InvalidValueError
	var dpInvalid *dplib.InvalidValueError
	var etwinInvalid *etwin.InvalidValueError
	if errors.As(err, &hfInvalid) || errors.As(err, &dpInvalid) || errors.As(err, &etwinInvalid) {
		return http.StatusBadRequest
	}

	var hfCreds *hflib.InvalidCredentialsError
	var dpCreds *dplib.InvalidCredentialsError
	if errors.As(err, &hfCreds) || errors.As(err, &dpCreds) {
		return http.StatusUnauthorized
	}

	switch {
	case errors.Is(err, etwin.ErrLinkConflict):
		return http.StatusConflict
	case errors.Is(err, etwin.ErrLinkNotFound),
		errors.Is(err, etwin.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, hflib.ErrLoginSessionRevoked),
		errors.Is(err, dplib.ErrLoginSessionRevoked),
		errors.Is(err, hflib.ErrMissingSessionCookie),
		errors.Is(err, dplib.ErrMissingSessionCookie),
		errors.Is(err, hflib.ErrInvalidSessionCookie),
		errors.Is(err, dplib.ErrInvalidSessionCookie):
		return http.StatusBadGateway
	}

	var hfScrape *hflib.ScrapeError
	var dpScrape *dplib.ScrapeError
	var hfUnexpected *hflib.UnexpectedResponseError
	var dpUnexpected *dplib.UnexpectedResponseError
	if errors.As(err, &hfScrape) || errors.As(err, &dpScrape) ||
		errors.As(err, &hfUnexpected) || errors.As(err, &dpUnexpected) {
		return http.StatusBadGateway
	}

	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}
