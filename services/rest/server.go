// Package rest exposes the archive over HTTP. It is a thin
// serialization boundary: every route parses, delegates to a service
// and encodes the result, no business rules live here.
package rest

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	dplib "etwin-backend/lib/dinoparc"
	"etwin-backend/lib/etwin"
	hflib "etwin-backend/lib/hammerfest"
	dpsvc "etwin-backend/services/dinoparc"
	hfsvc "etwin-backend/services/hammerfest"
	"etwin-backend/services/linker"

	"github.com/gin-gonic/gin"
)

type Server struct {
	router     *gin.Engine
	hammerfest hfsvc.Service
	dinoparc   dpsvc.Service
	users      etwin.UserStore
}

func NewServer(hammerfest hfsvc.Service, dinoparc dpsvc.Service, users etwin.UserStore) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info(
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})

	s := &Server{
		router:     router,
		hammerfest: hammerfest,
		dinoparc:   dinoparc,
		users:      users,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.POST("/users", s.createUser)
	s.router.GET("/users/:id", s.getUser)

	s.router.POST("/hammerfest/login", s.hammerfestLogin)
	s.router.GET("/hammerfest/:server/sessions/self", s.hammerfestTestSession)
	s.router.GET("/hammerfest/:server/forum/themes", s.hammerfestForumThemes)
	s.router.GET("/hammerfest/:server/forum/themes/:id", s.hammerfestForumTheme)
	s.router.GET("/hammerfest/:server/forum/threads/:id", s.hammerfestForumThread)
	s.router.GET("/archive/hammerfest/:server/users/:id", s.hammerfestUser)
	s.router.PUT("/archive/hammerfest/:server/users/:id/link", s.hammerfestTouchLink)
	s.router.DELETE("/archive/hammerfest/:server/users/:id/link", s.hammerfestDeleteLink)

	s.router.POST("/dinoparc/login", s.dinoparcLogin)
	s.router.GET("/dinoparc/:server/sessions/self", s.dinoparcTestSession)
	s.router.GET("/dinoparc/:server/dinoz/:id", s.dinoparcDinoz)
	s.router.GET("/archive/dinoparc/:server/users/:id", s.dinoparcUser)
	s.router.PUT("/archive/dinoparc/:server/users/:id/link", s.dinoparcTouchLink)
	s.router.DELETE("/archive/dinoparc/:server/users/:id/link", s.dinoparcDeleteLink)

	s.router.POST("/links/suggest", s.suggestLinks)
}

// asOfTime parses the optional ?time query parameter (RFC 3339).
func asOfTime(c *gin.Context) (*time.Time, bool) {
	raw := c.Query("time")
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid time parameter"})
		return nil, false
	}
	return &t, true
}

func (s *Server) createUser(c *gin.Context) {
	var body struct {
		DisplayName string `json:"display_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.users.CreateUser(c.Request.Context(), body.DisplayName)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) getUser(c *gin.Context) {
	id, err := etwin.ParseUserId(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	user, err := s.users.GetUser(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) hammerfestLogin(c *gin.Context) {
	var body struct {
		Server   string `json:"server" binding:"required"`
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	server, err := hflib.ParseServer(body.Server)
	if err != nil {
		abortWithError(c, err)
		return
	}
	username, err := hflib.ParseUsername(body.Username)
	if err != nil {
		abortWithError(c, err)
		return
	}

	session, err := s.hammerfest.CreateSession(c.Request.Context(), &hflib.Credentials{
		Server:   server,
		Username: username,
		Password: body.Password,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) hammerfestForumThemes(c *gin.Context) {
	server, err := hflib.ParseServer(c.Param("server"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	themes, err := s.hammerfest.GetForumThemes(c.Request.Context(), nil, server)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, themes)
}

// bearerKey extracts the session key from the Authorization header.
func bearerKey(c *gin.Context) (string, bool) {
	raw := c.GetHeader("Authorization")
	key, found := strings.CutPrefix(raw, "Bearer ")
	if !found || key == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer session key"})
		return "", false
	}
	return key, true
}

func (s *Server) hammerfestTestSession(c *gin.Context) {
	server, err := hflib.ParseServer(c.Param("server"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	raw, ok := bearerKey(c)
	if !ok {
		return
	}
	key, err := hflib.ParseSessionKey(raw)
	if err != nil {
		abortWithError(c, err)
		return
	}

	session, err := s.hammerfest.TestSession(c.Request.Context(), server, key)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session for this key"})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) dinoparcTestSession(c *gin.Context) {
	server, err := dplib.ParseServer(c.Param("server"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	raw, ok := bearerKey(c)
	if !ok {
		return
	}
	key, err := dplib.ParseSessionKey(raw)
	if err != nil {
		abortWithError(c, err)
		return
	}

	session, err := s.dinoparc.TestSession(c.Request.Context(), server, key)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if session == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active session for this key"})
		return
	}
	c.JSON(http.StatusOK, session)
}

// pageQuery parses the optional 1-based ?page parameter.
func pageQuery(c *gin.Context) (uint32, bool) {
	raw := c.DefaultQuery("page", "1")
	page, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || page == 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid page parameter"})
		return 0, false
	}
	return uint32(page), true
}

func (s *Server) hammerfestForumTheme(c *gin.Context) {
	server, err := hflib.ParseServer(c.Param("server"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	id, err := hflib.ParseForumThemeId(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	page, ok := pageQuery(c)
	if !ok {
		return
	}

	theme, err := s.hammerfest.GetForumThemePage(c.Request.Context(), nil, server, id, page)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if theme == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "forum theme not found"})
		return
	}
	c.JSON(http.StatusOK, theme)
}

func (s *Server) hammerfestForumThread(c *gin.Context) {
	server, err := hflib.ParseServer(c.Param("server"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	id, err := hflib.ParseForumThreadId(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	page, ok := pageQuery(c)
	if !ok {
		return
	}

	thread, err := s.hammerfest.GetForumThreadPage(c.Request.Context(), nil, server, id, page)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if thread == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "forum thread not found"})
		return
	}
	c.JSON(http.StatusOK, thread)
}

func (s *Server) hammerfestUser(c *gin.Context) {
	server, err := hflib.ParseServer(c.Param("server"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	id, err := hflib.ParseUserId(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	at, ok := asOfTime(c)
	if !ok {
		return
	}

	user, err := s.hammerfest.GetUser(c.Request.Context(), &hfsvc.GetUserOptions{
		Server: server,
		Id:     id,
		Time:   at,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

type linkBody struct {
	Etwin    string `json:"etwin" binding:"required"`
	ActingAs string `json:"acting_as" binding:"required"`
}

func (s *Server) hammerfestTouchLink(c *gin.Context) {
	server, err := hflib.ParseServer(c.Param("server"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	id, err := hflib.ParseUserId(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	var body linkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	etwinId, err := etwin.ParseUserId(body.Etwin)
	if err != nil {
		abortWithError(c, err)
		return
	}
	actingAs, err := etwin.ParseUserId(body.ActingAs)
	if err != nil {
		abortWithError(c, err)
		return
	}

	link, err := s.hammerfest.TouchLink(c.Request.Context(), &hfsvc.TouchLinkOptions{
		Server:   server,
		Id:       id,
		Etwin:    etwinId,
		LinkedBy: actingAs,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (s *Server) hammerfestDeleteLink(c *gin.Context) {
	server, err := hflib.ParseServer(c.Param("server"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	id, err := hflib.ParseUserId(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	var body linkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actingAs, err := etwin.ParseUserId(body.ActingAs)
	if err != nil {
		abortWithError(c, err)
		return
	}

	link, err := s.hammerfest.DeleteLink(c.Request.Context(), &hfsvc.DeleteLinkOptions{
		Server:     server,
		Id:         id,
		UnlinkedBy: actingAs,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (s *Server) dinoparcLogin(c *gin.Context) {
	var body struct {
		Server   string `json:"server" binding:"required"`
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	server, err := dplib.ParseServer(body.Server)
	if err != nil {
		abortWithError(c, err)
		return
	}
	username, err := dplib.ParseUsername(body.Username)
	if err != nil {
		abortWithError(c, err)
		return
	}

	session, err := s.dinoparc.CreateSession(c.Request.Context(), &dplib.Credentials{
		Server:   server,
		Username: username,
		Password: body.Password,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) dinoparcDinoz(c *gin.Context) {
	server, err := dplib.ParseServer(c.Param("server"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	id, err := dplib.ParseDinozId(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}

	dinoz, err := s.dinoparc.GetDinoz(c.Request.Context(), nil, &dplib.GetDinozOptions{
		Server:  server,
		DinozId: id,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	if dinoz == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "dinoz not found"})
		return
	}
	c.JSON(http.StatusOK, dinoz)
}

func (s *Server) dinoparcUser(c *gin.Context) {
	server, err := dplib.ParseServer(c.Param("server"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	id, err := dplib.ParseUserId(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	at, ok := asOfTime(c)
	if !ok {
		return
	}

	user, err := s.dinoparc.GetUser(c.Request.Context(), &dpsvc.GetUserOptions{
		Server: server,
		Id:     id,
		Time:   at,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) dinoparcTouchLink(c *gin.Context) {
	server, err := dplib.ParseServer(c.Param("server"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	id, err := dplib.ParseUserId(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	var body linkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	etwinId, err := etwin.ParseUserId(body.Etwin)
	if err != nil {
		abortWithError(c, err)
		return
	}
	actingAs, err := etwin.ParseUserId(body.ActingAs)
	if err != nil {
		abortWithError(c, err)
		return
	}

	link, err := s.dinoparc.TouchLink(c.Request.Context(), &dpsvc.TouchLinkOptions{
		Server:   server,
		Id:       id,
		Etwin:    etwinId,
		LinkedBy: actingAs,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (s *Server) dinoparcDeleteLink(c *gin.Context) {
	server, err := dplib.ParseServer(c.Param("server"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	id, err := dplib.ParseUserId(c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	var body linkBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	actingAs, err := etwin.ParseUserId(body.ActingAs)
	if err != nil {
		abortWithError(c, err)
		return
	}

	link, err := s.dinoparc.DeleteLink(c.Request.Context(), &dpsvc.DeleteLinkOptions{
		Server:     server,
		Id:         id,
		UnlinkedBy: actingAs,
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (s *Server) suggestLinks(c *gin.Context) {
	var body struct {
		EtwinNames  []string `json:"etwin_names" binding:"required"`
		RemoteNames []string `json:"remote_names" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	suggestions := linker.SuggestLinks(body.EtwinNames, body.RemoteNames)
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}
