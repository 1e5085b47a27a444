package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/authdash/authdash/internal/guard"
	"github.com/authdash/authdash/internal/views"
)

var ErrUnauthenticated = errors.New("not signed in")

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// sessionMiddleware loads the signed cookie and attaches the request's auth
// context. A cookie that fails verification starts a fresh session.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := s.sessions.Get(c.Request, sessionCookieName)
		if err != nil {
			s.logger.Debug().Err(err).Msg("Discarding unreadable session cookie")
		}

		ra := &requestAuth{server: s, c: c, session: session}
		c.Set(requestAuthKey, ra)
		defer ra.close()

		c.Next()
	}
}

// requireAuth guards HTML pages. It waits for the provider's first session
// report, then lets signed-in visitors through and sends everyone else to
// the login page with the requested location attached.
func (s *Server) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		ra := getRequestAuth(c)
		st, err := ra.Store().Ready(c.Request.Context())
		if err != nil {
			s.logger.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("Session not ready")
		}

		switch guard.Decide(st) {
		case guard.Loading:
			s.renderLoading(c)
			c.Abort()
		case guard.Unauthenticated:
			s.redirect(c, http.StatusFound, guard.LoginRedirect(c.Request.URL))
			c.Abort()
		default:
			c.Next()
		}
	}
}

// requireAuthAPI is requireAuth for JSON routes
func (s *Server) requireAuthAPI() gin.HandlerFunc {
	return func(c *gin.Context) {
		ra := getRequestAuth(c)
		st, err := ra.Store().Ready(c.Request.Context())
		if err != nil {
			respondWithError(c, s.logger, http.StatusServiceUnavailable, err, "Session not ready")
			return
		}

		if guard.Decide(st) != guard.Authenticated {
			ra.save()
			respondWithError(c, s.logger, http.StatusUnauthorized, ErrUnauthenticated, "Unauthorized")
			return
		}

		c.Next()
	}
}

// render saves the session, then writes an HTML page with any pending flashes
func (s *Server) render(c *gin.Context, status int, name, title string, data any) {
	s.renderPage(c, status, name, views.Page{Title: title, Data: data})
}

// renderLoading writes the placeholder shown until the session is known.
// It keeps flashes for the page that follows.
func (s *Server) renderLoading(c *gin.Context) {
	if ra := getRequestAuth(c); ra != nil {
		ra.save()
	}
	c.HTML(http.StatusServiceUnavailable, views.LoadingTemplate, views.Page{
		Title:   "Loading",
		Refresh: views.LoadingRefresh,
	})
}

func (s *Server) renderPage(c *gin.Context, status int, name string, page views.Page) {
	if ra := getRequestAuth(c); ra != nil {
		page.Flash = ra.flashes()
		ra.save()
	}
	c.HTML(status, name, page)
}

// redirect saves the session (flashes included) before redirecting
func (s *Server) redirect(c *gin.Context, status int, location string) {
	if ra := getRequestAuth(c); ra != nil {
		ra.save()
	}
	c.Redirect(status, location)
}
