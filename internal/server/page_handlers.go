package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/authdash/authdash/internal/guard"
	"github.com/authdash/authdash/internal/provider"
	"github.com/authdash/authdash/internal/views"
)

// root sends visitors wherever their session says they belong
func (s *Server) root(c *gin.Context) {
	st, _ := getRequestAuth(c).Store().Ready(c.Request.Context())

	switch guard.Decide(st) {
	case guard.Loading:
		s.renderLoading(c)
	case guard.Unauthenticated:
		s.redirect(c, http.StatusFound, guard.LoginPath)
	default:
		s.redirect(c, http.StatusFound, guard.DashboardPath)
	}
}

func (s *Server) dashboard(c *gin.Context) {
	user := getRequestAuth(c).Store().State().User
	s.render(c, http.StatusOK, views.DashboardTemplate, "Dashboard", views.Dashboard(user, s.now(), s.location))
}

func (s *Server) notFound(c *gin.Context) {
	s.logger.Debug().Str("path", c.Request.URL.Path).Msg("No route matched")
	s.render(c, http.StatusNotFound, views.NotFoundTemplate, "Not Found", views.NotFoundPage{
		Path: c.Request.URL.Path,
	})
}

// UserResponse is the JSON form of the signed-in user
type UserResponse struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	CreatedAt     string `json:"created_at,omitempty"`
	LastSignInAt  string `json:"last_sign_in_at,omitempty"`
}

func newUserResponse(u *provider.User) UserResponse {
	resp := UserResponse{
		UID:           u.UID,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
	}
	if !u.CreatedAt.IsZero() {
		resp.CreatedAt = u.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !u.LastSignInAt.IsZero() {
		resp.LastSignInAt = u.LastSignInAt.UTC().Format(time.RFC3339)
	}
	return resp
}

func (s *Server) getCurrentUser(c *gin.Context) {
	ra := getRequestAuth(c)
	user := ra.Store().State().User
	if user == nil {
		respondWithError(c, s.logger, http.StatusUnauthorized, ErrUnauthenticated, "Unauthorized")
		return
	}
	ra.save()
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}
