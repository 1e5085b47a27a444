package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/authdash/authdash/internal/forms"
	"github.com/authdash/authdash/internal/guard"
	"github.com/authdash/authdash/internal/provider"
	"github.com/authdash/authdash/internal/views"
)

const (
	titleSignIn = "Sign In"
	titleSignUp = "Sign Up"
)

func (s *Server) loginPage(c *gin.Context) {
	s.render(c, http.StatusOK, views.LoginTemplate, titleSignIn, views.LoginPage{
		From: c.Query(guard.FromParam),
	})
}

func (s *Server) login(c *gin.Context) {
	var form forms.Login
	if err := c.ShouldBind(&form); err != nil {
		s.render(c, http.StatusUnprocessableEntity, views.LoginTemplate, titleSignIn, views.LoginPage{
			Email:  form.Email,
			From:   form.From,
			Errors: forms.Messages(err),
		})
		return
	}

	store := getRequestAuth(c).Store()
	if _, err := store.SignIn(c.Request.Context(), form.Email, form.Password); err != nil {
		status := http.StatusUnauthorized
		if provider.IsCode(err, provider.CodeUnavailable) {
			status = http.StatusServiceUnavailable
		}
		s.render(c, status, views.LoginTemplate, titleSignIn, views.LoginPage{
			Email: form.Email,
			From:  form.From,
		})
		return
	}

	s.redirect(c, http.StatusSeeOther, guard.ReturnTo(form.From))
}

func (s *Server) signUpPage(c *gin.Context) {
	s.render(c, http.StatusOK, views.SignUpTemplate, titleSignUp, views.SignUpPage{})
}

func (s *Server) signUp(c *gin.Context) {
	var form forms.SignUp
	if err := c.ShouldBind(&form); err != nil {
		s.render(c, http.StatusUnprocessableEntity, views.SignUpTemplate, titleSignUp, views.SignUpPage{
			Email:  form.Email,
			Errors: forms.Messages(err),
		})
		return
	}

	store := getRequestAuth(c).Store()
	if _, err := store.SignUp(c.Request.Context(), form.Email, form.Password); err != nil {
		status := http.StatusBadRequest
		switch {
		case provider.IsCode(err, provider.CodeEmailExists):
			status = http.StatusConflict
		case provider.IsCode(err, provider.CodeUnavailable):
			status = http.StatusServiceUnavailable
		}
		s.render(c, status, views.SignUpTemplate, titleSignUp, views.SignUpPage{Email: form.Email})
		return
	}

	s.redirect(c, http.StatusSeeOther, guard.DashboardPath)
}

func (s *Server) logout(c *gin.Context) {
	store := getRequestAuth(c).Store()
	if err := store.SignOut(c.Request.Context()); err != nil {
		s.redirect(c, http.StatusSeeOther, guard.DashboardPath)
		return
	}

	s.redirect(c, http.StatusSeeOther, guard.LoginPath)
}
