package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/donezo-dev/donezo/internal/auth"
	"github.com/donezo-dev/donezo/internal/client"
)

// LoginForm represents the login form fields
type LoginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

// Demo account of the hosted backend, pre-filled on the login form
const (
	demoEmail    = "user1@example.com"
	demoPassword = "password123"
)

type loginPageData struct {
	Email     string
	Password  string
	Error     string
	CSRFToken string
	Version   string
}

func (s *Server) loginPage(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "login.html", loginPageData{
		Email:     demoEmail,
		Password:  demoPassword,
		CSRFToken: s.csrf.ensureToken(c),
		Version:   s.version,
	})
}

func (s *Server) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "login.html", loginPageData{
			Error:     auth.GenericLoginFailure,
			CSRFToken: s.csrf.ensureToken(c),
			Version:   s.version,
		})
		return
	}

	if _, err := s.auth.Login(c.Request.Context(), form.Email, form.Password); err != nil {
		c.HTML(loginFailureStatus(err), "login.html", loginPageData{
			Email:     form.Email,
			Error:     auth.FailureMessage(err),
			CSRFToken: s.csrf.ensureToken(c),
			Version:   s.version,
		})
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) logout(c *gin.Context) {
	s.auth.Logout()
	c.Redirect(http.StatusSeeOther, loginPath)
}

// loginFailureStatus picks the status code for a re-rendered login form
func loginFailureStatus(err error) int {
	var verr *auth.ValidationError
	if errors.As(err, &verr) {
		if verr.Field == "token" {
			return http.StatusBadGateway
		}
		return http.StatusBadRequest
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden {
			return http.StatusUnauthorized
		}
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return http.StatusBadRequest
		}
	}

	return http.StatusBadGateway
}
