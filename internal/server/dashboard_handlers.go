package server

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/donezo-dev/donezo/internal/dashboard"
	"github.com/donezo-dev/donezo/internal/guard"
)

type dashboardPageData struct {
	View      dashboard.View
	CSRFToken string
	Version   string
}

func (s *Server) dashboardPage(c *gin.Context) {
	// The fetch lives as long as the request; a closed tab cancels it
	view := s.dashboard.Load(c.Request.Context())

	if st, ok := guard.GetState(c); ok {
		view.Identity = st.Identity
	}

	c.Header("Cache-Control", "no-store")
	c.HTML(http.StatusOK, "dashboard.html", dashboardPageData{
		View:      view,
		CSRFToken: s.csrf.ensureToken(c),
		Version:   s.version,
	})
}

func (s *Server) loadingPage(c *gin.Context) {
	c.HTML(http.StatusServiceUnavailable, "loading.html", nil)
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"initial": func(s string) string {
			s = strings.TrimSpace(s)
			if s == "" {
				return "?"
			}
			return strings.ToUpper(string([]rune(s)[0]))
		},
		"odd": func(i int) bool {
			return i%2 == 1
		},
	}
}
