// Package guard gates protected views on the authentication state.
//
// Evaluate is the single decision point. Middleware applies it to a whole
// gin route group and Require applies it to CLI commands, so every protected
// surface sits behind the same gate.
package guard

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/donezo-dev/donezo/internal/auth"
)

// Decision is what the guard does with a navigation
type Decision int

const (
	// DecisionLoading shows a neutral loading indicator and admits nothing
	DecisionLoading Decision = iota
	// DecisionRedirect sends the user to the login entry point
	DecisionRedirect
	// DecisionAdmit renders the protected content
	DecisionAdmit
)

func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionRedirect:
		return "redirect"
	case DecisionAdmit:
		return "admit"
	default:
		return "unknown"
	}
}

// StateSource exposes the authentication projection
type StateSource interface {
	State() auth.AuthState
}

var (
	ErrNotAuthenticated = errors.New("not authenticated. Please run 'donezo login' first")
	ErrRestoring        = errors.New("session restore has not finished")
)

const stateContextKey = "auth_state"

// Evaluate maps an authentication state to a guard decision
func Evaluate(st auth.AuthState) Decision {
	switch {
	case st.Loading || st.State == auth.StateRestoring:
		return DecisionLoading
	case st.State == auth.StateAuthenticated && st.IsAuthenticated:
		return DecisionAdmit
	default:
		return DecisionRedirect
	}
}

// Require returns nil only when protected content may be shown
func Require(src StateSource) error {
	switch Evaluate(src.State()) {
	case DecisionAdmit:
		return nil
	case DecisionLoading:
		return ErrRestoring
	default:
		return ErrNotAuthenticated
	}
}

// Options configures the gin middleware
type Options struct {
	// LoginPath is the redirect target for unauthenticated requests
	LoginPath string
	// Loading renders the neutral page shown while restoring. Optional.
	Loading gin.HandlerFunc
}

// Middleware wraps a protected route group
func Middleware(src StateSource, opts Options) gin.HandlerFunc {
	loginPath := opts.LoginPath
	if loginPath == "" {
		loginPath = "/login"
	}

	return func(c *gin.Context) {
		st := src.State()

		switch Evaluate(st) {
		case DecisionLoading:
			c.Header("Retry-After", "1")
			c.Header("Cache-Control", "no-store")
			if opts.Loading != nil {
				opts.Loading(c)
			} else {
				c.String(http.StatusServiceUnavailable, "Loading...")
			}
			c.Abort()
		case DecisionRedirect:
			// 303 turns any method into a GET of the login page and keeps the
			// protected URL out of the browser history
			c.Header("Cache-Control", "no-store")
			c.Redirect(http.StatusSeeOther, loginPath)
			c.Abort()
		default:
			c.Set(stateContextKey, st)
			c.Next()
		}
	}
}

// GetState returns the state admitted by Middleware
func GetState(c *gin.Context) (auth.AuthState, bool) {
	value, exists := c.Get(stateContextKey)
	if !exists {
		return auth.AuthState{}, false
	}

	st, ok := value.(auth.AuthState)
	return st, ok
}
