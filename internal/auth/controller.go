// Package auth owns the client-side authentication lifecycle: restoring a
// persisted session on startup, logging in and out, and exposing the
// resulting state to the route guard and the views.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/donezo-dev/donezo/internal/client"
	"github.com/donezo-dev/donezo/internal/models"
	"github.com/donezo-dev/donezo/internal/session"
)

// State is the controller's lifecycle position
type State int

const (
	StateRestoring State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "RESTORING"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateUnauthenticated:
		return "UNAUTHENTICATED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// AuthState is the read-only projection handed to guards and views
type AuthState struct {
	State           State            `json:"state"`
	IsAuthenticated bool             `json:"isAuthenticated"`
	Loading         bool             `json:"loading"`
	Identity        *models.Identity `json:"identity,omitempty"`
}

// Authenticator performs the network half of a login
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*client.LoginResponse, error)
}

// ValidationError reports unusable login input or an unusable login response
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ErrMissingToken is wrapped by the ValidationError returned when a 2xx login carries no token
var ErrMissingToken = errors.New("login response missing token")

type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Controller holds the in-memory session and is the only writer of the session store
type Controller struct {
	store    session.Store
	api      Authenticator
	logger   zerolog.Logger
	validate *validator.Validate

	mu      sync.RWMutex
	state   State
	current *models.Session

	// persistMu orders each state change with its store write, so a Logout
	// can never be overtaken by the Save of an earlier Login
	persistMu sync.Mutex

	restoreOnce sync.Once
}

// NewController creates a controller in the RESTORING state
func NewController(store session.Store, api Authenticator, log zerolog.Logger) *Controller {
	return &Controller{
		store:    store,
		api:      api,
		logger:   log.With().Str("component", "auth").Logger(),
		validate: validator.New(),
		state:    StateRestoring,
	}
}

// Restore reads the persisted session and leaves RESTORING.
// Only the first call does any work; later calls return the current state.
// If a login already finished while restoring, the newer session wins.
func (c *Controller) Restore() AuthState {
	c.restoreOnce.Do(func() {
		stored, ok := c.store.Load()

		c.mu.Lock()
		defer c.mu.Unlock()

		if c.state != StateRestoring {
			return
		}

		if ok {
			c.current = stored
			c.state = StateAuthenticated
			c.logger.Debug().Str("email", stored.Identity.Email).Msg("Restored session")
			return
		}

		c.state = StateUnauthenticated
		c.logger.Debug().Msg("No stored session")
	})

	return c.State()
}

// Login authenticates against the backend and persists the new session.
// It returns the backend payload unchanged. Any failure, including a 2xx
// response without a token, leaves the state untouched and is returned.
// Logging in while already authenticated replaces the session.
func (c *Controller) Login(ctx context.Context, email, password string) (*client.LoginResponse, error) {
	creds := credentials{Email: strings.TrimSpace(email), Password: password}
	if err := c.validate.Struct(creds); err != nil {
		return nil, toValidationError(err)
	}

	resp, err := c.api.Login(ctx, creds.Email, creds.Password)
	if err != nil {
		c.logger.Warn().Err(err).Str("email", creds.Email).Msg("Login request failed")
		return nil, fmt.Errorf("login failed: %w", err)
	}

	if resp == nil || strings.TrimSpace(resp.Token) == "" {
		c.logger.Warn().Str("email", creds.Email).Msg("Login response missing token")
		return nil, &ValidationError{Field: "token", Message: ErrMissingToken.Error(), Err: ErrMissingToken}
	}

	next := models.Session{
		Identity: models.Identity{ID: resp.ID, Email: resp.Email},
		Token:    resp.Token,
	}

	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	c.current = &next
	c.state = StateAuthenticated
	c.mu.Unlock()

	if err := c.store.Save(next); err != nil {
		// Session stays usable in memory; the next start will not restore it
		c.logger.Error().Err(err).Msg("Failed to persist session")
	}

	c.logger.Info().Str("email", next.Identity.Email).Msg("Logged in")
	return resp, nil
}

// Logout drops the session from memory and storage. It never fails.
func (c *Controller) Logout() {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	c.mu.Lock()
	wasAuthenticated := c.current != nil
	c.current = nil
	c.state = StateUnauthenticated
	c.mu.Unlock()

	if err := c.store.Clear(); err != nil {
		c.logger.Error().Err(err).Msg("Failed to clear stored session")
	}

	if wasAuthenticated {
		c.logger.Info().Msg("Logged out")
	}
}

// State returns the current projection
func (c *Controller) State() AuthState {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := AuthState{
		State:           c.state,
		IsAuthenticated: c.current != nil,
		Loading:         c.state == StateRestoring,
	}
	if c.current != nil {
		identity := c.current.Identity
		st.Identity = &identity
	}
	return st
}

// Identity returns the logged in identity, if any
func (c *Controller) Identity() (models.Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.current == nil {
		return models.Identity{}, false
	}
	return c.current.Identity, true
}

// Token implements client.TokenSource. The in-memory session wins.
// The store is read through only while restoring; afterwards memory is
// authoritative, so a logout whose Clear failed sends no stale token.
func (c *Controller) Token() (string, bool) {
	c.mu.RLock()
	if c.current != nil {
		token := c.current.Token
		c.mu.RUnlock()
		return token, true
	}
	restoring := c.state == StateRestoring
	c.mu.RUnlock()

	if !restoring {
		return "", false
	}

	stored, ok := c.store.Load()
	if !ok {
		return "", false
	}
	return stored.Token, true
}

// TokenInfo decodes the current token for display, if it is a JWT
func (c *Controller) TokenInfo() (*TokenInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.current == nil {
		return nil, false
	}
	return InspectToken(c.current.Token)
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: field, Message: fmt.Sprintf("%s is required", field)}
	case "email":
		return &ValidationError{Field: field, Message: "email must be a valid email address"}
	default:
		return &ValidationError{Field: field, Message: fmt.Sprintf("%s is invalid", field)}
	}
}
