package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donezo-dev/donezo/internal/client"
	"github.com/donezo-dev/donezo/internal/models"
	"github.com/donezo-dev/donezo/internal/session"
)

// mockAPIClient simulates the login endpoint
type mockAPIClient struct {
	resp  *client.LoginResponse
	err   error
	calls int
}

func (m *mockAPIClient) Login(ctx context.Context, email, password string) (*client.LoginResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

// failingStore loads nothing and fails every write
type failingStore struct{}

func (failingStore) Save(models.Session) error {
	return &session.PersistenceError{Backend: "test", Op: "save", Err: errors.New("disk full")}
}
func (failingStore) Load() (*models.Session, bool) { return nil, false }
func (failingStore) Clear() error {
	return &session.PersistenceError{Backend: "test", Op: "clear", Err: errors.New("disk full")}
}

func successfulLogin() *mockAPIClient {
	return &mockAPIClient{resp: &client.LoginResponse{
		ID:    models.NumberID(1),
		Email: "user1@example.com",
		Token: "abc123",
		Raw:   []byte(`{"id":1,"email":"user1@example.com","token":"abc123"}`),
	}}
}

func newController(store session.Store, api Authenticator) *Controller {
	return NewController(store, api, zerolog.Nop())
}

func TestRestore_WithStoredSession(t *testing.T) {
	store := session.NewMemoryStore()
	store.Set(session.TokenKey, "tkn")
	store.Set(session.IdentityKey, `{"id":"1","email":"a@x.com"}`)

	ctrl := newController(store, &mockAPIClient{})
	assert.True(t, ctrl.State().Loading)
	assert.Equal(t, StateRestoring, ctrl.State().State)

	st := ctrl.Restore()

	assert.True(t, st.IsAuthenticated)
	assert.False(t, st.Loading)
	assert.Equal(t, StateAuthenticated, st.State)
	require.NotNil(t, st.Identity)
	assert.Equal(t, "a@x.com", st.Identity.Email)
	assert.Equal(t, `"1"`, string(st.Identity.ID))
}

func TestRestore_AbsentOrBrokenSession(t *testing.T) {
	tests := []struct {
		name    string
		entries map[string]string
	}{
		{name: "empty store"},
		{name: "token only", entries: map[string]string{session.TokenKey: "tkn"}},
		{name: "identity only", entries: map[string]string{session.IdentityKey: `{"id":"1","email":"a@x.com"}`}},
		{name: "unparsable identity", entries: map[string]string{session.TokenKey: "tkn", session.IdentityKey: `not json`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := session.NewMemoryStore()
			for k, v := range tt.entries {
				store.Set(k, v)
			}

			st := newController(store, &mockAPIClient{}).Restore()

			assert.False(t, st.IsAuthenticated)
			assert.False(t, st.Loading)
			assert.Equal(t, StateUnauthenticated, st.State)
			assert.Nil(t, st.Identity)
		})
	}
}

func TestRestore_RunsOnce(t *testing.T) {
	store := session.NewMemoryStore()
	ctrl := newController(store, &mockAPIClient{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctrl.Restore()
		}()
	}
	wg.Wait()
	assert.Equal(t, StateUnauthenticated, ctrl.State().State)

	// A session appearing later is not picked up by a second Restore
	store.Set(session.TokenKey, "tkn")
	store.Set(session.IdentityKey, `{"id":"1","email":"a@x.com"}`)
	assert.Equal(t, StateUnauthenticated, ctrl.Restore().State)
}

func TestLogin_PersistsSession(t *testing.T) {
	store := session.NewMemoryStore()
	api := successfulLogin()
	ctrl := newController(store, api)
	ctrl.Restore()

	resp, err := ctrl.Login(context.Background(), "user1@example.com", "password123")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"email":"user1@example.com","token":"abc123"}`, string(resp.Raw))

	st := ctrl.State()
	assert.True(t, st.IsAuthenticated)
	assert.Equal(t, StateAuthenticated, st.State)

	token, ok := store.Get(session.TokenKey)
	require.True(t, ok)
	assert.Equal(t, "abc123", token)

	identity, ok := store.Get(session.IdentityKey)
	require.True(t, ok)
	assert.JSONEq(t, `{"id":1,"email":"user1@example.com"}`, identity)
}

func TestLogin_MissingTokenIsFailure(t *testing.T) {
	for _, token := range []string{"", "   "} {
		store := session.NewMemoryStore()
		api := &mockAPIClient{resp: &client.LoginResponse{ID: models.NumberID(1), Email: "user1@example.com", Token: token}}
		ctrl := newController(store, api)
		ctrl.Restore()

		resp, err := ctrl.Login(context.Background(), "user1@example.com", "password123")
		assert.Nil(t, resp)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "token", verr.Field)
		assert.ErrorIs(t, err, ErrMissingToken)

		assert.False(t, ctrl.State().IsAuthenticated)
		assert.Equal(t, StateUnauthenticated, ctrl.State().State)
		_, stored := store.Load()
		assert.False(t, stored, "nothing may be persisted")
	}
}

func TestLogin_NetworkErrorPropagates(t *testing.T) {
	apiErr := &client.APIError{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	store := session.NewMemoryStore()
	ctrl := newController(store, &mockAPIClient{err: apiErr})
	ctrl.Restore()

	_, err := ctrl.Login(context.Background(), "user1@example.com", "wrong")

	var got *client.APIError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, "Invalid credentials", got.Message)
	assert.Equal(t, StateUnauthenticated, ctrl.State().State)
}

func TestLogin_InputValidation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		field    string
	}{
		{name: "missing email", email: " ", password: "pw", field: "email"},
		{name: "malformed email", email: "not-an-email", password: "pw", field: "email"},
		{name: "missing password", email: "a@x.com", password: "", field: "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := successfulLogin()
			ctrl := newController(session.NewMemoryStore(), api)

			_, err := ctrl.Login(context.Background(), tt.email, tt.password)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Zero(t, api.calls, "invalid input must not reach the network")
		})
	}
}

func TestLogin_OverwritesExistingSession(t *testing.T) {
	store := session.NewMemoryStore()
	api := successfulLogin()
	ctrl := newController(store, api)
	ctrl.Restore()

	_, err := ctrl.Login(context.Background(), "user1@example.com", "password123")
	require.NoError(t, err)

	api.resp = &client.LoginResponse{ID: models.StringID("2"), Email: "b@x.com", Token: "second"}
	_, err = ctrl.Login(context.Background(), "b@x.com", "pw")
	require.NoError(t, err)

	identity, ok := ctrl.Identity()
	require.True(t, ok)
	assert.Equal(t, "b@x.com", identity.Email)

	token, _ := store.Get(session.TokenKey)
	assert.Equal(t, "second", token)
}

func TestLogin_PersistenceFailureKeepsMemorySession(t *testing.T) {
	ctrl := newController(failingStore{}, successfulLogin())
	ctrl.Restore()

	_, err := ctrl.Login(context.Background(), "user1@example.com", "password123")
	require.NoError(t, err)

	assert.True(t, ctrl.State().IsAuthenticated)
	token, ok := ctrl.Token()
	assert.True(t, ok)
	assert.Equal(t, "abc123", token)
}

func TestLoginThenLogout_ClearsEverything(t *testing.T) {
	store := session.NewMemoryStore()
	ctrl := newController(store, successfulLogin())
	ctrl.Restore()

	_, err := ctrl.Login(context.Background(), "user1@example.com", "password123")
	require.NoError(t, err)

	ctrl.Logout()

	assert.Equal(t, StateUnauthenticated, ctrl.State().State)
	assert.False(t, ctrl.State().IsAuthenticated)
	_, ok := store.Get(session.TokenKey)
	assert.False(t, ok)
	_, ok = store.Get(session.IdentityKey)
	assert.False(t, ok)

	_, ok = ctrl.Token()
	assert.False(t, ok)
}

func TestLogout_WhenUnauthenticatedIsNoop(t *testing.T) {
	ctrl := newController(session.NewMemoryStore(), &mockAPIClient{})
	ctrl.Restore()

	ctrl.Logout()
	ctrl.Logout()

	assert.Equal(t, StateUnauthenticated, ctrl.State().State)
}

func TestLogout_StoreFailureIsSwallowed(t *testing.T) {
	ctrl := newController(failingStore{}, successfulLogin())
	ctrl.Restore()
	_, err := ctrl.Login(context.Background(), "user1@example.com", "password123")
	require.NoError(t, err)

	ctrl.Logout()
	assert.False(t, ctrl.State().IsAuthenticated)
}

func TestToken_ReadsThroughStore(t *testing.T) {
	store := session.NewMemoryStore()
	ctrl := newController(store, &mockAPIClient{})

	_, ok := ctrl.Token()
	assert.False(t, ok)

	require.NoError(t, store.Save(models.Session{Identity: models.Identity{Email: "a@x.com"}, Token: "from-store"}))

	token, ok := ctrl.Token()
	assert.True(t, ok)
	assert.Equal(t, "from-store", token)
}

func TestLogin_DuringRestoreWins(t *testing.T) {
	store := session.NewMemoryStore()
	store.Set(session.TokenKey, "old")
	store.Set(session.IdentityKey, `{"id":"9","email":"old@x.com"}`)

	ctrl := newController(store, successfulLogin())
	_, err := ctrl.Login(context.Background(), "user1@example.com", "password123")
	require.NoError(t, err)

	st := ctrl.Restore()
	assert.False(t, st.Loading)
	assert.Equal(t, "user1@example.com", st.Identity.Email)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "RESTORING", StateRestoring.String())
	assert.Equal(t, "AUTHENTICATED", StateAuthenticated.String())
	assert.Equal(t, "UNAUTHENTICATED", StateUnauthenticated.String())
}

// gatedStore blocks inside Save until released
type gatedStore struct {
	*session.MemoryStore
	entered chan struct{}
	release chan struct{}
}

func (g *gatedStore) Save(s models.Session) error {
	close(g.entered)
	<-g.release
	return g.MemoryStore.Save(s)
}

func TestLogout_DuringPendingSaveStaysLoggedOut(t *testing.T) {
	store := &gatedStore{
		MemoryStore: session.NewMemoryStore(),
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	ctrl := newController(store, successfulLogin())
	ctrl.Restore()

	loginDone := make(chan error, 1)
	go func() {
		_, err := ctrl.Login(context.Background(), "user1@example.com", "password123")
		loginDone <- err
	}()
	<-store.entered

	logoutDone := make(chan struct{})
	go func() {
		ctrl.Logout()
		close(logoutDone)
	}()

	select {
	case <-logoutDone:
		t.Fatal("logout finished while the login was still persisting")
	case <-time.After(50 * time.Millisecond):
	}

	close(store.release)
	require.NoError(t, <-loginDone)
	<-logoutDone

	assert.Equal(t, StateUnauthenticated, ctrl.State().State)
	_, persisted := store.Load()
	assert.False(t, persisted, "logout must win over the earlier save")

	// A fresh process must not restore the session
	restarted := newController(store.MemoryStore, &mockAPIClient{})
	assert.Equal(t, StateUnauthenticated, restarted.Restore().State)
}

// stickyStore keeps its entries when Clear fails
type stickyStore struct {
	*session.MemoryStore
}

func (stickyStore) Clear() error {
	return &session.PersistenceError{Backend: "test", Op: "clear", Err: errors.New("read-only")}
}

func TestToken_NoStaleTokenAfterFailedClear(t *testing.T) {
	store := stickyStore{session.NewMemoryStore()}
	ctrl := newController(store, successfulLogin())
	ctrl.Restore()
	_, err := ctrl.Login(context.Background(), "user1@example.com", "password123")
	require.NoError(t, err)

	ctrl.Logout()

	_, stillStored := store.Load()
	require.True(t, stillStored)

	token, ok := ctrl.Token()
	assert.False(t, ok)
	assert.Empty(t, token)
}
