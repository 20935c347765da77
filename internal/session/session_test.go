package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap/zaptest"

	"github.com/softseven/studio-admin/internal/apiclient"
	"github.com/softseven/studio-admin/internal/devapi"
	"github.com/softseven/studio-admin/internal/errs"
	"github.com/softseven/studio-admin/internal/model"
	"github.com/softseven/studio-admin/internal/resource"
	"github.com/softseven/studio-admin/internal/tokenstore"
)

type fakeAuth struct {
	loginResp model.LoginResponse
	loginErr  error
	logoutErr error
	user      model.User
	userErr   error

	logoutCalls int
	userCalls   int
}

var _ AuthAPI = (*fakeAuth)(nil)

func (f *fakeAuth) Login(context.Context, model.LoginRequest) (model.LoginResponse, error) {
	return f.loginResp, f.loginErr
}
func (f *fakeAuth) Logout(context.Context) error {
	f.logoutCalls++
	return f.logoutErr
}
func (f *fakeAuth) CurrentUser(context.Context) (model.User, error) {
	f.userCalls++
	return f.user, f.userErr
}

type routes []string

func (r *routes) Navigate(route string) { *r = append(*r, route) }

type resetCounter int

func (r *resetCounter) Reset() { *r++ }

func Test_New_IsLoading(t *testing.T) {
	s := New(&fakeAuth{}, tokenstore.NewMemoryStore())
	snap := s.Snapshot()
	if !snap.IsLoading || snap.IsAuthenticated || snap.State != StateLoading {
		t.Fatalf("unexpected initial snapshot: %+v", snap)
	}
}

func Test_Initialize_NoToken(t *testing.T) {
	auth := &fakeAuth{}
	s := New(auth, tokenstore.NewMemoryStore())

	if err := s.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	snap := s.Snapshot()
	if snap.IsAuthenticated || snap.IsLoading || snap.User != nil {
		t.Fatalf("want unauthenticated, got %+v", snap)
	}
	if auth.userCalls != 0 {
		t.Fatalf("no token must not hit /user")
	}
}

func Test_Initialize_ValidToken(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	_ = store.Save(ctx, tokenstore.Token{Value: "t"})
	auth := &fakeAuth{user: model.User{ID: 7, Name: "Ana"}}
	s := New(auth, store)

	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	snap := s.Snapshot()
	if !snap.IsAuthenticated || snap.User == nil || snap.User.ID != 7 {
		t.Fatalf("want authenticated as 7, got %+v", snap)
	}
}

func Test_Initialize_RejectedToken_Cleared(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	_ = store.Save(ctx, tokenstore.Token{Value: "t"})
	s := New(&fakeAuth{userErr: errs.ErrUnauthorized}, store)

	if err := s.Initialize(ctx); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
	if s.Snapshot().IsAuthenticated {
		t.Fatalf("must be unauthenticated")
	}
	if _, err := store.Load(ctx); !errors.Is(err, errs.ErrNoToken) {
		t.Fatalf("stale token must be cleared, got %v", err)
	}
}

func Test_Initialize_TransportFailure_KeepsToken(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	_ = store.Save(ctx, tokenstore.Token{Value: "t"})
	s := New(&fakeAuth{userErr: errs.ErrTransport}, store)

	if err := s.Check(ctx); !errors.Is(err, errs.ErrTransport) {
		t.Fatalf("want ErrTransport, got %v", err)
	}
	if s.Snapshot().IsAuthenticated {
		t.Fatalf("must be unauthenticated")
	}
	if _, err := store.Load(ctx); err != nil {
		t.Fatalf("token must survive a transport failure: %v", err)
	}
}

func Test_Login_Success(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	var nav routes
	var resets resetCounter
	auth := &fakeAuth{loginResp: model.LoginResponse{Token: "abc", User: model.User{ID: 1, Email: "a@b.c"}}}
	s := New(auth, store, WithNavigator(&nav), WithCache(&resets), WithLogger(zaptest.NewLogger(t)))

	u, err := s.Login(ctx, "a@b.c", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.ID != 1 {
		t.Fatalf("user = %+v", u)
	}
	tok, err := store.Load(ctx)
	if err != nil || tok.Value != "abc" {
		t.Fatalf("token not stored: %v %v", tok, err)
	}
	if !s.Snapshot().IsAuthenticated {
		t.Fatalf("must be authenticated")
	}
	if len(nav) != 1 || nav[0] != RouteDashboard {
		t.Fatalf("navigation = %v", nav)
	}
	if resets != 1 {
		t.Fatalf("cache resets = %d", resets)
	}
}

func Test_Login_Failure(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	var nav routes
	loginErr := errors.New("Invalid credentials")
	s := New(&fakeAuth{loginErr: loginErr}, store, WithNavigator(&nav))

	if _, err := s.Login(ctx, "a@b.c", "bad"); !errors.Is(err, loginErr) {
		t.Fatalf("want login error, got %v", err)
	}
	if s.Snapshot().IsAuthenticated {
		t.Fatalf("must stay unauthenticated")
	}
	if _, err := store.Load(ctx); !errors.Is(err, errs.ErrNoToken) {
		t.Fatalf("nothing must be stored, got %v", err)
	}
	if len(nav) != 0 {
		t.Fatalf("no navigation on failure: %v", nav)
	}
}

func Test_Login_EmptyToken(t *testing.T) {
	s := New(&fakeAuth{loginResp: model.LoginResponse{User: model.User{ID: 1}}}, tokenstore.NewMemoryStore())
	if _, err := s.Login(context.Background(), "a", "b"); err == nil {
		t.Fatalf("want error for response without token")
	}
	if s.Snapshot().IsAuthenticated {
		t.Fatalf("must stay unauthenticated")
	}
}

func Test_Logout_RemoteFailure_StillClears(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	var nav routes
	var resets resetCounter
	auth := &fakeAuth{
		loginResp: model.LoginResponse{Token: "abc", User: model.User{ID: 1}},
		logoutErr: errs.ErrTransport,
	}
	s := New(auth, store, WithNavigator(&nav), WithCache(&resets))
	if _, err := s.Login(ctx, "a", "b"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout must not surface remote failure: %v", err)
	}
	if auth.logoutCalls != 1 {
		t.Fatalf("remote logout calls = %d", auth.logoutCalls)
	}
	if _, err := store.Load(ctx); !errors.Is(err, errs.ErrNoToken) {
		t.Fatalf("token must be cleared, got %v", err)
	}
	snap := s.Snapshot()
	if snap.IsAuthenticated || snap.User != nil {
		t.Fatalf("want unauthenticated, got %+v", snap)
	}
	if nav[len(nav)-1] != RouteLogin {
		t.Fatalf("navigation = %v", nav)
	}
	if resets != 2 {
		t.Fatalf("cache resets = %d, want 2", resets)
	}
}

func signedJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func Test_Login_ExpiredToken_Rejected(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	var nav routes
	auth := &fakeAuth{loginResp: model.LoginResponse{Token: signedJWT(t, time.Now().Add(-time.Minute)), User: model.User{ID: 1}}}
	s := New(auth, store, WithNavigator(&nav))

	if _, err := s.Login(ctx, "a", "b"); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired, got %v", err)
	}
	if s.Snapshot().IsAuthenticated || s.Authenticated(ctx) {
		t.Fatalf("must stay unauthenticated")
	}
	if len(nav) != 0 {
		t.Fatalf("no navigation on failure: %v", nav)
	}
}

func Test_Authenticated_FollowsTokenStore(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	auth := &fakeAuth{loginResp: model.LoginResponse{Token: signedJWT(t, time.Now().Add(time.Hour)), User: model.User{ID: 1}}}
	s := New(auth, store)

	if s.Authenticated(ctx) {
		t.Fatalf("loading session is not authenticated")
	}
	if _, err := s.Login(ctx, "a", "b"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !s.Authenticated(ctx) {
		t.Fatalf("must be authenticated after login")
	}

	// token removed behind the session's back
	_ = store.Clear(ctx)
	if s.Authenticated(ctx) {
		t.Fatalf("must not be authenticated without a stored token")
	}
	snap := s.Snapshot()
	if snap.IsAuthenticated || snap.State != StateUnauthenticated || snap.User != nil {
		t.Fatalf("want settled unauthenticated, got %+v", snap)
	}
}

func Test_Authenticated_TokenExpiresInStore(t *testing.T) {
	ctx := context.Background()
	store := tokenstore.NewMemoryStore()
	s := New(&fakeAuth{user: model.User{ID: 3}}, store)

	exp := time.Now().Add(time.Hour)
	_ = store.Save(ctx, tokenstore.Token{Value: "t", ExpiresAt: &exp})
	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !s.Authenticated(ctx) {
		t.Fatalf("must be authenticated")
	}

	past := time.Now().Add(-time.Second)
	_ = store.Save(ctx, tokenstore.Token{Value: "t", ExpiresAt: &past})
	if s.Authenticated(ctx) || s.Snapshot().IsAuthenticated {
		t.Fatalf("expired token must settle unauthenticated")
	}
}

func Test_Initialize_UnreadableToken_Cleared(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "auth_token.json")
	if err := os.WriteFile(path, []byte("garbage"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	auth := &fakeAuth{}
	s := New(auth, tokenstore.NewFileStore(path), WithLogger(zaptest.NewLogger(t)))

	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if s.Snapshot().IsAuthenticated {
		t.Fatalf("must be unauthenticated")
	}
	if auth.userCalls != 0 {
		t.Fatalf("unreadable token must not hit /user")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("unreadable token file must be removed, stat err=%v", err)
	}
}

func Test_State_String(t *testing.T) {
	for st, want := range map[State]string{
		StateLoading: "loading", StateChecking: "checking",
		StateAuthenticated: "authenticated", StateUnauthenticated: "unauthenticated", State(9): "unknown",
	} {
		if st.String() != want {
			t.Fatalf("%d: %q != %q", st, st.String(), want)
		}
	}
}

// End to end against the dev backend: the stored token is what authenticates
// later calls, and clearing it stops that.
func Test_Session_AgainstDevAPI(t *testing.T) {
	ctx := context.Background()
	backend := devapi.New()
	if _, err := backend.AddUser("Admin", "admin@softseven.ao", "secret"); err != nil {
		t.Fatalf("AddUser: %v", err)
	}

	var (
		mu   sync.Mutex
		seen string
	)
	lastAuth := func() string {
		mu.Lock()
		defer mu.Unlock()
		return seen
	}
	h := backend.Handler()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = r.Header.Get("Authorization")
		mu.Unlock()
		h.ServeHTTP(w, r)
	}))
	defer srv.Close()

	store := tokenstore.NewMemoryStore()
	cl, err := apiclient.New(apiclient.Config{BaseURL: srv.URL + "/api"}, tokenstore.Source{Store: store})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	api := resource.New(cl)
	s := New(api.Auth, store)

	if _, err := s.Login(ctx, "admin@softseven.ao", "wrong"); err == nil {
		t.Fatalf("bad password must fail")
	}
	if lastAuth() != "" {
		t.Fatalf("login sent without token, got %q", lastAuth())
	}

	if _, err := s.Login(ctx, "admin@softseven.ao", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	tok, _ := store.Load(ctx)
	if err := s.Check(ctx); err != nil {
		t.Fatalf("Check: %v", err)
	}
	if lastAuth() != "Bearer "+tok.Value {
		t.Fatalf("Authorization = %q", lastAuth())
	}

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := api.Auth.CurrentUser(ctx); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("after logout /user must be 401, got %v", err)
	}
	if lastAuth() != "" {
		t.Fatalf("header must be gone after logout, got %q", lastAuth())
	}

	// the revoked token is rejected even if someone kept it
	_ = store.Save(ctx, tok)
	if err := s.Initialize(ctx); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("revoked token: want ErrUnauthorized, got %v", err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, errs.ErrNoToken) {
		t.Fatalf("revoked token must be cleared")
	}
}

// A corrupt token file must not block signing in again.
func Test_Session_LoginOverCorruptTokenFile(t *testing.T) {
	ctx := context.Background()
	backend := devapi.New()
	if _, err := backend.AddUser("Admin", "admin@softseven.ao", "secret"); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	srv := httptest.NewServer(backend.Handler())
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "auth_token.json")
	if err := os.WriteFile(path, []byte("garbage"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	store := tokenstore.NewFileStore(path)
	cl, err := apiclient.New(apiclient.Config{BaseURL: srv.URL + "/api"}, tokenstore.Source{Store: store})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	s := New(resource.New(cl).Auth, store)

	if _, err := s.Login(ctx, "admin@softseven.ao", "secret"); err != nil {
		t.Fatalf("Login over corrupt token file: %v", err)
	}
	if backend.Hits(http.MethodPost, "/api/login") != 1 {
		t.Fatalf("login must reach the backend")
	}
	if !s.Authenticated(ctx) {
		t.Fatalf("must be authenticated after login")
	}
	if err := s.Check(ctx); err != nil {
		t.Fatalf("Check with the new token: %v", err)
	}
}
