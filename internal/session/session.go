// Package session tracks the signed-in admin and keeps the stored token in
// step with it.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/softseven/studio-admin/internal/errs"
	"github.com/softseven/studio-admin/internal/model"
	"github.com/softseven/studio-admin/internal/tokenstore"
)

// Routes the session navigates to.
const (
	RouteDashboard = "/admin/dashboard"
	RouteLogin     = "/admin/login"
)

// ErrTokenExpired is returned by Login when the issued token has already expired.
var ErrTokenExpired = errors.New("session: login returned an expired token")

// State is the lifecycle position of a Session.
type State int

const (
	StateLoading State = iota
	StateChecking
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateChecking:
		return "checking"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// AuthAPI is the subset of the auth resource the session needs.
type AuthAPI interface {
	Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (model.User, error)
}

// Navigator moves the user to another view.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a func to Navigator.
type NavigatorFunc func(route string)

// Navigate calls f(route).
func (f NavigatorFunc) Navigate(route string) { f(route) }

// Resetter drops cached server data. *query.Cache implements it.
type Resetter interface {
	Reset()
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	State           State
	User            *model.User
	IsAuthenticated bool
	IsLoading       bool
}

// Session holds the current user. It is safe for concurrent use.
type Session struct {
	auth   AuthAPI
	tokens tokenstore.Store
	nav    Navigator
	cache  Resetter
	log    *zap.Logger
	now    func() time.Time

	mu    sync.RWMutex
	state State
	user  *model.User
}

// Option customizes a Session.
type Option func(*Session)

// WithNavigator sets where login and logout send the user.
func WithNavigator(n Navigator) Option { return func(s *Session) { s.nav = n } }

// WithCache makes Login and Logout drop cached data of the previous session.
func WithCache(r Resetter) Option { return func(s *Session) { s.cache = r } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(s *Session) { s.log = l } }

// New returns a Session in StateLoading. Call Initialize to settle it.
func New(auth AuthAPI, tokens tokenstore.Store, opts ...Option) *Session {
	s := &Session{
		auth:   auth,
		tokens: tokens,
		nav:    NavigatorFunc(func(string) {}),
		log:    zap.NewNop(),
		now:    time.Now,
		state:  StateLoading,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Initialize validates the stored token against GET /user.
//
// Without a token the session settles unauthenticated and nil is returned.
// An unreadable token is cleared and treated the same way. A token rejected
// with 401 or 403 is cleared. Any other failure keeps the token, settles
// unauthenticated and is returned.
func (s *Session) Initialize(ctx context.Context) error {
	s.set(StateChecking, nil)

	if _, err := s.tokens.Load(ctx); err != nil {
		s.set(StateUnauthenticated, nil)
		if errors.Is(err, errs.ErrNoToken) {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// unreadable (corrupt file, wrong passphrase): drop it so login can replace it
		s.log.Warn("session: stored token unreadable, clearing", zap.Error(err))
		if cerr := s.tokens.Clear(ctx); cerr != nil {
			s.log.Warn("session: clear unreadable token", zap.Error(cerr))
		}
		return nil
	}

	u, err := s.auth.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, errs.ErrUnauthorized) || errors.Is(err, errs.ErrForbidden) {
			if cerr := s.tokens.Clear(ctx); cerr != nil {
				s.log.Warn("session: clear stale token", zap.Error(cerr))
			}
		}
		s.set(StateUnauthenticated, nil)
		return err
	}
	s.set(StateAuthenticated, &u)
	return nil
}

// Check re-runs Initialize.
func (s *Session) Check(ctx context.Context) error { return s.Initialize(ctx) }

// Login exchanges credentials for a token, stores it and navigates to the
// dashboard. On failure the session stays unauthenticated and nothing is stored.
func (s *Session) Login(ctx context.Context, email, password string) (model.User, error) {
	resp, err := s.auth.Login(ctx, model.LoginRequest{Email: email, Password: password})
	if err != nil {
		s.set(StateUnauthenticated, nil)
		return model.User{}, err
	}
	if resp.Token == "" {
		s.set(StateUnauthenticated, nil)
		return model.User{}, errors.New("session: login response without token")
	}
	tok := tokenstore.New(resp.Token)
	if tok.Expired(s.now()) {
		s.set(StateUnauthenticated, nil)
		return model.User{}, ErrTokenExpired
	}
	if err := s.tokens.Save(ctx, tok); err != nil {
		s.set(StateUnauthenticated, nil)
		return model.User{}, err
	}
	if s.cache != nil {
		s.cache.Reset()
	}

	u := resp.User
	s.set(StateAuthenticated, &u)
	s.log.Info("session: signed in", zap.Int64("user_id", u.ID))
	s.nav.Navigate(RouteDashboard)
	return u, nil
}

// Logout tells the backend to revoke the token, then clears local state
// whatever the backend answered. Only a failure to clear the token store is
// returned.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.auth.Logout(ctx); err != nil {
		s.log.Warn("session: remote logout failed", zap.Error(err))
	}
	err := s.tokens.Clear(ctx)
	if s.cache != nil {
		s.cache.Reset()
	}
	s.set(StateUnauthenticated, nil)
	s.nav.Navigate(RouteLogin)
	return err
}

// Authenticated reports whether the session is signed in and a usable token
// is still stored. A token that expired or was cleared elsewhere settles the
// session unauthenticated.
func (s *Session) Authenticated(ctx context.Context) bool {
	if s.Snapshot().State != StateAuthenticated {
		return false
	}
	if _, err := s.tokens.Load(ctx); err != nil {
		if !errors.Is(err, errs.ErrNoToken) {
			s.log.Warn("session: load token", zap.Error(err))
		}
		s.mu.Lock()
		if s.state == StateAuthenticated {
			s.state, s.user = StateUnauthenticated, nil
		}
		s.mu.Unlock()
		return false
	}
	return true
}

// Snapshot returns the state as last settled. It does not look at the token
// store; use Authenticated for that.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		State:           s.state,
		IsAuthenticated: s.state == StateAuthenticated,
		IsLoading:       s.state == StateLoading || s.state == StateChecking,
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

func (s *Session) set(st State, u *model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	s.user = u
}
