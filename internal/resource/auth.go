package resource

import (
	"context"
	"net/http"

	"github.com/softseven/studio-admin/internal/model"
)

// Auth wraps the login endpoints.
type Auth struct{ api Doer }

// Login exchanges credentials for a token and the signed-in user.
// Storing the token is the caller's job.
func (a *Auth) Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error) {
	var out model.LoginResponse
	err := a.api.Do(ctx, http.MethodPost, "/login", nil, req, &out)
	return out, err
}

// Logout revokes the current token on the server.
func (a *Auth) Logout(ctx context.Context) error {
	return a.api.Do(ctx, http.MethodPost, "/logout", nil, nil, nil)
}

// CurrentUser returns the user owning the current token.
func (a *Auth) CurrentUser(ctx context.Context) (model.User, error) {
	var out model.User
	err := a.api.Do(ctx, http.MethodGet, "/user", nil, nil, &out)
	return out, err
}
