package resource

import (
	"context"
	"net/http"

	"github.com/softseven/studio-admin/internal/model"
)

// Users wraps /users.
type Users struct{ api Doer }

func (u *Users) List(ctx context.Context, params model.PageParams) (model.Page[model.User], error) {
	var out model.Page[model.User]
	err := u.api.Do(ctx, http.MethodGet, "/users", params.Values(), nil, &out)
	return out, err
}

func (u *Users) Get(ctx context.Context, id int64) (model.User, error) {
	var out model.User
	err := u.api.Do(ctx, http.MethodGet, path("/users", id), nil, nil, &out)
	return out, err
}

func (u *Users) Create(ctx context.Context, req model.CreateUserRequest) (model.User, error) {
	var out model.User
	err := u.api.Do(ctx, http.MethodPost, "/users", nil, req, &out)
	return out, err
}

func (u *Users) Update(ctx context.Context, id int64, req model.UpdateUserRequest) (model.User, error) {
	var out model.User
	err := u.api.Do(ctx, http.MethodPut, path("/users", id), nil, req, &out)
	return out, err
}

func (u *Users) Delete(ctx context.Context, id int64) error {
	return u.api.Do(ctx, http.MethodDelete, path("/users", id), nil, nil, nil)
}

// Roles wraps /user-roles.
type Roles struct{ api Doer }

func (r *Roles) List(ctx context.Context, params model.PageParams) (model.Page[model.UserRole], error) {
	var out model.Page[model.UserRole]
	err := r.api.Do(ctx, http.MethodGet, "/user-roles", params.Values(), nil, &out)
	return out, err
}

func (r *Roles) Create(ctx context.Context, req model.CreateUserRoleRequest) (model.UserRole, error) {
	var out model.UserRole
	err := r.api.Do(ctx, http.MethodPost, "/user-roles", nil, req, &out)
	return out, err
}

func (r *Roles) Update(ctx context.Context, id int64, req model.UpdateUserRoleRequest) (model.UserRole, error) {
	var out model.UserRole
	err := r.api.Do(ctx, http.MethodPut, path("/user-roles", id), nil, req, &out)
	return out, err
}

func (r *Roles) Delete(ctx context.Context, id int64) error {
	return r.api.Do(ctx, http.MethodDelete, path("/user-roles", id), nil, nil, nil)
}

// Profile wraps the signed-in user's /profile.
type Profile struct{ api Doer }

func (p *Profile) Get(ctx context.Context) (model.Profile, error) {
	var out model.Profile
	err := p.api.Do(ctx, http.MethodGet, "/profile", nil, nil, &out)
	return out, err
}

func (p *Profile) Create(ctx context.Context, req model.ProfileRequest) (model.Profile, error) {
	var out model.Profile
	err := p.api.Do(ctx, http.MethodPost, "/profile", nil, req, &out)
	return out, err
}

func (p *Profile) Update(ctx context.Context, req model.ProfileRequest) (model.Profile, error) {
	var out model.Profile
	err := p.api.Do(ctx, http.MethodPut, "/profile", nil, req, &out)
	return out, err
}

func (p *Profile) Delete(ctx context.Context) error {
	return p.api.Do(ctx, http.MethodDelete, "/profile", nil, nil, nil)
}
