package hooks

import (
	"context"

	"github.com/softseven/studio-admin/internal/model"
	"github.com/softseven/studio-admin/internal/query"
)

func (h *Hooks) Users(ctx context.Context, params model.PageParams) (model.Page[model.User], error) {
	return query.Fetch(ctx, h.cache, query.NewKey(KeyUsers, params), func(ctx context.Context) (model.Page[model.User], error) {
		return h.api.Users.List(ctx, params)
	})
}

func (h *Hooks) User(ctx context.Context, id int64) (model.User, error) {
	return query.Fetch(ctx, h.cache, query.NewKey(KeyUser, id), func(ctx context.Context) (model.User, error) {
		return h.api.Users.Get(ctx, id)
	})
}

func userKeys(id int64) []query.Key {
	return []query.Key{query.Resource(KeyUsers), query.NewKey(KeyUser, id)}
}

func (h *Hooks) CreateUser(ctx context.Context, req model.CreateUserRequest) (model.User, error) {
	return query.Mutate(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: []query.Key{query.Resource(KeyUsers)},
		Success:    "User created",
		Failure:    "Could not create user",
	}, func(ctx context.Context) (model.User, error) {
		return h.api.Users.Create(ctx, req)
	})
}

func (h *Hooks) UpdateUser(ctx context.Context, id int64, req model.UpdateUserRequest) (model.User, error) {
	return query.Mutate(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: userKeys(id),
		Success:    "User updated",
		Failure:    "Could not update user",
	}, func(ctx context.Context) (model.User, error) {
		return h.api.Users.Update(ctx, id, req)
	})
}

// DeleteUser also invalidates roles, which the backend removes with the user.
func (h *Hooks) DeleteUser(ctx context.Context, id int64) error {
	return query.Exec(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: append(userKeys(id), query.Resource(KeyUserRoles)),
		Success:    "User deleted",
		Failure:    "Could not delete user",
	}, func(ctx context.Context) error {
		return h.api.Users.Delete(ctx, id)
	})
}

func (h *Hooks) Roles(ctx context.Context, params model.PageParams) (model.Page[model.UserRole], error) {
	return query.Fetch(ctx, h.cache, query.NewKey(KeyUserRoles, params), func(ctx context.Context) (model.Page[model.UserRole], error) {
		return h.api.Roles.List(ctx, params)
	})
}

var invalidateRoles = []query.Key{query.Resource(KeyUserRoles)}

func (h *Hooks) CreateRole(ctx context.Context, req model.CreateUserRoleRequest) (model.UserRole, error) {
	return query.Mutate(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: invalidateRoles,
		Success:    "Role assigned",
		Failure:    "Could not assign role",
	}, func(ctx context.Context) (model.UserRole, error) {
		return h.api.Roles.Create(ctx, req)
	})
}

func (h *Hooks) UpdateRole(ctx context.Context, id int64, req model.UpdateUserRoleRequest) (model.UserRole, error) {
	return query.Mutate(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: invalidateRoles,
		Success:    "Role updated",
		Failure:    "Could not update role",
	}, func(ctx context.Context) (model.UserRole, error) {
		return h.api.Roles.Update(ctx, id, req)
	})
}

func (h *Hooks) DeleteRole(ctx context.Context, id int64) error {
	return query.Exec(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: invalidateRoles,
		Success:    "Role removed",
		Failure:    "Could not remove role",
	}, func(ctx context.Context) error {
		return h.api.Roles.Delete(ctx, id)
	})
}

func (h *Hooks) Profile(ctx context.Context) (model.Profile, error) {
	return query.Fetch(ctx, h.cache, query.NewKey(KeyProfile), h.api.Profile.Get)
}

var invalidateProfile = []query.Key{query.Resource(KeyProfile)}

func (h *Hooks) CreateProfile(ctx context.Context, req model.ProfileRequest) (model.Profile, error) {
	return query.Mutate(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: invalidateProfile,
		Success:    "Profile created",
		Failure:    "Could not create profile",
	}, func(ctx context.Context) (model.Profile, error) {
		return h.api.Profile.Create(ctx, req)
	})
}

func (h *Hooks) UpdateProfile(ctx context.Context, req model.ProfileRequest) (model.Profile, error) {
	return query.Mutate(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: invalidateProfile,
		Success:    "Profile updated",
		Failure:    "Could not update profile",
	}, func(ctx context.Context) (model.Profile, error) {
		return h.api.Profile.Update(ctx, req)
	})
}

func (h *Hooks) DeleteProfile(ctx context.Context) error {
	return query.Exec(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: invalidateProfile,
		Success:    "Profile deleted",
		Failure:    "Could not delete profile",
	}, h.api.Profile.Delete)
}
