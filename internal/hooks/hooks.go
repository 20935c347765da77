// Package hooks binds resource calls to the query cache: reads are cached by
// key, writes invalidate the keys they affect and raise toasts.
package hooks

import (
	"github.com/softseven/studio-admin/internal/notify"
	"github.com/softseven/studio-admin/internal/query"
	"github.com/softseven/studio-admin/internal/resource"
)

// Cache key resources.
const (
	KeyProjects       = "projects"
	KeyProject        = "project"
	KeyProjectMedia   = "project-media"
	KeyMessages       = "messages"
	KeyStudioSettings = "studio-settings"
	KeyUsers          = "users"
	KeyUser           = "user"
	KeyUserRoles      = "user-roles"
	KeyProfile        = "profile"
)

// Hooks is the read/write surface used by admin screens.
type Hooks struct {
	api    *resource.API
	cache  *query.Cache
	notify notify.Notifier
}

// New wires hooks over api and cache. A nil notifier discards toasts.
func New(api *resource.API, cache *query.Cache, n notify.Notifier) *Hooks {
	if n == nil {
		n = notify.Discard{}
	}
	return &Hooks{api: api, cache: cache, notify: n}
}

// Cache returns the underlying cache.
func (h *Hooks) Cache() *query.Cache { return h.cache }
