// Package resource maps each backend resource to typed request functions.
// Functions do not handle errors; *apiclient.Error propagates to the caller.
package resource

import (
	"context"
	"net/url"
	"strconv"

	"github.com/softseven/studio-admin/internal/apiclient"
)

// Doer is the transport used by resource modules. *apiclient.Client implements it.
type Doer interface {
	Do(ctx context.Context, method, path string, query url.Values, body, out any) error
	DoMultipart(ctx context.Context, method, path string, form *apiclient.Form, out any) error
}

// API groups every resource module over one transport.
type API struct {
	Auth     *Auth
	Projects *Projects
	Messages *Messages
	Settings *Settings
	Users    *Users
	Roles    *Roles
	Profile  *Profile
}

// New builds all resource modules on d.
func New(d Doer) *API {
	return &API{
		Auth:     &Auth{api: d},
		Projects: NewProjects(d),
		Messages: NewMessages(d),
		Settings: &Settings{api: d},
		Users:    &Users{api: d},
		Roles:    &Roles{api: d},
		Profile:  &Profile{api: d},
	}
}

func path(base string, id int64, rest ...string) string {
	p := base + "/" + strconv.FormatInt(id, 10)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}
