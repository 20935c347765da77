// Package admin holds the state of the admin panel views. Each view keeps a
// local copy of the data it shows and goes through the hooks layer for reads
// and writes.
package admin

import (
	"context"

	"github.com/softseven/studio-admin/internal/model"
)

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a func to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm calls f(prompt).
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// AlwaysConfirm approves everything.
var AlwaysConfirm = ConfirmFunc(func(string) bool { return true })

// MessageHooks is what the inbox needs from the hooks layer.
type MessageHooks interface {
	Messages(ctx context.Context, params model.MessageParams) (model.Page[model.Message], error)
	MarkMessageAsRead(ctx context.Context, id int64) (model.Message, error)
	ToggleMessageStar(ctx context.Context, id int64, starred bool) (model.Message, error)
	MarkMessageAsReplied(ctx context.Context, id int64) (model.Message, error)
	DeleteMessage(ctx context.Context, id int64) error
}

// ProjectHooks is what the project manager and the gallery need.
type ProjectHooks interface {
	Projects(ctx context.Context, params model.PageParams) (model.Page[model.Project], error)
	CreateProject(ctx context.Context, req model.CreateProjectRequest) (model.Project, error)
	UpdateProject(ctx context.Context, id int64, req model.UpdateProjectRequest) (model.Project, error)
	DeleteProject(ctx context.Context, id int64) error
	UploadProjectMedia(ctx context.Context, projectID int64, file model.Upload, meta model.MediaMeta) (model.ProjectMedia, error)
	UpdateProjectOrder(ctx context.Context, items []model.OrderItem) error
}

// SettingsHooks is what the settings form needs.
type SettingsHooks interface {
	StudioSettings(ctx context.Context) (model.StudioSettings, error)
	SaveStudioSettings(ctx context.Context, req model.SaveStudioSettingsRequest) (model.StudioSettings, error)
}

// listPerPage is the page size used when a view loads a whole collection.
const listPerPage = 100

// allPages fetches page after page until the server's last_page is reached.
// A response without last_page is taken as the only page.
func allPages[T any](ctx context.Context, fetch func(ctx context.Context, page int) (model.Page[T], error)) ([]T, error) {
	var out []T
	for n := 1; ; n++ {
		p, err := fetch(ctx, n)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Data...)
		if len(p.Data) == 0 || p.LastPage <= n {
			return out, nil
		}
	}
}
