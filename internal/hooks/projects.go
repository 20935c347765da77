package hooks

import (
	"context"
	"errors"

	"github.com/softseven/studio-admin/internal/model"
	"github.com/softseven/studio-admin/internal/query"
	"github.com/softseven/studio-admin/internal/resource"
)

// Projects reads a page of projects under ["projects", params].
func (h *Hooks) Projects(ctx context.Context, params model.PageParams) (model.Page[model.Project], error) {
	return query.Fetch(ctx, h.cache, query.NewKey(KeyProjects, params), func(ctx context.Context) (model.Page[model.Project], error) {
		return h.api.Projects.List(ctx, params)
	})
}

// Project reads one project under ["project", id].
func (h *Hooks) Project(ctx context.Context, id int64) (model.Project, error) {
	return query.Fetch(ctx, h.cache, query.NewKey(KeyProject, id), func(ctx context.Context) (model.Project, error) {
		return h.api.Projects.Get(ctx, id)
	})
}

// ProjectMedia reads the media of a project under ["project-media", projectID].
func (h *Hooks) ProjectMedia(ctx context.Context, projectID int64) ([]model.ProjectMedia, error) {
	return query.Fetch(ctx, h.cache, query.NewKey(KeyProjectMedia, projectID), func(ctx context.Context) ([]model.ProjectMedia, error) {
		return h.api.Projects.ListMedia(ctx, projectID)
	})
}

func projectKeys(id int64) []query.Key {
	return []query.Key{query.Resource(KeyProjects), query.NewKey(KeyProject, id)}
}

// CreateProject submits a new project with its thumbnail.
func (h *Hooks) CreateProject(ctx context.Context, req model.CreateProjectRequest) (model.Project, error) {
	return query.Mutate(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: []query.Key{query.Resource(KeyProjects)},
		Success:    "Project created",
		Failure:    "Could not create project",
	}, func(ctx context.Context) (model.Project, error) {
		return h.api.Projects.Create(ctx, req)
	})
}

// UpdateProject applies a partial update.
func (h *Hooks) UpdateProject(ctx context.Context, id int64, req model.UpdateProjectRequest) (model.Project, error) {
	return query.Mutate(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: projectKeys(id),
		Success:    "Project updated",
		Failure:    "Could not update project",
	}, func(ctx context.Context) (model.Project, error) {
		return h.api.Projects.Update(ctx, id, req)
	})
}

// DeleteProject removes a project.
func (h *Hooks) DeleteProject(ctx context.Context, id int64) error {
	return query.Exec(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: append(projectKeys(id), query.NewKey(KeyProjectMedia, id)),
		Success:    "Project deleted",
		Failure:    "Could not delete project",
	}, func(ctx context.Context) error {
		return h.api.Projects.Delete(ctx, id)
	})
}

// UpdateProjectOrder persists display_order for items. A partial failure still
// invalidates the projects since some rows changed.
func (h *Hooks) UpdateProjectOrder(ctx context.Context, items []model.OrderItem) error {
	return query.Exec(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: []query.Key{query.Resource(KeyProjects), query.Resource(KeyProject)},
		Success:    "Order updated",
		Failure:    "Could not update order",
		InvalidateIf: func(err error) bool {
			var re *resource.ReorderError
			return err == nil || errors.As(err, &re)
		},
	}, func(ctx context.Context) error {
		return h.api.Projects.UpdateOrder(ctx, items)
	})
}

func mediaKeys(projectID int64) []query.Key {
	if projectID == 0 {
		return []query.Key{query.Resource(KeyProjectMedia), query.Resource(KeyProject)}
	}
	return []query.Key{query.NewKey(KeyProjectMedia, projectID), query.NewKey(KeyProject, projectID)}
}

// UploadProjectMedia attaches a file to a project.
func (h *Hooks) UploadProjectMedia(ctx context.Context, projectID int64, file model.Upload, meta model.MediaMeta) (model.ProjectMedia, error) {
	return query.Mutate(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: mediaKeys(projectID),
		Success:    "Media uploaded",
		Failure:    "Could not upload media",
	}, func(ctx context.Context) (model.ProjectMedia, error) {
		return h.api.Projects.UploadMedia(ctx, projectID, file, meta)
	})
}

// UpdateProjectMedia applies a partial media update. projectID narrows the
// invalidation; 0 invalidates every media list.
func (h *Hooks) UpdateProjectMedia(ctx context.Context, projectID, mediaID int64, req model.UpdateMediaRequest) (model.ProjectMedia, error) {
	return query.Mutate(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: mediaKeys(projectID),
		Success:    "Media updated",
		Failure:    "Could not update media",
	}, func(ctx context.Context) (model.ProjectMedia, error) {
		return h.api.Projects.UpdateMedia(ctx, mediaID, req)
	})
}

// DeleteProjectMedia removes a media item and invalidates every media list.
func (h *Hooks) DeleteProjectMedia(ctx context.Context, mediaID int64) error {
	return query.Exec(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: mediaKeys(0),
		Success:    "Media deleted",
		Failure:    "Could not delete media",
	}, func(ctx context.Context) error {
		return h.api.Projects.DeleteMedia(ctx, mediaID)
	})
}
