package resource

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/softseven/studio-admin/internal/apiclient"
	"github.com/softseven/studio-admin/internal/errs"
	"github.com/softseven/studio-admin/internal/model"
)

// reorderConcurrency bounds the in-flight updates of one UpdateOrder call.
const reorderConcurrency = 8

// Projects wraps /projects and /project-media.
type Projects struct{ api Doer }

// NewProjects returns the projects module.
func NewProjects(d Doer) *Projects { return &Projects{api: d} }

// List returns one page of projects.
func (p *Projects) List(ctx context.Context, params model.PageParams) (model.Page[model.Project], error) {
	var out model.Page[model.Project]
	err := p.api.Do(ctx, http.MethodGet, "/projects", params.Values(), nil, &out)
	return out, err
}

// Get returns one project with its media.
func (p *Projects) Get(ctx context.Context, id int64) (model.Project, error) {
	var out model.Project
	err := p.api.Do(ctx, http.MethodGet, path("/projects", id), nil, nil, &out)
	return out, err
}

// Create submits a new project as multipart. A thumbnail is mandatory.
func (p *Projects) Create(ctx context.Context, req model.CreateProjectRequest) (model.Project, error) {
	if req.Thumbnail == nil || req.Thumbnail.Body == nil {
		return model.Project{}, errs.ErrThumbnailRequired
	}
	f := &apiclient.Form{}
	f.Set("title", req.Title)
	f.Set("category", req.Category)
	f.Set("status", req.Status)
	f.SetIfNotEmpty("partner", req.Partner)
	f.SetIfNotEmpty("genre", req.Genre)
	f.SetIfNotEmpty("format", req.Format)
	f.SetIfNotEmpty("description", req.Description)
	if req.IsPublished != nil {
		f.Set("is_published", strconv.Itoa(*req.IsPublished))
	}
	f.AddFile("thumbnail_url", *req.Thumbnail)

	var out model.Project
	err := p.api.DoMultipart(ctx, http.MethodPost, "/projects", f, &out)
	return out, err
}

// Update sends only the non-nil fields of req.
func (p *Projects) Update(ctx context.Context, id int64, req model.UpdateProjectRequest) (model.Project, error) {
	var out model.Project
	err := p.api.Do(ctx, http.MethodPut, path("/projects", id), nil, req, &out)
	return out, err
}

// Delete removes a project.
func (p *Projects) Delete(ctx context.Context, id int64) error {
	return p.api.Do(ctx, http.MethodDelete, path("/projects", id), nil, nil, nil)
}

// ReorderError reports the items whose display_order update failed.
// The other items were updated; nothing is rolled back.
type ReorderError struct {
	Total  int
	Failed map[int64]error
}

// IDs returns the failed project ids in ascending order.
func (e *ReorderError) IDs() []int64 {
	ids := make([]int64, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (e *ReorderError) Error() string {
	ids := e.IDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	first := e.Failed[ids[0]]
	return fmt.Sprintf("reorder: %d of %d updates failed (ids %s): %s",
		len(ids), e.Total, strings.Join(parts, ","), apiclient.Message(first))
}

// Unwrap exposes the individual failures to errors.Is / errors.As.
func (e *ReorderError) Unwrap() []error {
	out := make([]error, 0, len(e.Failed))
	for _, id := range e.IDs() {
		out = append(out, e.Failed[id])
	}
	return out
}

// UpdateOrder persists display_order for every item with independent
// concurrent partial updates. Each call runs to completion; if any fail the
// result is a *ReorderError.
func (p *Projects) UpdateOrder(ctx context.Context, items []model.OrderItem) error {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		failed = map[int64]error{}
	)
	g.SetLimit(reorderConcurrency)
	for _, it := range items {
		g.Go(func() error {
			order := it.DisplayOrder
			_, err := p.Update(ctx, it.ID, model.UpdateProjectRequest{DisplayOrder: &order})
			if err != nil {
				mu.Lock()
				failed[it.ID] = err
				mu.Unlock()
			}
			return err
		})
	}
	_ = g.Wait()
	if len(failed) > 0 {
		return &ReorderError{Total: len(items), Failed: failed}
	}
	return nil
}

// ListMedia returns the media of a project.
func (p *Projects) ListMedia(ctx context.Context, projectID int64) ([]model.ProjectMedia, error) {
	var out []model.ProjectMedia
	err := p.api.Do(ctx, http.MethodGet, path("/projects", projectID, "media"), nil, nil, &out)
	return out, err
}

// UploadMedia attaches a file to a project.
func (p *Projects) UploadMedia(ctx context.Context, projectID int64, file model.Upload, meta model.MediaMeta) (model.ProjectMedia, error) {
	f := &apiclient.Form{}
	f.AddFile("file", file)
	f.SetIfNotEmpty("title", meta.Title)
	f.SetIfNotEmpty("description", meta.Description)

	var out model.ProjectMedia
	err := p.api.DoMultipart(ctx, http.MethodPost, path("/projects", projectID, "media"), f, &out)
	return out, err
}

// UpdateMedia sends only the non-nil fields of req.
func (p *Projects) UpdateMedia(ctx context.Context, mediaID int64, req model.UpdateMediaRequest) (model.ProjectMedia, error) {
	var out model.ProjectMedia
	err := p.api.Do(ctx, http.MethodPut, path("/project-media", mediaID), nil, req, &out)
	return out, err
}

// DeleteMedia removes a media item.
func (p *Projects) DeleteMedia(ctx context.Context, mediaID int64) error {
	return p.api.Do(ctx, http.MethodDelete, path("/project-media", mediaID), nil, nil, nil)
}
