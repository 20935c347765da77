package admin

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/softseven/studio-admin/internal/errs"
	"github.com/softseven/studio-admin/internal/model"
)

// ProjectForm is the create/edit form. Thumbnail is required on create and
// optional on edit.
type ProjectForm struct {
	Title       string
	Category    string
	Status      string
	Partner     string
	Genre       string
	Format      string
	Description string
	IsPublished bool
	Thumbnail   *model.Upload
}

// ProjectManager lists projects and runs the create/edit/delete flows.
type ProjectManager struct {
	h       ProjectHooks
	confirm Confirmer

	mu       sync.Mutex
	projects []model.Project
}

// NewProjectManager returns an empty manager. A nil confirmer approves everything.
func NewProjectManager(h ProjectHooks, c Confirmer) *ProjectManager {
	if c == nil {
		c = AlwaysConfirm
	}
	return &ProjectManager{h: h, confirm: c}
}

// Load fetches the projects in display order.
func (pm *ProjectManager) Load(ctx context.Context) error {
	list, err := loadProjects(ctx, pm.h)
	if err != nil {
		return err
	}
	pm.mu.Lock()
	pm.projects = list
	pm.mu.Unlock()
	return nil
}

// Projects returns the loaded list.
func (pm *ProjectManager) Projects() []model.Project {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return slices.Clone(pm.projects)
}

// Search filters the loaded list by title or category substring, ignoring case.
func (pm *ProjectManager) Search(q string) []model.Project {
	q = strings.ToLower(strings.TrimSpace(q))
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if q == "" {
		return slices.Clone(pm.projects)
	}
	var out []model.Project
	for _, p := range pm.projects {
		if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Category), q) {
			out = append(out, p)
		}
	}
	return out
}

// Create submits a new project. Without a thumbnail nothing is sent.
func (pm *ProjectManager) Create(ctx context.Context, f ProjectForm) (model.Project, error) {
	if f.Thumbnail == nil || f.Thumbnail.Body == nil {
		return model.Project{}, errs.ErrThumbnailRequired
	}
	published := 0
	if f.IsPublished {
		published = 1
	}
	p, err := pm.h.CreateProject(ctx, model.CreateProjectRequest{
		Title:       f.Title,
		Category:    f.Category,
		Status:      cmp.Or(f.Status, model.StatusDraft),
		Partner:     f.Partner,
		Genre:       f.Genre,
		Format:      f.Format,
		Description: f.Description,
		IsPublished: &published,
		Thumbnail:   f.Thumbnail,
	})
	if err != nil {
		return model.Project{}, err
	}
	pm.mu.Lock()
	pm.projects = append(pm.projects, p)
	pm.mu.Unlock()
	return p, nil
}

// Edit updates a project's metadata. With a new thumbnail the file is
// uploaded through the media endpoint first and its reference is sent in
// the update; otherwise the current thumbnail is kept.
func (pm *ProjectManager) Edit(ctx context.Context, id int64, f ProjectForm) (model.Project, error) {
	published := 0
	if f.IsPublished {
		published = 1
	}
	req := model.UpdateProjectRequest{
		Title:       &f.Title,
		Category:    &f.Category,
		Partner:     &f.Partner,
		Genre:       &f.Genre,
		Format:      &f.Format,
		Description: &f.Description,
		IsPublished: &published,
	}
	if f.Status != "" {
		req.Status = &f.Status
	}

	if f.Thumbnail != nil && f.Thumbnail.Body != nil {
		media, err := pm.h.UploadProjectMedia(ctx, id, *f.Thumbnail, model.MediaMeta{Title: f.Title})
		if err != nil {
			return model.Project{}, fmt.Errorf("upload thumbnail: %w", err)
		}
		ref := media.Reference()
		req.ThumbnailURL = &ref
	} else if cur, ok := pm.find(id); ok && cur.ThumbnailURL != "" {
		ref := cur.ThumbnailURL
		req.ThumbnailURL = &ref
	}

	p, err := pm.h.UpdateProject(ctx, id, req)
	if err != nil {
		return model.Project{}, err
	}
	pm.mu.Lock()
	if i := slices.IndexFunc(pm.projects, func(x model.Project) bool { return x.ID == id }); i >= 0 {
		pm.projects[i] = p
	}
	pm.mu.Unlock()
	return p, nil
}

// Delete removes a project after confirmation.
func (pm *ProjectManager) Delete(ctx context.Context, id int64) error {
	cur, ok := pm.find(id)
	name := fmt.Sprintf("#%d", id)
	if ok {
		name = fmt.Sprintf("%q", cur.Title)
	}
	if !pm.confirm.Confirm("Delete project " + name + "?") {
		return errs.ErrCanceled
	}
	if err := pm.h.DeleteProject(ctx, id); err != nil {
		return err
	}
	pm.mu.Lock()
	pm.projects = slices.DeleteFunc(pm.projects, func(x model.Project) bool { return x.ID == id })
	pm.mu.Unlock()
	return nil
}

func (pm *ProjectManager) find(id int64) (model.Project, bool) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	for _, p := range pm.projects {
		if p.ID == id {
			return p, true
		}
	}
	return model.Project{}, false
}

func loadProjects(ctx context.Context, h ProjectHooks) ([]model.Project, error) {
	list, err := allPages(ctx, func(ctx context.Context, n int) (model.Page[model.Project], error) {
		return h.Projects(ctx, model.PageParams{Page: n, PerPage: listPerPage})
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(list, func(a, b model.Project) int { return cmp.Compare(a.DisplayOrder, b.DisplayOrder) })
	return list, nil
}

// Gallery reorders projects locally and persists the order on Save.
type Gallery struct {
	h ProjectHooks

	mu    sync.Mutex
	saved []model.Project
	items []model.Project
	dirty bool
}

// NewGallery returns an empty gallery.
func NewGallery(h ProjectHooks) *Gallery { return &Gallery{h: h} }

// Load fetches the projects in display order and drops local changes.
func (g *Gallery) Load(ctx context.Context) error {
	list, err := loadProjects(ctx, g.h)
	if err != nil {
		return err
	}
	g.SetItems(list)
	return nil
}

// SetItems replaces the saved order with items.
func (g *Gallery) SetItems(items []model.Project) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saved = slices.Clone(items)
	g.items = slices.Clone(items)
	g.dirty = false
}

// Items returns the current local order.
func (g *Gallery) Items() []model.Project {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.items)
}

// Dirty reports unsaved local changes.
func (g *Gallery) Dirty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dirty
}

// Move moves the item at from to position to. Nothing is sent.
func (g *Gallery) Move(from, to int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := len(g.items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("move %d -> %d: index out of range [0,%d)", from, to, n)
	}
	if from == to {
		return nil
	}
	it := g.items[from]
	g.items = slices.Delete(g.items, from, from+1)
	g.items = slices.Insert(g.items, to, it)
	g.dirty = true
	return nil
}

// Reset restores the last saved order without any request.
func (g *Gallery) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.items = slices.Clone(g.saved)
	g.dirty = false
}

// Save persists display_order 0..N-1 in the current local order. On failure
// the local order and the dirty flag are kept so the user can retry.
func (g *Gallery) Save(ctx context.Context) error {
	g.mu.Lock()
	if !g.dirty {
		g.mu.Unlock()
		return nil
	}
	items := slices.Clone(g.items)
	g.mu.Unlock()

	order := make([]model.OrderItem, len(items))
	for i, p := range items {
		order[i] = model.OrderItem{ID: p.ID, DisplayOrder: i}
	}
	if err := g.h.UpdateProjectOrder(ctx, order); err != nil {
		return err
	}

	for i := range items {
		items[i].DisplayOrder = i
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saved = slices.Clone(items)
	g.items = items
	g.dirty = false
	return nil
}
