package devapi

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/softseven/studio-admin/internal/model"
)

const maxUpload = 32 << 20

// SeedProject stores p as is, assigning an id when missing.
func (s *Server) SeedProject(p model.Project) model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == 0 {
		p.ID = s.nextID()
	}
	if p.Status == "" {
		p.Status = model.StatusDraft
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt, p.UpdatedAt = s.now(), s.now()
	}
	cp := p
	s.projects[p.ID] = &cp
	return cp
}

// Project returns the stored project.
func (s *Server) Project(id int64) (model.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return model.Project{}, false
	}
	return s.withMedia(p), true
}

// withMedia returns p with its media attached in display order. Caller holds s.mu.
func (s *Server) withMedia(p *model.Project) model.Project {
	out := *p
	out.Media = s.mediaOf(p.ID)
	return out
}

func (s *Server) mediaOf(projectID int64) []model.ProjectMedia {
	out := []model.ProjectMedia{}
	for _, m := range s.media {
		if m.ProjectID == projectID {
			out = append(out, *m)
		}
	}
	slices.SortFunc(out, func(a, b model.ProjectMedia) int {
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder - b.DisplayOrder
		}
		return int(a.ID - b.ID)
	})
	return out
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := make([]model.Project, 0, len(s.projects))
	for _, p := range s.projects {
		list = append(list, s.withMedia(p))
	}
	s.mu.Unlock()
	slices.SortFunc(list, func(a, b model.Project) int {
		if a.DisplayOrder != b.DisplayOrder {
			return a.DisplayOrder - b.DisplayOrder
		}
		return int(a.ID - b.ID)
	})
	writeJSON(w, http.StatusOK, paginate(r, list))
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, ok := s.Project(id)
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// storeUpload saves the multipart file under field and returns its public reference.
func (s *Server) storeUpload(r *http.Request, field, dir string) (string, string, error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return "", "", err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUpload))
	if err != nil {
		return "", "", err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return "", "", err
	}
	ext := strings.ToLower(filepath.Ext(hdr.Filename))
	ct := hdr.Header.Get("Content-Type")
	if ct == "" {
		ct = mime.TypeByExtension(ext)
	}
	ref := "/storage/" + dir + "/" + id.String() + ext

	s.mu.Lock()
	s.files[ref] = storedFile{contentType: ct, data: data}
	s.mu.Unlock()
	return ref, ct, nil
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	f, ok := s.files[r.URL.Path]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	if f.contentType != "" {
		w.Header().Set("Content-Type", f.contentType)
	}
	_, _ = w.Write(f.data)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "Expected multipart/form-data.")
		return
	}
	v := validation{}
	v.require("title", r.FormValue("title"))
	v.require("category", r.FormValue("category"))
	status := r.FormValue("status")
	if status == "" {
		status = model.StatusDraft
	}
	if !validStatus(status) {
		v.add("status", "The selected status is invalid.")
	}
	if f, _, err := r.FormFile("thumbnail_url"); err != nil {
		v.add("thumbnail_url", "The thumbnail url field is required.")
	} else {
		f.Close()
	}
	if v.write(w) {
		return
	}
	ref, _, err := s.storeUpload(r, "thumbnail_url", "projects")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server Error")
		return
	}

	s.mu.Lock()
	now := s.now()
	p := &model.Project{
		ID:           s.nextID(),
		Title:        r.FormValue("title"),
		Category:     r.FormValue("category"),
		Partner:      r.FormValue("partner"),
		Genre:        r.FormValue("genre"),
		Format:       r.FormValue("format"),
		Description:  r.FormValue("description"),
		Status:       status,
		ThumbnailURL: ref,
		DisplayOrder: len(s.projects),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	p.Slug = slug(p.Title)
	if n, err := strconv.Atoi(r.FormValue("is_published")); err == nil {
		p.IsPublished = n != 0
	}
	s.projects[p.ID] = p
	out := s.withMedia(p)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, out)
}

func validStatus(s string) bool {
	return s == model.StatusDraft || s == model.StatusPublished || s == model.StatusArchived
}

func slug(title string) string {
	f := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
	return strings.Join(f, "-")
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.UpdateProjectRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Status != nil && !validStatus(*req.Status) {
		v := validation{}
		v.add("status", "The selected status is invalid.")
		v.write(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		notFound(w)
		return
	}
	set(&p.Title, req.Title)
	set(&p.Category, req.Category)
	set(&p.Description, req.Description)
	set(&p.ThumbnailURL, req.ThumbnailURL)
	set(&p.Partner, req.Partner)
	set(&p.Genre, req.Genre)
	set(&p.Format, req.Format)
	set(&p.Year, req.Year)
	set(&p.Status, req.Status)
	set(&p.DisplayOrder, req.DisplayOrder)
	if req.Featured != nil {
		p.Featured = model.Flag(*req.Featured)
	}
	if req.IsPublished != nil {
		p.IsPublished = *req.IsPublished != 0
	}
	if req.Title != nil {
		p.Slug = slug(p.Title)
	}
	p.UpdatedAt = s.now()
	writeJSON(w, http.StatusOK, s.withMedia(p))
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		notFound(w)
		return
	}
	delete(s.projects, id)
	for mid, m := range s.media {
		if m.ProjectID == id {
			delete(s.media, mid)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, s.mediaOf(id))
}

func (s *Server) uploadMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "Expected multipart/form-data.")
		return
	}
	s.mu.Lock()
	_, exists := s.projects[id]
	s.mu.Unlock()
	if !exists {
		notFound(w)
		return
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		v := validation{}
		v.add("file", "The file field is required.")
		v.write(w)
		return
	}
	f.Close()
	ref, ct, err := s.storeUpload(r, "file", "media")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server Error")
		return
	}
	kind := model.MediaImage
	if strings.HasPrefix(ct, "video/") {
		kind = model.MediaVideo
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	m := &model.ProjectMedia{
		ID:           s.nextID(),
		ProjectID:    id,
		FileType:     kind,
		FileURL:      ref,
		URL:          ref,
		Title:        r.FormValue("title"),
		Caption:      r.FormValue("description"),
		DisplayOrder: len(s.mediaOf(id)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.media[m.ID] = m
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) updateMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.UpdateMediaRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[id]
	if !ok {
		notFound(w)
		return
	}
	set(&m.Title, req.Title)
	set(&m.Caption, req.Caption)
	set(&m.DisplayOrder, req.DisplayOrder)
	m.UpdatedAt = s.now()
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) deleteMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.media[id]; !ok {
		notFound(w)
		return
	}
	delete(s.media, id)
	w.WriteHeader(http.StatusNoContent)
}
