// Package devapi is an in-memory stand-in for the studio REST backend.
// It serves the same routes under /api so the client and the CLI can run
// end to end without the real service.
package devapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/softseven/studio-admin/internal/limiter"
	"github.com/softseven/studio-admin/internal/metrics"
	"github.com/softseven/studio-admin/internal/model"
)

type userRec struct {
	model.User
	hash []byte
}

type storedFile struct {
	contentType string
	data        []byte
}

type fault struct {
	status  int
	message string
}

// Server holds all backend state behind one mutex.
type Server struct {
	mu       sync.Mutex
	users    map[int64]*userRec
	roles    map[int64]*model.UserRole
	profiles map[int64]*model.Profile // by user id
	projects map[int64]*model.Project
	media    map[int64]*model.ProjectMedia
	messages map[int64]*model.Message
	settings model.StudioSettings
	files    map[string]storedFile
	revoked  map[string]bool
	seq      int64

	hits   map[string]int
	faults map[string][]fault

	signKey  []byte
	tokenTTL time.Duration
	now      func() time.Time
	log      *zap.Logger
	metrics  metrics.Recorder
	limiter  limiter.Limiter
}

// Option customizes a Server.
type Option func(*Server)

// WithSignKey sets the HS256 key for issued tokens.
func WithSignKey(k []byte) Option { return func(s *Server) { s.signKey = k } }

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(d time.Duration) Option { return func(s *Server) { s.tokenTTL = d } }

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option { return func(s *Server) { s.log = l } }

// WithMetrics records every served request.
func WithMetrics(m metrics.Recorder) Option { return func(s *Server) { s.metrics = m } }

// WithLoginLimiter replaces the failed-login throttle.
func WithLoginLimiter(l limiter.Limiter) Option { return func(s *Server) { s.limiter = l } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

// New returns an empty backend with default studio settings.
func New(opts ...Option) *Server {
	s := &Server{
		users:    map[int64]*userRec{},
		roles:    map[int64]*model.UserRole{},
		profiles: map[int64]*model.Profile{},
		projects: map[int64]*model.Project{},
		media:    map[int64]*model.ProjectMedia{},
		messages: map[int64]*model.Message{},
		files:    map[string]storedFile{},
		revoked:  map[string]bool{},
		hits:     map[string]int{},
		faults:   map[string][]fault{},
		signKey:  []byte("studio-devapi"),
		tokenTTL: 24 * time.Hour,
		now:      time.Now,
		log:      zap.NewNop(),
		metrics:  metrics.Nop{},
		limiter:  limiter.NewMemory(time.Minute, 5, time.Minute),
	}
	for _, o := range opts {
		o(s)
	}
	now := s.now()
	s.settings = model.StudioSettings{ID: 1, StudioName: "Soft Seven Studio", CreatedAt: now, UpdatedAt: now}
	return s
}

// Handler returns the chi router serving /api and /storage.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(recoverer(s.log), logging(s.log, s.metrics), s.track)

	r.Get("/storage/*", s.serveFile)

	r.Route("/api", func(r chi.Router) {
		// public
		r.Post("/login", s.login)
		r.Get("/projects", s.listProjects)
		r.Get("/projects/{id}", s.getProject)
		r.Get("/projects/{id}/media", s.listMedia)
		r.Post("/messages", s.createMessage)
		r.Get("/studio-settings", s.getSettings)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/logout", s.logout)
			r.Get("/user", s.currentUser)

			r.Post("/projects", s.createProject)
			r.Put("/projects/{id}", s.updateProject)
			r.Delete("/projects/{id}", s.deleteProject)
			r.Post("/projects/{id}/media", s.uploadMedia)
			r.Put("/project-media/{id}", s.updateMedia)
			r.Delete("/project-media/{id}", s.deleteMedia)

			r.Get("/messages", s.listMessages)
			r.Get("/messages/{id}", s.getMessage)
			r.Put("/messages/{id}", s.updateMessage)
			r.Delete("/messages/{id}", s.deleteMessage)

			r.Post("/studio-settings", s.saveSettings)

			r.Get("/users", s.listUsers)
			r.Post("/users", s.createUser)
			r.Get("/users/{id}", s.getUser)
			r.Put("/users/{id}", s.updateUser)
			r.Delete("/users/{id}", s.deleteUser)

			r.Get("/user-roles", s.listRoles)
			r.Post("/user-roles", s.createRole)
			r.Put("/user-roles/{id}", s.updateRole)
			r.Delete("/user-roles/{id}", s.deleteRole)

			r.Get("/profile", s.getProfile)
			r.Post("/profile", s.createProfile)
			r.Put("/profile", s.updateProfile)
			r.Delete("/profile", s.deleteProfile)
		})
	})
	return r
}

// Hits returns how many requests reached "METHOD path" (query excluded).
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// FailNext makes the next request to "METHOD path" fail with status and message.
// Calls queue up.
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := method + " " + path
	s.faults[k] = append(s.faults[k], fault{status: status, message: message})
}

// nextID returns a new id. Caller holds s.mu.
func (s *Server) nextID() int64 {
	s.seq++
	return s.seq
}
