package devapi

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/softseven/studio-admin/internal/limiter"
	"github.com/softseven/studio-admin/internal/metrics"
	"github.com/softseven/studio-admin/internal/model"
)

type fixture struct {
	t   *testing.T
	api *Server
	srv *httptest.Server
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	api := New()
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	_, err := api.AddUser("Admin", "admin@softseven.ao", "secret")
	require.NoError(t, err)
	return &fixture{t: t, api: api, srv: srv}
}

func (f *fixture) do(method, path, token, contentType string, body io.Reader) (int, []byte) {
	f.t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, body)
	require.NoError(f.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(f.t, err)
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}

func (f *fixture) json(method, path, token string, v any) (int, []byte) {
	f.t.Helper()
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		require.NoError(f.t, err)
		body = bytes.NewReader(b)
	}
	return f.do(method, path, token, "application/json", body)
}

func (f *fixture) login() string {
	f.t.Helper()
	code, b := f.json(http.MethodPost, "/api/login", "", model.LoginRequest{Email: "admin@softseven.ao", Password: "secret"})
	require.Equal(f.t, http.StatusOK, code, string(b))
	var out model.LoginResponse
	require.NoError(f.t, json.Unmarshal(b, &out))
	require.NotEmpty(f.t, out.Token)
	return out.Token
}

func TestLogin_User_Logout(t *testing.T) {
	f := newFixture(t)

	code, b := f.json(http.MethodPost, "/api/login", "", model.LoginRequest{Email: "admin@softseven.ao", Password: "nope"})
	require.Equal(t, http.StatusUnauthorized, code)
	require.Contains(t, string(b), "Invalid credentials")

	code, _ = f.json(http.MethodGet, "/api/user", "", nil)
	require.Equal(t, http.StatusUnauthorized, code)

	tok := f.login()
	code, b = f.json(http.MethodGet, "/api/user", tok, nil)
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, string(b), "admin@softseven.ao")

	code, _ = f.json(http.MethodPost, "/api/logout", tok, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = f.json(http.MethodGet, "/api/user", tok, nil)
	require.Equal(t, http.StatusUnauthorized, code, "revoked token must be rejected")
}

func TestLogin_Validation(t *testing.T) {
	f := newFixture(t)
	code, b := f.json(http.MethodPost, "/api/login", "", model.LoginRequest{})
	require.Equal(t, http.StatusUnprocessableEntity, code)
	var eb errorBody
	require.NoError(t, json.Unmarshal(b, &eb))
	require.Contains(t, eb.Errors, "email")
	require.Contains(t, eb.Errors, "password")
}

func multipartBody(t *testing.T, fields map[string]string, fileField, filename string) (string, io.Reader) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, _ = part.Write([]byte("img"))
	}
	require.NoError(t, w.Close())
	return w.FormDataContentType(), &buf
}

func TestProjects_CreateUpdateDelete(t *testing.T) {
	f := newFixture(t)
	tok := f.login()

	ct, body := multipartBody(t, map[string]string{"title": "Reel", "category": "video"}, "", "")
	code, b := f.do(http.MethodPost, "/api/projects", tok, ct, body)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	require.Contains(t, string(b), "thumbnail_url")

	ct, body = multipartBody(t, map[string]string{"title": "Reel Two", "category": "video"}, "thumbnail_url", "a.jpg")
	code, b = f.do(http.MethodPost, "/api/projects", tok, ct, body)
	require.Equal(t, http.StatusCreated, code, string(b))
	var p model.Project
	require.NoError(t, json.Unmarshal(b, &p))
	require.Equal(t, "reel-two", p.Slug)
	require.Equal(t, model.StatusDraft, p.Status)

	code, _ = f.do(http.MethodGet, p.ThumbnailURL, "", "", nil)
	require.Equal(t, http.StatusOK, code, "uploaded thumbnail is served")

	code, b = f.json(http.MethodPut, "/api/projects/"+itoa(p.ID), tok, map[string]any{"display_order": 4})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(b, &p))
	require.Equal(t, 4, p.DisplayOrder)
	require.Equal(t, "Reel Two", p.Title, "partial update keeps other fields")

	code, _ = f.json(http.MethodDelete, "/api/projects/"+itoa(p.ID), tok, nil)
	require.Equal(t, http.StatusNoContent, code)
	code, _ = f.json(http.MethodGet, "/api/projects/"+itoa(p.ID), "", nil)
	require.Equal(t, http.StatusNotFound, code)
}

func TestMessages_FilterAndPaginate(t *testing.T) {
	f := newFixture(t)
	tok := f.login()
	f.api.SeedMessage(model.Message{SenderName: "Maria", IsStarred: true})
	f.api.SeedMessage(model.Message{SenderName: "João", IsRead: true})

	code, b := f.json(http.MethodGet, "/api/messages?is_read=false", tok, nil)
	require.Equal(t, http.StatusOK, code)
	var page model.Page[model.Message]
	require.NoError(t, json.Unmarshal(b, &page))
	require.Len(t, page.Data, 1)
	require.Equal(t, "Maria", page.Data[0].SenderName)

	code, b = f.json(http.MethodGet, "/api/messages?per_page=1&page=2", tok, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(b, &page))
	require.Equal(t, 2, page.Total)
	require.Equal(t, 2, page.LastPage)
	require.Len(t, page.Data, 1)

	code, _ = f.json(http.MethodPost, "/api/messages", "", model.CreateMessageRequest{Name: "x", Email: "bad", Message: "hi"})
	require.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestFailNext_And_Hits(t *testing.T) {
	f := newFixture(t)
	f.api.FailNext(http.MethodGet, "/api/studio-settings", http.StatusServiceUnavailable, "maintenance")

	code, b := f.json(http.MethodGet, "/api/studio-settings", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Contains(t, string(b), "maintenance")
	code, _ = f.json(http.MethodGet, "/api/studio-settings", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 2, f.api.Hits(http.MethodGet, "/api/studio-settings"))
}

func TestPaginate_Bounds(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x?page=9&per_page=2", nil)
	p := paginate(r, []int{1, 2, 3})
	require.Empty(t, p.Data)
	require.Equal(t, 2, p.LastPage)
	require.Equal(t, 3, p.Total)

	r = httptest.NewRequest(http.MethodGet, "/x", nil)
	p = paginate(r, []int{})
	require.Equal(t, 1, p.LastPage)
	require.Equal(t, defaultPerPage, p.PerPage)
}

func itoa(id int64) string { b, _ := json.Marshal(id); return string(b) }

func TestMetrics_RecordsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	api := New(WithMetrics(metrics.NewCollector(reg)))
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)

	for _, p := range []string{"/api/projects", "/api/projects/404", "/api/user"} {
		resp, err := http.Get(srv.URL + p)
		require.NoError(t, err)
		resp.Body.Close()
	}

	require.Equal(t, 1.0, requestCount(t, reg, "200"))
	require.Equal(t, 1.0, requestCount(t, reg, "404"))
	require.Equal(t, 1.0, requestCount(t, reg, "401"))
}

func requestCount(t *testing.T, reg *prometheus.Registry, code string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "studio_api_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "status_code" && lp.GetValue() == code {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestLogin_ThrottlesFailures(t *testing.T) {
	api := New(WithLoginLimiter(limiter.NewMemory(time.Minute, 2, time.Minute)))
	_, err := api.AddUser("Admin", "admin@softseven.ao", "secret")
	require.NoError(t, err)
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	f := &fixture{t: t, api: api, srv: srv}

	bad := model.LoginRequest{Email: "admin@softseven.ao", Password: "nope"}
	for range 2 {
		code, _ := f.json(http.MethodPost, "/api/login", "", bad)
		require.Equal(t, http.StatusUnauthorized, code)
	}

	good := model.LoginRequest{Email: "admin@softseven.ao", Password: "secret"}
	code, b := f.json(http.MethodPost, "/api/login", "", good)
	require.Equal(t, http.StatusTooManyRequests, code)
	require.Contains(t, string(b), "Too many login attempts")
}
