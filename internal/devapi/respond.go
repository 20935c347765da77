package devapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/softseven/studio-admin/internal/model"
)

// defaultPerPage matches Laravel's paginator default.
const defaultPerPage = 15

type errorBody struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Message: msg})
}

func notFound(w http.ResponseWriter) { writeError(w, http.StatusNotFound, "Not found.") }

// validation collects Laravel-style field errors.
type validation map[string][]string

func (v validation) require(field, value string) {
	if strings.TrimSpace(value) == "" {
		v[field] = append(v[field], "The "+strings.ReplaceAll(field, "_", " ")+" field is required.")
	}
}

func (v validation) add(field, msg string) { v[field] = append(v[field], msg) }

// write sends a 422 when v has errors and reports whether it did.
func (v validation) write(w http.ResponseWriter) bool {
	if len(v) == 0 {
		return false
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	writeJSON(w, http.StatusUnprocessableEntity, errorBody{Message: v[keys[0]][0], Errors: v})
	return true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed JSON body.")
		return false
	}
	return true
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("bad id")
	}
	return id, nil
}

// pathID reads the {id} route param, answering 404 when it is not a valid id.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		notFound(w)
		return 0, false
	}
	return id, true
}

func paginate[T any](r *http.Request, items []T) model.Page[T] {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	per, _ := strconv.Atoi(q.Get("per_page"))
	if page < 1 {
		page = 1
	}
	if per < 1 {
		per = defaultPerPage
	}
	last := max((len(items)+per-1)/per, 1)
	from := min((page-1)*per, len(items))
	to := min(from+per, len(items))
	data := append([]T{}, items[from:to]...)
	return model.Page[T]{Data: data, CurrentPage: page, LastPage: last, PerPage: per, Total: len(items)}
}

// parseBool accepts the query encodings browsers and clients send.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "1", "true":
		return true, true
	case "0", "false":
		return false, true
	}
	return false, false
}
