package apiclient

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/softseven/studio-admin/internal/model"
)

// Form is an ordered multipart/form-data payload.
type Form struct {
	fields [][2]string
	files  []formFile
}

type formFile struct {
	field  string
	upload model.Upload
}

// Set adds a text field.
func (f *Form) Set(name, value string) { f.fields = append(f.fields, [2]string{name, value}) }

// SetIfNotEmpty adds a text field only when value is non-empty.
func (f *Form) SetIfNotEmpty(name, value string) {
	if value != "" {
		f.Set(name, value)
	}
}

// AddFile adds a file part.
func (f *Form) AddFile(field string, up model.Upload) {
	f.files = append(f.files, formFile{field: field, upload: up})
}

// Field returns the first value of a text field.
func (f *Form) Field(name string) (string, bool) {
	for _, kv := range f.fields {
		if kv[0] == name {
			return kv[1], true
		}
	}
	return "", false
}

func (f *Form) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, kv := range f.fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	for _, ff := range f.files {
		if ff.upload.Body == nil {
			return nil, "", fmt.Errorf("file %q: %w", ff.field, errors.New("empty body"))
		}
		name := filepath.Base(ff.upload.Filename)
		ct := ff.upload.ContentType
		if ct == "" {
			ct = mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
		}
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, ff.field, name))
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, ff.upload.Body); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
