package resource

import (
	"context"
	"net/http"
	"time"

	"github.com/softseven/studio-admin/internal/model"
)

// Messages wraps /messages.
type Messages struct {
	api Doer
	now func() time.Time
}

// NewMessages returns the messages module.
func NewMessages(d Doer) *Messages { return &Messages{api: d, now: time.Now} }

// Create submits the public contact form.
func (m *Messages) Create(ctx context.Context, req model.CreateMessageRequest) (model.Message, error) {
	var out model.Message
	err := m.api.Do(ctx, http.MethodPost, "/messages", nil, req, &out)
	return out, err
}

// List returns one page of messages, optionally filtered server-side.
func (m *Messages) List(ctx context.Context, params model.MessageParams) (model.Page[model.Message], error) {
	var out model.Page[model.Message]
	err := m.api.Do(ctx, http.MethodGet, "/messages", params.Values(), nil, &out)
	return out, err
}

// Update sends only the non-nil fields of req.
func (m *Messages) Update(ctx context.Context, id int64, req model.UpdateMessageRequest) (model.Message, error) {
	var out model.Message
	err := m.api.Do(ctx, http.MethodPut, path("/messages", id), nil, req, &out)
	return out, err
}

// Delete removes a message.
func (m *Messages) Delete(ctx context.Context, id int64) error {
	return m.api.Do(ctx, http.MethodDelete, path("/messages", id), nil, nil, nil)
}

// MarkAsRead sets is_read.
func (m *Messages) MarkAsRead(ctx context.Context, id int64) (model.Message, error) {
	return m.Update(ctx, id, model.UpdateMessageRequest{IsRead: model.Ptr(true)})
}

// MarkAsUnread clears is_read.
func (m *Messages) MarkAsUnread(ctx context.Context, id int64) (model.Message, error) {
	return m.Update(ctx, id, model.UpdateMessageRequest{IsRead: model.Ptr(false)})
}

// ToggleStar sets is_starred to starred.
func (m *Messages) ToggleStar(ctx context.Context, id int64, starred bool) (model.Message, error) {
	return m.Update(ctx, id, model.UpdateMessageRequest{IsStarred: &starred})
}

// MarkAsReplied stamps replied_at with the current time.
func (m *Messages) MarkAsReplied(ctx context.Context, id int64) (model.Message, error) {
	ts := m.now().UTC().Format(time.RFC3339)
	return m.Update(ctx, id, model.UpdateMessageRequest{RepliedAt: &ts})
}
