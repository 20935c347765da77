package hooks

import (
	"context"

	"github.com/softseven/studio-admin/internal/model"
	"github.com/softseven/studio-admin/internal/query"
)

var invalidateMessages = []query.Key{query.Resource(KeyMessages)}

// Messages reads a page of messages under ["messages", params].
func (h *Hooks) Messages(ctx context.Context, params model.MessageParams) (model.Page[model.Message], error) {
	return query.Fetch(ctx, h.cache, query.NewKey(KeyMessages, params), func(ctx context.Context) (model.Page[model.Message], error) {
		return h.api.Messages.List(ctx, params)
	})
}

// SendMessage submits the public contact form.
func (h *Hooks) SendMessage(ctx context.Context, req model.CreateMessageRequest) (model.Message, error) {
	return query.Mutate(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: invalidateMessages,
		Success:    "Message sent",
		Failure:    "Could not send message",
	}, func(ctx context.Context) (model.Message, error) {
		return h.api.Messages.Create(ctx, req)
	})
}

// UpdateMessage applies a partial update without a success toast.
func (h *Hooks) UpdateMessage(ctx context.Context, id int64, req model.UpdateMessageRequest) (model.Message, error) {
	return query.Mutate(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: invalidateMessages,
		Failure:    "Could not update message",
	}, func(ctx context.Context) (model.Message, error) {
		return h.api.Messages.Update(ctx, id, req)
	})
}

// DeleteMessage removes a message.
func (h *Hooks) DeleteMessage(ctx context.Context, id int64) error {
	return query.Exec(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: invalidateMessages,
		Success:    "Message deleted",
		Failure:    "Could not delete message",
	}, func(ctx context.Context) error {
		return h.api.Messages.Delete(ctx, id)
	})
}

// MarkMessageAsRead sets is_read silently.
func (h *Hooks) MarkMessageAsRead(ctx context.Context, id int64) (model.Message, error) {
	return query.Mutate(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: invalidateMessages,
		Failure:    "Could not mark message as read",
	}, func(ctx context.Context) (model.Message, error) {
		return h.api.Messages.MarkAsRead(ctx, id)
	})
}

// ToggleMessageStar sets is_starred silently.
func (h *Hooks) ToggleMessageStar(ctx context.Context, id int64, starred bool) (model.Message, error) {
	return query.Mutate(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: invalidateMessages,
		Failure:    "Could not update star",
	}, func(ctx context.Context) (model.Message, error) {
		return h.api.Messages.ToggleStar(ctx, id, starred)
	})
}

// MarkMessageAsReplied stamps replied_at.
func (h *Hooks) MarkMessageAsReplied(ctx context.Context, id int64) (model.Message, error) {
	return query.Mutate(ctx, h.cache, h.notify, query.Mutation{
		Invalidate: invalidateMessages,
		Success:    "Message marked as replied",
		Failure:    "Could not mark message as replied",
	}, func(ctx context.Context) (model.Message, error) {
		return h.api.Messages.MarkAsReplied(ctx, id)
	})
}
