package admin

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"

	"github.com/softseven/studio-admin/internal/errs"
	"github.com/softseven/studio-admin/internal/model"
)

// Filter restricts the inbox by message state.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterUnread  Filter = "unread"
	FilterStarred Filter = "starred"
)

// ParseFilter maps user input to a Filter; unknown or empty input is FilterAll.
func ParseFilter(s string) Filter {
	switch Filter(strings.ToLower(strings.TrimSpace(s))) {
	case FilterUnread:
		return FilterUnread
	case FilterStarred:
		return FilterStarred
	}
	return FilterAll
}

// FilterMessages applies the state filter and a case-insensitive substring
// search over sender name, subject and email.
func FilterMessages(msgs []model.Message, f Filter, search string) []model.Message {
	q := strings.ToLower(strings.TrimSpace(search))
	out := make([]model.Message, 0, len(msgs))
	for _, m := range msgs {
		switch f {
		case FilterUnread:
			if m.IsRead {
				continue
			}
		case FilterStarred:
			if !m.IsStarred {
				continue
			}
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(m.SenderName), q) &&
			!strings.Contains(strings.ToLower(m.Subject), q) &&
			!strings.Contains(strings.ToLower(m.SenderEmail), q) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Inbox is the message list with an optional open message.
type Inbox struct {
	h       MessageHooks
	confirm Confirmer
	policy  *bluemonday.Policy

	mu       sync.Mutex
	messages []model.Message
	openID   int64
	filter   Filter
	search   string
}

// NewInbox returns an empty inbox. A nil confirmer approves everything.
func NewInbox(h MessageHooks, c Confirmer) *Inbox {
	if c == nil {
		c = AlwaysConfirm
	}
	return &Inbox{h: h, confirm: c, policy: bluemonday.StrictPolicy(), filter: FilterAll}
}

// Load fetches the messages.
func (in *Inbox) Load(ctx context.Context) error {
	list, err := allPages(ctx, func(ctx context.Context, n int) (model.Page[model.Message], error) {
		return in.h.Messages(ctx, model.MessageParams{PageParams: model.PageParams{Page: n, PerPage: listPerPage}})
	})
	if err != nil {
		return err
	}
	in.mu.Lock()
	in.messages = list
	in.mu.Unlock()
	return nil
}

// SetFilter sets the state filter.
func (in *Inbox) SetFilter(f Filter) {
	in.mu.Lock()
	in.filter = f
	in.mu.Unlock()
}

// SetSearch sets the search text.
func (in *Inbox) SetSearch(q string) {
	in.mu.Lock()
	in.search = q
	in.mu.Unlock()
}

// Visible returns the messages passing the current filter and search.
func (in *Inbox) Visible() []model.Message {
	in.mu.Lock()
	defer in.mu.Unlock()
	return FilterMessages(in.messages, in.filter, in.search)
}

// UnreadCount counts unread messages regardless of filter.
func (in *Inbox) UnreadCount() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	n := 0
	for _, m := range in.messages {
		if !m.IsRead {
			n++
		}
	}
	return n
}

// Selected returns the open message.
func (in *Inbox) Selected() (model.Message, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	i := in.index(in.openID)
	if in.openID == 0 || i < 0 {
		return model.Message{}, false
	}
	return in.messages[i], true
}

// Open shows a message. An unread message is flipped to read locally before
// the request is sent, so it is marked at most once; the flip is undone if
// the request fails.
func (in *Inbox) Open(ctx context.Context, id int64) (model.Message, error) {
	in.mu.Lock()
	i := in.index(id)
	if i < 0 {
		in.mu.Unlock()
		return model.Message{}, fmt.Errorf("message %d: %w", id, errs.ErrNotFound)
	}
	in.openID = id
	m := in.messages[i]
	if m.IsRead {
		in.mu.Unlock()
		return m, nil
	}
	in.messages[i].IsRead = true
	m = in.messages[i]
	in.mu.Unlock()

	if _, err := in.h.MarkMessageAsRead(ctx, id); err != nil {
		if r := in.update(id, func(m *model.Message) { m.IsRead = false }); r.ID != 0 {
			return r, err
		}
		m.IsRead = false
		return m, err
	}
	return m, nil
}

// Close clears the open message.
func (in *Inbox) Close() {
	in.mu.Lock()
	in.openID = 0
	in.mu.Unlock()
}

// ToggleStar flips the starred flag and updates the list and the open view.
func (in *Inbox) ToggleStar(ctx context.Context, id int64) (model.Message, error) {
	in.mu.Lock()
	i := in.index(id)
	if i < 0 {
		in.mu.Unlock()
		return model.Message{}, fmt.Errorf("message %d: %w", id, errs.ErrNotFound)
	}
	starred := !bool(in.messages[i].IsStarred)
	in.mu.Unlock()

	if _, err := in.h.ToggleMessageStar(ctx, id, starred); err != nil {
		return model.Message{}, err
	}
	return in.update(id, func(m *model.Message) { m.IsStarred = model.Flag(starred) }), nil
}

// Reply marks the message replied and returns a mailto link addressed to the
// sender.
func (in *Inbox) Reply(ctx context.Context, id int64) (string, error) {
	in.mu.Lock()
	i := in.index(id)
	if i < 0 {
		in.mu.Unlock()
		return "", fmt.Errorf("message %d: %w", id, errs.ErrNotFound)
	}
	m := in.messages[i]
	in.mu.Unlock()

	got, err := in.h.MarkMessageAsReplied(ctx, id)
	if err != nil {
		return "", err
	}
	in.update(id, func(m *model.Message) { m.RepliedAt = got.RepliedAt })
	return MailtoLink(m), nil
}

// Delete removes a message after confirmation. Declining returns errs.ErrCanceled
// without a request.
func (in *Inbox) Delete(ctx context.Context, id int64) error {
	in.mu.Lock()
	i := in.index(id)
	if i < 0 {
		in.mu.Unlock()
		return fmt.Errorf("message %d: %w", id, errs.ErrNotFound)
	}
	from := in.messages[i].SenderName
	in.mu.Unlock()

	if !in.confirm.Confirm(fmt.Sprintf("Delete message from %s?", from)) {
		return errs.ErrCanceled
	}
	if err := in.h.DeleteMessage(ctx, id); err != nil {
		return err
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if i := in.index(id); i >= 0 {
		in.messages = append(in.messages[:i], in.messages[i+1:]...)
	}
	if in.openID == id {
		in.openID = 0
	}
	return nil
}

// Content renders the message body as plain text with all markup removed.
func (in *Inbox) Content(m model.Message) string {
	return html.UnescapeString(in.policy.Sanitize(m.Content))
}

// MailtoLink builds a reply link for m.
func MailtoLink(m model.Message) string {
	subject := "Re: " + m.Subject
	if m.Subject == "" {
		subject = "Re: your message"
	}
	q := url.Values{"subject": {subject}}
	return "mailto:" + m.SenderEmail + "?" + strings.ReplaceAll(q.Encode(), "+", "%20")
}

// update applies fn to the message with id and returns the result.
func (in *Inbox) update(id int64, fn func(*model.Message)) model.Message {
	in.mu.Lock()
	defer in.mu.Unlock()
	i := in.index(id)
	if i < 0 {
		return model.Message{}
	}
	fn(&in.messages[i])
	return in.messages[i]
}

// index finds id in the list. Caller holds in.mu.
func (in *Inbox) index(id int64) int {
	for i := range in.messages {
		if in.messages[i].ID == id {
			return i
		}
	}
	return -1
}
