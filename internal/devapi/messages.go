package devapi

import (
	"net/http"
	"net/mail"
	"slices"
	"time"

	"github.com/softseven/studio-admin/internal/model"
)

// SeedMessage stores m, assigning an id and created_at when missing.
func (s *Server) SeedMessage(m model.Message) model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == 0 {
		m.ID = s.nextID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt, m.UpdatedAt = s.now(), s.now()
	}
	cp := m
	s.messages[m.ID] = &cp
	return cp
}

// Message returns the stored message.
func (s *Server) Message(id int64) (model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		return model.Message{}, false
	}
	return *m, true
}

func (s *Server) createMessage(w http.ResponseWriter, r *http.Request) {
	var req model.CreateMessageRequest
	if !decode(w, r, &req) {
		return
	}
	v := validation{}
	v.require("name", req.Name)
	v.require("email", req.Email)
	v.require("message", req.Message)
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			v.add("email", "The email field must be a valid email address.")
		}
	}
	if v.write(w) {
		return
	}
	m := s.SeedMessage(model.Message{
		SenderName:  req.Name,
		SenderEmail: req.Email,
		Phone:       req.Phone,
		Subject:     req.Subject,
		Content:     req.Message,
	})
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	read, filterRead := parseBool(q.Get("is_read"))
	starred, filterStarred := parseBool(q.Get("is_starred"))

	s.mu.Lock()
	list := make([]model.Message, 0, len(s.messages))
	for _, m := range s.messages {
		if filterRead && bool(m.IsRead) != read {
			continue
		}
		if filterStarred && bool(m.IsStarred) != starred {
			continue
		}
		list = append(list, *m)
	}
	s.mu.Unlock()

	slices.SortFunc(list, func(a, b model.Message) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return int(b.ID - a.ID)
	})
	writeJSON(w, http.StatusOK, paginate(r, list))
}

func (s *Server) getMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	m, ok := s.Message(id)
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) updateMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.UpdateMessageRequest
	if !decode(w, r, &req) {
		return
	}
	var replied *time.Time
	if req.RepliedAt != nil {
		t, err := time.Parse(time.RFC3339, *req.RepliedAt)
		if err != nil {
			v := validation{}
			v.add("replied_at", "The replied at field must be a valid date.")
			v.write(w)
			return
		}
		replied = &t
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.messages[id]
	if !ok {
		notFound(w)
		return
	}
	if req.IsRead != nil {
		m.IsRead = model.Flag(*req.IsRead)
	}
	if req.IsStarred != nil {
		m.IsStarred = model.Flag(*req.IsStarred)
	}
	if replied != nil {
		m.RepliedAt = replied
	}
	m.UpdatedAt = s.now()
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) deleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.messages[id]; !ok {
		notFound(w)
		return
	}
	delete(s.messages, id)
	w.WriteHeader(http.StatusNoContent)
}
