package devapi

import (
	"net/http"
	"slices"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/softseven/studio-admin/internal/model"
)

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		list = append(list, u.User)
	}
	s.mu.Unlock()
	slices.SortFunc(list, func(a, b model.User) int { return int(a.ID - b.ID) })
	writeJSON(w, http.StatusOK, paginate(r, list))
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	u, ok := s.users[id]
	s.mu.Unlock()
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, u.User)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRequest
	if !decode(w, r, &req) {
		return
	}
	v := validation{}
	v.require("name", req.Name)
	v.require("email", req.Email)
	v.require("password", req.Password)
	if req.Password != req.PasswordConfirmation {
		v.add("password", "The password field confirmation does not match.")
	}
	s.mu.Lock()
	taken := s.findByEmail(req.Email) != nil
	s.mu.Unlock()
	if taken {
		v.add("email", "The email has already been taken.")
	}
	if v.write(w) {
		return
	}
	u, err := s.AddUser(req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server Error")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.UpdateUserRequest
	if !decode(w, r, &req) {
		return
	}
	v := validation{}
	if req.Password != nil && (req.PasswordConfirmation == nil || *req.Password != *req.PasswordConfirmation) {
		v.add("password", "The password field confirmation does not match.")
	}
	var hash []byte
	if req.Password != nil && len(v) == 0 {
		h, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.MinCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Server Error")
			return
		}
		hash = h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		notFound(w)
		return
	}
	if req.Email != nil {
		if other := s.findByEmail(*req.Email); other != nil && other.ID != id {
			v.add("email", "The email has already been taken.")
		}
	}
	if v.write(w) {
		return
	}
	set(&u.Name, req.Name)
	if req.Email != nil {
		u.Email = strings.ToLower(*req.Email)
	}
	if hash != nil {
		u.hash = hash
	}
	u.UpdatedAt = s.now()
	writeJSON(w, http.StatusOK, u.User)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		notFound(w)
		return
	}
	delete(s.users, id)
	delete(s.profiles, id)
	for rid, role := range s.roles {
		if role.UserID == id {
			delete(s.roles, rid)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func validRole(r string) bool {
	return r == model.RoleAdmin || r == model.RoleModerator || r == model.RoleUser
}

func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := make([]model.UserRole, 0, len(s.roles))
	for _, role := range s.roles {
		list = append(list, *role)
	}
	s.mu.Unlock()
	slices.SortFunc(list, func(a, b model.UserRole) int { return int(a.ID - b.ID) })
	writeJSON(w, http.StatusOK, paginate(r, list))
}

func (s *Server) createRole(w http.ResponseWriter, r *http.Request) {
	var req model.CreateUserRoleRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v := validation{}
	if _, ok := s.users[req.UserID]; !ok {
		v.add("user_id", "The selected user id is invalid.")
	}
	if !validRole(req.Role) {
		v.add("role", "The selected role is invalid.")
	}
	if v.write(w) {
		return
	}
	now := s.now()
	role := &model.UserRole{ID: s.nextID(), UserID: req.UserID, Role: req.Role, CreatedAt: now, UpdatedAt: now}
	s.roles[role.ID] = role
	writeJSON(w, http.StatusCreated, role)
}

func (s *Server) updateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req model.UpdateUserRoleRequest
	if !decode(w, r, &req) {
		return
	}
	if !validRole(req.Role) {
		v := validation{}
		v.add("role", "The selected role is invalid.")
		v.write(w)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	role, ok := s.roles[id]
	if !ok {
		notFound(w)
		return
	}
	role.Role = req.Role
	role.UpdatedAt = s.now()
	writeJSON(w, http.StatusOK, role)
}

func (s *Server) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[id]; !ok {
		notFound(w)
		return
	}
	delete(s.roles, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	uid, _ := userIDFromCtx(r.Context())
	s.mu.Lock()
	p, ok := s.profiles[uid]
	s.mu.Unlock()
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) createProfile(w http.ResponseWriter, r *http.Request) {
	uid, _ := userIDFromCtx(r.Context())
	var req model.ProfileRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[uid]; ok {
		v := validation{}
		v.add("user_id", "Profile already exists.")
		v.write(w)
		return
	}
	now := s.now()
	p := &model.Profile{ID: s.nextID(), UserID: uid, CreatedAt: now}
	applyProfile(p, req)
	p.UpdatedAt = now
	s.profiles[uid] = p
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	uid, _ := userIDFromCtx(r.Context())
	var req model.ProfileRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[uid]
	if !ok {
		notFound(w)
		return
	}
	applyProfile(p, req)
	p.UpdatedAt = s.now()
	writeJSON(w, http.StatusOK, p)
}

func applyProfile(p *model.Profile, req model.ProfileRequest) {
	set(&p.AvatarURL, req.AvatarURL)
	set(&p.Bio, req.Bio)
	set(&p.Phone, req.Phone)
	set(&p.Location, req.Location)
	set(&p.Website, req.Website)
	if req.SocialLinks != nil {
		p.SocialLinks = req.SocialLinks
	}
}

func (s *Server) deleteProfile(w http.ResponseWriter, r *http.Request) {
	uid, _ := userIDFromCtx(r.Context())
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[uid]; !ok {
		notFound(w)
		return
	}
	delete(s.profiles, uid)
	w.WriteHeader(http.StatusNoContent)
}
