package devapi

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/softseven/studio-admin/internal/limiter"
	"github.com/softseven/studio-admin/internal/model"
)

// AddUser registers a user that can log in with email and password.
func (s *Server) AddUser(name, email, password string) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return model.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	u := &userRec{
		User: model.User{ID: s.nextID(), Name: name, Email: strings.ToLower(email), CreatedAt: now, UpdatedAt: now},
		hash: hash,
	}
	s.users[u.ID] = u
	return u.User, nil
}

func (s *Server) findByEmail(email string) *userRec {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

// issueToken signs an HS256 JWT for the user.
func (s *Server) issueToken(userID int64) (string, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        jti.String(),
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	v := validation{}
	v.require("email", req.Email)
	v.require("password", req.Password)
	if v.write(w) {
		return
	}

	ctx := r.Context()
	ip := limiter.HashIP(clientIP(r))
	ok, wait, err := s.limiter.Allow(ctx, req.Email, ip)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server Error")
		return
	}
	if !ok {
		tooManyAttempts(w, wait)
		return
	}

	s.mu.Lock()
	u := s.findByEmail(req.Email)
	s.mu.Unlock()
	if u == nil || bcrypt.CompareHashAndPassword(u.hash, []byte(req.Password)) != nil {
		if _, _, err := s.limiter.Failure(ctx, req.Email, ip); err != nil {
			s.log.Warn("login limiter", zap.Error(err))
		}
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err := s.limiter.Success(ctx, req.Email, ip); err != nil {
		s.log.Warn("login limiter", zap.Error(err))
	}
	tok, err := s.issueToken(u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server Error")
		return
	}
	writeJSON(w, http.StatusOK, model.LoginResponse{User: u.User, Token: tok})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if jti, ok := r.Context().Value(tokenIDKey).(string); ok && jti != "" {
		s.mu.Lock()
		s.revoked[jti] = true
		s.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) {
	id, _ := userIDFromCtx(r.Context())
	s.mu.Lock()
	u, ok := s.users[id]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthenticated.")
		return
	}
	writeJSON(w, http.StatusOK, u.User)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func tooManyAttempts(w http.ResponseWriter, wait time.Duration) {
	secs := int(math.Ceil(wait.Seconds()))
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	writeError(w, http.StatusTooManyRequests, fmt.Sprintf("Too many login attempts. Please try again in %d seconds.", secs))
}
