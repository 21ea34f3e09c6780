package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/driftice/gcdserver/auth"
	"github.com/driftice/gcdserver/idgen"
	"github.com/driftice/gcdserver/store"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
	Username  string    `json:"username"`
	Roles     []string  `json:"roles"`
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErrorStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		s.respondErrorStatus(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := s.store.GetUser(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Unknown user and wrong password are indistinguishable to the
			// client.
			s.respondErrorStatus(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		s.respondError(w, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		s.logger.Info("login rejected", "username", req.Username)
		s.respondErrorStatus(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	claims := &auth.Claims{
		Email:    user.Email,
		Username: user.Username,
		Roles:    user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.Username,
		},
	}
	token, err := auth.GenerateToken(s.secret, claims, s.tokenTTL, idgen.Default())
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.logger.Info("login accepted", "username", user.Username)
	s.respond(w, http.StatusOK, loginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
		Username:  user.Username,
		Roles:     user.Roles,
	})
}

// handleVerify echoes back the claims of the presented token, confirming it
// is valid and unexpired.
func (s *Service) handleVerify(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetClaims(r.Context())
	if claims == nil {
		s.respondErrorStatus(w, http.StatusUnauthorized, "missing or invalid authorization token")
		return
	}
	s.respond(w, http.StatusOK, map[string]any{
		"username": claims.Username,
		"email":    claims.Email,
		"roles":    claims.Roles,
		"subject":  claims.Subject,
	})
}

// SeedAdmin creates the configured admin account if no users exist yet. It
// is a no-op on a populated database.
func SeedAdmin(ctx context.Context, st *store.Store, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	n, err := st.CountUsers(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return st.CreateUser(ctx, store.User{
		Username:     username,
		PasswordHash: string(hash),
		Roles:        []string{"admin"},
		CreatedAt:    time.Now().UTC(),
	})
}
