package auth

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type Handler struct {
	DB     *sql.DB
	Secret []byte
}

func NewHandler(db *sql.DB, secret []byte) *Handler {
	return &Handler{DB: db, Secret: secret}
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string `json:"token"`
}

// POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	var exists int
	err := h.DB.QueryRowContext(r.Context(),
		"SELECT COUNT(*) FROM users WHERE email=$1", req.Email,
	).Scan(&exists)
	if err == nil && exists > 0 {
		http.Error(w, "email already exists", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "hash error", http.StatusInternalServerError)
		return
	}

	var id int64
	err = h.DB.QueryRowContext(r.Context(),
		"INSERT INTO users (email, password_hash, plan_tier) VALUES ($1, $2, 'free') RETURNING id",
		req.Email, string(hash),
	).Scan(&id)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}

	token, err := generateToken(id, h.Secret)
	if err != nil {
		http.Error(w, "token error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(authResponse{Token: token})
}

// POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var (
		id   int64
		hash string
	)
	err := h.DB.QueryRowContext(r.Context(),
		"SELECT id, password_hash FROM users WHERE email=$1",
		strings.TrimSpace(strings.ToLower(req.Email)),
	).Scan(&id, &hash)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusForbidden)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		http.Error(w, "invalid credentials", http.StatusForbidden)
		return
	}

	token, err := generateToken(id, h.Secret)
	if err != nil {
		http.Error(w, "token error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(authResponse{Token: token})
}

// GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var (
		email string
		tier  string
	)
	err := h.DB.QueryRowContext(r.Context(),
		"SELECT email, plan_tier FROM users WHERE id=$1", uid,
	).Scan(&email, &tier)
	if err != nil {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":        uid,
		"email":     email,
		"plan_tier": tier,
	})
}

// POST /auth/logout
// JWT is stateless, nothing to invalidate server-side; the client drops
// the token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
}

// DELETE /auth/account
// Removes the user and everything hanging off their projects.
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	uid, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	tx, err := h.DB.BeginTx(r.Context(), nil)
	if err != nil {
		http.Error(w, "db begin failed", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(r.Context(),
		`DELETE FROM daily_reports WHERE project_id IN (SELECT id FROM projects WHERE user_id=$1)`, uid); err != nil {
		http.Error(w, "delete reports failed", http.StatusInternalServerError)
		return
	}
	if _, err := tx.ExecContext(r.Context(),
		`DELETE FROM tasks WHERE project_id IN (SELECT id FROM projects WHERE user_id=$1)`, uid); err != nil {
		http.Error(w, "delete tasks failed", http.StatusInternalServerError)
		return
	}
	if _, err := tx.ExecContext(r.Context(),
		`DELETE FROM projects WHERE user_id=$1`, uid); err != nil {
		http.Error(w, "delete projects failed", http.StatusInternalServerError)
		return
	}
	if _, err := tx.ExecContext(r.Context(),
		`DELETE FROM analytics_events WHERE user_id=$1`, uid); err != nil {
		http.Error(w, "delete analytics failed", http.StatusInternalServerError)
		return
	}
	if _, err := tx.ExecContext(r.Context(),
		`DELETE FROM users WHERE id=$1`, uid); err != nil {
		http.Error(w, "delete user failed", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(); err != nil {
		http.Error(w, "db commit failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
}

func generateToken(id int64, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"id":  id,
		"exp": time.Now().Add(7 * 24 * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
