package projects

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"aipm-backend/internal/analytics"
	"aipm-backend/internal/auth"
)

type Project struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NameIfOwned returns the project name when the project exists and belongs
// to the user. Handlers across packages gate on this before touching tasks
// or reports.
func NameIfOwned(dbx *sql.DB, r *http.Request, projectID int, uid int64) (string, bool) {
	var name string
	err := dbx.QueryRowContext(r.Context(),
		`SELECT name FROM projects WHERE id=$1 AND user_id=$2`,
		projectID, uid,
	).Scan(&name)
	return name, err == nil
}

func ProjectIDFromPath(r *http.Request, key string) (int, bool) {
	id, err := strconv.Atoi(r.PathValue(key))
	return id, err == nil && id > 0
}

func CreateHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			Name        string `json:"name"`
			Description string `json:"description"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(body.Name) == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}

		var p Project
		p.Name = strings.TrimSpace(body.Name)
		p.Description = strings.TrimSpace(body.Description)

		err := dbx.QueryRowContext(r.Context(), `
			INSERT INTO projects (user_id, name, description)
			VALUES ($1, $2, $3)
			RETURNING id, created_at
		`, uid, p.Name, p.Description).Scan(&p.ID, &p.CreatedAt)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		env := analytics.FromRequest(r)
		env.UserID = uid
		_ = analytics.Log(r.Context(), dbx, env, "project_created", map[string]any{
			"project_id": p.ID,
			"name_len":   len(p.Name),
		}, analytics.SourceEventKeyFromRequest(r))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(p)
	}
}

func ListHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		rows, err := dbx.QueryContext(r.Context(), `
			SELECT id, name, COALESCE(description,''), created_at
			FROM projects
			WHERE user_id=$1
			ORDER BY id DESC
		`, uid)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		projects := []Project{}
		for rows.Next() {
			var p Project
			if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
				http.Error(w, "db scan error", http.StatusInternalServerError)
				return
			}
			projects = append(projects, p)
		}
		if err := rows.Err(); err != nil {
			http.Error(w, "db rows error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(projects)
	}
}

func GetHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id, ok := ProjectIDFromPath(r, "id")
		if !ok {
			http.Error(w, "invalid project id", http.StatusBadRequest)
			return
		}

		var p Project
		err := dbx.QueryRowContext(r.Context(), `
			SELECT id, name, COALESCE(description,''), created_at
			FROM projects
			WHERE id=$1 AND user_id=$2
		`, id, uid).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
		if err != nil {
			http.Error(w, "project not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(p)
	}
}

// DeleteHandler removes the project and, in the same transaction, its tasks
// and daily reports. Project is the sole owner of both.
func DeleteHandler(dbx *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		id, ok := ProjectIDFromPath(r, "id")
		if !ok {
			http.Error(w, "invalid project id", http.StatusBadRequest)
			return
		}

		if _, owned := NameIfOwned(dbx, r, id, uid); !owned {
			http.Error(w, "project not found", http.StatusNotFound)
			return
		}

		tx, err := dbx.BeginTx(r.Context(), nil)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(r.Context(),
			`DELETE FROM daily_reports WHERE project_id=$1`, id); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		resTasks, err := tx.ExecContext(r.Context(),
			`DELETE FROM tasks WHERE project_id=$1`, id)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		tasksDeleted, _ := resTasks.RowsAffected()

		if _, err := tx.ExecContext(r.Context(),
			`DELETE FROM projects WHERE id=$1 AND user_id=$2`, id, uid); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		if err := tx.Commit(); err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		env := analytics.FromRequest(r)
		env.UserID = uid
		_ = analytics.Log(r.Context(), dbx, env, "project_deleted", map[string]any{
			"project_id":    id,
			"tasks_deleted": tasksDeleted,
		}, analytics.SourceEventKeyFromRequest(r))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":            true,
			"tasks_deleted": tasksDeleted,
		})
	}
}
