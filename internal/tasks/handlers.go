package tasks

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"aipm-backend/internal/analytics"
	"aipm-backend/internal/auth"
	"aipm-backend/internal/enrich"
	"aipm-backend/internal/projects"
)

// ParseDeadline accepts the formats clients actually send: RFC3339 and
// plain dates.
func ParseDeadline(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if d, err := time.Parse(layout, raw); err == nil {
			return &d
		}
	}
	return nil
}

// POST /tasks
// Creates the task with one enrichment pass. Enrichment failure degrades
// the task, it never blocks creation.
func CreateHandler(dbx *sql.DB, store *Store, enricher *enrich.Enricher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var body struct {
			ProjectID   int    `json:"project_id"`
			Title       string `json:"title"`
			Description string `json:"description"`
			Deadline    string `json:"deadline"`
			Assignee    string `json:"assignee"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		body.Title = strings.TrimSpace(body.Title)
		if body.Title == "" {
			http.Error(w, "title is required", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(body.Deadline) != "" && ParseDeadline(body.Deadline) == nil {
			http.Error(w, "invalid deadline", http.StatusBadRequest)
			return
		}

		if _, owned := projects.NameIfOwned(dbx, r, body.ProjectID, uid); !owned {
			http.Error(w, "project not found", http.StatusNotFound)
			return
		}

		res := enricher.Enrich(r.Context(), body.Title, strings.TrimSpace(body.Description))

		now := time.Now().UTC()
		task := Task{
			ProjectID:          body.ProjectID,
			Title:              body.Title,
			Description:        res.Description,
			Status:             NormalizeStatus(""),
			TaskType:           res.TaskType,
			Deadline:           ParseDeadline(body.Deadline),
			Assignee:           strings.TrimSpace(body.Assignee),
			Tags:               res.Tags,
			AcceptanceCriteria: res.AcceptanceCriteria,
			Subtasks:           res.Subtasks,
			StoryPoints:        res.StoryPoints,
		}
		task.Recompute(now)

		if err := store.Insert(r.Context(), &task); err != nil {
			http.Error(w, "db insert error", http.StatusInternalServerError)
			return
		}

		env := analytics.FromRequest(r)
		env.UserID = uid
		_ = analytics.Log(r.Context(), dbx, env, "task_created", map[string]any{
			"task_id":    task.ID,
			"project_id": task.ProjectID,
			"task_type":  task.TaskType,
			"risk_level": task.AIRiskLevel,
			"enriched":   task.TaskType != "unclear" || len(task.AcceptanceCriteria) > 0,
		}, analytics.SourceEventKeyFromRequest(r))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(task)
	}
}

// GET /tasks/project/{projectID}
func ListByProjectHandler(dbx *sql.DB, store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		projectID, ok := projects.ProjectIDFromPath(r, "projectID")
		if !ok {
			http.Error(w, "invalid project id", http.StatusBadRequest)
			return
		}
		if _, owned := projects.NameIfOwned(dbx, r, projectID, uid); !owned {
			http.Error(w, "project not found", http.StatusNotFound)
			return
		}

		list, err := store.ListByProject(r.Context(), projectID)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(list)
	}
}

// PATCH /tasks/{id}/status
func UpdateStatusHandler(dbx *sql.DB, store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		taskID, err := strconv.Atoi(r.PathValue("id"))
		if err != nil || taskID <= 0 {
			http.Error(w, "invalid task id", http.StatusBadRequest)
			return
		}

		var body struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(body.Status) == "" {
			http.Error(w, "status is required", http.StatusBadRequest)
			return
		}

		task, err := store.UpdateStatus(r.Context(), taskID, uid, NormalizeStatus(body.Status), time.Now().UTC())
		if err != nil {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}

		env := analytics.FromRequest(r)
		env.UserID = uid
		_ = analytics.Log(r.Context(), dbx, env, "task_status_changed", map[string]any{
			"task_id":    task.ID,
			"project_id": task.ProjectID,
			"status":     task.Status,
			"risk_level": task.AIRiskLevel,
		}, analytics.SourceEventKeyFromRequest(r))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(task)
	}
}

// DELETE /tasks/{id}
func DeleteHandler(dbx *sql.DB, store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		taskID, err := strconv.Atoi(r.PathValue("id"))
		if err != nil || taskID <= 0 {
			http.Error(w, "invalid task id", http.StatusBadRequest)
			return
		}

		deleted, err := store.Delete(r.Context(), taskID, uid)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if !deleted {
			http.Error(w, "task not found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}
}
