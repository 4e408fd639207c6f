package importer

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"aipm-backend/internal/analytics"
	"aipm-backend/internal/auth"
	"aipm-backend/internal/enrich"
	"aipm-backend/internal/projects"
	"aipm-backend/internal/tasks"
)

const maxCSVUpload = 5 << 20 // 5 MiB

// createFromRaw is the shared import path: enrich once, recompute derived
// fields, persist. Matches what manual task creation does.
func createFromRaw(ctx context.Context, store *tasks.Store, enricher *enrich.Enricher, projectID int, raw RawTask, now time.Time) (*tasks.Task, error) {
	res := enricher.Enrich(ctx, raw.Title, raw.Description)

	task := tasks.Task{
		ProjectID:          projectID,
		Title:              raw.Title,
		Description:        res.Description,
		Status:             tasks.NormalizeStatus(raw.Status),
		TaskType:           res.TaskType,
		Deadline:           raw.Deadline,
		Assignee:           strings.TrimSpace(raw.Assignee),
		Tags:               res.Tags,
		AcceptanceCriteria: res.AcceptanceCriteria,
		Subtasks:           res.Subtasks,
		StoryPoints:        res.StoryPoints,
	}
	task.Recompute(now)

	if err := store.Insert(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// POST /tasks/import/csv  (multipart: project_id, file)
func CSVHandler(dbx *sql.DB, store *tasks.Store, enricher *enrich.Enricher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := r.ParseMultipartForm(maxCSVUpload); err != nil {
			http.Error(w, "invalid multipart form", http.StatusBadRequest)
			return
		}

		projectID, err := strconv.Atoi(r.FormValue("project_id"))
		if err != nil || projectID <= 0 {
			http.Error(w, "invalid project id", http.StatusBadRequest)
			return
		}
		if _, owned := projects.NameIfOwned(dbx, r, projectID, uid); !owned {
			http.Error(w, "project not found", http.StatusNotFound)
			return
		}

		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "file is required", http.StatusBadRequest)
			return
		}
		defer file.Close()

		raws, err := ParseCSV(file)
		if err != nil {
			http.Error(w, "invalid csv", http.StatusBadRequest)
			return
		}

		created := importAll(r.Context(), store, enricher, projectID, raws)
		logImport(r, dbx, uid, projectID, "csv", len(raws), len(created))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(created)
	}
}

// POST /tasks/import/trello  (form: project_id, board_id, api_key?, token?)
// Falls back to server-side Trello credentials when the request carries none.
func TrelloHandler(dbx *sql.DB, store *tasks.Store, enricher *enrich.Enricher, defaultKey, defaultToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}

		projectID, err := strconv.Atoi(r.FormValue("project_id"))
		if err != nil || projectID <= 0 {
			http.Error(w, "invalid project id", http.StatusBadRequest)
			return
		}
		boardID := strings.TrimSpace(r.FormValue("board_id"))
		if boardID == "" {
			http.Error(w, "board_id is required", http.StatusBadRequest)
			return
		}
		if _, owned := projects.NameIfOwned(dbx, r, projectID, uid); !owned {
			http.Error(w, "project not found", http.StatusNotFound)
			return
		}

		key := strings.TrimSpace(r.FormValue("api_key"))
		token := strings.TrimSpace(r.FormValue("token"))
		if key == "" {
			key = defaultKey
		}
		if token == "" {
			token = defaultToken
		}
		if key == "" || token == "" {
			http.Error(w, "trello credentials are required", http.StatusBadRequest)
			return
		}

		raws, err := NewTrelloClient(key, token).BoardTasks(r.Context(), boardID)
		if err != nil {
			http.Error(w, "trello fetch failed", http.StatusBadGateway)
			return
		}

		created := importAll(r.Context(), store, enricher, projectID, raws)
		logImport(r, dbx, uid, projectID, "trello", len(raws), len(created))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(created)
	}
}

func importAll(ctx context.Context, store *tasks.Store, enricher *enrich.Enricher, projectID int, raws []RawTask) []tasks.Task {
	now := time.Now().UTC()
	created := []tasks.Task{}
	for _, raw := range raws {
		task, err := createFromRaw(ctx, store, enricher, projectID, raw, now)
		if err != nil {
			// one bad row must not abort the batch
			continue
		}
		created = append(created, *task)
	}
	return created
}

func logImport(r *http.Request, dbx *sql.DB, uid int64, projectID int, source string, parsed, created int) {
	env := analytics.FromRequest(r)
	env.UserID = uid

	// one event per batch; key it so client retries don't double-count
	key := analytics.SourceEventKeyFromRequest(r)
	if key == "" {
		key = uuid.NewString()
	}

	_ = analytics.Log(r.Context(), dbx, env, "tasks_imported", map[string]any{
		"project_id": projectID,
		"source":     source,
		"parsed":     parsed,
		"created":    created,
	}, key)
}
