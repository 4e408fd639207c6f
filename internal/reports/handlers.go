package reports

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"aipm-backend/internal/analytics"
	"aipm-backend/internal/auth"
	"aipm-backend/internal/derive"
	"aipm-backend/internal/projects"
)

// Updater writes the stakeholder email body from a finished report.
type Updater interface {
	StakeholderUpdate(ctx context.Context, projectName, summaryJSON string) (string, error)
}

// POST /reports/generate/{projectID}?regenerate=true
func GenerateHandler(dbx *sql.DB, svc *Service) http.HandlerFunc {
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
		name, owned := projects.NameIfOwned(dbx, r, projectID, uid)
		if !owned {
			http.Error(w, "project not found", http.StatusNotFound)
			return
		}

		now := time.Now().UTC()
		regenerate := r.URL.Query().Get("regenerate") == "true"

		var (
			rep *DailyReport
			err error
		)
		if regenerate {
			rep, err = svc.Regenerate(r.Context(), projectID, name, now)
		} else {
			rep, err = svc.GetOrGenerate(r.Context(), projectID, name, now)
		}
		if err != nil {
			http.Error(w, "report generation failed", http.StatusInternalServerError)
			return
		}

		env := analytics.FromRequest(r)
		env.UserID = uid
		_ = analytics.Log(r.Context(), dbx, env, "report_generated", map[string]any{
			"project_id": projectID,
			"date":       rep.Date,
			"regenerate": regenerate,
			"n_priority": len(rep.PriorityTasks),
			"n_risks":    len(rep.Risks),
			"n_blocked":  len(rep.BlockedTasks),
		}, analytics.SourceEventKeyFromRequest(r))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rep)
	}
}

// GET /reports/{projectID}/latest
func LatestHandler(dbx *sql.DB, store Store) http.HandlerFunc {
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

		rep, err := store.Latest(r.Context(), projectID)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if rep == nil {
			http.Error(w, "no reports found", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rep)
	}
}

// GET /reports/{projectID}/timeline-status
func TimelineHandler(dbx *sql.DB, source TaskSource, th derive.Thresholds) http.HandlerFunc {
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

		list, err := source.ListByProject(r.Context(), projectID)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}

		facts := make([]derive.Task, len(list))
		for i := range list {
			facts[i] = list[i].Facts()
		}
		status, reason, metrics := derive.Aggregate(facts, time.Now().UTC(), th)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  status,
			"reason":  reason,
			"metrics": metrics,
		})
	}
}

// GET /reports/{projectID}/stakeholder-email
// Uses the latest report (generating today's when none exists), then asks
// the collaborator for an email body. A plain status line stands in when
// the call fails.
func StakeholderEmailHandler(dbx *sql.DB, svc *Service, updater Updater) http.HandlerFunc {
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
		name, owned := projects.NameIfOwned(dbx, r, projectID, uid)
		if !owned {
			http.Error(w, "project not found", http.StatusNotFound)
			return
		}

		rep, err := svc.Store.Latest(r.Context(), projectID)
		if err != nil {
			http.Error(w, "db error", http.StatusInternalServerError)
			return
		}
		if rep == nil {
			rep, err = svc.GetOrGenerate(r.Context(), projectID, name, time.Now().UTC())
			if err != nil {
				http.Error(w, "report generation failed", http.StatusInternalServerError)
				return
			}
		}

		body := fmt.Sprintf("Project %s update: %s", name, rep.Summary)
		if updater != nil {
			summaryJSON, _ := json.Marshal(rep)
			text, err := updater.StakeholderUpdate(r.Context(), name, string(summaryJSON))
			if err != nil {
				log.Printf("reports: template stakeholder email for %q: %v", name, err)
			} else {
				body = text
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"subject": fmt.Sprintf("Project Update: %s", name),
			"body":    body,
		})
	}
}
