package main

import (
	"log"
	"net/http"

	"github.com/rs/cors"

	"aipm-backend/internal/ai"
	"aipm-backend/internal/auth"
	"aipm-backend/internal/config"
	"aipm-backend/internal/db"
	"aipm-backend/internal/derive"
	"aipm-backend/internal/enrich"
	"aipm-backend/internal/importer"
	"aipm-backend/internal/projects"
	"aipm-backend/internal/reports"
	"aipm-backend/internal/tasks"
)

func main() {
	cfg := config.Load()

	database, err := db.Connect(cfg.ConnString())
	if err != nil {
		log.Fatal("failed to connect DB: ", err)
	}
	defer database.Close()

	log.Println("connected to PostgreSQL")

	secret := []byte(cfg.JWTSecret)
	authed := auth.Middleware(secret)

	aiClient := ai.New(cfg.AnthropicKey, cfg.AnthropicModel, cfg.AITimeout, cfg.AIMaxAttempts)
	enricher := enrich.New(aiClient)

	taskStore := tasks.NewStore(database)
	reportStore := reports.NewPGStore(database)

	thresholds := derive.Thresholds{
		OverdueOffTrack:       cfg.OverdueOffTrack,
		HighRiskOffTrackRatio: cfg.HighRiskOffTrackRatio,
	}

	synth := &reports.Synthesizer{
		AI:            aiClient,
		Thresholds:    thresholds,
		PriorityLimit: cfg.ReportPriorityLimit,
	}
	reportSvc := reports.NewService(taskStore, reportStore, synth)

	authHandler := auth.NewHandler(database, secret)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// ----- AUTH -----
	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("POST /auth/logout", authHandler.Logout)
	mux.Handle("GET /auth/me", authed(http.HandlerFunc(authHandler.Me)))
	mux.Handle("DELETE /auth/account", authed(http.HandlerFunc(authHandler.DeleteAccount)))

	// ----- PROJECTS -----
	mux.Handle("POST /projects", authed(projects.CreateHandler(database)))
	mux.Handle("GET /projects", authed(projects.ListHandler(database)))
	mux.Handle("GET /projects/{id}", authed(projects.GetHandler(database)))
	mux.Handle("DELETE /projects/{id}", authed(projects.DeleteHandler(database)))

	// ----- TASKS -----
	mux.Handle("POST /tasks", authed(tasks.CreateHandler(database, taskStore, enricher)))
	mux.Handle("GET /tasks/project/{projectID}", authed(tasks.ListByProjectHandler(database, taskStore)))
	mux.Handle("PATCH /tasks/{id}/status", authed(tasks.UpdateStatusHandler(database, taskStore)))
	mux.Handle("DELETE /tasks/{id}", authed(tasks.DeleteHandler(database, taskStore)))

	// ----- IMPORT -----
	mux.Handle("POST /tasks/import/csv", authed(importer.CSVHandler(database, taskStore, enricher)))
	mux.Handle("POST /tasks/import/trello", authed(importer.TrelloHandler(database, taskStore, enricher, cfg.TrelloKey, cfg.TrelloToken)))

	// ----- REPORTS -----
	mux.Handle("POST /reports/generate/{projectID}", authed(reports.GenerateHandler(database, reportSvc)))
	mux.Handle("GET /reports/{projectID}/latest", authed(reports.LatestHandler(database, reportStore)))
	mux.Handle("GET /reports/{projectID}/timeline-status", authed(reports.TimelineHandler(database, taskStore, thresholds)))
	mux.Handle("GET /reports/{projectID}/stakeholder-email", authed(reports.StakeholderEmailHandler(database, reportSvc, aiClient)))

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Idempotency-Key", "X-Platform", "X-App-Version", "X-Session-Id"},
		AllowCredentials: true,
	})

	handler := c.Handler(mux)

	log.Println("API server is running on :" + cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, handler))
}
