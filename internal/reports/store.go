package reports

import (
	"context"
	"database/sql"
	"encoding/json"
)

// Store is the persistence contract the service needs. Tests swap in an
// in-memory fake; production uses PGStore.
type Store interface {
	// Get returns the report for (project, day), or nil when absent.
	Get(ctx context.Context, projectID int, day string) (*DailyReport, error)
	// Save upserts on (project_id, date): regenerating a day overwrites
	// the previous snapshot instead of duplicating it.
	Save(ctx context.Context, report *DailyReport) error
	// Latest returns the most recent report for the project, or nil.
	Latest(ctx context.Context, projectID int) (*DailyReport, error)
}

type PGStore struct {
	DB *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) Get(ctx context.Context, projectID int, day string) (*DailyReport, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, project_id, to_char(date, 'YYYY-MM-DD'), summary_text,
			COALESCE(priority_json::text,'[]'),
			COALESCE(risks_json::text,'[]'),
			COALESCE(blocked_json::text,'[]')
		FROM daily_reports
		WHERE project_id=$1 AND date=$2
	`, projectID, day)

	return scanReport(row)
}

func (s *PGStore) Latest(ctx context.Context, projectID int) (*DailyReport, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, project_id, to_char(date, 'YYYY-MM-DD'), summary_text,
			COALESCE(priority_json::text,'[]'),
			COALESCE(risks_json::text,'[]'),
			COALESCE(blocked_json::text,'[]')
		FROM daily_reports
		WHERE project_id=$1
		ORDER BY date DESC
		LIMIT 1
	`, projectID)

	return scanReport(row)
}

func (s *PGStore) Save(ctx context.Context, report *DailyReport) error {
	priority, _ := json.Marshal(report.PriorityTasks)
	risks, _ := json.Marshal(report.Risks)
	blocked, _ := json.Marshal(report.BlockedTasks)

	return s.DB.QueryRowContext(ctx, `
		INSERT INTO daily_reports (project_id, date, summary_text, priority_json, risks_json, blocked_json)
		VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6::jsonb)
		ON CONFLICT (project_id, date) DO UPDATE SET
			summary_text = EXCLUDED.summary_text,
			priority_json = EXCLUDED.priority_json,
			risks_json = EXCLUDED.risks_json,
			blocked_json = EXCLUDED.blocked_json
		RETURNING id
	`, report.ProjectID, report.Date, report.Summary,
		string(priority), string(risks), string(blocked),
	).Scan(&report.ID)
}

func scanReport(row *sql.Row) (*DailyReport, error) {
	var (
		rep      DailyReport
		priority string
		risks    string
		blocked  string
	)

	err := row.Scan(&rep.ID, &rep.ProjectID, &rep.Date, &rep.Summary, &priority, &risks, &blocked)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rep.PriorityTasks = []PriorityItem{}
	rep.Risks = []TaskNote{}
	rep.BlockedTasks = []TaskNote{}
	_ = json.Unmarshal([]byte(priority), &rep.PriorityTasks)
	_ = json.Unmarshal([]byte(risks), &rep.Risks)
	_ = json.Unmarshal([]byte(blocked), &rep.BlockedTasks)

	return &rep, nil
}
