package tasks

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"aipm-backend/internal/derive"
)

type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) Insert(ctx context.Context, t *Task) error {
	return s.DB.QueryRowContext(ctx, `
		INSERT INTO tasks (
			project_id, title, description, status, task_type,
			deadline, assignee, priority_score, ai_risk_level,
			tags, acceptance_criteria, subtasks, story_points
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::jsonb, $11::jsonb, $12::jsonb, $13)
		RETURNING id, created_at, updated_at
	`,
		t.ProjectID, t.Title, t.Description, t.Status, t.TaskType,
		t.Deadline, nullIfEmpty(t.Assignee), t.PriorityScore, t.AIRiskLevel,
		marshalList(t.Tags), marshalList(t.AcceptanceCriteria), marshalList(t.Subtasks),
		nullIfNilInt(t.StoryPoints),
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (s *Store) ListByProject(ctx context.Context, projectID int) ([]Task, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT
			id, project_id, title, COALESCE(description,''), status, task_type,
			deadline, COALESCE(assignee,''), priority_score, ai_risk_level,
			COALESCE(tags::text,'[]'),
			COALESCE(acceptance_criteria::text,'[]'),
			COALESCE(subtasks::text,'[]'),
			story_points, created_at, updated_at
		FROM tasks
		WHERE project_id=$1
		ORDER BY id
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Get loads one task, gated on project ownership.
func (s *Store) Get(ctx context.Context, taskID int, userID int64) (*Task, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT
			t.id, t.project_id, t.title, COALESCE(t.description,''), t.status, t.task_type,
			t.deadline, COALESCE(t.assignee,''), t.priority_score, t.ai_risk_level,
			COALESCE(t.tags::text,'[]'),
			COALESCE(t.acceptance_criteria::text,'[]'),
			COALESCE(t.subtasks::text,'[]'),
			t.story_points, t.created_at, t.updated_at
		FROM tasks t
		JOIN projects p ON p.id = t.project_id
		WHERE t.id=$1 AND p.user_id=$2
	`, taskID, userID)

	t, err := scanTask(row)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateStatus sets the new status and writes back the recomputed derived
// fields in the same update, so score and risk stay consistent with the
// row they describe.
func (s *Store) UpdateStatus(ctx context.Context, taskID int, userID int64, status derive.Status, now time.Time) (*Task, error) {
	t, err := s.Get(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	t.Status = status
	t.Recompute(now)

	err = s.DB.QueryRowContext(ctx, `
		UPDATE tasks
		SET status=$1, priority_score=$2, ai_risk_level=$3, updated_at=now()
		WHERE id=$4
		RETURNING updated_at
	`, t.Status, t.PriorityScore, t.AIRiskLevel, t.ID).Scan(&t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Store) Delete(ctx context.Context, taskID int, userID int64) (bool, error) {
	res, err := s.DB.ExecContext(ctx, `
		DELETE FROM tasks
		WHERE id=$1 AND project_id IN (SELECT id FROM projects WHERE user_id=$2)
	`, taskID, userID)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (Task, error) {
	var (
		t           Task
		deadline    sql.NullTime
		tags        string
		criteria    string
		subtasks    string
		storyPoints sql.NullInt64
	)

	err := row.Scan(
		&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.TaskType,
		&deadline, &t.Assignee, &t.PriorityScore, &t.AIRiskLevel,
		&tags, &criteria, &subtasks,
		&storyPoints, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return Task{}, err
	}

	if deadline.Valid {
		d := deadline.Time
		t.Deadline = &d
	}
	t.Tags = unmarshalList(tags)
	t.AcceptanceCriteria = unmarshalList(criteria)
	t.Subtasks = unmarshalList(subtasks)
	if storyPoints.Valid {
		p := int(storyPoints.Int64)
		t.StoryPoints = &p
	}
	return t, nil
}

func marshalList(s []string) string {
	if s == nil {
		s = []string{}
	}
	b, _ := json.Marshal(s)
	return string(b)
}

func unmarshalList(raw string) []string {
	out := []string{}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullIfNilInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}
