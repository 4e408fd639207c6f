package tasks

import (
	"time"

	"aipm-backend/internal/derive"
)

// Task is the storage model. priority_score and ai_risk_level are derived
// from the other fields and recomputed on create, import and status change,
// never set independently (see Recompute).
type Task struct {
	ID                 int              `json:"id"`
	ProjectID          int              `json:"project_id"`
	Title              string           `json:"title"`
	Description        string           `json:"description"`
	Status             derive.Status    `json:"status"`
	TaskType           derive.Type      `json:"task_type"`
	Deadline           *time.Time       `json:"deadline,omitempty"`
	Assignee           string           `json:"assignee,omitempty"`
	PriorityScore      float64          `json:"priority_score"`
	AIRiskLevel        derive.RiskLevel `json:"ai_risk_level"`
	Tags               []string         `json:"tags"`
	AcceptanceCriteria []string         `json:"acceptance_criteria"`
	Subtasks           []string         `json:"subtasks"`
	StoryPoints        *int             `json:"story_points,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// Facts projects the task onto the inputs the derive engines look at.
func (t *Task) Facts() derive.Task {
	points := 0
	if t.StoryPoints != nil {
		points = *t.StoryPoints
	}
	return derive.Task{
		ID:                 t.ID,
		Title:              t.Title,
		Status:             t.Status,
		Type:               t.TaskType,
		Deadline:           t.Deadline,
		Assignee:           t.Assignee,
		StoryPoints:        points,
		AcceptanceCriteria: t.AcceptanceCriteria,
	}
}

// Recompute refreshes the derived fields from the current source fields.
// Called on creation, import and status change so the stored values can
// never drift from what justifies them.
func (t *Task) Recompute(now time.Time) {
	facts := t.Facts()
	level, _ := derive.Classify(facts, now)
	t.AIRiskLevel = level
	t.PriorityScore = derive.Score(facts, now)
}
