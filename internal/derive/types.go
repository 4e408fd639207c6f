// Package derive holds the deterministic task intelligence: priority
// scoring, risk classification and project timeline aggregation. Every
// function here is pure: same inputs and same `now` give the same output.
package derive

import "time"

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusBlocked    Status = "blocked"
	StatusUnclear    Status = "unclear"
)

type Type string

const (
	TypeFeature  Type = "feature"
	TypeBug      Type = "bug"
	TypeResearch Type = "research"
	TypeBlocked  Type = "blocked"
	TypeUnclear  Type = "unclear"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Task carries the fields the engines look at. Callers own the conversion
// from their storage model; nothing here is mutated.
type Task struct {
	ID                 int
	Title              string
	Status             Status
	Type               Type
	Deadline           *time.Time
	Assignee           string
	StoryPoints        int // 0 = not estimated
	AcceptanceCriteria []string
}
