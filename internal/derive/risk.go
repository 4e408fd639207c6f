package derive

import (
	"strings"
	"time"
)

// Risk reasons are part of the API surface (they end up in reports),
// so they are fixed strings rather than free-form text.
const (
	ReasonOverdue             = "overdue"
	ReasonBlocked             = "blocked"
	ReasonUnassigned          = "unassigned"
	ReasonHighComplexity      = "high complexity"
	ReasonMissingRequirements = "missing requirements"
)

const highComplexityPoints = 8

// Classify returns a task's risk level and the reason that triggered it.
// Rules run in fixed precedence, first match wins, so the reason stays
// specific and stable. Low-risk tasks carry an empty reason.
func Classify(t Task, now time.Time) (RiskLevel, string) {
	if t.Deadline != nil && t.Deadline.Before(now) && t.Status != StatusDone {
		return RiskHigh, ReasonOverdue
	}
	if t.Status == StatusBlocked {
		return RiskHigh, ReasonBlocked
	}
	if strings.TrimSpace(t.Assignee) == "" && t.Status != StatusDone {
		return RiskMedium, ReasonUnassigned
	}
	if t.StoryPoints >= highComplexityPoints {
		return RiskMedium, ReasonHighComplexity
	}
	if len(t.AcceptanceCriteria) == 0 {
		return RiskMedium, ReasonMissingRequirements
	}
	return RiskLow, ""
}
