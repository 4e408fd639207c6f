package derive

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	StatusOnTrack  = "On Track"
	StatusAtRisk   = "At Risk"
	StatusOffTrack = "Off Track"
)

// Thresholds is the Off-Track policy. Values come from config so they are
// explicit and testable rather than buried in the decision code.
type Thresholds struct {
	// OverdueOffTrack is an absolute overdue-task count; 0 disables the rule.
	OverdueOffTrack int
	// HighRiskOffTrackRatio is the high-risk share of all tasks above which
	// the project is Off Track; 0 disables the rule.
	HighRiskOffTrackRatio float64
}

type Metrics struct {
	TotalTasks     int     `json:"total_tasks"`
	Completed      int     `json:"completed"`
	Blocked        int     `json:"blocked"`
	Overdue        int     `json:"overdue"`
	HighRisk       int     `json:"high_risk"`
	CompletionRate float64 `json:"completion_rate"`
}

// Aggregate rolls a project's tasks up into a timeline status. An empty
// project is On Track with zeroed metrics, never an error.
func Aggregate(tasks []Task, now time.Time, th Thresholds) (status, reason string, m Metrics) {
	m.TotalTasks = len(tasks)

	for _, t := range tasks {
		switch t.Status {
		case StatusDone:
			m.Completed++
		case StatusBlocked:
			m.Blocked++
		}
		if t.Deadline != nil && t.Deadline.Before(now) && t.Status != StatusDone {
			m.Overdue++
		}
		if level, _ := Classify(t, now); level == RiskHigh {
			m.HighRisk++
		}
	}

	if m.TotalTasks > 0 {
		m.CompletionRate = round1(float64(m.Completed) / float64(m.TotalTasks) * 100)
	}

	overdueTripped := th.OverdueOffTrack > 0 && m.Overdue >= th.OverdueOffTrack
	highRiskTripped := th.HighRiskOffTrackRatio > 0 && m.TotalTasks > 0 &&
		float64(m.HighRisk)/float64(m.TotalTasks) > th.HighRiskOffTrackRatio

	switch {
	case overdueTripped || highRiskTripped:
		var parts []string
		if overdueTripped {
			parts = append(parts, fmt.Sprintf("%d overdue tasks", m.Overdue))
		}
		if highRiskTripped {
			parts = append(parts, fmt.Sprintf("%d high-risk tasks", m.HighRisk))
		}
		return StatusOffTrack, strings.Join(parts, ", "), m

	case m.Blocked > 0 || m.Overdue > 0 || m.HighRisk > 0:
		var parts []string
		if m.Blocked > 0 {
			parts = append(parts, fmt.Sprintf("%d blocked tasks", m.Blocked))
		}
		if m.Overdue > 0 {
			parts = append(parts, fmt.Sprintf("%d overdue tasks", m.Overdue))
		}
		if m.HighRisk > 0 {
			parts = append(parts, fmt.Sprintf("%d high-risk tasks", m.HighRisk))
		}
		return StatusAtRisk, strings.Join(parts, ", "), m

	case m.TotalTasks == 0:
		return StatusOnTrack, "no tasks in project", m

	default:
		if m.CompletionRate > 70 {
			return StatusOnTrack, fmt.Sprintf("%d%% tasks completed", int(m.CompletionRate)), m
		}
		return StatusOnTrack, "project progressing normally", m
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
