package reports

import (
	"context"
	"fmt"
	"log"
	"time"

	"aipm-backend/internal/ai"
	"aipm-backend/internal/derive"
	"aipm-backend/internal/tasks"
)

// Narrator is the narrative side of the AI collaborator.
type Narrator interface {
	DailySummary(ctx context.Context, projectName string, briefs []ai.TaskBrief) (ai.Summary, error)
}

type Synthesizer struct {
	AI            Narrator
	Thresholds    derive.Thresholds
	PriorityLimit int
}

// Synthesize assembles the daily report for a project's task set. The
// lists are fully deterministic; only the summary text involves the AI
// collaborator, and a template summary stands in when that call fails.
func (s *Synthesizer) Synthesize(ctx context.Context, projectName string, list []tasks.Task, now time.Time) *DailyReport {
	facts := make([]derive.Task, len(list))
	for i := range list {
		facts[i] = list[i].Facts()
	}

	ranked := derive.Rank(facts, now)

	limit := s.PriorityLimit
	if limit <= 0 {
		limit = 5
	}
	if len(ranked) < limit {
		limit = len(ranked)
	}
	priority := make([]PriorityItem, 0, limit)
	for _, sc := range ranked[:limit] {
		priority = append(priority, PriorityItem{
			TaskID: sc.Task.ID,
			Title:  sc.Task.Title,
			Score:  sc.Score,
		})
	}

	risks := []TaskNote{}
	blocked := []TaskNote{}
	for _, f := range facts {
		if f.Status == derive.StatusDone {
			continue
		}
		level, reason := derive.Classify(f, now)
		if level == derive.RiskMedium || level == derive.RiskHigh {
			risks = append(risks, TaskNote{TaskID: f.ID, Title: f.Title, Reason: reason})
		}
		if f.Status == derive.StatusBlocked {
			blockReason := reason
			if blockReason == "" || level != derive.RiskHigh {
				blockReason = derive.ReasonBlocked
			}
			blocked = append(blocked, TaskNote{TaskID: f.ID, Title: f.Title, Reason: blockReason})
		}
	}

	_, _, metrics := derive.Aggregate(facts, now, s.Thresholds)

	report := &DailyReport{
		Date:          Day(now),
		Summary:       s.narrative(ctx, projectName, list, ranked, metrics, now),
		PriorityTasks: priority,
		Risks:         risks,
		BlockedTasks:  blocked,
	}
	return report
}

func (s *Synthesizer) narrative(ctx context.Context, projectName string, list []tasks.Task, ranked []derive.Scored, m derive.Metrics, now time.Time) string {
	if s.AI == nil {
		return templateSummary(m)
	}

	briefs := make([]ai.TaskBrief, 0, len(list))
	for i := range list {
		t := &list[i]
		deadline := "No deadline"
		if t.Deadline != nil {
			deadline = t.Deadline.Format(dateLayout)
		}
		assignee := t.Assignee
		if assignee == "" {
			assignee = "Unassigned"
		}
		level, _ := derive.Classify(t.Facts(), now)
		briefs = append(briefs, ai.TaskBrief{
			Title:         t.Title,
			Status:        string(t.Status),
			Deadline:      deadline,
			Assignee:      assignee,
			PriorityScore: derive.Score(t.Facts(), now),
			RiskLevel:     string(level),
		})
	}

	summary, err := s.AI.DailySummary(ctx, projectName, briefs)
	if err != nil {
		log.Printf("reports: template summary for %q: %v", projectName, err)
		return templateSummary(m)
	}
	return summary.SummaryText
}

// templateSummary is the metrics-only narrative used when the collaborator
// is down. Always non-empty so a report can be produced unconditionally.
func templateSummary(m derive.Metrics) string {
	return fmt.Sprintf("%d of %d tasks completed; %d blocked; %d overdue.",
		m.Completed, m.TotalTasks, m.Blocked, m.Overdue)
}
