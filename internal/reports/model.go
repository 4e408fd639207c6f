// Package reports builds, caches and serves the daily project report: a
// narrative summary plus ranked priority, risk and blocked lists. One
// canonical report per project per calendar day.
package reports

import "time"

const dateLayout = "2006-01-02"

// Day truncates a timestamp to the report's calendar-day key.
func Day(now time.Time) string {
	return now.UTC().Format(dateLayout)
}

type PriorityItem struct {
	TaskID int     `json:"task_id"`
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
}

type TaskNote struct {
	TaskID int    `json:"task_id"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// DailyReport is an immutable snapshot. Once persisted it is returned
// as stored; reads never recompute the lists.
type DailyReport struct {
	ID            int            `json:"-"`
	ProjectID     int            `json:"project_id"`
	Date          string         `json:"date"`
	Summary       string         `json:"summary"`
	PriorityTasks []PriorityItem `json:"priority_tasks"`
	Risks         []TaskNote     `json:"risks"`
	BlockedTasks  []TaskNote     `json:"blocked_tasks"`
}
