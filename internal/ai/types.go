package ai

// TaskAnalysis is the structured enrichment the model returns for one task.
type TaskAnalysis struct {
	Description        string   `json:"description"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
	Subtasks           []string `json:"subtasks"`
	StoryPoints        int      `json:"story_points"`
	TaskType           string   `json:"task_type"`
	Tags               []string `json:"tags"`
}

// TaskBrief is the per-task slice of state the narrative prompt gets.
// Keep it small: titles and derived fields only, no full descriptions.
type TaskBrief struct {
	Title         string  `json:"title"`
	Status        string  `json:"status"`
	Deadline      string  `json:"deadline"`
	Assignee      string  `json:"assignee"`
	PriorityScore float64 `json:"priority_score"`
	RiskLevel     string  `json:"risk_level"`
}

type Note struct {
	Task   string `json:"task"`
	Reason string `json:"reason"`
}

// Summary is the structured daily-summary payload from the narrative call.
type Summary struct {
	KeyProgress  []string `json:"key_progress"`
	Risks        []Note   `json:"risks"`
	UrgentTasks  []string `json:"urgent_tasks"`
	BlockedItems []Note   `json:"blocked_items"`
	SummaryText  string   `json:"summary_text"`
}
