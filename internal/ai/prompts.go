package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

func buildAnalyzePrompt(title, description string) string {
	if strings.TrimSpace(description) == "" {
		description = "No description provided"
	}

	var b strings.Builder

	b.WriteString("Analyze this project task and provide a detailed breakdown:\n\n")
	b.WriteString("Task Title: ")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString("Task Description: ")
	b.WriteString(description)
	b.WriteString("\n\n")
	b.WriteString(`Please provide:
1. A detailed description (if not provided or unclear)
2. Acceptance criteria (clear, testable conditions for completion)
3. Subtasks (break down into smaller actionable steps)
4. Story point estimate (1, 2, 3, 5, 8, 13, or 21)
5. Task type (feature, bug, research, blocked, unclear)
6. Relevant tags (3-5 keywords)

Return your analysis as a JSON object with these exact keys:
{
    "description": "detailed description",
    "acceptance_criteria": ["criterion 1", "criterion 2"],
    "subtasks": ["subtask 1", "subtask 2"],
    "story_points": 5,
    "task_type": "feature",
    "tags": ["tag1", "tag2", "tag3"]
}`)

	return b.String()
}

func buildSummaryPrompt(projectName string, briefs []TaskBrief) string {
	tasksJSON := mustJSON(briefs)

	return fmt.Sprintf(`Analyze this project's current status and generate a comprehensive daily summary:

Project: %s
Tasks: %s

Generate a daily summary with these sections:

1. Key Progress (3 bullet points of what's been completed or advanced)
2. Delays / Risks (with specific reasons)
3. Urgent Tasks Today (top 3-5 most critical tasks)
4. Blocked Items (tasks that cannot proceed and why)

Format your response as JSON:
{
    "key_progress": ["progress 1", "progress 2", "progress 3"],
    "risks": [{"task": "task name", "reason": "why it's at risk"}],
    "urgent_tasks": ["task 1", "task 2", "task 3"],
    "blocked_items": [{"task": "task name", "reason": "blocking reason"}],
    "summary_text": "A brief paragraph summarizing overall project health and key observations"
}`, projectName, tasksJSON)
}

func buildStakeholderPrompt(projectName, summaryJSON string) string {
	return fmt.Sprintf(`Based on this project summary, write a professional stakeholder update email:

Project: %s
Summary Data: %s

Write a concise, professional update that:
- Highlights key accomplishments
- Mentions any concerns or delays tactfully
- Provides confidence about next steps
- Is suitable for non-technical stakeholders

Keep it under 200 words.`, projectName, summaryJSON)
}

func mustJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}
