package tasks

import (
	"strings"

	"aipm-backend/internal/derive"
)

var statusMap = map[string]derive.Status{
	"todo":        derive.StatusTodo,
	"to_do":       derive.StatusTodo,
	"in_progress": derive.StatusInProgress,
	"inprogress":  derive.StatusInProgress,
	"doing":       derive.StatusInProgress,
	"done":        derive.StatusDone,
	"completed":   derive.StatusDone,
	"blocked":     derive.StatusBlocked,
	"unclear":     derive.StatusUnclear,
}

// NormalizeStatus maps free-form status text (CSV cells, client payloads)
// onto the status enum. Anything unrecognized lands in todo.
func NormalizeStatus(raw string) derive.Status {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_")
	if s, ok := statusMap[key]; ok {
		return s
	}
	return derive.StatusTodo
}
