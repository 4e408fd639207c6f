package tasks

import (
	"testing"

	"aipm-backend/internal/derive"
)

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		in   string
		want derive.Status
	}{
		{"todo", derive.StatusTodo},
		{"To Do", derive.StatusTodo},
		{"TODO", derive.StatusTodo},
		{"in_progress", derive.StatusInProgress},
		{"In Progress", derive.StatusInProgress},
		{"doing", derive.StatusInProgress},
		{"InProgress", derive.StatusInProgress},
		{"done", derive.StatusDone},
		{"Completed", derive.StatusDone},
		{"blocked", derive.StatusBlocked},
		{"unclear", derive.StatusUnclear},
		{"", derive.StatusTodo},
		{"weird status", derive.StatusTodo},
		{"  done  ", derive.StatusDone},
	}

	for _, tc := range cases {
		if got := NormalizeStatus(tc.in); got != tc.want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
