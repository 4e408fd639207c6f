package derive

import (
	"testing"
	"time"
)

var testThresholds = Thresholds{
	OverdueOffTrack:       3,
	HighRiskOffTrackRatio: 0.3,
}

func healthyTask(id int) Task {
	future := testNow.Add(14 * 24 * time.Hour)
	return Task{
		ID:                 id,
		Status:             StatusInProgress,
		Assignee:           "lee",
		StoryPoints:        3,
		AcceptanceCriteria: []string{"works"},
		Deadline:           &future,
	}
}

func TestAggregateEmptyProject(t *testing.T) {
	status, _, m := Aggregate(nil, testNow, testThresholds)

	if status != StatusOnTrack {
		t.Errorf("empty project status = %q, want %q", status, StatusOnTrack)
	}
	if m.TotalTasks != 0 || m.Completed != 0 || m.Blocked != 0 || m.Overdue != 0 || m.HighRisk != 0 {
		t.Errorf("empty project metrics not zeroed: %+v", m)
	}
	if m.CompletionRate != 0 {
		t.Errorf("empty project completion_rate = %v, want 0", m.CompletionRate)
	}
}

func TestAggregateMixedProject(t *testing.T) {
	yesterday := testNow.Add(-24 * time.Hour)

	done := healthyTask(1)
	done.Status = StatusDone

	blocked := healthyTask(2)
	blocked.Status = StatusBlocked

	overdue := healthyTask(3)
	overdue.Status = StatusTodo
	overdue.Deadline = &yesterday

	_, _, m := Aggregate([]Task{done, blocked, overdue}, testNow, testThresholds)

	if m.Completed != 1 {
		t.Errorf("completed = %d, want 1", m.Completed)
	}
	if m.Blocked != 1 {
		t.Errorf("blocked = %d, want 1", m.Blocked)
	}
	if m.Overdue != 1 {
		t.Errorf("overdue = %d, want 1", m.Overdue)
	}
	if m.CompletionRate != 33.3 {
		t.Errorf("completion_rate = %v, want 33.3", m.CompletionRate)
	}

	// blocked + overdue are both high risk: 2/3 > 0.3, so with the default
	// thresholds this project is Off Track
	status, reason, _ := Aggregate([]Task{done, blocked, overdue}, testNow, testThresholds)
	if status != StatusOffTrack {
		t.Errorf("status = %q, want %q", status, StatusOffTrack)
	}
	if reason == "" {
		t.Error("reason must enumerate contributing counts, got empty string")
	}
}

func TestAggregateOverdueThresholdBoundary(t *testing.T) {
	yesterday := testNow.Add(-24 * time.Hour)

	makeProject := func(overdueCount int) []Task {
		var tasks []Task
		// padding keeps the high-risk ratio below 0.3 so only the
		// overdue-count rule can trip
		for i := 0; i < 20; i++ {
			tasks = append(tasks, healthyTask(i))
		}
		for i := 0; i < overdueCount; i++ {
			task := healthyTask(100 + i)
			task.Status = StatusTodo
			task.Deadline = &yesterday
			tasks = append(tasks, task)
		}
		return tasks
	}

	status, _, _ := Aggregate(makeProject(testThresholds.OverdueOffTrack-1), testNow, testThresholds)
	if status != StatusAtRisk {
		t.Errorf("below threshold: status = %q, want %q", status, StatusAtRisk)
	}

	status, reason, _ := Aggregate(makeProject(testThresholds.OverdueOffTrack), testNow, testThresholds)
	if status != StatusOffTrack {
		t.Errorf("at threshold: status = %q, want %q", status, StatusOffTrack)
	}
	if want := "3 overdue tasks"; reason != want {
		t.Errorf("at threshold: reason = %q, want %q", reason, want)
	}
}

func TestAggregateAtRiskOnSingleBlocked(t *testing.T) {
	var tasks []Task
	for i := 0; i < 10; i++ {
		tasks = append(tasks, healthyTask(i))
	}
	blocked := healthyTask(99)
	blocked.Status = StatusBlocked
	tasks = append(tasks, blocked)

	status, reason, m := Aggregate(tasks, testNow, testThresholds)
	if status != StatusAtRisk {
		t.Errorf("status = %q, want %q", status, StatusAtRisk)
	}
	if m.HighRisk != 1 {
		t.Errorf("high_risk = %d, want 1", m.HighRisk)
	}
	if reason != "1 blocked tasks, 1 high-risk tasks" {
		t.Errorf("unexpected reason %q", reason)
	}
}

func TestAggregateOnTrackWhenHealthy(t *testing.T) {
	var tasks []Task
	for i := 0; i < 3; i++ {
		task := healthyTask(i)
		task.Status = StatusDone
		tasks = append(tasks, task)
	}
	tasks = append(tasks, healthyTask(10))

	status, _, m := Aggregate(tasks, testNow, testThresholds)
	if status != StatusOnTrack {
		t.Errorf("status = %q, want %q", status, StatusOnTrack)
	}
	if m.CompletionRate != 75.0 {
		t.Errorf("completion_rate = %v, want 75.0", m.CompletionRate)
	}
}
