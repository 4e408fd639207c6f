package derive

import (
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func deadlineIn(d time.Duration) *time.Time {
	t := testNow.Add(d)
	return &t
}

func baseTask() Task {
	return Task{
		ID:                 1,
		Title:              "implement export",
		Status:             StatusTodo,
		Type:               TypeFeature,
		Assignee:           "dana",
		StoryPoints:        3,
		AcceptanceCriteria: []string{"exports a file"},
	}
}

func TestScoreEarlierDeadlineNeverScoresLower(t *testing.T) {
	deadlines := []*time.Time{
		deadlineIn(-72 * time.Hour),
		deadlineIn(-24 * time.Hour),
		deadlineIn(12 * time.Hour),
		deadlineIn(48 * time.Hour),
		deadlineIn(120 * time.Hour),
		deadlineIn(240 * time.Hour),
		nil,
	}

	prev := -1.0
	for i := len(deadlines) - 1; i >= 0; i-- {
		task := baseTask()
		task.Deadline = deadlines[i]
		got := Score(task, testNow)
		if got < prev {
			t.Errorf("deadline %v scored %v, later deadline scored %v; earlier must not score lower", deadlines[i], got, prev)
		}
		prev = got
	}
}

func TestScoreOverdueGrowsWithDaysOverdue(t *testing.T) {
	oneDay := baseTask()
	oneDay.Deadline = deadlineIn(-30 * time.Hour)

	fiveDays := baseTask()
	fiveDays.Deadline = deadlineIn(-5 * 24 * time.Hour)

	if Score(fiveDays, testNow) <= Score(oneDay, testNow) {
		t.Errorf("5 days overdue scored %v, 1 day overdue scored %v", Score(fiveDays, testNow), Score(oneDay, testNow))
	}
}

func TestScoreRiskMonotonic(t *testing.T) {
	// low: assigned, small, has criteria
	low := baseTask()

	// medium: unassigned
	medium := baseTask()
	medium.Assignee = ""

	// high: blocked
	high := baseTask()
	high.Status = StatusBlocked

	lowScore := Score(low, testNow)
	medScore := Score(medium, testNow)
	highScore := Score(high, testNow)

	if medScore < lowScore {
		t.Errorf("medium risk scored %v below low risk %v", medScore, lowScore)
	}
	if highScore < medScore {
		t.Errorf("high risk scored %v below medium risk %v", highScore, medScore)
	}
}

func TestScoreStatusAndTypeBoosts(t *testing.T) {
	todo := baseTask()

	inProgress := baseTask()
	inProgress.Status = StatusInProgress

	bug := baseTask()
	bug.Type = TypeBug

	if Score(inProgress, testNow) <= Score(todo, testNow) {
		t.Errorf("in_progress %v should outrank todo %v", Score(inProgress, testNow), Score(todo, testNow))
	}
	if Score(bug, testNow) <= Score(todo, testNow) {
		t.Errorf("bug %v should outrank feature %v", Score(bug, testNow), Score(todo, testNow))
	}
}

func TestScoreDoneIsZero(t *testing.T) {
	task := baseTask()
	task.Status = StatusDone
	task.Deadline = deadlineIn(-240 * time.Hour)

	if got := Score(task, testNow); got != 0 {
		t.Errorf("done task scored %v, want 0", got)
	}
}

func TestScoreIsPure(t *testing.T) {
	task := baseTask()
	task.Deadline = deadlineIn(36 * time.Hour)

	first := Score(task, testNow)
	second := Score(task, testNow)
	if first != second {
		t.Errorf("same input scored %v then %v", first, second)
	}
}

func TestScoreNeverNegative(t *testing.T) {
	tasks := []Task{
		{},
		{Status: StatusDone},
		{Status: StatusUnclear},
		baseTask(),
	}
	for _, task := range tasks {
		if got := Score(task, testNow); got < 0 {
			t.Errorf("task %+v scored negative: %v", task, got)
		}
	}
}

func TestRankExcludesDoneAndSortsDescending(t *testing.T) {
	done := baseTask()
	done.ID = 1
	done.Status = StatusDone

	urgent := baseTask()
	urgent.ID = 2
	urgent.Deadline = deadlineIn(-48 * time.Hour)

	calm := baseTask()
	calm.ID = 3

	ranked := Rank([]Task{done, calm, urgent}, testNow)

	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked tasks, got %d", len(ranked))
	}
	if ranked[0].Task.ID != 2 {
		t.Errorf("expected overdue task first, got id %d", ranked[0].Task.ID)
	}
	if ranked[0].Score < ranked[1].Score {
		t.Errorf("ranking not descending: %v then %v", ranked[0].Score, ranked[1].Score)
	}
}

func TestRankTieBreaks(t *testing.T) {
	// identical scores: earlier deadline wins, then smaller id
	a := baseTask()
	a.ID = 10
	a.Deadline = deadlineIn(30 * time.Hour) // ~1.25 days out

	b := baseTask()
	b.ID = 11
	b.Deadline = deadlineIn(60 * time.Hour) // same urgency bucket

	c := baseTask()
	c.ID = 12
	c.Deadline = deadlineIn(60 * time.Hour)
	cc := *c.Deadline
	c.Deadline = &cc

	if Score(a, testNow) != Score(b, testNow) {
		t.Fatalf("test setup broken: scores differ (%v vs %v)", Score(a, testNow), Score(b, testNow))
	}

	ranked := Rank([]Task{c, b, a}, testNow)
	if ranked[0].Task.ID != 10 {
		t.Errorf("earlier deadline should rank first, got id %d", ranked[0].Task.ID)
	}
	if ranked[1].Task.ID != 11 || ranked[2].Task.ID != 12 {
		t.Errorf("equal deadlines should order by id, got %d then %d", ranked[1].Task.ID, ranked[2].Task.ID)
	}
}
