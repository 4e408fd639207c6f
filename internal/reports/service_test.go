package reports

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"aipm-backend/internal/ai"
	"aipm-backend/internal/derive"
	"aipm-backend/internal/tasks"
)

type memStore struct {
	mu      sync.Mutex
	reports map[string]DailyReport
	saves   int
}

func newMemStore() *memStore {
	return &memStore{reports: map[string]DailyReport{}}
}

func (m *memStore) key(projectID int, day string) string {
	return fmt.Sprintf("%d/%s", projectID, day)
}

func (m *memStore) Get(ctx context.Context, projectID int, day string) (*DailyReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rep, ok := m.reports[m.key(projectID, day)]
	if !ok {
		return nil, nil
	}
	copied := rep
	return &copied, nil
}

func (m *memStore) Save(ctx context.Context, report *DailyReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.reports[m.key(report.ProjectID, report.Date)] = *report
	return nil
}

func (m *memStore) Latest(ctx context.Context, projectID int) (*DailyReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *DailyReport
	for _, rep := range m.reports {
		if rep.ProjectID != projectID {
			continue
		}
		if latest == nil || rep.Date > latest.Date {
			copied := rep
			latest = &copied
		}
	}
	return latest, nil
}

type fixedTasks struct {
	list []tasks.Task
}

func (f *fixedTasks) ListByProject(ctx context.Context, projectID int) ([]tasks.Task, error) {
	return f.list, nil
}

// slowNarrator counts invocations and holds each call long enough for
// concurrent callers to pile onto the same flight.
type slowNarrator struct {
	mu    sync.Mutex
	calls int
	delay time.Duration
	text  string
}

func (s *slowNarrator) DailySummary(ctx context.Context, projectName string, briefs []ai.TaskBrief) (ai.Summary, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	time.Sleep(s.delay)
	return ai.Summary{SummaryText: s.text}, nil
}

func newTestService(narrator Narrator, store Store) *Service {
	synth := &Synthesizer{
		AI:            narrator,
		Thresholds:    testThresholds,
		PriorityLimit: 5,
	}
	source := &fixedTasks{list: []tasks.Task{
		sampleTask(1, derive.StatusTodo),
		sampleTask(2, derive.StatusBlocked),
	}}
	return NewService(source, store, synth)
}

func TestGetOrGenerateReturnsCachedWithoutSynthesis(t *testing.T) {
	store := newMemStore()
	narrator := &slowNarrator{text: "generated"}
	svc := newTestService(narrator, store)

	cached := DailyReport{
		ProjectID:     1,
		Date:          Day(testNow),
		Summary:       "yesterday's truth",
		PriorityTasks: []PriorityItem{{TaskID: 9, Title: "old", Score: 42}},
		Risks:         []TaskNote{},
		BlockedTasks:  []TaskNote{},
	}
	if err := store.Save(context.Background(), &cached); err != nil {
		t.Fatalf("seed save failed: %v", err)
	}

	rep, err := svc.GetOrGenerate(context.Background(), 1, "Apollo", testNow)
	if err != nil {
		t.Fatalf("GetOrGenerate failed: %v", err)
	}

	if narrator.calls != 0 {
		t.Errorf("cached hit must not synthesize, got %d narrator calls", narrator.calls)
	}
	if rep.Summary != "yesterday's truth" {
		t.Errorf("summary = %q, want the persisted one", rep.Summary)
	}
	if !reflect.DeepEqual(rep.PriorityTasks, cached.PriorityTasks) {
		t.Errorf("priority list changed on read: %+v", rep.PriorityTasks)
	}
}

func TestGetOrGenerateSingleFlight(t *testing.T) {
	store := newMemStore()
	narrator := &slowNarrator{text: "generated", delay: 50 * time.Millisecond}
	svc := newTestService(narrator, store)

	const callers = 8
	results := make([]*DailyReport, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.GetOrGenerate(context.Background(), 1, "Apollo", testNow)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d failed: %v", i, err)
		}
	}
	if narrator.calls != 1 {
		t.Errorf("expected exactly 1 synthesis, got %d", narrator.calls)
	}
	if store.saves != 1 {
		t.Errorf("expected exactly 1 save, got %d", store.saves)
	}
	for i := 1; i < callers; i++ {
		if !reflect.DeepEqual(results[0], results[i]) {
			t.Errorf("caller %d got a different report", i)
		}
	}
}

func TestRegenerateOverwrites(t *testing.T) {
	store := newMemStore()
	narrator := &slowNarrator{text: "fresh"}
	svc := newTestService(narrator, store)

	first, err := svc.GetOrGenerate(context.Background(), 1, "Apollo", testNow)
	if err != nil {
		t.Fatalf("GetOrGenerate failed: %v", err)
	}
	if first.Summary != "fresh" {
		t.Fatalf("unexpected first summary %q", first.Summary)
	}

	narrator.text = "fresher"
	second, err := svc.Regenerate(context.Background(), 1, "Apollo", testNow)
	if err != nil {
		t.Fatalf("Regenerate failed: %v", err)
	}
	if second.Summary != "fresher" {
		t.Errorf("regenerate did not re-synthesize: %q", second.Summary)
	}

	stored, err := store.Get(context.Background(), 1, Day(testNow))
	if err != nil || stored == nil {
		t.Fatalf("store lookup failed: %v", err)
	}
	if stored.Summary != "fresher" {
		t.Errorf("store kept the stale report: %q", stored.Summary)
	}
	if narrator.calls != 2 {
		t.Errorf("expected 2 syntheses total, got %d", narrator.calls)
	}
}

func TestReportRoundTrip(t *testing.T) {
	store := newMemStore()
	narrator := &slowNarrator{text: "round trip"}
	svc := newTestService(narrator, store)

	generated, err := svc.GetOrGenerate(context.Background(), 1, "Apollo", testNow)
	if err != nil {
		t.Fatalf("GetOrGenerate failed: %v", err)
	}

	fetched, err := store.Get(context.Background(), 1, Day(testNow))
	if err != nil || fetched == nil {
		t.Fatalf("fetch failed: %v", err)
	}

	if fetched.Summary != generated.Summary {
		t.Errorf("summary changed across persistence: %q vs %q", fetched.Summary, generated.Summary)
	}
	if !reflect.DeepEqual(fetched.PriorityTasks, generated.PriorityTasks) {
		t.Error("priority list changed across persistence")
	}
	if !reflect.DeepEqual(fetched.Risks, generated.Risks) {
		t.Error("risk list changed across persistence")
	}
	if !reflect.DeepEqual(fetched.BlockedTasks, generated.BlockedTasks) {
		t.Error("blocked list changed across persistence")
	}
}
