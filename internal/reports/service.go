package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"aipm-backend/internal/tasks"
)

// TaskSource feeds the synthesizer. Production wires the tasks store;
// tests use a fixed slice.
type TaskSource interface {
	ListByProject(ctx context.Context, projectID int) ([]tasks.Task, error)
}

// Service implements "get latest or generate": today's persisted report is
// canonical and returned as-is even if tasks changed since it was built.
// Generation for a given (project, day) runs at most once at a time;
// concurrent callers share the first caller's result.
type Service struct {
	Tasks TaskSource
	Store Store
	Synth *Synthesizer

	group singleflight.Group
}

func NewService(source TaskSource, store Store, synth *Synthesizer) *Service {
	return &Service{Tasks: source, Store: store, Synth: synth}
}

func (s *Service) GetOrGenerate(ctx context.Context, projectID int, projectName string, now time.Time) (*DailyReport, error) {
	day := Day(now)

	rep, err := s.Store.Get(ctx, projectID, day)
	if err != nil {
		return nil, err
	}
	if rep != nil {
		return rep, nil
	}

	key := fmt.Sprintf("%d:%s", projectID, day)
	v, err, _ := s.group.Do(key, func() (any, error) {
		// a racer may have persisted while we waited for the flight slot
		if rep, err := s.Store.Get(ctx, projectID, day); err != nil {
			return nil, err
		} else if rep != nil {
			return rep, nil
		}
		return s.generate(ctx, projectID, projectName, now)
	})
	if err != nil {
		return nil, err
	}
	return v.(*DailyReport), nil
}

// Regenerate bypasses the cache and overwrites today's canonical report.
func (s *Service) Regenerate(ctx context.Context, projectID int, projectName string, now time.Time) (*DailyReport, error) {
	return s.generate(ctx, projectID, projectName, now)
}

func (s *Service) generate(ctx context.Context, projectID int, projectName string, now time.Time) (*DailyReport, error) {
	list, err := s.Tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	rep := s.Synth.Synthesize(ctx, projectName, list, now)
	rep.ProjectID = projectID

	if err := s.Store.Save(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}
