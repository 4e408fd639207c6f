// Package enrich turns a raw task submission into an enriched one via the
// AI collaborator. It never fails: when the collaborator is unreachable or
// answers garbage, the task is created anyway with degraded fields.
package enrich

import (
	"context"
	"log"
	"strings"

	"aipm-backend/internal/ai"
	"aipm-backend/internal/derive"
)

type Analyzer interface {
	AnalyzeTask(ctx context.Context, title, description string) (ai.TaskAnalysis, error)
}

type Enricher struct {
	AI Analyzer
}

func New(analyzer Analyzer) *Enricher {
	return &Enricher{AI: analyzer}
}

// Result is what enrichment contributes to a new task. StoryPoints stays
// nil on the fallback path: an absent estimate, not a zero one.
type Result struct {
	Description        string
	TaskType           derive.Type
	Tags               []string
	AcceptanceCriteria []string
	Subtasks           []string
	StoryPoints        *int
}

// Enrich makes exactly one analysis call for the task. Retries live inside
// the AI client; by the time an error reaches here the budget is spent and
// we degrade instead of blocking task creation.
func (e *Enricher) Enrich(ctx context.Context, title, description string) Result {
	if e.AI == nil {
		return fallback(description)
	}

	analysis, err := e.AI.AnalyzeTask(ctx, title, description)
	if err != nil {
		log.Printf("enrich: degraded task %q: %v", title, err)
		return fallback(description)
	}

	res := Result{
		Description:        strings.TrimSpace(analysis.Description),
		TaskType:           normalizeType(analysis.TaskType),
		Tags:               orEmpty(analysis.Tags),
		AcceptanceCriteria: orEmpty(analysis.AcceptanceCriteria),
		Subtasks:           orEmpty(analysis.Subtasks),
	}
	if res.Description == "" {
		res.Description = description
	}
	if analysis.StoryPoints > 0 {
		points := SnapStoryPoints(analysis.StoryPoints)
		res.StoryPoints = &points
	}
	return res
}

func fallback(description string) Result {
	return Result{
		Description:        description,
		TaskType:           derive.TypeUnclear,
		Tags:               []string{},
		AcceptanceCriteria: []string{},
		Subtasks:           []string{},
		StoryPoints:        nil,
	}
}

var fibonacciPoints = []int{1, 2, 3, 5, 8, 13, 21}

// SnapStoryPoints rounds an off-set estimate to the nearest Fibonacci
// value; ties round down (4 -> 3, not 5).
func SnapStoryPoints(n int) int {
	best := fibonacciPoints[0]
	for _, p := range fibonacciPoints {
		if abs(n-p) < abs(n-best) {
			best = p
		}
	}
	return best
}

func normalizeType(raw string) derive.Type {
	switch derive.Type(strings.ToLower(strings.TrimSpace(raw))) {
	case derive.TypeFeature:
		return derive.TypeFeature
	case derive.TypeBug:
		return derive.TypeBug
	case derive.TypeResearch:
		return derive.TypeResearch
	case derive.TypeBlocked:
		return derive.TypeBlocked
	default:
		return derive.TypeUnclear
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
