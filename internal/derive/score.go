package derive

import (
	"math"
	"sort"
	"time"
)

// Scoring coefficients. Clients rely on relative ordering, not on these
// exact magnitudes; tests pin the values so changes are deliberate.
const (
	urgencyOverdueBase   = 100.0
	urgencyOverduePerDay = 2.0
	urgencyDueTomorrow   = 50.0
	urgencyDueIn3Days    = 30.0
	urgencyDueIn7Days    = 20.0
	urgencyBaseline      = 5.0 // no deadline, or deadline far out

	boostBlocked    = 40.0
	boostInProgress = 25.0

	boostRiskHigh   = 30.0
	boostRiskMedium = 15.0
	boostRiskLow    = 5.0

	boostBug = 20.0
)

// Score ranks a task for "what should get attention now". Done tasks score
// zero and are excluded from ranking; everything else is non-negative and
// grows with urgency, risk and stuckness.
func Score(t Task, now time.Time) float64 {
	if t.Status == StatusDone {
		return 0
	}

	score := urgency(t.Deadline, now)

	switch t.Status {
	case StatusBlocked:
		score += boostBlocked
	case StatusInProgress:
		score += boostInProgress
	}

	level, _ := Classify(t, now)
	switch level {
	case RiskHigh:
		score += boostRiskHigh
	case RiskMedium:
		score += boostRiskMedium
	default:
		score += boostRiskLow
	}

	if t.Type == TypeBug {
		score += boostBug
	}

	return score
}

func urgency(deadline *time.Time, now time.Time) float64 {
	if deadline == nil {
		return urgencyBaseline
	}

	if deadline.Before(now) {
		daysOver := math.Floor(now.Sub(*deadline).Hours() / 24)
		return urgencyOverdueBase + urgencyOverduePerDay*daysOver
	}

	days := deadline.Sub(now).Hours() / 24
	switch {
	case days <= 1:
		return urgencyDueTomorrow
	case days <= 3:
		return urgencyDueIn3Days
	case days <= 7:
		return urgencyDueIn7Days
	default:
		return urgencyBaseline
	}
}

type Scored struct {
	Task  Task
	Score float64
}

// Rank returns the non-done tasks sorted by score, highest first.
// Ties break on earlier deadline (missing deadline sorts last), then on
// task id, so the ordering is stable across runs.
func Rank(tasks []Task, now time.Time) []Scored {
	ranked := make([]Scored, 0, len(tasks))
	for _, t := range tasks {
		if t.Status == StatusDone {
			continue
		}
		ranked = append(ranked, Scored{Task: t, Score: Score(t, now)})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ad, bd := a.Task.Deadline, b.Task.Deadline
		if ad != nil && bd != nil && !ad.Equal(*bd) {
			return ad.Before(*bd)
		}
		if (ad == nil) != (bd == nil) {
			return ad != nil
		}
		return a.Task.ID < b.Task.ID
	})

	return ranked
}
