// Package summary reduces a day's activities into completion figures.
package summary

import (
	"math"
	"sort"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/domain"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/timeofday"
)

// DefaultRequiredMinutes is the daily target when none is configured.
const DefaultRequiredMinutes = 480

// Annotate sorts activities by start time and fills DurationMinutes.
// The input slice is not modified.
func Annotate(activities []domain.Activity) []domain.Activity {
	out := make([]domain.Activity, len(activities))
	copy(out, activities)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	for i := range out {
		out[i].DurationMinutes = timeofday.Duration(out[i].StartTime, out[i].EndTime)
	}
	return out
}

// Daily computes the summary of one user-day. Activities must already carry
// DurationMinutes.
func Daily(activities []domain.Activity, requiredMinutes int) domain.DailySummary {
	total := 0
	for _, a := range activities {
		total += a.DurationMinutes
	}
	s := domain.DailySummary{
		TotalMinutes:    total,
		RequiredMinutes: requiredMinutes,
	}
	if requiredMinutes <= 0 {
		s.CompletionPercentage = 100
		s.IsComplete = true
		s.IsOvertime = total > 0
		s.OvertimeMinutes = total
		return s
	}
	pct := int(math.Round(float64(total) / float64(requiredMinutes) * 100))
	s.CompletionPercentage = min(100, pct)
	s.IsComplete = total >= requiredMinutes
	s.IsOvertime = total > requiredMinutes
	if s.IsOvertime {
		s.OvertimeMinutes = total - requiredMinutes
	}
	return s
}

// Status classifies a day. Days that are not required or not yet reached are
// never flagged.
func Status(s domain.DailySummary, isRequired, isFuture bool) domain.DayStatus {
	if !isRequired || isFuture {
		return domain.StatusOK
	}
	switch {
	case s.TotalMinutes == 0:
		return domain.StatusMissing
	case !s.IsComplete:
		return domain.StatusIncomplete
	default:
		return domain.StatusOK
	}
}
