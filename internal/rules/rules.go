// Package rules holds the stateless checks applied to a candidate activity
// before it is written to a user-day.
package rules

import (
	"sort"
	"strings"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/domain"
	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/timeofday"
)

// OtherType is the sentinel activity type that requires a free-text label.
const OtherType = "altro"

// Window is a candidate [Start, End) time range within one day.
type Window struct {
	Start string
	End   string
}

// CheckOverlap rejects w when it is empty or intersects any existing activity
// other than excludeID. Touching endpoints do not overlap.
func CheckOverlap(w Window, existing []domain.Activity, excludeID string) error {
	start, err := timeofday.ToMinutes(w.Start)
	if err != nil {
		return err
	}
	end, err := timeofday.ToMinutes(w.End)
	if err != nil {
		return err
	}
	if start >= end {
		return domain.InvalidRange("end time must be after start time")
	}
	for _, a := range existing {
		if excludeID != "" && a.ID == excludeID {
			continue
		}
		aStart, err := timeofday.ToMinutes(a.StartTime)
		if err != nil {
			continue
		}
		aEnd, err := timeofday.ToMinutes(a.EndTime)
		if err != nil {
			continue
		}
		if start < aEnd && end > aStart {
			return domain.TimeOverlap(a)
		}
	}
	return nil
}

// CheckContinuity enforces, in strict mode only, that start chains from the
// end of the latest existing activity. The first activity of a day is free.
func CheckContinuity(start string, existing []domain.Activity, excludeID string, strict bool) error {
	if !strict {
		return nil
	}
	latest, ok := latestByStart(existing, excludeID)
	if !ok {
		return nil
	}
	if start != latest.EndTime {
		return domain.NonContiguous(latest.EndTime, start)
	}
	return nil
}

// CheckType validates the activityType/customType pair against the allowed set.
func CheckType(activityType, customType string, allowed []string) error {
	set := AllowedTypes(allowed)
	found := false
	for _, t := range set {
		if t == activityType {
			found = true
			break
		}
	}
	if !found {
		return &domain.Error{
			Kind:         domain.KindInvalidActivityType,
			Message:      "invalid activity type " + quote(activityType),
			AllowedTypes: set,
		}
	}
	if activityType == OtherType && strings.TrimSpace(customType) == "" {
		return &domain.Error{
			Kind:         domain.KindMissingCustomType,
			Message:      "customType is required when activityType is " + quote(OtherType),
			AllowedTypes: set,
		}
	}
	return nil
}

// AllowedTypes returns the configured types with the "altro" sentinel
// appended when missing. Order is preserved.
func AllowedTypes(configured []string) []string {
	out := make([]string, 0, len(configured)+1)
	hasOther := false
	for _, t := range configured {
		if t == OtherType {
			hasOther = true
		}
		out = append(out, t)
	}
	if !hasOther {
		out = append(out, OtherType)
	}
	return out
}

// NormalizeCustomType drops the custom label for every type but "altro".
func NormalizeCustomType(activityType, customType string) string {
	if activityType != OtherType {
		return ""
	}
	return strings.TrimSpace(customType)
}

// NextStart is the running cursor of a day: the end of the latest activity,
// or dayStart when the day is empty.
func NextStart(existing []domain.Activity, dayStart string) string {
	latest, ok := latestByStart(existing, "")
	if !ok {
		return dayStart
	}
	return latest.EndTime
}

// WindowFromDuration anchors a duration at start.
func WindowFromDuration(start string, hours, minutes int) (Window, error) {
	end, err := timeofday.Add(start, hours*60+minutes)
	if err != nil {
		return Window{}, err
	}
	return Window{Start: start, End: end}, nil
}

func latestByStart(existing []domain.Activity, excludeID string) (domain.Activity, bool) {
	rest := make([]domain.Activity, 0, len(existing))
	for _, a := range existing {
		if excludeID != "" && a.ID == excludeID {
			continue
		}
		rest = append(rest, a)
	}
	if len(rest) == 0 {
		return domain.Activity{}, false
	}
	sort.SliceStable(rest, func(i, j int) bool { return rest[i].StartTime < rest[j].StartTime })
	return rest[len(rest)-1], true
}

func quote(s string) string { return `"` + s + `"` }
