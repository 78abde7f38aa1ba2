package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dennidalpos/OnlyUserActivity-sub000/internal/domain"
)

func act(id, start, end string) domain.Activity {
	return domain.Activity{ID: id, Date: "2025-01-10", StartTime: start, EndTime: end, ActivityType: "lavoro"}
}

func TestCheckOverlap(t *testing.T) {
	a := act("a", "09:00", "13:00")
	existing := []domain.Activity{a}

	err := CheckOverlap(Window{"12:00", "14:00"}, existing, "")
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	require.Equal(t, domain.KindTimeOverlap, de.Kind)
	require.Equal(t, "a", de.Conflicting.ID)
	require.Equal(t, "09:00", de.Conflicting.StartTime)
	require.Equal(t, "13:00", de.Conflicting.EndTime)

	require.NoError(t, CheckOverlap(Window{"13:00", "14:00"}, existing, ""), "touching end")
	require.NoError(t, CheckOverlap(Window{"08:00", "09:00"}, existing, ""), "touching start")
	require.Error(t, CheckOverlap(Window{"08:00", "18:00"}, existing, ""), "enclosing")
	require.Error(t, CheckOverlap(Window{"10:00", "11:00"}, existing, ""), "enclosed")
	require.NoError(t, CheckOverlap(Window{"10:00", "11:00"}, existing, "a"), "excluded self")
}

func TestCheckOverlapInvalidRange(t *testing.T) {
	for _, w := range []Window{{"10:00", "10:00"}, {"11:00", "10:00"}} {
		err := CheckOverlap(w, nil, "")
		require.Equal(t, domain.KindInvalidRange, domain.KindOf(err))
	}
	require.Equal(t, domain.KindInvalidFormat, domain.KindOf(CheckOverlap(Window{"9:00", "10:00"}, nil, "")))
}

func TestRevalidatingNonOverlappingSetPasses(t *testing.T) {
	set := []domain.Activity{
		act("a", "08:00", "09:00"),
		act("b", "09:00", "12:30"),
		act("c", "13:15", "14:00"),
		act("d", "14:00", "18:45"),
	}
	for _, a := range set {
		require.NoError(t, CheckOverlap(Window{a.StartTime, a.EndTime}, set, a.ID), a.ID)
	}
}

func TestCheckContinuity(t *testing.T) {
	require.NoError(t, CheckContinuity("11:30", nil, "", true), "first of day")

	existing := []domain.Activity{act("a", "09:00", "13:00")}
	require.NoError(t, CheckContinuity("13:00", existing, "", true))

	err := CheckContinuity("13:30", existing, "", true)
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	require.Equal(t, domain.KindNonContiguous, de.Kind)
	require.Equal(t, "13:00", de.ExpectedStartTime)
	require.Equal(t, "13:30", de.ProvidedStartTime)

	require.NoError(t, CheckContinuity("13:30", existing, "", false), "gaps allowed when not strict")
	require.NoError(t, CheckContinuity("07:00", existing, "a", true), "only excluded activity left")
}

func TestCheckContinuityUsesLatestByStart(t *testing.T) {
	existing := []domain.Activity{
		act("late", "14:00", "16:00"),
		act("early", "09:00", "13:00"),
	}
	require.NoError(t, CheckContinuity("16:00", existing, "", true))
	require.Error(t, CheckContinuity("13:00", existing, "", true))
}

func TestCheckType(t *testing.T) {
	allowed := []string{"lavoro", "ferie"}
	require.NoError(t, CheckType("lavoro", "", allowed))
	require.NoError(t, CheckType("altro", "Corso interno", allowed))

	err := CheckType("vacanza", "", allowed)
	var de *domain.Error
	require.ErrorAs(t, err, &de)
	require.Equal(t, domain.KindInvalidActivityType, de.Kind)
	require.Equal(t, []string{"lavoro", "ferie", "altro"}, de.AllowedTypes)

	for _, blank := range []string{"", "   ", "\t"} {
		require.Equal(t, domain.KindMissingCustomType, domain.KindOf(CheckType("altro", blank, allowed)))
	}
}

func TestAllowedTypesKeepsSingleSentinel(t *testing.T) {
	require.Equal(t, []string{"altro", "lavoro"}, AllowedTypes([]string{"altro", "lavoro"}))
	require.Equal(t, []string{"altro"}, AllowedTypes(nil))
}

func TestNormalizeCustomType(t *testing.T) {
	require.Equal(t, "", NormalizeCustomType("lavoro", "leftover"))
	require.Equal(t, "Corso", NormalizeCustomType("altro", "  Corso "))
}

func TestNextStartAndWindow(t *testing.T) {
	require.Equal(t, "09:00", NextStart(nil, "09:00"))
	existing := []domain.Activity{act("a", "09:00", "13:00"), act("b", "13:00", "14:30")}
	require.Equal(t, "14:30", NextStart(existing, "09:00"))

	w, err := WindowFromDuration("14:30", 2, 15)
	require.NoError(t, err)
	require.Equal(t, Window{"14:30", "16:45"}, w)

	_, err = WindowFromDuration("20:00", 4, 0)
	require.Equal(t, domain.KindInvalidRange, domain.KindOf(err))
}
