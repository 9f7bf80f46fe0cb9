// Package schedule computes the planned visit calendar of a treatment.
package schedule

import (
	"time"

	"github.com/ariebrainware/tbcare/model"
)

const (
	// sixMonthCourseDays is the length of a 6-month course in days.
	sixMonthCourseDays = 180
	// mdrMonthlyVisits is the number of monthly visits on the MDR regimen.
	mdrMonthlyVisits = 20
)

var (
	firstLineVisitDays = []int{14, 30, 60, 120, 180}
	defaultVisitDays   = []int{30, 90, 180}
)

// Result is the output of Compute.
type Result struct {
	ExpectedEndDate time.Time   `json:"expected_end_date"`
	VisitDates      []time.Time `json:"visit_dates"`
}

// Compute returns the expected end date and the ordered visit dates for a
// treatment on regimen starting at start. Day offsets are exact day counts;
// monthly offsets use calendar month addition, which normalises overflowing
// days into the following month (Jan 31 + 1 month = Mar 2 or 3).
func Compute(start time.Time, regimen model.Regimen) Result {
	start = DateOf(start)

	switch regimen {
	case model.RegimenFirstLine, model.RegimenFirstLineContinuation:
		return Result{
			ExpectedEndDate: start.AddDate(0, 0, sixMonthCourseDays),
			VisitDates:      addDays(start, firstLineVisitDays),
		}
	case model.RegimenMDR:
		visits := make([]time.Time, 0, mdrMonthlyVisits)
		for i := 1; i <= mdrMonthlyVisits; i++ {
			visits = append(visits, start.AddDate(0, i, 0))
		}
		return Result{
			ExpectedEndDate: visits[len(visits)-1],
			VisitDates:      visits,
		}
	default:
		return Result{
			ExpectedEndDate: start.AddDate(0, 0, sixMonthCourseDays),
			VisitDates:      addDays(start, defaultVisitDays),
		}
	}
}

func addDays(start time.Time, offsets []int) []time.Time {
	out := make([]time.Time, 0, len(offsets))
	for _, d := range offsets {
		out = append(out, start.AddDate(0, 0, d))
	}
	return out
}
