// Package adherence derives completion statistics and outcome breakdowns
// from treatments and their follow-up logs.
package adherence

import (
	"github.com/ariebrainware/tbcare/model"
	"github.com/shopspring/decimal"
)

// Summary is the adherence of a set of follow-up entries.
type Summary struct {
	TotalScheduled       int     `json:"total_scheduled"`
	TotalCompleted       int     `json:"total_completed"`
	AdherenceRatePercent float64 `json:"adherence_rate_percent"`
}

// Summarize counts raw follow-up entries, not unique dates: a date recorded
// twice contributes twice to both totals.
func Summarize(followUps []model.FollowUp) Summary {
	var s Summary
	for _, f := range followUps {
		s.TotalScheduled++
		if f.Status == model.FollowUpCompleted {
			s.TotalCompleted++
		}
	}
	s.AdherenceRatePercent = Rate(s.TotalCompleted, s.TotalScheduled)
	return s
}

// SummarizeTreatments aggregates the follow-ups of every treatment given.
func SummarizeTreatments(treatments []model.Treatment) Summary {
	var all []model.FollowUp
	for _, t := range treatments {
		all = append(all, t.FollowUps...)
	}
	return Summarize(all)
}

// Rate is completed/scheduled as a percentage rounded to one decimal place,
// or 0 when nothing is scheduled.
func Rate(completed, scheduled int) float64 {
	if scheduled == 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(completed)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(scheduled))).
		Round(1)
	f, _ := pct.Float64()
	return f
}

// Breakdown is the outcome distribution of a set of treatments. Every
// status is present, with zero when no treatment has it.
type Breakdown struct {
	Total     int                           `json:"total"`
	ByStatus  map[model.TreatmentStatus]int `json:"by_status"`
	ByRegimen map[model.Regimen]int         `json:"by_regimen"`
}

// Outcomes counts each treatment once under its status and once under its regimen.
func Outcomes(treatments []model.Treatment) Breakdown {
	b := Breakdown{
		ByStatus:  make(map[model.TreatmentStatus]int, len(model.TreatmentStatuses)),
		ByRegimen: make(map[model.Regimen]int, len(model.Regimens)),
	}
	for _, s := range model.TreatmentStatuses {
		b.ByStatus[s] = 0
	}
	for _, t := range treatments {
		b.Total++
		b.ByStatus[t.Status]++
		b.ByRegimen[t.Regimen]++
	}
	return b
}
