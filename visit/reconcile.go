package visit

import (
	"sort"
	"time"

	"github.com/ariebrainware/tbcare/model"
	"github.com/ariebrainware/tbcare/schedule"
)

// Row is the display state of one scheduled calendar date.
type Row struct {
	Date   time.Time         `json:"date"`
	Status model.VisitStatus `json:"status"`
	// FollowUp is the authoritative entry for the date, nil when nothing was recorded.
	FollowUp *model.FollowUp `json:"follow_up,omitempty"`
	// Entries counts every entry recorded for the date, superseded ones included.
	Entries int `json:"entries"`
}

// Reconcile merges the planned schedule with the follow-up log into one row
// per unique calendar date, sorted ascending. followUps must be in recording
// order: when several entries share a date the last one wins.
func Reconcile(visitSchedule []time.Time, followUps []model.FollowUp, today time.Time) []Row {
	latest := make(map[string]*model.FollowUp, len(followUps))
	counts := make(map[string]int, len(followUps))
	for i := range followUps {
		k := schedule.Key(followUps[i].VisitDate)
		latest[k] = &followUps[i]
		counts[k]++
	}

	todayKey := schedule.Key(today)
	seen := make(map[string]bool, len(visitSchedule))
	rows := make([]Row, 0, len(visitSchedule))
	for _, d := range visitSchedule {
		k := schedule.Key(d)
		if seen[k] {
			continue
		}
		seen[k] = true

		row := Row{Date: schedule.DateOf(d), Entries: counts[k]}
		if f, ok := latest[k]; ok {
			entry := *f
			row.FollowUp = &entry
			row.Status = displayStatus(entry.Status)
		} else if k < todayKey {
			row.Status = model.VisitOverdue
		} else {
			row.Status = model.VisitScheduled
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	return rows
}

// displayStatus maps a stored status to Completed or Missed. An empty value
// stays Scheduled; any other non-missed value counts as completed.
func displayStatus(s model.FollowUpStatus) model.VisitStatus {
	switch s {
	case model.FollowUpMissed:
		return model.VisitMissed
	case "":
		return model.VisitScheduled
	default:
		return model.VisitCompleted
	}
}

// History returns every entry recorded for date, in recording order.
func History(followUps []model.FollowUp, date time.Time) []model.FollowUp {
	k := schedule.Key(date)
	out := make([]model.FollowUp, 0)
	for _, f := range followUps {
		if schedule.Key(f.VisitDate) == k {
			out = append(out, f)
		}
	}
	return out
}
