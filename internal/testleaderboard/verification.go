package testleaderboard

import (
	"sort"

	service "github.com/okian/dodgy/internal/app"
)

// Result compares a scoring report with the planted anomalies.
type Result struct {
	Planted    int
	Flagged    int
	Recovered  []int64 // planted and flagged
	Missed     []int64 // planted but not flagged
	Unexpected []int64 // flagged but not planted
}

// Recall returns the share of planted anomalies that were flagged; 1 when
// nothing was planted.
func (r *Result) Recall() float64 {
	if r.Planted == 0 {
		return 1
	}
	return float64(len(r.Recovered)) / float64(r.Planted)
}

// Verify compares report against the planted effort IDs.
func Verify(report *service.Report, planted []int64) *Result {
	want := make(map[int64]bool, len(planted))
	for _, id := range planted {
		want[id] = true
	}

	res := &Result{Planted: len(planted)}
	got := make(map[int64]bool)
	for _, e := range report.Flagged() {
		got[e.EffortID] = true
		res.Flagged++
		if want[e.EffortID] {
			res.Recovered = append(res.Recovered, e.EffortID)
		} else {
			res.Unexpected = append(res.Unexpected, e.EffortID)
		}
	}
	for _, id := range planted {
		if !got[id] {
			res.Missed = append(res.Missed, id)
		}
	}
	sort.Slice(res.Missed, func(i, j int) bool { return res.Missed[i] < res.Missed[j] })
	return res
}
