package repository

import (
	"fmt"
	"sort"

	"github.com/okian/dodgy/internal/domain/model"
)

// ReasonDuplicate marks entries dropped because their effort_id repeats.
const ReasonDuplicate = "duplicate"

// Select orders entries by ascending rank and keeps those with rank <= topN.
// topN <= 0 keeps every rank. Entries repeating an earlier effort_id are
// dropped and reported. The input slice is not modified.
func Select(entries []model.RawEffort, topN int) ([]model.RawEffort, []model.Rejection) {
	sorted := append([]model.RawEffort(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })

	out := make([]model.RawEffort, 0, len(sorted))
	var rejected []model.Rejection
	seen := make(map[int64]int, len(sorted))
	for _, e := range sorted {
		if topN > 0 && e.Rank > topN {
			break
		}
		if first, dup := seen[e.EffortID]; dup {
			rejected = append(rejected, model.Rejection{
				EffortID: e.EffortID,
				Rank:     e.Rank,
				Reason:   fmt.Sprintf("%s effort_id, first seen at rank %d", ReasonDuplicate, first),
			})
			continue
		}
		seen[e.EffortID] = e.Rank
		out = append(out, e)
	}
	return out, rejected
}
