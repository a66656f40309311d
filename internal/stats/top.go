package stats

import (
	"sort"

	"github.com/verte-zerg/abacus/internal/model"
)

// MostPracticed returns up to n operations ordered by number of problems solved.
func MostPracticed(aggs []model.OperationAggregate, n int) []model.Operation {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	sorted := make([]model.OperationAggregate, len(aggs))
	copy(sorted, aggs)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Total == sorted[j].Total {
			return sorted[i].Operation < sorted[j].Operation
		}
		return sorted[i].Total > sorted[j].Total
	})
	n = min(n, len(sorted))
	out := make([]model.Operation, 0, n)
	for _, agg := range sorted[:n] {
		out = append(out, agg.Operation)
	}
	return out
}
