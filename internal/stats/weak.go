package stats

import (
	"sort"

	"github.com/verte-zerg/abacus/internal/model"
)

// SortByAccuracy returns a copy of aggs ordered from lowest to highest accuracy.
func SortByAccuracy(aggs []model.OperationAggregate) []model.OperationAggregate {
	out := make([]model.OperationAggregate, len(aggs))
	copy(out, aggs)
	sort.SliceStable(out, func(i, j int) bool {
		ai := accuracy(out[i])
		aj := accuracy(out[j])
		if ai == aj {
			return out[i].Operation < out[j].Operation
		}
		return ai < aj
	})
	return out
}

// WeakestOperation returns the operation with the lowest accuracy.
func WeakestOperation(aggs []model.OperationAggregate) (model.Operation, bool) {
	if len(aggs) == 0 {
		return "", false
	}
	return SortByAccuracy(aggs)[0].Operation, true
}

func accuracy(agg model.OperationAggregate) float64 {
	if agg.Total == 0 {
		return 1.0
	}
	return float64(agg.Correct) / float64(agg.Total)
}
