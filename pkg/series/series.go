// Package series ranks tag count sequences for plotting.
package series

import (
	"sort"

	"github.com/menta2k/annotation-graph/pkg/frequency"
	"github.com/menta2k/annotation-graph/pkg/types"
)

// Total returns the number of detections across the whole series
func Total(s types.Series) int {
	total := 0
	for _, n := range s.Data {
		total += n
	}
	return total
}

// SortByTotal converts a count table to series ordered by total count,
// highest first. Equal totals keep the tag universe order.
func SortByTotal(table *frequency.Table) []types.Series {
	out := make([]types.Series, 0, table.Len())
	totals := make([]int, 0, table.Len())
	table.Each(func(name string, data []int) {
		s := types.Series{Name: name, Data: make([]int, len(data))}
		copy(s.Data, data)
		out = append(out, s)
		totals = append(totals, Total(s))
	})

	order := make([]int, len(out))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return totals[order[i]] > totals[order[j]]
	})

	sorted := make([]types.Series, len(out))
	for i, idx := range order {
		sorted[i] = out[idx]
	}
	return sorted
}
