// Package tooltip decides which series take part in hover tooltips and how
// wide the tooltip panel should be.
package tooltip

import "github.com/menta2k/annotation-graph/pkg/types"

// Default tooltip panel layout: entries stack three to a column and each
// column is 124px wide.
const (
	DefaultRows        = 3
	DefaultColumnWidth = 124
)

// EnabledIndexes returns the positions of series that have at least one
// non-zero value. Always-zero series are left out of the tooltip.
func EnabledIndexes(series []types.Series) []int {
	indexes := []int{}
	for i, s := range series {
		for _, n := range s.Data {
			if n != 0 {
				indexes = append(indexes, i)
				break
			}
		}
	}
	return indexes
}

// Columns returns how many columns the panel needs for the given number of entries
func Columns(entries, rows int) int {
	if entries <= 0 {
		return 0
	}
	if rows <= 0 {
		rows = DefaultRows
	}
	return (entries + rows - 1) / rows
}

// Width returns the tooltip panel width in pixels for the given number of
// entries: ceil(entries/rows) * columnWidth.
func Width(entries, rows, columnWidth int) int {
	return Columns(entries, rows) * columnWidth
}
