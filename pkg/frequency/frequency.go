// Package frequency counts tag occurrences per frame index.
package frequency

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/menta2k/annotation-graph/pkg/filter"
	"github.com/menta2k/annotation-graph/pkg/types"
)

// Counts maps every known tag to its number of detections at one frame index.
// Keys follow the tag universe order.
type Counts struct {
	m *orderedmap.OrderedMap[string, int]
}

// Get returns the count for a tag and whether the tag is known
func (c *Counts) Get(name string) (int, bool) {
	return c.m.Get(name)
}

// Len returns the number of tags counted
func (c *Counts) Len() int {
	return c.m.Len()
}

// Total returns the sum over all tags
func (c *Counts) Total() int {
	total := 0
	for pair := c.m.Oldest(); pair != nil; pair = pair.Next() {
		total += pair.Value
	}
	return total
}

// Count tallies detections by tag name. Every tag in universe gets an entry,
// zero when absent; detections of tags outside universe are ignored.
func Count(frames []types.Frame, universe *types.TagUniverse) *Counts {
	m := orderedmap.New[string, int]()
	for _, name := range universe.Names() {
		m.Set(name, 0)
	}
	for _, f := range frames {
		if n, ok := m.Get(f.Tag.Name); ok {
			m.Set(f.Tag.Name, n+1)
		}
	}
	return &Counts{m: m}
}

// Table holds the per-frame count sequence of every known tag, in universe order.
type Table struct {
	m      *orderedmap.OrderedMap[string, []int]
	frames int
}

// Frames returns the number of frame indexes aggregated
func (t *Table) Frames() int {
	return t.frames
}

// Len returns the number of tags
func (t *Table) Len() int {
	return t.m.Len()
}

// Get returns the count sequence for a tag
func (t *Table) Get(name string) ([]int, bool) {
	return t.m.Get(name)
}

// Each calls fn for every tag in universe order
func (t *Table) Each(fn func(name string, data []int)) {
	for pair := t.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Aggregate filters each frame index by threshold and appends the resulting
// per-tag counts to each tag's sequence, in frame iteration order.
func Aggregate(data *types.AnnotationData, universe *types.TagUniverse, threshold float64) *Table {
	names := universe.Names()
	frameCount := 0
	if data != nil {
		frameCount = data.Frames.Len()
	}

	m := orderedmap.New[string, []int]()
	for _, name := range names {
		m.Set(name, make([]int, 0, frameCount))
	}

	if data != nil {
		data.Frames.Each(func(_ int, frames []types.Frame) {
			counts := Count(filter.ByConfidence(frames, threshold), universe)
			for pair := counts.m.Oldest(); pair != nil; pair = pair.Next() {
				seq, _ := m.Get(pair.Key)
				m.Set(pair.Key, append(seq, pair.Value))
			}
		})
	}

	return &Table{m: m, frames: frameCount}
}
