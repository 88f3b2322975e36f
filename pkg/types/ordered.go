package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/buger/jsonparser"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrFramesOutOfOrder is returned when frame indexes are not strictly ascending
var ErrFramesOutOfOrder = errors.New("frame indexes must be strictly ascending")

// ErrDuplicateFrameIndex is returned when a document lists the same frame index twice
var ErrDuplicateFrameIndex = errors.New("duplicate frame index")

// Frames maps frame index to the detections at that index, in insertion order.
type Frames struct {
	m *orderedmap.OrderedMap[int, []Frame]
}

// NewFrames creates an empty frame mapping
func NewFrames() *Frames {
	return &Frames{m: orderedmap.New[int, []Frame]()}
}

// Set stores the detections for a frame index. Re-setting an existing index
// keeps its original position.
func (f *Frames) Set(index int, frames []Frame) {
	if f.m == nil {
		f.m = orderedmap.New[int, []Frame]()
	}
	f.m.Set(index, frames)
}

// Get returns the detections stored for a frame index
func (f *Frames) Get(index int) ([]Frame, bool) {
	if f == nil || f.m == nil {
		return nil, false
	}
	return f.m.Get(index)
}

// Len returns the number of frame indexes
func (f *Frames) Len() int {
	if f == nil || f.m == nil {
		return 0
	}
	return f.m.Len()
}

// Each calls fn for every frame index in iteration order
func (f *Frames) Each(fn func(index int, frames []Frame)) {
	if f == nil || f.m == nil {
		return
	}
	for pair := f.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Indexes returns the frame indexes in iteration order
func (f *Frames) Indexes() []int {
	indexes := make([]int, 0, f.Len())
	f.Each(func(index int, _ []Frame) {
		indexes = append(indexes, index)
	})
	return indexes
}

// Validate checks that frame indexes are strictly ascending.
// Gaps are allowed.
func (f *Frames) Validate() error {
	prev, first := 0, true
	var err error
	f.Each(func(index int, _ []Frame) {
		if err != nil {
			return
		}
		if !first && index <= prev {
			err = fmt.Errorf("%w: %d follows %d", ErrFramesOutOfOrder, index, prev)
		}
		prev, first = index, false
	})
	return err
}

// Sorted returns a copy of the mapping with indexes in ascending order
func (f *Frames) Sorted() *Frames {
	indexes := f.Indexes()
	slices.Sort(indexes)

	out := NewFrames()
	for _, index := range indexes {
		frames, _ := f.Get(index)
		out.Set(index, frames)
	}
	return out
}

// MarshalJSON encodes the mapping as a JSON object keyed by frame index
func (f *Frames) MarshalJSON() ([]byte, error) {
	if f == nil || f.m == nil {
		return []byte("{}"), nil
	}
	return f.m.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object keyed by frame index, keeping document order.
// A repeated index is rejected with ErrDuplicateFrameIndex rather than
// letting the later entry replace the earlier one.
func (f *Frames) UnmarshalJSON(data []byte) error {
	m := orderedmap.New[int, []Frame]()
	err := jsonparser.ObjectEach(data, func(key, value []byte, _ jsonparser.ValueType, _ int) error {
		index, err := strconv.Atoi(string(key))
		if err != nil {
			return fmt.Errorf("invalid frame index %q: %w", key, err)
		}
		if _, seen := m.Get(index); seen {
			return fmt.Errorf("%w: %d", ErrDuplicateFrameIndex, index)
		}
		var frames []Frame
		if err := json.Unmarshal(value, &frames); err != nil {
			return fmt.Errorf("frame %d: %w", index, err)
		}
		m.Set(index, frames)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to decode frames: %w", err)
	}
	f.m = m
	return nil
}

// TagUniverse is the exhaustive set of known tags, name to id, in enumeration order.
// The enumeration order breaks ties when series are ranked.
type TagUniverse struct {
	m *orderedmap.OrderedMap[string, int]
}

// NewTagUniverse creates a universe from tags in the given order
func NewTagUniverse(tags ...Tag) *TagUniverse {
	u := &TagUniverse{m: orderedmap.New[string, int]()}
	for _, tag := range tags {
		u.Add(tag.Name, tag.ID)
	}
	return u
}

// Add registers a tag. Adding a known name updates its id in place.
func (u *TagUniverse) Add(name string, id int) {
	if u.m == nil {
		u.m = orderedmap.New[string, int]()
	}
	u.m.Set(name, id)
}

// Has reports whether name is a known tag
func (u *TagUniverse) Has(name string) bool {
	_, ok := u.ID(name)
	return ok
}

// ID returns the identifier registered for name
func (u *TagUniverse) ID(name string) (int, bool) {
	if u == nil || u.m == nil {
		return 0, false
	}
	return u.m.Get(name)
}

// Len returns the number of known tags
func (u *TagUniverse) Len() int {
	if u == nil || u.m == nil {
		return 0
	}
	return u.m.Len()
}

// Names returns the tag names in enumeration order
func (u *TagUniverse) Names() []string {
	names := make([]string, 0, u.Len())
	if u.Len() == 0 {
		return names
	}
	for pair := u.m.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// MarshalJSON encodes the universe as a JSON object
func (u *TagUniverse) MarshalJSON() ([]byte, error) {
	if u == nil || u.m == nil {
		return []byte("{}"), nil
	}
	return u.m.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object of name to id, keeping document order
func (u *TagUniverse) UnmarshalJSON(data []byte) error {
	u.m = orderedmap.New[string, int]()
	if err := u.m.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("failed to decode tag universe: %w", err)
	}
	return nil
}
