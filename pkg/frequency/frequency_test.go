package frequency

import (
	"reflect"
	"testing"

	"github.com/menta2k/annotation-graph/pkg/types"
)

func detection(name string, confidence float64) types.Frame {
	return types.Frame{Confidence: confidence, Tag: types.Tag{Name: name}}
}

// createTestData builds the cat/dog timeline used across tests
func createTestData() (*types.AnnotationData, *types.TagUniverse) {
	frames := types.NewFrames()
	frames.Set(0, []types.Frame{detection("cat", 0.9)})
	frames.Set(1, []types.Frame{detection("dog", 0.4), detection("cat", 0.9)})

	universe := types.NewTagUniverse(types.Tag{ID: 1, Name: "cat"}, types.Tag{ID: 2, Name: "dog"})
	return &types.AnnotationData{FPS: 30, Frames: frames}, universe
}

func TestCount(t *testing.T) {
	universe := types.NewTagUniverse(types.Tag{ID: 1, Name: "cat"}, types.Tag{ID: 2, Name: "dog"})
	frames := []types.Frame{detection("cat", 1), detection("cat", 1), detection("bird", 1)}

	counts := Count(frames, universe)

	if counts.Len() != 2 {
		t.Fatalf("Expected 2 tags, got %d", counts.Len())
	}
	if n, _ := counts.Get("cat"); n != 2 {
		t.Errorf("Expected cat count 2, got %d", n)
	}
	if n, ok := counts.Get("dog"); !ok || n != 0 {
		t.Errorf("Expected dog count 0 and present, got %d (present=%v)", n, ok)
	}
	if _, ok := counts.Get("bird"); ok {
		t.Error("Unknown tag bird should not be counted")
	}
	if counts.Total() != 2 {
		t.Errorf("Expected total 2, got %d", counts.Total())
	}
}

func TestAggregateExample(t *testing.T) {
	data, universe := createTestData()

	table := Aggregate(data, universe, 0.5)

	cat, _ := table.Get("cat")
	dog, _ := table.Get("dog")
	if !reflect.DeepEqual(cat, []int{1, 1}) {
		t.Errorf("Expected cat [1 1], got %v", cat)
	}
	if !reflect.DeepEqual(dog, []int{0, 0}) {
		t.Errorf("Expected dog [0 0], got %v", dog)
	}
	if table.Frames() != 2 {
		t.Errorf("Expected 2 frames, got %d", table.Frames())
	}
}

func TestAggregateHighThreshold(t *testing.T) {
	data, universe := createTestData()

	table := Aggregate(data, universe, 0.95)
	table.Each(func(name string, seq []int) {
		for i, n := range seq {
			if n != 0 {
				t.Errorf("Expected %s[%d] to be 0, got %d", name, i, n)
			}
		}
	})
}

func TestAggregateUnknownTag(t *testing.T) {
	data, universe := createTestData()
	data.Frames.Set(2, []types.Frame{detection("bird", 0.99), detection("bird", 0.99)})

	table := Aggregate(data, universe, 0.5)

	if table.Len() != 2 {
		t.Fatalf("Expected 2 series, got %d", table.Len())
	}
	if _, ok := table.Get("bird"); ok {
		t.Error("Unknown tag bird should not produce a series")
	}
	cat, _ := table.Get("cat")
	if !reflect.DeepEqual(cat, []int{1, 1, 0}) {
		t.Errorf("Expected cat [1 1 0], got %v", cat)
	}
}

func TestAggregateUniverseOrder(t *testing.T) {
	data, _ := createTestData()
	universe := types.NewTagUniverse(
		types.Tag{ID: 7, Name: "zebra"},
		types.Tag{ID: 2, Name: "dog"},
		types.Tag{ID: 1, Name: "cat"},
	)

	var names []string
	Aggregate(data, universe, 0).Each(func(name string, seq []int) {
		names = append(names, name)
		if len(seq) != 2 {
			t.Errorf("Expected %s to have 2 values, got %d", name, len(seq))
		}
	})

	if !reflect.DeepEqual(names, []string{"zebra", "dog", "cat"}) {
		t.Errorf("Expected universe order, got %v", names)
	}
}

func TestAggregateSumsMatchPassingDetections(t *testing.T) {
	frames := types.NewFrames()
	frames.Set(3, []types.Frame{detection("cat", 0.2), detection("dog", 0.8), detection("dog", 0.6), detection("fox", 0.9)})
	frames.Set(10, nil)
	frames.Set(11, []types.Frame{detection("cat", 0.7), detection("cat", 0.71), detection("dog", 0.3)})
	data := &types.AnnotationData{Frames: frames}
	universe := types.NewTagUniverse(types.Tag{Name: "cat"}, types.Tag{Name: "dog"})

	for _, threshold := range []float64{0, 0.25, 0.5, 0.65, 0.75, 1} {
		table := Aggregate(data, universe, threshold)

		i := 0
		data.Frames.Each(func(_ int, raw []types.Frame) {
			want := 0
			for _, f := range raw {
				if f.Confidence >= threshold && universe.Has(f.Tag.Name) {
					want++
				}
			}
			got := 0
			table.Each(func(_ string, seq []int) { got += seq[i] })
			if got != want {
				t.Errorf("threshold %.2f frame %d: expected sum %d, got %d", threshold, i, want, got)
			}
			i++
		})
	}
}

func TestAggregateMonotonic(t *testing.T) {
	frames := types.NewFrames()
	frames.Set(0, []types.Frame{detection("cat", 0.1), detection("cat", 0.5), detection("dog", 0.9)})
	frames.Set(1, []types.Frame{detection("dog", 0.3), detection("dog", 0.6)})
	data := &types.AnnotationData{Frames: frames}
	universe := types.NewTagUniverse(types.Tag{Name: "cat"}, types.Tag{Name: "dog"})

	thresholds := []float64{0, 0.1, 0.3, 0.5, 0.6, 0.9, 1}
	for i := 1; i < len(thresholds); i++ {
		low := Aggregate(data, universe, thresholds[i-1])
		high := Aggregate(data, universe, thresholds[i])
		high.Each(func(name string, seq []int) {
			lowSeq, _ := low.Get(name)
			for j := range seq {
				if seq[j] > lowSeq[j] {
					t.Errorf("%s[%d]: count at %.1f (%d) exceeds count at %.1f (%d)",
						name, j, thresholds[i], seq[j], thresholds[i-1], lowSeq[j])
				}
			}
		})
	}
}

func TestAggregateNilData(t *testing.T) {
	universe := types.NewTagUniverse(types.Tag{Name: "cat"})

	table := Aggregate(nil, universe, 0.5)
	if table.Len() != 1 || table.Frames() != 0 {
		t.Errorf("Expected 1 empty series, got %d series over %d frames", table.Len(), table.Frames())
	}
}

func BenchmarkAggregate(b *testing.B) {
	frames := types.NewFrames()
	for i := 0; i < 1000; i++ {
		frames.Set(i*33, []types.Frame{detection("cat", 0.9), detection("dog", 0.4), detection("car", 0.7)})
	}
	data := &types.AnnotationData{FPS: 30, Frames: frames}
	universe := types.NewTagUniverse(types.Tag{Name: "cat"}, types.Tag{Name: "dog"}, types.Tag{Name: "car"})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Aggregate(data, universe, 0.5)
	}
}
