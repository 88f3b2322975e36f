package detection

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/menta2k/annotation-graph/pkg/processing"
	"github.com/menta2k/annotation-graph/pkg/types"
)

type fakeClient struct {
	results []*types.DetectionResult
	err     error
	calls   int
	prompt  string
}

func (f *fakeClient) SimpleQuery(_ context.Context, _, _, _ string) (string, error) {
	return "a gray square", f.err
}

func (f *fakeClient) DetectObjects(_ context.Context, _, prompt, _ string) (*types.DetectionResult, error) {
	f.prompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	r := f.results[f.calls%len(f.results)]
	f.calls++
	return r, nil
}

func testImage() image.Image {
	return imaging.New(32, 32, color.NRGBA{128, 128, 128, 255})
}

func writeFrames(t *testing.T, indexes ...int) []processing.FrameImage {
	t.Helper()
	dir := t.TempDir()
	out := make([]processing.FrameImage, 0, len(indexes))
	for _, i := range indexes {
		path := filepath.Join(dir, fmt.Sprintf("frame_%04d.png", i))
		if err := imaging.Save(testImage(), path); err != nil {
			t.Fatalf("Failed to write frame: %v", err)
		}
		out = append(out, processing.FrameImage{Index: i, Path: path})
	}
	return out
}

func TestAnnotateImage(t *testing.T) {
	fc := &fakeClient{results: []*types.DetectionResult{{
		Objects: []types.Detection{
			{Label: " Cat. ", Confidence: 1.4, Box: types.Box{X: 0.9, Y: -0.1, W: 0.5, H: 0.5}},
			{Label: "none", Confidence: 0.9},
			{Label: "", Confidence: 0.9},
			{Label: "dog", Confidence: -0.2},
		},
	}}}

	a := NewAnnotator(fc, DefaultConfig(), nil)
	frames, err := a.AnnotateImage(context.Background(), testImage())
	if err != nil {
		t.Fatalf("AnnotateImage failed: %v", err)
	}

	if len(frames) != 2 {
		t.Fatalf("Expected 2 frames, got %d", len(frames))
	}
	if frames[0].Tag.Name != "cat" {
		t.Errorf("Expected normalized label cat, got %q", frames[0].Tag.Name)
	}
	if frames[0].Confidence != 1 || frames[1].Confidence != 0 {
		t.Errorf("Expected clamped confidences [1 0], got [%v %v]", frames[0].Confidence, frames[1].Confidence)
	}
	box := frames[0].Box
	if box.Y != 0 || box.X+box.W > 1.0000001 {
		t.Errorf("Expected box inside unit square, got %+v", box)
	}
	if fc.prompt != DefaultPrompt {
		t.Error("Expected default prompt to be sent")
	}
}

func TestAnnotatorAssignsStableIDs(t *testing.T) {
	fc := &fakeClient{results: []*types.DetectionResult{
		{Objects: []types.Detection{{Label: "car", Confidence: 0.5}, {Label: "person", Confidence: 0.5}}},
		{Objects: []types.Detection{{Label: "person", Confidence: 0.5}, {Label: "tree", Confidence: 0.5}}},
	}}

	seed := types.NewTagUniverse(types.Tag{ID: 7, Name: "person"})
	a := NewAnnotator(fc, DefaultConfig(), nil).WithUniverse(seed)

	for range 2 {
		if _, err := a.AnnotateImage(context.Background(), testImage()); err != nil {
			t.Fatalf("AnnotateImage failed: %v", err)
		}
	}

	u := a.Universe()
	want := []string{"person", "car", "tree"}
	got := u.Names()
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Expected %v, got %v", want, got)
		}
	}
	if id, _ := u.ID("person"); id != 7 {
		t.Errorf("Expected seeded id 7, got %d", id)
	}
	if id, _ := u.ID("car"); id != 8 {
		t.Errorf("Expected car id 8, got %d", id)
	}
	if id, _ := u.ID("tree"); id != 9 {
		t.Errorf("Expected tree id 9, got %d", id)
	}
	if seed.Len() != 1 {
		t.Errorf("Seed universe was modified, len %d", seed.Len())
	}
}

func TestAnnotateFrames(t *testing.T) {
	fc := &fakeClient{results: []*types.DetectionResult{
		{Objects: []types.Detection{{Label: "cat", Confidence: 0.8}}},
		{Objects: nil},
	}}
	images := writeFrames(t, 0, 5, 10)
	images = append(images, processing.FrameImage{Index: 12, Path: filepath.Join(t.TempDir(), "missing.png")})

	a := NewAnnotator(fc, DefaultConfig(), nil)
	data, err := a.AnnotateFrames(context.Background(), images, 2)
	if err != nil {
		t.Fatalf("AnnotateFrames failed: %v", err)
	}

	if data.FPS != 2 {
		t.Errorf("Expected fps 2, got %v", data.FPS)
	}
	idx := data.Frames.Indexes()
	if fmt.Sprint(idx) != "[0 5 10 12]" {
		t.Errorf("Expected indexes [0 5 10 12], got %v", idx)
	}
	if f, _ := data.Frames.Get(0); len(f) != 1 {
		t.Errorf("Expected one detection at frame 0, got %d", len(f))
	}
	if f, _ := data.Frames.Get(5); len(f) != 0 {
		t.Errorf("Expected no detection at frame 5, got %d", len(f))
	}
	if f, ok := data.Frames.Get(12); !ok || len(f) != 0 {
		t.Errorf("Expected empty entry for unreadable frame, got %v %v", f, ok)
	}
	if fc.calls != 3 {
		t.Errorf("Expected 3 model calls, got %d", fc.calls)
	}
}

func TestAnnotateFramesOutOfOrder(t *testing.T) {
	fc := &fakeClient{results: []*types.DetectionResult{{}}}
	images := writeFrames(t, 3, 1)

	_, err := NewAnnotator(fc, DefaultConfig(), nil).AnnotateFrames(context.Background(), images, 1)
	if !errors.Is(err, types.ErrFramesOutOfOrder) {
		t.Errorf("Expected ErrFramesOutOfOrder, got %v", err)
	}
}

func TestAnnotateFramesClientError(t *testing.T) {
	fc := &fakeClient{err: errors.New("backend down")}
	images := writeFrames(t, 1)

	if _, err := NewAnnotator(fc, DefaultConfig(), nil).AnnotateFrames(context.Background(), images, 1); err == nil {
		t.Error("Expected client error to propagate")
	}
}

func TestAnnotateFramesCancelled(t *testing.T) {
	fc := &fakeClient{results: []*types.DetectionResult{{}}}
	images := writeFrames(t, 1, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewAnnotator(fc, DefaultConfig(), nil).AnnotateFrames(ctx, images, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if fc.calls != 0 {
		t.Errorf("Expected no model calls, got %d", fc.calls)
	}
}

func TestTestVision(t *testing.T) {
	got, err := NewAnnotator(&fakeClient{}, DefaultConfig(), nil).TestVision(context.Background(), testImage())
	if err != nil {
		t.Fatalf("TestVision failed: %v", err)
	}
	if got != "a gray square" {
		t.Errorf("Expected %q, got %q", "a gray square", got)
	}
}

func TestNormalizeLabel(t *testing.T) {
	tests := map[string]string{
		"Cat":            "cat",
		"  traffic   light ": "traffic light",
		"dog.":           "dog",
		`"bus"`:          "bus",
		"":               "",
	}
	for in, want := range tests {
		if got := normalizeLabel(in); got != want {
			t.Errorf("normalizeLabel(%q): expected %q, got %q", in, want, got)
		}
	}
}
