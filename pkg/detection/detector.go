// Package detection turns vision model answers into tag annotations.
package detection

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/menta2k/annotation-graph/internal/logger"
	"github.com/menta2k/annotation-graph/pkg/client"
	"github.com/menta2k/annotation-graph/pkg/processing"
	"github.com/menta2k/annotation-graph/pkg/types"
)

// SimpleTestPrompt for testing if the model can see images
const SimpleTestPrompt = `What do you see in this image? Describe it briefly.`

// DefaultPrompt asks the model for every distinct object in a frame
const DefaultPrompt = `You are an object tagger for video frames.

Return JSON only:
{
  "objects": [
    {
      "label": "string",
      "confidence": 0.0,
      "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}
    }
  ],
  "description": "short neutral sentence (max 20 words)"
}

HARD RULES
- One entry per visible object instance. Two cars are two entries.
- Labels are lowercase singular nouns without punctuation.
- All coordinates are normalized to [0,1] (NOT pixels).
- Confidence is your certainty in [0,1].
- Do not guess real identities.
- If nothing is visible, return {"objects": [], "description": "empty scene"}.
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Config controls how frames are sent to the model
type Config struct {
	Model       string
	Prompt      string
	SendFormat  string
	SendSize    int
	SendQuality int
}

// DefaultConfig returns the settings used by the CLI
func DefaultConfig() Config {
	return Config{
		Model:       "openbmb/minicpm-v4.5",
		Prompt:      DefaultPrompt,
		SendFormat:  "jpeg",
		SendSize:    1024,
		SendQuality: 85,
	}
}

// Annotator tags video frames with a vision model
type Annotator struct {
	client    client.VisionClient
	processor *processing.Processor
	logger    *log.Logger
	config    Config
	universe  *types.TagUniverse
	nextID    int
}

// NewAnnotator creates an annotator. A nil logger discards output.
func NewAnnotator(c client.VisionClient, cfg Config, l *log.Logger) *Annotator {
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	if l == nil {
		l = logger.Discard()
	}
	return &Annotator{
		client:    c,
		processor: processing.NewProcessor(),
		logger:    l,
		config:    cfg,
		universe:  types.NewTagUniverse(),
	}
}

// WithUniverse seeds the known tags. Unseen labels are still accepted and
// get ids above the largest seeded one.
func (a *Annotator) WithUniverse(u *types.TagUniverse) *Annotator {
	seeded := types.NewTagUniverse()
	a.nextID = 0
	for _, name := range u.Names() {
		id, _ := u.ID(name)
		seeded.Add(name, id)
		a.nextID = max(a.nextID, id)
	}
	a.universe = seeded
	return a
}

// Universe returns the tags seen so far in discovery order
func (a *Annotator) Universe() *types.TagUniverse {
	return a.universe
}

// TestVision tests if the model can actually see the image with a simple prompt
func (a *Annotator) TestVision(ctx context.Context, img image.Image) (string, error) {
	b64, err := a.processor.PrepareImageForModel(img, a.config.SendFormat, a.config.SendSize, a.config.SendQuality)
	if err != nil {
		return "", fmt.Errorf("failed to prepare image: %w", err)
	}
	return a.client.SimpleQuery(ctx, a.config.Model, SimpleTestPrompt, b64)
}

// AnnotateImage returns one detection per object the model reports in img
func (a *Annotator) AnnotateImage(ctx context.Context, img image.Image) ([]types.Frame, error) {
	b64, err := a.processor.PrepareImageForModel(img, a.config.SendFormat, a.config.SendSize, a.config.SendQuality)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare image: %w", err)
	}

	result, err := a.client.DetectObjects(ctx, a.config.Model, a.config.Prompt, b64)
	if err != nil {
		return nil, err
	}
	return a.toFrames(result), nil
}

// AnnotateFrames tags every frame image and assembles the annotation data.
// Frames that fail to load are logged and recorded with no detections.
func (a *Annotator) AnnotateFrames(ctx context.Context, images []processing.FrameImage, fps float64) (*types.AnnotationData, error) {
	data := &types.AnnotationData{FPS: fps, Frames: types.NewFrames()}

	for i, fi := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		img, err := a.processor.LoadImage(fi.Path)
		if err != nil {
			a.logger.Warn("Skipping unreadable frame", "frame", fi.Index, "path", fi.Path, "err", err)
			data.Frames.Set(fi.Index, []types.Frame{})
			continue
		}

		frames, err := a.AnnotateImage(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", fi.Index, err)
		}
		data.Frames.Set(fi.Index, frames)
		a.logger.Debug("Annotated frame", "frame", fi.Index, "objects", len(frames), "progress", fmt.Sprintf("%d/%d", i+1, len(images)))
	}

	if err := data.Frames.Validate(); err != nil {
		return nil, err
	}
	return data, nil
}

func (a *Annotator) toFrames(result *types.DetectionResult) []types.Frame {
	frames := make([]types.Frame, 0, len(result.Objects))
	for _, obj := range result.Objects {
		name := normalizeLabel(obj.Label)
		if name == "" || name == "none" {
			continue
		}
		id, ok := a.universe.ID(name)
		if !ok {
			a.nextID++
			id = a.nextID
			a.universe.Add(name, id)
		}
		frames = append(frames, types.Frame{
			Confidence: clamp(obj.Confidence, 0, 1),
			Tag:        types.Tag{ID: id, Name: name},
			Box:        normalizeBox(obj.Box),
		})
	}
	return frames
}

// normalizeLabel lowercases and collapses whitespace and trims punctuation
func normalizeLabel(label string) string {
	label = strings.ToLower(strings.Join(strings.Fields(label), " "))
	return strings.Trim(label, ".,;:!?\"'")
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// normalizeBox keeps the box inside the unit square
func normalizeBox(b types.Box) types.Box {
	x := clamp(b.X, 0, 1)
	y := clamp(b.Y, 0, 1)
	return types.Box{
		X: x,
		Y: y,
		W: clamp(b.W, 0, 1-x),
		H: clamp(b.H, 0, 1-y),
	}
}
