// Package processing loads frame images, prepares them for vision models
// and writes images back to disk.
package processing

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/annotation-graph/pkg/types"
)

// FrameImage is an extracted video frame on disk
type FrameImage struct {
	Index int
	Path  string
}

var frameNumber = regexp.MustCompile(`(\d+)\D*$`)

var imageExts = []string{"jpg", "jpeg", "png", "webp"}

// Processor loads, prepares and writes frame images
type Processor struct {
	client *http.Client
}

// NewProcessor creates a Processor with a 30 second download timeout
func NewProcessor() *Processor {
	return &Processor{client: &http.Client{Timeout: 30 * time.Second}}
}

// ListFrameImages returns the images in dir ordered by the frame number at
// the end of their file name (frame_0042.jpg is frame 42). Files without a
// number are skipped.
func (p *Processor) ListFrameImages(dir string) ([]FrameImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}

	var out []FrameImage
	seen := map[int]string{}
	for _, e := range entries {
		if e.IsDir() || !isImageFile(e.Name()) {
			continue
		}
		base := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		m := frameNumber.FindStringSubmatch(base)
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if prev, dup := seen[index]; dup {
			return nil, fmt.Errorf("frame %d appears twice: %s and %s", index, prev, e.Name())
		}
		seen[index] = e.Name()
		out = append(out, FrameImage{Index: index, Path: filepath.Join(dir, e.Name())})
	}

	slices.SortFunc(out, func(a, b FrameImage) int { return a.Index - b.Index })
	return out, nil
}

// LoadImageSmart dispatches to LoadImageFromURL for http(s) sources and LoadImage otherwise
func (p *Processor) LoadImageSmart(source string) (image.Image, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return p.LoadImageFromURL(source)
	}
	return p.LoadImage(source)
}

// LoadImage reads a jpg, png or webp file
func (p *Processor) LoadImage(path string) (image.Image, error) {
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	img, err := decodeImage(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// LoadImageFromURL downloads and decodes an image
func (p *Processor) LoadImageFromURL(imageURL string) (image.Image, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported URL scheme: %s", parsedURL.Scheme)
	}

	req, err := http.NewRequest(http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Annotation-Graph/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", ct)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	return decodeImage(raw)
}

// PrepareImageForModel downsizes img so its long side is at most maxDim
// (0 keeps the original size) and returns it base64 encoded.
func (p *Processor) PrepareImageForModel(img image.Image, format string, maxDim int, quality int) (string, error) {
	if maxDim > 0 {
		b := img.Bounds()
		if b.Dx() > maxDim || b.Dy() > maxDim {
			if b.Dx() >= b.Dy() {
				img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
			} else {
				img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
			}
		}
	}

	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return "", err
		}
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return "", err
		}
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// SaveImage writes img as webp, png or jpg (the default). The encoder follows
// format, not the extension of path.
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	switch strings.ToLower(format) {
	case "webp":
		err = webp.Encode(f, img, &webp.Options{Lossless: lossless, Quality: float32(quality)})
	case "png":
		err = imaging.Encode(f, img, imaging.PNG)
	default:
		err = imaging.Encode(f, img, imaging.JPEG, imaging.JPEGQuality(quality))
	}
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}

// CreateDebugOverlay outlines every detection on a copy of img, one color
// per tag name.
func (p *Processor) CreateDebugOverlay(img image.Image, frames []types.Frame) image.Image {
	canvas := imaging.Clone(img)
	b := canvas.Bounds()
	stroke := max(2, min(b.Dx(), b.Dy())/250)

	colors := map[string]color.NRGBA{}
	for _, f := range frames {
		c, ok := colors[f.Tag.Name]
		if !ok {
			c = overlayPalette[len(colors)%len(overlayPalette)]
			colors[f.Tag.Name] = c
		}
		outline(canvas, boxRect(f.Box, b), stroke, c)
	}
	return canvas
}

var overlayPalette = []color.NRGBA{
	{0, 255, 0, 255},
	{255, 204, 0, 255},
	{255, 0, 0, 255},
	{255, 0, 255, 255},
	{0, 255, 255, 255},
}

func decodeImage(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}

func isImageFile(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	return slices.Contains(imageExts, ext)
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// boxRect converts a normalized box to pixels. The result is at least one
// pixel wide and tall.
func boxRect(box types.Box, bounds image.Rectangle) image.Rectangle {
	scale := func(v float64, size int) int {
		return int(math.Round(clamp(v, 0, 1) * float64(size)))
	}
	r := image.Rect(
		scale(box.X, bounds.Dx()), scale(box.Y, bounds.Dy()),
		scale(box.X+box.W, bounds.Dx()), scale(box.Y+box.H, bounds.Dy()),
	)
	if r.Dx() == 0 {
		r.Max.X++
	}
	if r.Dy() == 0 {
		r.Max.Y++
	}
	return r.Add(bounds.Min)
}

// outline draws the four edges of r, stroke pixels thick, inside r
func outline(dst *image.NRGBA, r image.Rectangle, stroke int, c color.NRGBA) {
	src := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+stroke),
		image.Rect(r.Min.X, r.Max.Y-stroke, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+stroke, r.Max.Y),
		image.Rect(r.Max.X-stroke, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(r), src, image.Point{}, draw.Src)
	}
}
