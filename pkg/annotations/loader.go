// Package annotations loads annotation timelines and tag universes from
// files or http(s) URLs.
package annotations

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/menta2k/annotation-graph/internal/logger"
	"github.com/menta2k/annotation-graph/pkg/types"
)

// Loader reads annotation documents
type Loader struct {
	client *http.Client
	logger *log.Logger
}

// NewLoader creates a loader with a 30 second download timeout. A nil
// logger discards output.
func NewLoader(l *log.Logger) *Loader {
	if l == nil {
		l = logger.Discard()
	}
	return &Loader{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: l,
	}
}

// LoadAnnotations reads annotation data from a file path or URL. Frame
// indexes are returned in ascending order regardless of document order.
func (l *Loader) LoadAnnotations(source string) (*types.AnnotationData, error) {
	raw, err := l.read(source)
	if err != nil {
		return nil, err
	}
	data, err := DecodeAnnotations(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse annotations from %s: %w", source, err)
	}
	l.logger.Debug("Loaded annotations", "source", source, "frames", data.Frames.Len(), "fps", data.FPS)
	return data, nil
}

// LoadTags reads a tag universe from a file path or URL
func (l *Loader) LoadTags(source string) (*types.TagUniverse, error) {
	raw, err := l.read(source)
	if err != nil {
		return nil, err
	}
	universe, err := DecodeTags(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse tags from %s: %w", source, err)
	}
	l.logger.Debug("Loaded tags", "source", source, "tags", universe.Len())
	return universe, nil
}

// DecodeAnnotations decodes an annotation document and sorts its frame indexes
func DecodeAnnotations(r io.Reader) (*types.AnnotationData, error) {
	var data types.AnnotationData
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, err
	}
	data.Frames = data.Frames.Sorted()
	return &data, nil
}

// ErrInvalidTags is returned when a tag document is neither an object nor a list
var ErrInvalidTags = errors.New("tags must be a JSON object or list")

// DecodeTags decodes either an object of name to id or a list of tags.
// An empty document or null yields an empty universe.
func DecodeTags(r io.Reader) (*types.TagUniverse, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)

	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
		return types.NewTagUniverse(), nil
	case raw[0] == '[':
		var tags []types.Tag
		if err := json.Unmarshal(raw, &tags); err != nil {
			return nil, err
		}
		return types.NewTagUniverse(tags...), nil
	case raw[0] == '{':
		universe := types.NewTagUniverse()
		if err := json.Unmarshal(raw, universe); err != nil {
			return nil, err
		}
		return universe, nil
	default:
		return nil, fmt.Errorf("%w, got %.20s", ErrInvalidTags, raw)
	}
}

// SaveAnnotations writes annotation data as indented JSON
func SaveAnnotations(data *types.AnnotationData, path string) error {
	return writeJSON(data, path, "annotations")
}

// SaveTags writes a tag universe as an indented JSON object of name to id
func SaveTags(universe *types.TagUniverse, path string) error {
	return writeJSON(universe, path, "tags")
}

func writeJSON(v any, path, what string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	js, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", what, err)
	}
	if err := os.WriteFile(path, js, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", what, err)
	}
	return nil
}

func (l *Loader) read(source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return l.download(source)
	}
	raw, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	return raw, nil
}

func (l *Loader) download(source string) ([]byte, error) {
	if _, err := url.Parse(source); err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequest(http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Annotation-Graph/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: HTTP %d", source, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	l.logger.Debug("Downloaded", "url", source, "bytes", len(raw))
	return raw, nil
}
