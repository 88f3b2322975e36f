package client

import (
	"context"

	"github.com/menta2k/annotation-graph/pkg/types"
)

// VisionClient talks to a vision model backend
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt, imgB64 string) (string, error)
	DetectObjects(ctx context.Context, model, prompt, imgB64 string) (*types.DetectionResult, error)
}
