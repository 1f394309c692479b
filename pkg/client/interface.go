// Package client defines the vision model backend used for pre-labelling.
package client

import "context"

// VisionClient sends an image and a prompt to a vision model and returns the
// raw text of its answer. img holds encoded image bytes (JPEG or PNG).
type VisionClient interface {
	SimpleQuery(ctx context.Context, model, prompt string, img []byte) (string, error)
	Locate(ctx context.Context, model, prompt string, img []byte) (string, error)
}
