// Package ollama implements client.VisionClient on top of the Ollama chat API.
package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"github.com/pkg/errors"
)

// DefaultTimeout bounds a request whose context has no deadline.
// Vision models on CPU routinely need minutes per image.
const DefaultTimeout = 300 * time.Second

// Client wraps the Ollama API client
type Client struct {
	client *api.Client
}

// NewClient creates a new Ollama client
func NewClient(ollamaURL string) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid URL")
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, errors.Errorf("invalid URL: %q", ollamaURL)
	}

	// drop any path such as /api/chat, the SDK adds its own
	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}
	return &Client{client: api.NewClient(baseURL, http.DefaultClient)}, nil
}

// SimpleQuery asks a free-form question about an image
func (c *Client) SimpleQuery(ctx context.Context, model, prompt string, img []byte) (string, error) {
	return c.chat(ctx, &api.ChatRequest{
		Model:    model,
		Messages: imageMessage(prompt, img),
	})
}

// Locate asks the model for object locations. The answer is requested in
// JSON mode and returned unparsed.
func (c *Client) Locate(ctx context.Context, model, prompt string, img []byte) (string, error) {
	content, err := c.chat(ctx, &api.ChatRequest{
		Model:    model,
		Messages: imageMessage(prompt, img),
		Format:   json.RawMessage(`"json"`),
		Options:  modelOptions(model),
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", errors.New("empty response from ollama")
	}
	return content, nil
}

func (c *Client) chat(ctx context.Context, req *api.ChatRequest) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	streamFalse := false
	req.Stream = &streamFalse

	var content strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", errors.Wrap(err, "ollama chat error")
	}
	return content.String(), nil
}

func imageMessage(prompt string, img []byte) []api.Message {
	return []api.Message{
		{
			Role:    "user",
			Content: prompt,
			Images:  []api.ImageData{api.ImageData(img)},
		},
	}
}

// modelOptions returns sampling options tuned for known models
func modelOptions(model string) map[string]any {
	options := map[string]any{}

	modelLower := strings.ToLower(model)
	if strings.Contains(modelLower, "minicpm-v4") ||
		strings.Contains(modelLower, "minicpm-v-4") ||
		strings.Contains(modelLower, "minicpmv4") {
		options["temperature"] = 0.7
		options["top_p"] = 0.8
		options["num_ctx"] = 4096
	}
	// low temperature keeps boxes stable between runs
	if _, ok := options["temperature"]; !ok {
		options["temperature"] = 0.1
	}
	return options
}
