// internal/common/gemini/client.go
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"brandscore-workers/internal/common/logger"
)

const maxGroundingSources = 5

type Config struct {
	APIKey      string
	Model       string
	Temperature float64
}

// GroundedResponse carries the model's text plus the source URLs its
// search grounding used, capped at maxGroundingSources.
type GroundedResponse struct {
	Text    string
	Sources []string
}

// Client wraps the Gemini API with web-search grounding enabled.
type Client struct {
	genaiClient *genai.Client
	model       string
	temperature float32
	logger      logger.Logger
}

func NewClient(ctx context.Context, config Config, log logger.Logger) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if config.Model == "" {
		config.Model = "gemini-2.5-flash"
	}
	if config.Temperature <= 0 {
		config.Temperature = 0.4
	}

	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{
		genaiClient: genaiClient,
		model:       config.Model,
		temperature: float32(config.Temperature),
		logger:      log,
	}, nil
}

// GenerateGrounded runs a single blocking generation with the Google
// Search tool enabled and returns the raw text plus grounding sources.
func (c *Client) GenerateGrounded(ctx context.Context, prompt string) (*GroundedResponse, error) {
	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temperature),
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini returned an empty response")
	}

	return &GroundedResponse{
		Text:    text,
		Sources: extractSources(resp),
	}, nil
}

func extractSources(resp *genai.GenerateContentResponse) []string {
	var sources []string
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return sources
	}
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		sources = append(sources, chunk.Web.URI)
		if len(sources) == maxGroundingSources {
			break
		}
	}
	return sources
}
