// Package gemini implements ai.Summarizer on top of the Google Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"atlas/internal/ai"
)

const DefaultModel = "gemini-2.5-flash"

var errNoContent = errors.New("no content generated")

// Client implements ai.Summarizer.
type Client struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

type ClientOption func(*Client)

func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client: genaiClient,
		model:  DefaultModel,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Summarize sends one request and returns the structured response. Any
// failure, including a malformed response, is reported as
// ai.ErrSummaryUnavailable. There is no retry.
func (c *Client) Summarize(ctx context.Context, req ai.Request) (ai.Response, error) {
	c.logger.Debug("generating summary", "model", c.model, "total_orders", req.TotalOrders)

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt()), responseConfig())
	if err != nil {
		c.logger.Error("summary generation failed", "model", c.model, "error", err)
		return ai.Response{}, ai.Unavailable(err)
	}

	text, err := extractText(result)
	if err != nil {
		c.logger.Error("summary generation returned no content", "model", c.model)
		return ai.Response{}, ai.Unavailable(err)
	}

	resp, err := decodeResponse(text)
	if err != nil {
		c.logger.Error("summary response did not match schema", "model", c.model, "error", err)
		return ai.Response{}, ai.Unavailable(err)
	}
	return resp, nil
}

func responseConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"summary": {
					Type:        genai.TypeString,
					Description: "A concise summary of the business performance.",
				},
			},
			Required: []string{"summary"},
		},
	}
}

func extractText(result *genai.GenerateContentResponse) (string, error) {
	if result == nil || len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", errNoContent
	}
	var sb strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return "", errNoContent
	}
	return sb.String(), nil
}

// decodeResponse parses the model output. The summary field must be present
// and non-blank.
func decodeResponse(text string) (ai.Response, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var resp ai.Response
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &resp); err != nil {
		return ai.Response{}, fmt.Errorf("decode summary: %w", err)
	}
	if strings.TrimSpace(resp.Summary) == "" {
		return ai.Response{}, errors.New("summary field missing")
	}
	return resp, nil
}
