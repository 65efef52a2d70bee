// Package genai is a thin adapter over a Gemini-style generateContent
// endpoint. It returns raw model text; parsing and repair live in the
// digest package.
package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/homepulse/homepulse/internal/model"
)

// Generator produces raw text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config holds the generation parameters.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// Client calls the generateContent endpoint. No retries; a failure
// surfaces immediately to the caller.
type Client struct {
	client *resty.Client
	cfg    Config
	log    zerolog.Logger
}

// NewClient builds a generation client.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Content-Type", "application/json")
	return &Client{client: c, cfg: cfg, log: log}
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	TopP             float64 `json:"topP"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	ModelVersion string `json:"modelVersion"`
}

// Generate sends the prompt and returns the first candidate's text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", fmt.Errorf("generation api key not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	reqBody := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      c.cfg.Temperature,
			MaxOutputTokens:  c.cfg.MaxTokens,
			TopP:             0.9,
			ResponseMimeType: "application/json",
		},
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("key", c.cfg.APIKey).
		SetBody(&reqBody).
		Post(fmt.Sprintf("/v1beta/models/%s:generateContent", c.cfg.Model))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &model.GenerationTimeoutError{Timeout: c.cfg.Timeout}
		}
		return "", fmt.Errorf("generation request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", &model.GenerationError{Status: resp.StatusCode(), Body: resp.String()}
	}

	var gr generateResponse
	if err := json.Unmarshal(resp.Body(), &gr); err != nil {
		return "", fmt.Errorf("decode generation response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 ||
		gr.Candidates[0].Content.Parts[0].Text == "" {
		return "", fmt.Errorf("no content generated")
	}

	text := gr.Candidates[0].Content.Parts[0].Text
	c.log.Info().
		Int("chars", len(text)).
		Str("model", gr.ModelVersion).
		Msg("generation complete")
	return text, nil
}
