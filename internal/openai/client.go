// Package openai is a minimal HTTP client for the two OpenAI capabilities
// this service uses: speech-to-text and short text generation.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// ClientConfig configures the API client.
type ClientConfig struct {
	APIKey          string
	TranscribeModel string // e.g. whisper-1
	TitleModel      string // e.g. gpt-4.1-mini
	BaseURL         string // override for tests
	HTTPClient      *http.Client
}

// Client calls the OpenAI HTTP API.
type Client struct {
	cfg   ClientConfig
	httpc *http.Client
}

// NewClient creates an API client. APIKey must be non-empty.
func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Client{cfg: cfg, httpc: httpc}
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

type responsesRequest struct {
	Model           string  `json:"model"`
	Input           string  `json:"input"`
	MaxOutputTokens int     `json:"max_output_tokens,omitempty"`
	Temperature     float64 `json:"temperature"`
}

type responsesResponse struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// Transcribe submits audio bytes to the speech-to-text endpoint and returns
// the transcript text. Empty text is a valid result.
func (c *Client) Transcribe(ctx context.Context, filename string, audio []byte, language string) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := form.WriteField("model", c.cfg.TranscribeModel); err != nil {
		return "", fmt.Errorf("write model field: %w", err)
	}
	if language != "" {
		if err := form.WriteField("language", language); err != nil {
			return "", fmt.Errorf("write language field: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.decodeError(resp, "transcription")
	}
	var out transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}
	return out.Text, nil
}

// GenerateTitle asks the title model for a short completion of the prompt,
// bounded by maxTokens.
func (c *Client) GenerateTitle(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	payload, err := json.Marshal(responsesRequest{
		Model:           c.cfg.TitleModel,
		Input:           prompt,
		MaxOutputTokens: maxTokens,
		Temperature:     temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/responses", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("title request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", c.decodeError(resp, "title generation")
	}
	var out responsesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode title response: %w", err)
	}
	if out.OutputText != "" {
		return out.OutputText, nil
	}
	for _, item := range out.Output {
		for _, content := range item.Content {
			if content.Type == "output_text" && content.Text != "" {
				return content.Text, nil
			}
		}
	}
	return "", nil
}

func (c *Client) decodeError(resp *http.Response, op string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr apiError
	if err := json.Unmarshal(raw, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("%s: %s (status %d)", op, apiErr.Error.Message, resp.StatusCode)
	}
	return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
}
