package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	envGeminiAPIKey    = "GOOGLE_GEMINI_API_KEY"
	envGeminiModel     = "GEMINI_MODEL"
	defaultGeminiModel = "gemini-2.0-flash"

	geminiAPIBase     = "https://generativelanguage.googleapis.com/v1beta/models"
	geminiMaxTokens   = 1200
	geminiTimeoutSecs = 90

	geminiMaxRetries     = 3
	geminiRetryBaseDelay = 500 * time.Millisecond
)

type geminiClient struct {
	apiKey string
	model  string
	http   *http.Client
	logger zerolog.Logger
}

type geminiPayload struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

func NewGeminiFromEnv() (Client, error) {
	key := strings.TrimSpace(os.Getenv(envGeminiAPIKey))
	if key == "" {
		return nil, fmt.Errorf("missing %s", envGeminiAPIKey)
	}
	model := strings.TrimSpace(os.Getenv(envGeminiModel))
	if model == "" {
		model = defaultGeminiModel
	}
	model = strings.Trim(model, "\"'")
	return &geminiClient{
		apiKey: key,
		model:  model,
		http: &http.Client{
			Timeout: geminiTimeoutSecs * time.Second,
		},
		logger: zerolog.Nop(),
	}, nil
}

func (c *geminiClient) Name() string { return c.model }

func (c *geminiClient) Generate(ctx context.Context, req Request) (Response, error) {
	if req.Prompt == "" {
		return Response{}, errors.New("empty prompt")
	}

	parts := make([]geminiPart, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{
				MIMEType: img.MIMEType,
				Data:     base64.StdEncoding.EncodeToString(img.Data),
			},
		})
	}
	parts = append(parts, geminiPart{Text: req.Prompt})

	payload := geminiPayload{
		Contents: []geminiContent{{Parts: parts}},
		GenerationConfig: geminiGenConfig{
			Temperature:     float64(req.Temperature),
			MaxOutputTokens: maxInt(req.MaxTokens, geminiMaxTokens),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, fmt.Errorf("marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", geminiAPIBase, c.model, c.apiKey)

	var lastErr error
	for attempt := 0; attempt <= geminiMaxRetries; attempt++ {
		if attempt > 0 {
			delay := geminiRetryBaseDelay * time.Duration(1<<uint(attempt-1))
			c.logger.Info().
				Int("attempt", attempt).
				Dur("delay", delay).
				Msg("retrying Gemini API call")
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		c.logger.Debug().
			Str("model", c.model).
			Int("images", len(req.Images)).
			Int("payload_size", len(body)).
			Msg("Gemini API request")

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return Response{}, fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			if attempt < geminiMaxRetries {
				continue
			}
			return Response{}, lastErr
		}

		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			if attempt < geminiMaxRetries {
				continue
			}
			return Response{}, lastErr
		}

		c.logger.Debug().
			Int("status", resp.StatusCode).
			Int("response_size", len(data)).
			Msg("Gemini API response")

		if resp.StatusCode >= 400 {
			var apiResp geminiResponse
			rawError := string(data)
			if err := json.Unmarshal(data, &apiResp); err != nil || apiResp.Error == nil {
				lastErr = fmt.Errorf("gemini %d: %s", resp.StatusCode, truncate(rawError, 500))
			} else {
				lastErr = fmt.Errorf("gemini %d: %s (status: %s)", resp.StatusCode, apiResp.Error.Message, apiResp.Error.Status)
			}

			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("raw_response", truncate(rawError, 500)).
				Int("attempt", attempt).
				Msg("Gemini API error")

			// Retry on rate limit and server errors only.
			if (resp.StatusCode == 429 || resp.StatusCode >= 500) && attempt < geminiMaxRetries {
				continue
			}
			return Response{}, lastErr
		}

		var apiResp geminiResponse
		if err := json.Unmarshal(data, &apiResp); err != nil {
			lastErr = fmt.Errorf("parse response: %w", err)
			if attempt < geminiMaxRetries {
				continue
			}
			return Response{}, lastErr
		}

		if len(apiResp.Candidates) == 0 {
			return Response{}, errors.New("no candidates in response")
		}

		var buf bytes.Buffer
		for _, part := range apiResp.Candidates[0].Content.Parts {
			buf.WriteString(part.Text)
		}
		if buf.Len() == 0 {
			return Response{}, errors.New("empty response content")
		}

		c.logger.Debug().
			Str("finish_reason", apiResp.Candidates[0].FinishReason).
			Int("response_length", buf.Len()).
			Msg("Gemini API success")

		return Response{Text: buf.String()}, nil
	}

	return Response{}, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
