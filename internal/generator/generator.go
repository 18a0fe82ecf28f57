package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sladedevelops/email-microwave/internal/config"
)

const systemPrompt = "You are a professional email writing assistant. " +
	"Generate concise, effective emails that achieve the user's goals."

const promptTemplate = `Generate a professional email with the following requirements:

Recipient: %s at %s
Desired Outcome: %s
Tone: %s

Please provide:
1. A compelling subject line
2. A well-structured email body that achieves the desired outcome
3. Use the specified tone throughout

Format the response as JSON with "subject" and "content" fields.`

// Request describes the email to generate.
type Request struct {
	RecipientName         string
	RecipientOrganization string
	DesiredOutcome        string
	Tone                  string
}

// Draft is the generated subject and body.
type Draft struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// Client calls the completion API. The base URL is configurable so
// tests can point it at a local server.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(cfg config.OpenAIConfig, log *zap.Logger) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.openai.com"
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	return &Client{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: base,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate produces a draft for the request. When the model does not
// return valid JSON the raw text becomes the body under a stock subject.
func (c *Client) Generate(ctx context.Context, req Request) (Draft, error) {
	prompt := fmt.Sprintf(promptTemplate,
		req.RecipientName, req.RecipientOrganization, req.DesiredOutcome, req.Tone)

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		return Draft{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return Draft{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Draft{}, fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.log.Error("completion API error",
			zap.Int("status", resp.StatusCode), zap.ByteString("body", body))
		return Draft{}, fmt.Errorf("completion API returned %d", resp.StatusCode)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Draft{}, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return Draft{}, fmt.Errorf("no response from completion API")
	}

	text := out.Choices[0].Message.Content
	var draft Draft
	if err := json.Unmarshal([]byte(text), &draft); err != nil || draft.Content == "" {
		// model ignored the JSON instruction; keep the text anyway
		draft = Draft{Subject: "Professional Communication", Content: text}
	}
	return draft, nil
}
