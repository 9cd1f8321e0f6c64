package openaicompat

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is used for the OpenAI API when no model is configured.
	DefaultModel = openai.GPT4oMini
	// LocalBaseURL is where LM Studio and similar servers listen by default.
	LocalBaseURL = "http://localhost:1234/v1"
	// OllamaBaseURL is the default Ollama endpoint.
	OllamaBaseURL = "http://localhost:11434/v1"
)

// Client talks to the OpenAI chat completions API or any server that
// implements it.
type Client struct {
	client *openai.Client
	model  string
	json   bool
}

// NewClient creates a new client. baseURL may be empty for the OpenAI API.
func NewClient(apiKey, model, baseURL string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
		json:   baseURL == "",
	}
}

// NewLocalClient creates a client for a local OpenAI-compatible server. Local
// servers ignore the API key but the client requires one.
func NewLocalClient(model, baseURL string) *Client {
	if baseURL == "" {
		baseURL = LocalBaseURL
	}
	if !strings.HasSuffix(strings.TrimRight(baseURL, "/"), "/v1") {
		baseURL = strings.TrimRight(baseURL, "/") + "/v1"
	}
	return NewClient("local", model, baseURL)
}

// Generate sends prompt as a single user message and returns the first choice.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}
	// JSON mode is only guaranteed on the OpenAI API itself
	if c.json {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no content found in response")
	}
	return resp.Choices[0].Message.Content, nil
}
