// Package translate talks to an OpenAI compatible chat completion API.
package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrRateLimited maps a provider 429.
	ErrRateLimited = errors.New("translation provider rate limited")
	// ErrQuotaExhausted maps a provider 402.
	ErrQuotaExhausted = errors.New("translation provider credits exhausted")
	// ErrEmptyCompletion is returned when the provider answered with no choices.
	ErrEmptyCompletion = errors.New("translation provider returned no choices")
)

// Client sends a system and user prompt and returns the model text.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient builds a client. An empty baseURL uses the OpenAI default.
func NewClient(apiKey, baseURL, model string) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{api: openai.NewClientWithConfig(cfg), model: model}
}

// Complete runs one chat completion.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.2,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

func classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}
	switch status {
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	case http.StatusPaymentRequired:
		return fmt.Errorf("%w: %v", ErrQuotaExhausted, err)
	}
	return fmt.Errorf("chat completion: %w", err)
}
