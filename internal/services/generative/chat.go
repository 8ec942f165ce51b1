package generative

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const jsonResponseType = "json_object"

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ChatJSON issues a JSON-only chat completion request with the supplied
// prompts and returns the raw JSON payload produced by the model.
func (c *Client) ChatJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	userPrompt = strings.TrimSpace(userPrompt)
	if systemPrompt == "" {
		return "", errors.New("chat completion: system prompt required")
	}
	if userPrompt == "" {
		return "", errors.New("chat completion: user prompt required")
	}

	payload := chatCompletionRequest{
		Model: c.cfg.ChatModel,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    0,
		ResponseFormat: map[string]string{"type": jsonResponseType},
	}

	var content string
	err := c.withRetry(ctx, "chat completion", func() error {
		var completion chatCompletionResponse
		if err := c.postJSON(ctx, "/chat/completions", payload, &completion); err != nil {
			return err
		}
		if completion.Error != nil {
			return fmt.Errorf("chat completion: api error: %s", strings.TrimSpace(completion.Error.Message))
		}
		if len(completion.Choices) == 0 {
			return errors.New("chat completion: empty choices")
		}
		content = strings.TrimSpace(completion.Choices[0].Message.Content)
		if content == "" {
			return fmt.Errorf("chat completion: empty content (finish_reason=%q)", completion.Choices[0].FinishReason)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return content, nil
}

// HealthCheck issues a fast ping to verify the API key and chat model are usable.
func (c *Client) HealthCheck(ctx context.Context) error {
	content, err := c.ChatJSON(ctx, "You must respond with JSON only.", `Respond with {"ok":true}`)
	if err != nil {
		return err
	}
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeModelJSON(content, &parsed); err != nil {
		return fmt.Errorf("backend health: parse payload: %w", err)
	}
	if !parsed.OK {
		return errors.New("backend health: unexpected response")
	}
	return nil
}
