// Package ai generates natural-language commentary on alert activity
// using an LLM.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"finterm/internal/errors"
	"finterm/internal/models"
)

const digestSystemPrompt = `You are a concise financial assistant. You are given a list of
alerts produced by a personal market monitor. Summarize what happened in
2-4 short sentences, most urgent first. Do not invent data not present
in the alerts. Plain text only, no markdown.`

// Commentator turns a batch of alerts into a short plain-text digest.
type Commentator struct {
	client *openai.Client
	model  string
}

// NewCommentator creates a commentator. An empty apiKey yields a
// commentator that returns ErrNotConfigured from every call.
func NewCommentator(apiKey, model string) *Commentator {
	c := &Commentator{model: model}
	if apiKey != "" {
		c.client = openai.NewClient(apiKey)
	}
	if c.model == "" {
		c.model = openai.GPT4oMini
	}
	return c
}

// Configured reports whether an API key was provided.
func (c *Commentator) Configured() bool {
	return c.client != nil
}

// DigestAlerts summarizes the given alerts in a few sentences.
func (c *Commentator) DigestAlerts(ctx context.Context, alerts []models.Alert) (string, error) {
	if c.client == nil {
		return "", errors.ErrNotConfigured
	}
	if len(alerts) == 0 {
		return "No alerts to summarize.", nil
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: digestSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: formatAlerts(alerts)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func formatAlerts(alerts []models.Alert) string {
	var b strings.Builder
	for _, a := range alerts {
		fmt.Fprintf(&b, "[%s/%s]", a.Severity, a.Type)
		if a.Symbol != "" {
			fmt.Fprintf(&b, " %s:", a.Symbol)
		}
		fmt.Fprintf(&b, " %s (%s)\n", a.Title, a.CreatedAt.Format("02-Jan 15:04"))
	}
	return b.String()
}
