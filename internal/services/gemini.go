package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/derKlinke/buergeramt/pkg/chat"
	genai "google.golang.org/genai"
)

// GeminiService implements LLMService on top of the official genai client.
type GeminiService struct {
	cli   *genai.Client
	model string
}

func NewGeminiService(ctx context.Context, apiKey, model string) (*GeminiService, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiService{cli: cli, model: model}, nil
}

func (g *GeminiService) Name() string { return "gemini/" + g.model }

// Chat asks for application/json, since officials answer with a decision
// object.
func (g *GeminiService) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	system, contents := toGeminiContents(messages)
	if len(contents) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}

	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}

	resp, err := g.cli.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no candidates returned from API")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("no text content found in response")
	}

	return &chat.ChatResponse{Message: sb.String()}, nil
}

// toGeminiContents joins system messages into one instruction and maps the
// remaining roles to Gemini's "user" and "model".
func toGeminiContents(messages []chat.ChatMessage) (string, []*genai.Content) {
	var systemParts []string
	var contents []*genai.Content

	for _, msg := range messages {
		switch msg.Role {
		case chat.ChatRoleSystem:
			systemParts = append(systemParts, msg.Content)
		case chat.ChatRoleAgent:
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: msg.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: msg.Content}}})
		}
	}

	return strings.Join(systemParts, "\n\n"), contents
}
