package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/derKlinke/buergeramt/pkg/chat"
)

const (
	chatGPTBaseURL = "https://api.openai.com/v1"

	DefaultChatGPTTemperature = 0.7
	DefaultChatGPTMaxTokens   = 600
)

// ChatGPTService implements LLMService for OpenAI's chat completions API
type ChatGPTService struct {
	apiKey     string
	modelName  string
	baseURL    string
	httpClient *http.Client
}

// ChatGPTRequest represents the request structure for the chat completions API
type ChatGPTRequest struct {
	Model          string                 `json:"model"`
	Messages       []chat.ChatMessage     `json:"messages"`
	Temperature    float64                `json:"temperature,omitempty"`
	MaxTokens      int                    `json:"max_tokens,omitempty"`
	ResponseFormat *ChatGPTResponseFormat `json:"response_format,omitempty"`
}

// ChatGPTResponseFormat asks the model for a JSON object
type ChatGPTResponseFormat struct {
	Type string `json:"type"`
}

// ChatGPTChoice represents a single choice in the response
type ChatGPTChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
		Refusal string `json:"refusal,omitempty"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// ChatGPTResponse represents the response structure for the chat completions API
type ChatGPTResponse struct {
	ID      string          `json:"id"`
	Model   string          `json:"model"`
	Choices []ChatGPTChoice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// NewChatGPTService creates a new ChatGPT service
func NewChatGPTService(apiKey string, modelName string) *ChatGPTService {
	return &ChatGPTService{
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   chatGPTBaseURL,
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

func (c *ChatGPTService) Name() string {
	return "openai/" + c.modelName
}

// Chat generates a chat response. Officials answer with a JSON decision, so
// the JSON response format is requested.
func (c *ChatGPTService) Chat(ctx context.Context, messages []chat.ChatMessage) (*chat.ChatResponse, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}

	request := ChatGPTRequest{
		Model:          c.modelName,
		Messages:       messages,
		Temperature:    DefaultChatGPTTemperature,
		MaxTokens:      DefaultChatGPTMaxTokens,
		ResponseFormat: &ChatGPTResponseFormat{Type: "json_object"},
	}

	reqBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var chatGPTResp ChatGPTResponse
	if err := json.Unmarshal(body, &chatGPTResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if chatGPTResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", chatGPTResp.Error.Message)
	}

	if len(chatGPTResp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from API")
	}

	choice := chatGPTResp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, fmt.Errorf("model refused to respond: %s", choice.Message.Refusal)
	}
	if choice.Message.Content == "" {
		return nil, fmt.Errorf("no text content found in response")
	}

	return &chat.ChatResponse{
		Message: choice.Message.Content,
	}, nil
}
