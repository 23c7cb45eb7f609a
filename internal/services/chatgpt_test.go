package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/derKlinke/buergeramt/pkg/chat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatGPTService_Chat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req ChatGPTRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)
		if assert.NotNil(t, req.ResponseFormat) {
			assert.Equal(t, "json_object", req.ResponseFormat.Type)
		}

		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"{\"intent\":\"greeting\"}"}}]}`))
	}))
	defer server.Close()

	service := NewChatGPTService("sk-test", "gpt-test")
	service.baseURL = server.URL

	resp, err := service.Chat(context.Background(), []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "Hallo"}})
	require.NoError(t, err)
	assert.Equal(t, `{"intent":"greeting"}`, resp.Message)
	assert.Equal(t, "openai/gpt-test", service.Name())
}

func TestChatGPTService_Chat_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{}`, wantErr: "status 401"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: "no choices"},
		{name: "refusal", status: http.StatusOK, body: `{"choices":[{"message":{"refusal":"nope"}}]}`, wantErr: "refused"},
		{name: "api error", status: http.StatusOK, body: `{"error":{"message":"quota"}}`, wantErr: "API error: quota"},
		{name: "empty content", status: http.StatusOK, body: `{"choices":[{"message":{"content":""}}]}`, wantErr: "no text content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			service := NewChatGPTService("sk-test", "gpt-test")
			service.baseURL = server.URL

			_, err := service.Chat(context.Background(), []chat.ChatMessage{{Role: chat.ChatRoleUser, Content: "Hallo"}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestChatGPTService_Chat_NoMessages(t *testing.T) {
	_, err := NewChatGPTService("sk-test", "gpt-test").Chat(context.Background(), nil)
	assert.Error(t, err)
}
