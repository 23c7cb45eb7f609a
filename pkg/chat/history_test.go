package chat

import (
	"fmt"
	"testing"
)

func TestHistory_Window(t *testing.T) {
	h := NewHistory(3)
	for i := range 5 {
		h.Add(ChatRoleUser, fmt.Sprintf("msg %d", i))
	}

	if h.Len() != 3 {
		t.Fatalf("Expected 3 messages, got %d", h.Len())
	}
	msgs := h.Messages()
	if msgs[0].Content != "msg 2" || msgs[2].Content != "msg 4" {
		t.Errorf("Expected window msg 2..msg 4, got %v", msgs)
	}
}

func TestHistory_MessagesIsCopy(t *testing.T) {
	h := NewHistory(2)
	h.Add(ChatRoleUser, "Guten Tag")

	msgs := h.Messages()
	msgs[0].Content = "changed"

	if h.Messages()[0].Content != "Guten Tag" {
		t.Error("Messages must return a copy")
	}
}

func TestHistory_DefaultsAndClear(t *testing.T) {
	h := NewHistory(0)
	if h.limit != DefaultHistoryLimit {
		t.Errorf("Expected default limit %d, got %d", DefaultHistoryLimit, h.limit)
	}

	h.Add(ChatRoleAgent, "Nächster!")
	h.Clear()
	if h.Len() != 0 {
		t.Errorf("Expected empty history after Clear, got %d", h.Len())
	}
}
