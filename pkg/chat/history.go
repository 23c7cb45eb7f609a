package chat

// DefaultHistoryLimit is the number of recent messages kept per official.
const DefaultHistoryLimit = 6

// History is a bounded window of the most recent messages of a
// conversation. Older messages are dropped.
type History struct {
	limit    int
	messages []ChatMessage
}

// NewHistory creates a history keeping at most limit messages. A limit
// below one uses DefaultHistoryLimit.
func NewHistory(limit int) *History {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Add appends a message, dropping the oldest beyond the limit.
func (h *History) Add(role, content string) {
	h.messages = append(h.messages, ChatMessage{Role: role, Content: content})
	if over := len(h.messages) - h.limit; over > 0 {
		h.messages = append(h.messages[:0:0], h.messages[over:]...)
	}
}

// Messages returns a copy of the window, oldest first.
func (h *History) Messages() []ChatMessage {
	out := make([]ChatMessage, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of stored messages.
func (h *History) Len() int {
	return len(h.messages)
}

// Clear drops all messages.
func (h *History) Clear() {
	h.messages = nil
}
