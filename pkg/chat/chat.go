package chat

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // Official
	ChatRoleSystem = "system"    // Game master instructions
)

// ChatMessage represents a single chat message in the conversation.
// The shape follows the chat completion APIs and is sent to the LLM as is.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// ChatResponse is what an LLM service returns for one chat call.
type ChatResponse struct {
	Message string `json:"message,omitempty"`
}
