package conversation

import "time"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

const (
	TypeText  = "text"
	TypeAudio = "audio"
)

type Message struct {
	ID             string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Type           string    `json:"message_type"`
	AudioURL       string    `json:"audio_url,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

type Conversation struct {
	ID          string    `json:"conversation_id"`
	UserID      string    `json:"user_id"`
	CharacterID string    `json:"character_id"`
	Title       string    `json:"title"`
	Messages    []Message `json:"messages"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	IsActive    bool      `json:"is_active"`
}

// Summary is the list-view projection of a conversation.
type Summary struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	CharacterID    string    `json:"character_id"`
	CharacterName  string    `json:"character_name"`
	Title          string    `json:"title"`
	LastMessage    string    `json:"last_message,omitempty"`
	MessageCount   int       `json:"message_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
