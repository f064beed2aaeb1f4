package conversation

import "github.com/roleverse/roleverse/internal/llm"

// contextWindow bounds how many recent turns are replayed to the model.
// Older turns are dropped without summarization.
const contextWindow = 20

// behaviorRules is appended to every persona prompt so replies stay in
// character and on topic regardless of which persona is active.
const behaviorRules = `

Important rules of behavior:
1. Stay strictly in character and never reveal that you are an AI assistant
2. Read the preceding conversation carefully and keep replies relevant to it
3. Answer the user's actual question; do not go off on tangents
4. Keep the persona's speaking style and personality consistent
5. Ask for clarification when the user's question is unclear
6. Reply naturally and fluently, within the persona's knowledge and experience`

// BuildContext produces the bounded message window sent to the
// chat-completion service: the persona system prompt followed by the most
// recent user/assistant turns in delivery order.
func BuildContext(conv Conversation, promptTemplate string) []llm.Message {
	messages := []llm.Message{{Role: RoleSystem, Content: promptTemplate + behaviorRules}}

	recent := conv.Messages
	if len(recent) > contextWindow {
		recent = recent[len(recent)-contextWindow:]
	}

	for _, msg := range recent {
		switch msg.Role {
		case RoleUser, RoleAssistant:
			messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
		}
	}

	return messages
}
