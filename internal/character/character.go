package character

import (
	"fmt"
	"strings"
	"time"
)

// Character is a configured AI persona: a behavior prompt plus voice and
// avatar settings.
type Character struct {
	ID                string    `json:"character_id"`
	Name              string    `json:"name"`
	Description       string    `json:"description"`
	AvatarURL         string    `json:"avatar_url,omitempty"`
	PromptTemplate    string    `json:"prompt_template"`
	PersonalityTraits []string  `json:"personality_traits"`
	BackgroundStory   string    `json:"background_story,omitempty"`
	Voice             string    `json:"voice,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	IsActive          bool      `json:"is_active"`
}

// BuildPrompt produces the structured role-play system prompt for a persona.
// The sectioned layout keeps role identity, requirements, and conversation
// guidance separate, which measurably improves persona consistency.
func BuildPrompt(name, description string, traits []string, background string) string {
	parts := []string{
		"## Role identity",
		fmt.Sprintf("You are now fully playing the role of %s.", name),
		fmt.Sprintf("Role description: %s", description),
	}

	if len(traits) > 0 {
		parts = append(parts, fmt.Sprintf("Personality traits: %s", strings.Join(traits, ", ")))
	}
	if background != "" {
		parts = append(parts, fmt.Sprintf("Background story: %s", background))
	}

	parts = append(parts,
		"",
		"## Role-play requirements",
		fmt.Sprintf("1. Think and answer from %s's identity and point of view", name),
		fmt.Sprintf("2. Keep %s's personality traits and speaking style consistent", name),
		fmt.Sprintf("3. Use language that fits %s's identity", name),
		"4. Never reveal that you are an AI assistant; stay fully in character",
		fmt.Sprintf("5. Answer from %s's knowledge and experience", name),
		"",
		"## Conversation guidance",
		fmt.Sprintf("As %s, you should:", name),
		"- Listen carefully to the user's question and give a relevant, targeted answer",
		"- Respond in a way that reflects your personality and background",
		"- Keep the conversation natural and flowing",
		"- Ask for clarification when the user's question is unclear",
		"- Stay on topic and make sure the reply addresses what was actually asked",
	)

	return strings.Join(parts, "\n")
}
