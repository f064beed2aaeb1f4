package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roleverse/roleverse/internal/character"
	"github.com/roleverse/roleverse/internal/store"
)

// ErrNotFound is returned when a conversation does not exist.
var ErrNotFound = errors.New("conversation not found")

// CharacterDirectory resolves persona records for validation and summaries.
type CharacterDirectory interface {
	GetByID(ctx context.Context, id string) (character.Character, error)
}

type Service struct {
	store      store.Store
	characters CharacterDirectory
	now        func() time.Time
}

func NewService(st store.Store, characters CharacterDirectory) *Service {
	return &Service{store: st, characters: characters, now: time.Now}
}

// Create starts a new conversation between a user and a persona. The persona
// must exist.
func (s *Service) Create(ctx context.Context, userID, characterID, title string) (Conversation, error) {
	c, err := s.characters.GetByID(ctx, characterID)
	if err != nil {
		return Conversation{}, fmt.Errorf("resolve character: %w", err)
	}

	if title == "" {
		title = fmt.Sprintf("Conversation with %s", c.Name)
	}

	now := s.now().UTC()
	conv := Conversation{
		ID:          uuid.NewString(),
		UserID:      userID,
		CharacterID: characterID,
		Title:       title,
		Messages:    []Message{},
		CreatedAt:   now,
		UpdatedAt:   now,
		IsActive:    true,
	}

	if err := s.save(ctx, conv); err != nil {
		return Conversation{}, err
	}
	if err := s.store.Append(ctx, "user_conversations:"+userID, conv.ID); err != nil {
		return Conversation{}, fmt.Errorf("index conversation for user: %w", err)
	}
	if err := s.store.Append(ctx, "character_conversations:"+characterID, conv.ID); err != nil {
		return Conversation{}, fmt.Errorf("index conversation for character: %w", err)
	}

	return conv, nil
}

func (s *Service) Get(ctx context.Context, id string) (Conversation, error) {
	data, ok, err := s.store.Get(ctx, "conversation:"+id)
	if err != nil {
		return Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	if !ok {
		return Conversation{}, ErrNotFound
	}

	var conv Conversation
	if err := json.Unmarshal([]byte(data), &conv); err != nil {
		return Conversation{}, fmt.Errorf("decode conversation %s: %w", id, err)
	}
	return conv, nil
}

// AppendMessage records one turn and bumps the conversation's updated_at.
// Turns for one conversation are assumed to be serialized by the caller;
// concurrent appends resolve last-write-wins.
func (s *Service) AppendMessage(ctx context.Context, conversationID, role, content, msgType, audioURL string) (Message, error) {
	conv, err := s.Get(ctx, conversationID)
	if err != nil {
		return Message{}, err
	}

	msg := Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Type:           msgType,
		AudioURL:       audioURL,
		Timestamp:      s.now().UTC(),
	}

	conv.Messages = append(conv.Messages, msg)
	conv.UpdatedAt = msg.Timestamp

	if err := s.save(ctx, conv); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// ListByUser returns conversation summaries, most recently created first.
func (s *Service) ListByUser(ctx context.Context, userID string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 20
	}

	ids, err := s.store.Range(ctx, "user_conversations:"+userID, 0, int64(limit-1))
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	summaries := make([]Summary, 0, len(ids))
	for _, id := range ids {
		conv, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		characterName := "unknown"
		if c, err := s.characters.GetByID(ctx, conv.CharacterID); err == nil {
			characterName = c.Name
		}

		lastMessage := ""
		if n := len(conv.Messages); n > 0 {
			lastMessage = preview(conv.Messages[n-1].Content, 50)
		}

		summaries = append(summaries, Summary{
			ConversationID: conv.ID,
			UserID:         conv.UserID,
			CharacterID:    conv.CharacterID,
			CharacterName:  characterName,
			Title:          conv.Title,
			LastMessage:    lastMessage,
			MessageCount:   len(conv.Messages),
			CreatedAt:      conv.CreatedAt,
			UpdatedAt:      conv.UpdatedAt,
		})
	}
	return summaries, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	conv, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, "conversation:"+id); err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}

	s.removeFromList(ctx, "user_conversations:"+conv.UserID, id)
	s.removeFromList(ctx, "character_conversations:"+conv.CharacterID, id)
	return nil
}

func (s *Service) UpdateTitle(ctx context.Context, id, title string) error {
	conv, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	conv.Title = title
	conv.UpdatedAt = s.now().UTC()
	return s.save(ctx, conv)
}

func (s *Service) save(ctx context.Context, conv Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}
	if err := s.store.Set(ctx, "conversation:"+conv.ID, string(data), 0); err != nil {
		return fmt.Errorf("save conversation: %w", err)
	}
	return nil
}

// removeFromList rewrites a membership list without one element. The store
// has no list-remove primitive, so the list is rebuilt; a concurrent append
// during the rebuild can be lost, which is acceptable for these indexes.
func (s *Service) removeFromList(ctx context.Context, key, id string) {
	items, err := s.store.Range(ctx, key, 0, -1)
	if err != nil {
		return
	}

	found := false
	for _, item := range items {
		if item == id {
			found = true
			break
		}
	}
	if !found {
		return
	}

	_ = s.store.Delete(ctx, key)
	for i := len(items) - 1; i >= 0; i-- {
		if items[i] != id {
			_ = s.store.Append(ctx, key, items[i])
		}
	}
}

func preview(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}
