// Package turn runs one full conversation turn: record the user message,
// build the persona context, call the model, record the reply, and
// optionally synthesize it to audio. A turn degrades rather than fails; the
// caller always gets a speakable reply.
package turn

import (
	"context"
	"fmt"
	"log"

	"github.com/roleverse/roleverse/internal/character"
	"github.com/roleverse/roleverse/internal/conversation"
	"github.com/roleverse/roleverse/internal/llm"
	"github.com/roleverse/roleverse/internal/media"
)

const (
	ModalityText  = "text"
	ModalityAudio = "audio"
)

// apologyReply is returned in place of a model reply when the turn cannot
// complete, so the persona never goes silent.
const apologyReply = "Sorry, I ran into a problem and could not answer just now. Please try again."

// Request describes one user turn. ConversationID may be empty, in which
// case a new conversation is created for the user and character.
type Request struct {
	UserID         string
	CharacterID    string
	ConversationID string
	Text           string
	Modality       string
	Voice          string
}

// Result is what the client renders after a turn. Warning carries non-fatal
// degradation notes, e.g. a failed synthesis on an otherwise good reply.
type Result struct {
	ConversationID     string `json:"conversation_id"`
	MessageID          string `json:"message_id,omitempty"`
	ReplyText          string `json:"reply_text"`
	ReplyAudioURL      string `json:"reply_audio_url,omitempty"`
	CharacterName      string `json:"character_name,omitempty"`
	CharacterAvatarURL string `json:"character_avatar_url,omitempty"`
	Warning            string `json:"warning,omitempty"`
}

// ConversationStore is the slice of the conversation service a turn needs.
type ConversationStore interface {
	Create(ctx context.Context, userID, characterID, title string) (conversation.Conversation, error)
	Get(ctx context.Context, id string) (conversation.Conversation, error)
	AppendMessage(ctx context.Context, conversationID, role, content, msgType, audioURL string) (conversation.Message, error)
}

// CharacterDirectory resolves personas by id.
type CharacterDirectory interface {
	GetByID(ctx context.Context, id string) (character.Character, error)
}

// Synthesizer renders reply text to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice, format string) ([]byte, error)
}

// MediaStore persists synthesized audio and returns a servable URL.
type MediaStore interface {
	SaveAudio(ctx context.Context, data []byte, format string) (media.FileInfo, error)
}

type Orchestrator struct {
	conversations ConversationStore
	characters    CharacterDirectory
	model         llm.Client
	synthesizer   Synthesizer
	files         MediaStore
}

func NewOrchestrator(conversations ConversationStore, characters CharacterDirectory, model llm.Client, synthesizer Synthesizer, files MediaStore) *Orchestrator {
	return &Orchestrator{
		conversations: conversations,
		characters:    characters,
		model:         model,
		synthesizer:   synthesizer,
		files:         files,
	}
}

// Execute runs one turn. It never returns an error: any failure along the
// way produces an apology reply (or a warning for non-fatal degradation),
// so voice clients always have something to play.
func (o *Orchestrator) Execute(ctx context.Context, req Request) Result {
	char, err := o.characters.GetByID(ctx, req.CharacterID)
	if err != nil {
		log.Printf("turn: character %s lookup failed: %v", req.CharacterID, err)
		return Result{ConversationID: req.ConversationID, ReplyText: apologyReply}
	}

	conv, err := o.resolveConversation(ctx, req, char)
	if err != nil {
		log.Printf("turn: conversation resolve failed: %v", err)
		return Result{ReplyText: apologyReply, CharacterName: char.Name, CharacterAvatarURL: char.AvatarURL}
	}

	result := Result{
		ConversationID:     conv.ID,
		CharacterName:      char.Name,
		CharacterAvatarURL: char.AvatarURL,
	}

	msgType := conversation.TypeText
	if req.Modality == ModalityAudio {
		msgType = conversation.TypeAudio
	}
	if _, err := o.conversations.AppendMessage(ctx, conv.ID, conversation.RoleUser, req.Text, msgType, ""); err != nil {
		log.Printf("turn: record user message failed: %v", err)
		result.ReplyText = apologyReply
		return result
	}

	// Re-read so the context includes the message just recorded.
	conv, err = o.conversations.Get(ctx, conv.ID)
	if err != nil {
		log.Printf("turn: conversation reload failed: %v", err)
		result.ReplyText = apologyReply
		return result
	}

	reply, err := o.model.Complete(ctx, conversation.BuildContext(conv, char.PromptTemplate))
	if err != nil {
		// The apology is shown to the user but never recorded as
		// dialogue or synthesized; the failed turn leaves only the user
		// message behind.
		log.Printf("turn: completion failed for conversation %s: %v", conv.ID, err)
		result.ReplyText = fmt.Sprintf("Sorry, I cannot reply right now. Error: %v", err)
		return result
	}
	result.ReplyText = reply

	audioURL, warning := o.synthesizeReply(ctx, reply, req, char)
	result.ReplyAudioURL = audioURL
	result.Warning = warning

	msg, err := o.conversations.AppendMessage(ctx, conv.ID, conversation.RoleAssistant, reply, msgType, audioURL)
	if err != nil {
		log.Printf("turn: record assistant message failed: %v", err)
	} else {
		result.MessageID = msg.ID
	}

	return result
}

func (o *Orchestrator) resolveConversation(ctx context.Context, req Request, char character.Character) (conversation.Conversation, error) {
	if req.ConversationID != "" {
		return o.conversations.Get(ctx, req.ConversationID)
	}
	return o.conversations.Create(ctx, req.UserID, char.ID, "")
}

// synthesizeReply renders the reply to audio for audio-modality turns.
// Synthesis failure is non-fatal: the text reply stands and the caller gets
// a warning instead.
func (o *Orchestrator) synthesizeReply(ctx context.Context, reply string, req Request, char character.Character) (audioURL, warning string) {
	if req.Modality != ModalityAudio || o.synthesizer == nil || o.files == nil {
		return "", ""
	}

	voice := req.Voice
	if voice == "" {
		voice = char.Voice
	}

	data, err := o.synthesizer.Synthesize(ctx, reply, voice, "wav")
	if err != nil {
		log.Printf("turn: synthesis failed for conversation %s: %v", req.ConversationID, err)
		return "", fmt.Sprintf("voice synthesis failed: %v", err)
	}
	info, err := o.files.SaveAudio(ctx, data, "wav")
	if err != nil {
		log.Printf("turn: save synthesized audio failed: %v", err)
		return "", fmt.Sprintf("voice synthesis failed: %v", err)
	}
	return info.URL, ""
}
