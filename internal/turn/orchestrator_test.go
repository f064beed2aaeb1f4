package turn

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/roleverse/roleverse/internal/character"
	"github.com/roleverse/roleverse/internal/conversation"
	"github.com/roleverse/roleverse/internal/llm"
	"github.com/roleverse/roleverse/internal/media"
	"github.com/roleverse/roleverse/internal/store"
)

type directoryMock struct {
	char character.Character
	err  error
}

func (d *directoryMock) GetByID(context.Context, string) (character.Character, error) {
	return d.char, d.err
}

type modelMock struct {
	reply   string
	err     error
	lastCtx []llm.Message
	calls   int
}

func (m *modelMock) Complete(_ context.Context, messages []llm.Message) (string, error) {
	m.calls++
	m.lastCtx = messages
	return m.reply, m.err
}

type synthMock struct {
	audio []byte
	err   error
	voice string
	calls int
}

func (s *synthMock) Synthesize(_ context.Context, _, voice, _ string) ([]byte, error) {
	s.calls++
	s.voice = voice
	return s.audio, s.err
}

type filesMock struct {
	err   error
	saved []byte
}

func (f *filesMock) SaveAudio(_ context.Context, data []byte, format string) (media.FileInfo, error) {
	if f.err != nil {
		return media.FileInfo{}, f.err
	}
	f.saved = data
	return media.FileInfo{ID: "file-1", URL: "/static/uploads/audio/file-1." + format, Format: format}, nil
}

func newFixture(t *testing.T) (*Orchestrator, *conversation.Service, *modelMock, *synthMock, *filesMock) {
	t.Helper()
	char := character.Character{
		ID:             "char-1",
		Name:           "Sage",
		Voice:          "longxiaochun",
		AvatarURL:      "http://img/sage.png",
		PromptTemplate: "You are Sage.",
		IsActive:       true,
	}
	directory := &directoryMock{char: char}
	conversations := conversation.NewService(store.NewMemory(), convDirectory{char: char})
	model := &modelMock{reply: "Greetings, traveler."}
	synth := &synthMock{audio: []byte("RIFFaudio")}
	files := &filesMock{}
	o := NewOrchestrator(conversations, directory, model, synth, files)
	return o, conversations, model, synth, files
}

// convDirectory satisfies the conversation service's own directory
// dependency.
type convDirectory struct {
	char character.Character
}

func (d convDirectory) GetByID(context.Context, string) (character.Character, error) {
	return d.char, nil
}

func TestExecute_TextTurn(t *testing.T) {
	o, conversations, model, _, _ := newFixture(t)
	ctx := context.Background()

	result := o.Execute(ctx, Request{UserID: "user-1", CharacterID: "char-1", Text: "Hello there", Modality: ModalityText})
	if result.ReplyText != "Greetings, traveler." {
		t.Fatalf("unexpected reply %q", result.ReplyText)
	}
	if result.ConversationID == "" {
		t.Fatal("expected a conversation to be created")
	}
	if result.ReplyAudioURL != "" {
		t.Fatalf("text turn should not synthesize audio, got %q", result.ReplyAudioURL)
	}
	if result.CharacterName != "Sage" || result.CharacterAvatarURL != "http://img/sage.png" {
		t.Fatalf("unexpected character fields: %+v", result)
	}

	conv, err := conversations.Get(ctx, result.ConversationID)
	if err != nil {
		t.Fatalf("Get conversation: %v", err)
	}
	if len(conv.Messages) != 2 {
		t.Fatalf("expected user and assistant messages, got %d", len(conv.Messages))
	}
	if conv.Messages[0].Role != conversation.RoleUser || conv.Messages[0].Content != "Hello there" {
		t.Fatalf("unexpected first message %+v", conv.Messages[0])
	}
	if conv.Messages[1].Role != conversation.RoleAssistant || conv.Messages[1].ID != result.MessageID {
		t.Fatalf("unexpected second message %+v", conv.Messages[1])
	}

	if len(model.lastCtx) == 0 || model.lastCtx[0].Role != "system" {
		t.Fatal("expected system prompt at head of model context")
	}
	last := model.lastCtx[len(model.lastCtx)-1]
	if last.Role != "user" || last.Content != "Hello there" {
		t.Fatalf("expected user message at tail of context, got %+v", last)
	}
}

func TestExecute_AudioTurnSynthesizes(t *testing.T) {
	o, conversations, _, synth, files := newFixture(t)
	ctx := context.Background()

	result := o.Execute(ctx, Request{UserID: "user-1", CharacterID: "char-1", Text: "Tell me a story", Modality: ModalityAudio})
	if result.ReplyAudioURL != "/static/uploads/audio/file-1.wav" {
		t.Fatalf("unexpected audio url %q", result.ReplyAudioURL)
	}
	if result.Warning != "" {
		t.Fatalf("unexpected warning %q", result.Warning)
	}
	if synth.voice != "longxiaochun" {
		t.Fatalf("expected character voice, got %q", synth.voice)
	}
	if string(files.saved) != "RIFFaudio" {
		t.Fatalf("unexpected saved audio %q", files.saved)
	}

	conv, err := conversations.Get(ctx, result.ConversationID)
	if err != nil {
		t.Fatalf("Get conversation: %v", err)
	}
	if conv.Messages[1].AudioURL != result.ReplyAudioURL {
		t.Fatalf("assistant message missing audio url: %+v", conv.Messages[1])
	}
}

func TestExecute_RequestVoiceOverridesCharacter(t *testing.T) {
	o, _, _, synth, _ := newFixture(t)
	o.Execute(context.Background(), Request{UserID: "u", CharacterID: "char-1", Text: "hi", Modality: ModalityAudio, Voice: "longwan"})
	if synth.voice != "longwan" {
		t.Fatalf("expected request voice, got %q", synth.voice)
	}
}

func TestExecute_SynthesisFailureIsWarning(t *testing.T) {
	o, _, _, synth, _ := newFixture(t)
	synth.err = fmt.Errorf("tts down")

	result := o.Execute(context.Background(), Request{UserID: "u", CharacterID: "char-1", Text: "hi", Modality: ModalityAudio})
	if result.ReplyText != "Greetings, traveler." {
		t.Fatalf("reply text should survive synthesis failure, got %q", result.ReplyText)
	}
	if result.ReplyAudioURL != "" {
		t.Fatalf("expected no audio url, got %q", result.ReplyAudioURL)
	}
	if !strings.Contains(result.Warning, "tts down") {
		t.Fatalf("warning should carry the synthesis error, got %q", result.Warning)
	}
}

func TestExecute_CompletionFailureApologizes(t *testing.T) {
	o, conversations, model, synth, _ := newFixture(t)
	model.err = fmt.Errorf("model overloaded")

	result := o.Execute(context.Background(), Request{UserID: "u", CharacterID: "char-1", Text: "hi", Modality: ModalityAudio})
	if !strings.Contains(result.ReplyText, "Sorry") {
		t.Fatalf("expected apology reply, got %q", result.ReplyText)
	}
	if !strings.Contains(result.ReplyText, "model overloaded") {
		t.Fatalf("apology should carry the completion error, got %q", result.ReplyText)
	}
	if result.MessageID != "" {
		t.Fatalf("failed turn should not produce a message id, got %q", result.MessageID)
	}
	if synth.calls != 0 {
		t.Fatalf("apology must not be synthesized, got %d synthesis calls", synth.calls)
	}

	conv, err := conversations.Get(context.Background(), result.ConversationID)
	if err != nil {
		t.Fatalf("Get conversation: %v", err)
	}
	if len(conv.Messages) != 1 {
		t.Fatalf("only the user message should be recorded, got %d messages", len(conv.Messages))
	}
	if conv.Messages[0].Role != conversation.RoleUser {
		t.Fatalf("unexpected recorded message %+v", conv.Messages[0])
	}
}

func TestExecute_UnknownCharacterApologizes(t *testing.T) {
	o, _, _, _, _ := newFixture(t)
	o.characters = &directoryMock{err: character.ErrNotFound}

	result := o.Execute(context.Background(), Request{UserID: "u", CharacterID: "missing", Text: "hi"})
	if !strings.Contains(result.ReplyText, "Sorry") {
		t.Fatalf("expected apology reply, got %q", result.ReplyText)
	}
}

func TestExecute_ReusesExistingConversation(t *testing.T) {
	o, _, _, _, _ := newFixture(t)
	ctx := context.Background()

	first := o.Execute(ctx, Request{UserID: "u", CharacterID: "char-1", Text: "first", Modality: ModalityText})
	second := o.Execute(ctx, Request{UserID: "u", CharacterID: "char-1", ConversationID: first.ConversationID, Text: "second", Modality: ModalityText})
	if second.ConversationID != first.ConversationID {
		t.Fatalf("expected reuse of conversation %s, got %s", first.ConversationID, second.ConversationID)
	}
}

func TestExecute_UnknownConversationApologizes(t *testing.T) {
	o, _, model, _, _ := newFixture(t)

	result := o.Execute(context.Background(), Request{UserID: "u", CharacterID: "char-1", ConversationID: "missing", Text: "hi"})
	if !strings.Contains(result.ReplyText, "Sorry") {
		t.Fatalf("expected apology reply, got %q", result.ReplyText)
	}
	if model.calls != 0 {
		t.Fatalf("model should not be called, got %d calls", model.calls)
	}
}
