package speech

import (
	"context"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAI synthesizes speech through the OpenAI-compatible audio endpoint.
// A custom base URL points it at compatible providers such as DashScope.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if strings.TrimSpace(model) == "" {
		model = "cosyvoice-v1"
	}
	return &OpenAI{client: openai.NewClientWithConfig(config), model: model}
}

func (s *OpenAI) Synthesize(ctx context.Context, text, voice, format string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("synthesize: text must not be empty")
	}
	if voice == "" {
		voice = DefaultVoice
	}
	if format == "" {
		format = "wav"
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormat(format),
	})
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}
	defer func() { _ = resp.Close() }()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read synthesized audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("speech synthesis: empty audio response")
	}
	return audio, nil
}
