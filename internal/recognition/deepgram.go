package recognition

import (
	"context"
	"fmt"
	"io"
	"log"

	api "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"
)

// Deepgram opens live transcription streams against the Deepgram websocket
// API. An empty api key falls back to the DEEPGRAM_API_KEY environment
// variable, which the SDK reads itself.
type Deepgram struct {
	apiKey   string
	model    string
	language string
}

func NewDeepgram(apiKey, model, language string) *Deepgram {
	if model == "" {
		model = "nova-2"
	}
	if language == "" {
		language = "en-US"
	}
	return &Deepgram{apiKey: apiKey, model: model, language: language}
}

// Open implements Opener.
func (d *Deepgram) Open(ctx context.Context, opts StreamOptions, handler StreamHandler) (Stream, error) {
	encoding := opts.Encoding
	if encoding == "" {
		encoding = "linear16"
	}
	sampleRate := opts.SampleRate
	if sampleRate <= 0 {
		sampleRate = 16000
	}

	cOptions := &interfaces.ClientOptions{EnableKeepAlive: true}
	tOptions := &interfaces.LiveTranscriptionOptions{
		Model:       d.model,
		Language:    d.language,
		Punctuate:   true,
		SmartFormat: true,
		Encoding:    encoding,
		SampleRate:  sampleRate,
		Channels:    1,
	}

	dgClient, err := client.NewWSUsingCallback(ctx, d.apiKey, cOptions, tOptions, deepgramCallback{handler: handler})
	if err != nil {
		return nil, fmt.Errorf("create deepgram client: %w", err)
	}
	if ok := dgClient.Connect(); !ok {
		return nil, fmt.Errorf("deepgram connect failed")
	}

	return &deepgramStream{writer: dgClient, stop: dgClient.Stop}, nil
}

// deepgramStream adapts the SDK client to the Stream interface. Stop and
// Close share the SDK shutdown, which is safe to invoke more than once.
type deepgramStream struct {
	writer io.Writer
	stop   func()
}

func (s *deepgramStream) SendFrame(frame []byte) error {
	if _, err := s.writer.Write(frame); err != nil {
		return fmt.Errorf("send audio frame: %w", err)
	}
	return nil
}

func (s *deepgramStream) Stop() { s.stop() }

func (s *deepgramStream) Close() { s.stop() }

// deepgramCallback translates SDK callbacks into stream handler events.
type deepgramCallback struct {
	handler StreamHandler
}

func (c deepgramCallback) Message(mr *api.MessageResponse) error {
	if len(mr.Channel.Alternatives) == 0 {
		return nil
	}
	c.handler.OnEvent(TranscriptEvent{
		Text:    mr.Channel.Alternatives[0].Transcript,
		IsFinal: mr.IsFinal,
	})
	return nil
}

func (c deepgramCallback) Open(*api.OpenResponse) error {
	log.Println("connected to Deepgram")
	return nil
}

func (c deepgramCallback) Metadata(*api.MetadataResponse) error { return nil }

func (c deepgramCallback) SpeechStarted(*api.SpeechStartedResponse) error { return nil }

func (c deepgramCallback) UtteranceEnd(*api.UtteranceEndResponse) error { return nil }

func (c deepgramCallback) Close(*api.CloseResponse) error {
	c.handler.OnClose(nil)
	return nil
}

func (c deepgramCallback) Error(er *api.ErrorResponse) error {
	log.Printf("deepgram error %s: %s", er.ErrCode, er.Description)
	return nil
}

func (c deepgramCallback) UnhandledEvent([]byte) error { return nil }
