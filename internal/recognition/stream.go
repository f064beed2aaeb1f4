package recognition

import "context"

// TranscriptEvent is one recognition fragment delivered by a live stream.
// Interim fragments (IsFinal false) are provisional and observable for
// diagnostics only.
type TranscriptEvent struct {
	Text    string
	IsFinal bool
}

// StreamHandler receives asynchronous events from a live recognition
// stream. Implementations must tolerate OnClose being invoked at any point,
// including before the first event.
type StreamHandler interface {
	OnEvent(ev TranscriptEvent)
	OnClose(err error)
}

// Stream is one live connection to the recognition service, exclusively
// owned by a single session.
type Stream interface {
	// SendFrame forwards one small audio frame.
	SendFrame(frame []byte) error
	// Stop asks the service to flush buffered results and shut down; the
	// handler's OnClose fires once the stream has confirmed closure.
	Stop()
	// Close releases the connection. Safe to call more than once.
	Close()
}

// StreamOptions describe the audio the stream will receive.
type StreamOptions struct {
	Encoding   string
	SampleRate int
}

// Opener dials new recognition streams.
type Opener interface {
	Open(ctx context.Context, opts StreamOptions, handler StreamHandler) (Stream, error)
}

// EventNotifier observes per-session transcript fragments, e.g. to feed a
// live UI. Implementations must not block.
type EventNotifier interface {
	RecognitionEvent(sessionID string, ev TranscriptEvent)
}
