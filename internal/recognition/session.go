package recognition

import (
	"log"
	"sync"
)

// eventBufferSize bounds the per-session event queue. Fragments arrive at
// speech pace, so the buffer only fills if the fold loop has stalled.
const eventBufferSize = 256

type sessionState int

const (
	stateOpening sessionState = iota
	stateStreaming
	stateStopping
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateOpening:
		return "opening"
	case stateStreaming:
		return "streaming"
	case stateStopping:
		return "stopping"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is one live recognition interaction: a stream, an accumulator,
// and the routing identifiers captured at start time. Events flow through a
// bounded channel into a single fold goroutine, so the accumulator only
// ever has one writer.
type Session struct {
	ID             string
	UserID         string
	CharacterID    string
	ConversationID string

	acc      *Accumulator
	notifier EventNotifier
	onClose  func(sessionID string)

	mu     sync.Mutex
	state  sessionState
	stream Stream

	events  chan TranscriptEvent
	done    chan struct{}
	release sync.Once
}

func newSession(id, userID, characterID, conversationID string, notifier EventNotifier, onClose func(string)) *Session {
	return &Session{
		ID:             id,
		UserID:         userID,
		CharacterID:    characterID,
		ConversationID: conversationID,
		acc:            NewAccumulator(),
		notifier:       notifier,
		onClose:        onClose,
		state:          stateOpening,
		events:         make(chan TranscriptEvent, eventBufferSize),
		done:           make(chan struct{}),
	}
}

// loop folds queued events until the event channel is closed, then signals
// done. It is the only goroutine that writes into the accumulator.
func (s *Session) loop() {
	for ev := range s.events {
		s.acc.Fold(ev)
		if s.notifier != nil {
			s.notifier.RecognitionEvent(s.ID, ev)
		}
	}
	close(s.done)
}

// attach binds the opened stream and moves the session to streaming. It
// reports false if the stream already closed while the dial was in flight.
func (s *Session) attach(stream Stream) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateOpening {
		return false
	}
	s.stream = stream
	s.state = stateStreaming
	return true
}

// SendFrame forwards one audio frame to the stream. Frames are rejected
// once the session has left the streaming state.
func (s *Session) SendFrame(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateStreaming {
		return ErrSessionNotActive
	}
	return s.stream.SendFrame(frame)
}

// beginStop asks the stream to flush and close. Subsequent frames are
// rejected immediately; the final OnClose callback completes the shutdown.
func (s *Session) beginStop() {
	s.mu.Lock()
	if s.state != stateOpening && s.state != stateStreaming {
		s.mu.Unlock()
		return
	}
	s.state = stateStopping
	stream := s.stream
	s.mu.Unlock()

	if stream != nil {
		stream.Stop()
	}
}

// OnEvent implements StreamHandler. It runs on the stream's callback
// goroutine and must not block, so a full queue drops the fragment.
func (s *Session) OnEvent(ev TranscriptEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateClosed {
		return
	}
	select {
	case s.events <- ev:
	default:
		log.Printf("recognition session %s: event queue full, dropping fragment", s.ID)
	}
}

// OnClose implements StreamHandler and is also invoked locally on forced
// shutdown. The first call wins; it seals the event queue and releases the
// stream.
func (s *Session) OnClose(err error) {
	s.mu.Lock()
	if s.state == stateClosed {
		s.mu.Unlock()
		return
	}
	s.state = stateClosed
	stream := s.stream
	s.mu.Unlock()

	if err != nil {
		log.Printf("recognition session %s: stream closed: %v", s.ID, err)
	}

	close(s.events)
	s.release.Do(func() {
		if stream != nil {
			stream.Close()
		}
	})
	if s.onClose != nil {
		s.onClose(s.ID)
	}
}
