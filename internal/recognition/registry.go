package recognition

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultDrainTimeout bounds how long Stop waits for the stream to deliver
// its remaining final fragments.
const DefaultDrainTimeout = 3 * time.Second

// Result is the outcome of a finished recognition session. Text is the
// accumulated transcript, possibly empty if nothing intelligible was heard.
type Result struct {
	SessionID      string
	UserID         string
	CharacterID    string
	ConversationID string
	Text           string
}

// Registry owns all live recognition sessions. Starting a session dials a
// fresh stream, feeding routes frames by session id, and stopping drains
// the stream and returns the transcript with its routing identifiers.
type Registry struct {
	opener       Opener
	opts         StreamOptions
	notifier     EventNotifier
	drainTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates a registry dialing streams through opener. notifier
// may be nil.
func NewRegistry(opener Opener, opts StreamOptions, drainTimeout time.Duration, notifier EventNotifier) *Registry {
	if drainTimeout <= 0 {
		drainTimeout = DefaultDrainTimeout
	}
	return &Registry{
		opener:       opener,
		opts:         opts,
		notifier:     notifier,
		drainTimeout: drainTimeout,
		sessions:     make(map[string]*Session),
	}
}

// Start opens a stream and registers a new session for it. The returned id
// routes subsequent Feed and Stop calls.
func (r *Registry) Start(ctx context.Context, userID, characterID, conversationID string) (string, error) {
	id := uuid.New().String()
	s := newSession(id, userID, characterID, conversationID, r.notifier, r.reap)

	stream, err := r.opener.Open(ctx, r.opts, s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStreamUnavailable, err)
	}
	if !s.attach(stream) {
		// The stream died while the dial was still returning.
		stream.Close()
		return "", fmt.Errorf("%w: stream closed during open", ErrStreamUnavailable)
	}

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()
	go s.loop()

	// The stream can drop between attach and registration; reap would
	// have found nothing in the map, so re-check and undo.
	s.mu.Lock()
	closed := s.state == stateClosed
	s.mu.Unlock()
	if closed {
		r.reap(id)
		<-s.done
		return "", fmt.Errorf("%w: stream closed during open", ErrStreamUnavailable)
	}

	log.Printf("recognition session %s: started for user %s", id, userID)
	return id, nil
}

// Owner reports which user a live session belongs to.
func (r *Registry) Owner(sessionID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sessionID]
	if !ok {
		return "", false
	}
	return s.UserID, true
}

// Feed forwards one audio frame to the named session.
func (r *Registry) Feed(sessionID string, frame []byte) error {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	return s.SendFrame(frame)
}

// Stop drains the named session and returns its transcript. Stopping an
// unknown or already-stopped session succeeds with an empty result, so
// client retries and races against stream failures are harmless. If the
// stream does not confirm closure within the drain timeout, the partial
// transcript is returned.
func (r *Registry) Stop(ctx context.Context, sessionID string) (Result, error) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if ok {
		delete(r.sessions, sessionID)
	}
	r.mu.Unlock()
	if !ok {
		return Result{SessionID: sessionID}, nil
	}

	s.beginStop()

	timer := time.NewTimer(r.drainTimeout)
	defer timer.Stop()
	select {
	case <-s.done:
	case <-timer.C:
		log.Printf("recognition session %s: drain timed out, keeping partial transcript", sessionID)
		s.OnClose(nil)
		<-s.done
	case <-ctx.Done():
		s.OnClose(nil)
		<-s.done
	}

	result := Result{
		SessionID:      s.ID,
		UserID:         s.UserID,
		CharacterID:    s.CharacterID,
		ConversationID: s.ConversationID,
		Text:           s.acc.Text(),
	}
	log.Printf("recognition session %s: stopped, transcript %d chars", sessionID, len(result.Text))
	return result, nil
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Shutdown force-closes every live session, e.g. on server exit.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range sessions {
		s.OnClose(nil)
		<-s.done
	}
}

// reap drops a session whose stream closed on its own, so later feeds
// report not-found rather than piling onto a dead session.
func (r *Registry) reap(sessionID string) {
	r.mu.Lock()
	delete(r.sessions, sessionID)
	r.mu.Unlock()
}
