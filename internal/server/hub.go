package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/roleverse/roleverse/internal/recognition"
)

type Hub struct {
	mu      sync.RWMutex
	clients map[chan []byte]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan []byte]struct{})}
}

func (h *Hub) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *Hub) Broadcast(msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
		}
	}
}

// RecognitionEvent implements recognition.EventNotifier, fanning transcript
// fragments out to connected clients for live display.
func (h *Hub) RecognitionEvent(sessionID string, ev recognition.TranscriptEvent) {
	h.broadcastEvent(InterimTranscriptEvent{
		Event:     newEvent("interim_transcript", time.Now().UTC()),
		SessionID: sessionID,
		Text:      ev.Text,
		IsFinal:   ev.IsFinal,
	})
}

func (h *Hub) BroadcastRecognitionStarted(sessionID, conversationID string) {
	h.broadcastEvent(RecognitionStartedEvent{
		Event:          newEvent("recognition_started", time.Now().UTC()),
		SessionID:      sessionID,
		ConversationID: conversationID,
	})
}

func (h *Hub) BroadcastRecognitionStopped(sessionID, transcript string) {
	h.broadcastEvent(RecognitionStoppedEvent{
		Event:      newEvent("recognition_stopped", time.Now().UTC()),
		SessionID:  sessionID,
		Transcript: transcript,
	})
}

func (h *Hub) BroadcastTurnCompleted(conversationID, replyText, replyAudioURL string) {
	h.broadcastEvent(TurnCompletedEvent{
		Event:          newEvent("turn_completed", time.Now().UTC()),
		ConversationID: conversationID,
		ReplyText:      replyText,
		ReplyAudioURL:  replyAudioURL,
	})
}

func (h *Hub) broadcastEvent(event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("event marshal error: %v", err)
		return
	}
	h.Broadcast(payload)
}
