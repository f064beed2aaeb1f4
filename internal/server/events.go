package server

import "time"

const EventVersion = 1

type Event struct {
	Type      string `json:"type"`
	Version   int    `json:"version"`
	Timestamp string `json:"timestamp"`
}

type InterimTranscriptEvent struct {
	Event
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	IsFinal   bool   `json:"is_final"`
}

type RecognitionStartedEvent struct {
	Event
	SessionID      string `json:"session_id"`
	ConversationID string `json:"conversation_id,omitempty"`
}

type RecognitionStoppedEvent struct {
	Event
	SessionID  string `json:"session_id"`
	Transcript string `json:"transcript"`
}

type TurnCompletedEvent struct {
	Event
	ConversationID string `json:"conversation_id"`
	ReplyText      string `json:"reply_text"`
	ReplyAudioURL  string `json:"reply_audio_url,omitempty"`
}

type ConnectionEvent struct {
	Event
	Connected bool `json:"connected"`
}

func newEvent(eventType string, now time.Time) Event {
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return Event{
		Type:      eventType,
		Version:   EventVersion,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
}
