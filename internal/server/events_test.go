package server

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEventSerialization(t *testing.T) {
	events := []any{
		InterimTranscriptEvent{Event: newEvent("interim_transcript", time.Unix(1, 0)), SessionID: "abc", Text: "hel", IsFinal: false},
		RecognitionStartedEvent{Event: newEvent("recognition_started", time.Unix(1, 0)), SessionID: "abc"},
		RecognitionStoppedEvent{Event: newEvent("recognition_stopped", time.Unix(1, 0)), SessionID: "abc", Transcript: "hello"},
		TurnCompletedEvent{Event: newEvent("turn_completed", time.Unix(1, 0)), ConversationID: "conv", ReplyText: "hi"},
		ConnectionEvent{Event: newEvent("connection", time.Unix(1, 0)), Connected: true},
	}

	for _, event := range events {
		b, err := json.Marshal(event)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		var payload map[string]any
		if err := json.Unmarshal(b, &payload); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}

		if payload["type"] == nil {
			t.Fatalf("missing type in payload: %s", string(b))
		}
		if payload["version"] == nil {
			t.Fatalf("missing version in payload: %s", string(b))
		}
		if payload["timestamp"] == nil {
			t.Fatalf("missing timestamp in payload: %s", string(b))
		}
	}
}
