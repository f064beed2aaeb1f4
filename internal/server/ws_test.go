package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/roleverse/roleverse/internal/recognition"
)

func TestWSBroadcastEventShape(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	hub.RecognitionEvent("rec-1", recognition.TranscriptEvent{Text: "test line", IsFinal: false})

	select {
	case msg := <-ch:
		var payload map[string]any
		if err := json.Unmarshal(msg, &payload); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if payload["type"] != "interim_transcript" {
			t.Fatalf("expected event type interim_transcript, got %#v", payload["type"])
		}
		if payload["session_id"] != "rec-1" {
			t.Fatalf("expected session id in payload: %s", string(msg))
		}
		if payload["version"] == nil {
			t.Fatalf("expected version field in payload: %s", string(msg))
		}
	case <-time.After(1 * time.Second):
		t.Fatal("timeout waiting for websocket broadcast")
	}
}

func TestWSConnectionDeliversEvents(t *testing.T) {
	deps, _, _ := testDeps(t)
	h := Handler(deps)
	srv := httptest.NewServer(h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	defer func() { _ = conn.Close() }()
	defer func() { _ = resp.Body.Close() }()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read hello: %v", err)
	}
	var hello map[string]any
	if err := json.Unmarshal(msg, &hello); err != nil {
		t.Fatalf("unmarshal hello: %v", err)
	}
	if hello["type"] != "connection" || hello["connected"] != true {
		t.Fatalf("unexpected hello payload: %s", string(msg))
	}

	// The subscription registers after the hello, so keep broadcasting
	// until one lands.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				deps.Hub.BroadcastRecognitionStarted("rec-1", "conv-1")
			}
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err = conn.ReadMessage()
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	var event map[string]any
	if err := json.Unmarshal(msg, &event); err != nil {
		t.Fatalf("unmarshal broadcast: %v", err)
	}
	if event["type"] != "recognition_started" || event["session_id"] != "rec-1" {
		t.Fatalf("unexpected broadcast payload: %s", string(msg))
	}
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	// Fill past the channel buffer; broadcasts must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.RecognitionEvent("rec-1", recognition.TranscriptEvent{Text: "x", IsFinal: false})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on slow client")
	}
}
