package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/roleverse/roleverse/internal/character"
	"github.com/roleverse/roleverse/internal/conversation"
	"github.com/roleverse/roleverse/internal/recognition"
	"github.com/roleverse/roleverse/internal/speech"
	"github.com/roleverse/roleverse/internal/turn"
	"github.com/roleverse/roleverse/internal/user"
)

const sessionCookie = "session_id"

// maxFrameSize bounds one uploaded audio frame.
const maxFrameSize = 1 << 20

func registerAPIRoutes(mux *http.ServeMux, deps Deps) {
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Username string `json:"username"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		u, session, err := deps.Users.Login(r.Context(), strings.TrimSpace(body.Username))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("login: %v", err))
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    session.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(user.SessionTTL.Seconds()),
		})
		writeJSON(w, http.StatusOK, u)
	})

	mux.HandleFunc("POST /api/logout", func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
			if err := deps.Users.Logout(r.Context(), cookie.Value); err != nil {
				writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("logout: %v", err))
				return
			}
		}
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /api/user/info", func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(w, r, deps)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, u)
	})

	mux.HandleFunc("GET /api/characters", func(w http.ResponseWriter, r *http.Request) {
		characters, err := deps.Characters.List(r.Context(), queryLimit(r, 50))
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("list characters: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, characters)
	})

	mux.HandleFunc("GET /api/characters/search", func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			writeJSONError(w, http.StatusBadRequest, "missing query parameter q")
			return
		}
		characters, err := deps.Characters.Search(r.Context(), query, queryLimit(r, 50))
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("search characters: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, characters)
	})

	mux.HandleFunc("GET /api/characters/{id}", func(w http.ResponseWriter, r *http.Request) {
		c, err := deps.Characters.GetByID(r.Context(), r.PathValue("id"))
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, character.ErrNotFound) {
				status = http.StatusNotFound
			}
			writeJSONError(w, status, fmt.Sprintf("get character: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, c)
	})

	mux.HandleFunc("POST /api/characters", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r, deps); !ok {
			return
		}
		var params character.CreateParams
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		c, err := deps.Characters.Create(r.Context(), params)
		if err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, character.ErrExists):
				status = http.StatusConflict
			case strings.Contains(err.Error(), "required"):
				status = http.StatusBadRequest
			}
			writeJSONError(w, status, fmt.Sprintf("create character: %v", err))
			return
		}
		writeJSON(w, http.StatusCreated, c)
	})

	mux.HandleFunc("GET /api/conversations", func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(w, r, deps)
		if !ok {
			return
		}
		summaries, err := deps.Conversations.ListByUser(r.Context(), u.ID, queryLimit(r, 50))
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("list conversations: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, summaries)
	})

	mux.HandleFunc("GET /api/conversations/{id}", func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(w, r, deps)
		if !ok {
			return
		}
		conv, ok := loadOwnedConversation(w, r, deps, u.ID)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, conv)
	})

	mux.HandleFunc("DELETE /api/conversations/{id}", func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(w, r, deps)
		if !ok {
			return
		}
		if _, ok := loadOwnedConversation(w, r, deps, u.ID); !ok {
			return
		}
		if err := deps.Conversations.Delete(r.Context(), r.PathValue("id")); err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("delete conversation: %v", err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("PUT /api/conversations/{id}/title", func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(w, r, deps)
		if !ok {
			return
		}
		if _, ok := loadOwnedConversation(w, r, deps, u.ID); !ok {
			return
		}
		var body struct {
			Title string `json:"title"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Title) == "" {
			writeJSONError(w, http.StatusBadRequest, "missing title")
			return
		}
		if err := deps.Conversations.UpdateTitle(r.Context(), r.PathValue("id"), body.Title); err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("update title: %v", err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /api/chat", func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(w, r, deps)
		if !ok {
			return
		}
		var body struct {
			CharacterID    string `json:"character_id"`
			ConversationID string `json:"conversation_id"`
			Message        string `json:"message"`
			Modality       string `json:"modality"`
			Voice          string `json:"voice"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(body.Message) == "" || body.CharacterID == "" {
			writeJSONError(w, http.StatusBadRequest, "character_id and message are required")
			return
		}
		modality := body.Modality
		if modality == "" {
			modality = turn.ModalityText
		}

		result := deps.Turns.Execute(r.Context(), turn.Request{
			UserID:         u.ID,
			CharacterID:    body.CharacterID,
			ConversationID: body.ConversationID,
			Text:           body.Message,
			Modality:       modality,
			Voice:          body.Voice,
		})
		deps.Hub.BroadcastTurnCompleted(result.ConversationID, result.ReplyText, result.ReplyAudioURL)
		writeJSON(w, http.StatusOK, result)
	})

	mux.HandleFunc("POST /api/recognition/start", func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(w, r, deps)
		if !ok {
			return
		}
		var body struct {
			CharacterID    string `json:"character_id"`
			ConversationID string `json:"conversation_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.CharacterID == "" {
			writeJSONError(w, http.StatusBadRequest, "character_id is required")
			return
		}

		sessionID, err := deps.Recognizer.Start(r.Context(), u.ID, body.CharacterID, body.ConversationID)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, recognition.ErrStreamUnavailable) {
				status = http.StatusServiceUnavailable
			}
			writeJSONError(w, status, fmt.Sprintf("start recognition: %v", err))
			return
		}
		deps.Hub.BroadcastRecognitionStarted(sessionID, body.ConversationID)
		writeJSON(w, http.StatusOK, map[string]string{"session_id": sessionID})
	})

	mux.HandleFunc("POST /api/recognition/{id}/audio", func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(w, r, deps)
		if !ok {
			return
		}
		if !requireSessionOwner(w, deps, r.PathValue("id"), u.ID) {
			return
		}

		frame, err := io.ReadAll(io.LimitReader(r.Body, maxFrameSize))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "read audio frame failed")
			return
		}
		if len(frame) == 0 {
			writeJSONError(w, http.StatusBadRequest, "empty audio frame")
			return
		}

		if err := deps.Recognizer.Feed(r.PathValue("id"), frame); err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, recognition.ErrSessionNotFound):
				status = http.StatusNotFound
			case errors.Is(err, recognition.ErrSessionNotActive):
				status = http.StatusConflict
			}
			writeJSONError(w, status, fmt.Sprintf("feed audio: %v", err))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("POST /api/recognition/{id}/stop", func(w http.ResponseWriter, r *http.Request) {
		u, ok := requireUser(w, r, deps)
		if !ok {
			return
		}
		sessionID := r.PathValue("id")
		if !requireSessionOwner(w, deps, sessionID, u.ID) {
			return
		}

		result, err := deps.Recognizer.Stop(r.Context(), sessionID)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("stop recognition: %v", err))
			return
		}
		deps.Hub.BroadcastRecognitionStopped(sessionID, result.Text)

		if strings.TrimSpace(result.Text) == "" {
			writeJSON(w, http.StatusOK, map[string]any{
				"transcript": "",
				"warning":    "no speech detected",
			})
			return
		}

		turnResult := deps.Turns.Execute(r.Context(), turn.Request{
			UserID:         result.UserID,
			CharacterID:    result.CharacterID,
			ConversationID: result.ConversationID,
			Text:           result.Text,
			Modality:       turn.ModalityAudio,
		})
		deps.Hub.BroadcastTurnCompleted(turnResult.ConversationID, turnResult.ReplyText, turnResult.ReplyAudioURL)
		writeJSON(w, http.StatusOK, map[string]any{
			"transcript": result.Text,
			"turn":       turnResult,
		})
	})

	mux.HandleFunc("POST /api/audio/text-to-speech", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text  string `json:"text"`
			Voice string `json:"voice"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if strings.TrimSpace(body.Text) == "" {
			writeJSONError(w, http.StatusBadRequest, "text is required")
			return
		}
		voice := body.Voice
		if voice == "" {
			voice = deps.DefaultVoice
		}

		data, err := deps.Speech.Synthesize(r.Context(), body.Text, voice, "wav")
		if err != nil {
			writeJSONError(w, http.StatusBadGateway, fmt.Sprintf("synthesize: %v", err))
			return
		}
		info, err := deps.Media.SaveAudio(r.Context(), data, "wav")
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("save audio: %v", err))
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"file_id": info.ID, "audio_url": info.URL})
	})

	mux.HandleFunc("GET /api/audio/voices", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"voices":  speech.Voices(),
			"default": deps.DefaultVoice,
		})
	})

	mux.HandleFunc("GET /api/status", func(w http.ResponseWriter, r *http.Request) {
		warnings := deps.Warnings
		if warnings == nil {
			warnings = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"warnings": warnings})
	})
}

// requireUser resolves the session cookie or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request, deps Deps) (user.User, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		writeJSONError(w, http.StatusUnauthorized, "not logged in")
		return user.User{}, false
	}
	u, err := deps.Users.Resolve(r.Context(), cookie.Value)
	if err != nil {
		writeJSONError(w, http.StatusUnauthorized, "session expired")
		return user.User{}, false
	}
	return u, true
}

// requireSessionOwner rejects callers touching another user's recognition
// session. Unknown sessions pass through so the handler keeps its own
// not-found and idempotent-stop semantics.
func requireSessionOwner(w http.ResponseWriter, deps Deps, sessionID, userID string) bool {
	owner, ok := deps.Recognizer.Owner(sessionID)
	if ok && owner != userID {
		writeJSONError(w, http.StatusForbidden, "recognition session belongs to another user")
		return false
	}
	return true
}

// loadOwnedConversation fetches the path conversation and enforces that it
// belongs to the calling user.
func loadOwnedConversation(w http.ResponseWriter, r *http.Request, deps Deps, userID string) (conversation.Conversation, bool) {
	conv, err := deps.Conversations.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, conversation.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeJSONError(w, status, fmt.Sprintf("get conversation: %v", err))
		return conversation.Conversation{}, false
	}
	if conv.UserID != userID {
		writeJSONError(w, http.StatusForbidden, "conversation belongs to another user")
		return conversation.Conversation{}, false
	}
	return conv, true
}

func queryLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
