package server

import (
	"context"
	"net/http"

	"github.com/roleverse/roleverse/internal/character"
	"github.com/roleverse/roleverse/internal/conversation"
	"github.com/roleverse/roleverse/internal/media"
	"github.com/roleverse/roleverse/internal/recognition"
	"github.com/roleverse/roleverse/internal/turn"
	"github.com/roleverse/roleverse/internal/user"
)

// uploadsPrefix is the public path the media store's files are served under.
const uploadsPrefix = "/static/uploads/audio"

type UserService interface {
	Login(ctx context.Context, username string) (user.User, user.Session, error)
	Logout(ctx context.Context, sessionID string) error
	Resolve(ctx context.Context, sessionID string) (user.User, error)
}

type CharacterService interface {
	Create(ctx context.Context, params character.CreateParams) (character.Character, error)
	GetByID(ctx context.Context, id string) (character.Character, error)
	List(ctx context.Context, limit int) ([]character.Character, error)
	Search(ctx context.Context, query string, limit int) ([]character.Character, error)
}

type ConversationService interface {
	Get(ctx context.Context, id string) (conversation.Conversation, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]conversation.Summary, error)
	Delete(ctx context.Context, id string) error
	UpdateTitle(ctx context.Context, id, title string) error
}

// TurnRunner executes one conversation turn end to end.
type TurnRunner interface {
	Execute(ctx context.Context, req turn.Request) turn.Result
}

// Recognizer is the live speech recognition session registry.
type Recognizer interface {
	Start(ctx context.Context, userID, characterID, conversationID string) (string, error)
	Feed(sessionID string, frame []byte) error
	Stop(ctx context.Context, sessionID string) (recognition.Result, error)
	Owner(sessionID string) (string, bool)
}

type SpeechService interface {
	Synthesize(ctx context.Context, text, voice, format string) ([]byte, error)
}

type MediaService interface {
	SaveAudio(ctx context.Context, data []byte, format string) (media.FileInfo, error)
	Dir() string
}

// Deps wires the HTTP surface to the application services. Hub is required;
// the rest may be nil in tests that do not touch their routes.
type Deps struct {
	Hub           *Hub
	Users         UserService
	Characters    CharacterService
	Conversations ConversationService
	Turns         TurnRunner
	Recognizer    Recognizer
	Speech        SpeechService
	Media         MediaService
	DefaultVoice  string
	Warnings      []string
}

func Handler(deps Deps) http.Handler {
	mux := http.NewServeMux()

	registerWSRoute(mux, deps.Hub)
	registerAPIRoutes(mux, deps)

	if deps.Media != nil {
		fileServer := http.FileServer(http.Dir(deps.Media.Dir()))
		mux.Handle("GET "+uploadsPrefix+"/", http.StripPrefix(uploadsPrefix+"/", fileServer))
	}

	return mux
}
