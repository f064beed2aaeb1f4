package character

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roleverse/roleverse/internal/store"
)

// ErrNotFound is returned when a persona does not exist.
var ErrNotFound = errors.New("character not found")

// ErrExists is returned when creating a persona whose name is taken.
var ErrExists = errors.New("character already exists")

// AvatarGenerator produces a portrait image URL for a persona. Nil disables
// avatar generation.
type AvatarGenerator interface {
	Generate(ctx context.Context, name, description string) (string, error)
}

type Service struct {
	store   store.Store
	avatars AvatarGenerator
}

func NewService(st store.Store, avatars AvatarGenerator) *Service {
	return &Service{store: st, avatars: avatars}
}

type CreateParams struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Traits          []string `json:"personality_traits"`
	BackgroundStory string   `json:"background_story"`
	Voice           string   `json:"voice"`
	GenerateAvatar  bool     `json:"generate_avatar"`
}

func (s *Service) Create(ctx context.Context, params CreateParams) (Character, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return Character{}, fmt.Errorf("character name must not be empty")
	}

	if _, err := s.GetByName(ctx, name); err == nil {
		return Character{}, ErrExists
	} else if !errors.Is(err, ErrNotFound) {
		return Character{}, err
	}

	// Avatar generation is best-effort: a persona without a portrait is
	// still usable.
	avatarURL := ""
	if params.GenerateAvatar && s.avatars != nil {
		url, err := s.avatars.Generate(ctx, name, params.Description)
		if err != nil {
			log.Printf("avatar generation for %q failed: %v", name, err)
		} else {
			avatarURL = url
		}
	}

	c := Character{
		ID:                uuid.NewString(),
		Name:              name,
		Description:       params.Description,
		AvatarURL:         avatarURL,
		PromptTemplate:    BuildPrompt(name, params.Description, params.Traits, params.BackgroundStory),
		PersonalityTraits: params.Traits,
		BackgroundStory:   params.BackgroundStory,
		Voice:             params.Voice,
		CreatedAt:         time.Now().UTC(),
		IsActive:          true,
	}

	if err := s.save(ctx, c); err != nil {
		return Character{}, err
	}
	if err := s.store.Append(ctx, "character_list", c.ID); err != nil {
		return Character{}, fmt.Errorf("register character: %w", err)
	}

	return c, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Character, error) {
	data, ok, err := s.store.Get(ctx, "character:"+id)
	if err != nil {
		return Character{}, fmt.Errorf("get character: %w", err)
	}
	if !ok {
		return Character{}, ErrNotFound
	}

	var c Character
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return Character{}, fmt.Errorf("decode character %s: %w", id, err)
	}
	return c, nil
}

func (s *Service) GetByName(ctx context.Context, name string) (Character, error) {
	id, ok, err := s.store.Get(ctx, "character_name:"+name)
	if err != nil {
		return Character{}, fmt.Errorf("resolve character name: %w", err)
	}
	if !ok {
		return Character{}, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// List returns up to limit personas, most recently created first.
func (s *Service) List(ctx context.Context, limit int) ([]Character, error) {
	if limit <= 0 {
		limit = 20
	}

	ids, err := s.store.Range(ctx, "character_list", 0, int64(limit-1))
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}

	characters := make([]Character, 0, len(ids))
	for _, id := range ids {
		c, err := s.GetByID(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		characters = append(characters, c)
	}
	return characters, nil
}

// Search matches the query case-insensitively against persona names and
// descriptions.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Character, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	all, err := s.List(ctx, 200)
	if err != nil {
		return nil, err
	}

	var matched []Character
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), query) || strings.Contains(strings.ToLower(c.Description), query) {
			matched = append(matched, c)
			if len(matched) == limit {
				break
			}
		}
	}
	return matched, nil
}

// SeedDefaults creates the built-in personas if none exist yet.
func (s *Service) SeedDefaults(ctx context.Context) error {
	existing, err := s.store.Range(ctx, "character_list", 0, 0)
	if err != nil {
		return fmt.Errorf("check existing characters: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, params := range defaultCharacters() {
		if _, err := s.Create(ctx, params); err != nil && !errors.Is(err, ErrExists) {
			return fmt.Errorf("seed character %q: %w", params.Name, err)
		}
	}
	log.Printf("seeded %d default characters", len(defaultCharacters()))
	return nil
}

func (s *Service) save(ctx context.Context, c Character) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode character: %w", err)
	}
	if err := s.store.Set(ctx, "character:"+c.ID, string(data), 0); err != nil {
		return fmt.Errorf("save character: %w", err)
	}
	if err := s.store.Set(ctx, "character_name:"+c.Name, c.ID, 0); err != nil {
		return fmt.Errorf("save character name index: %w", err)
	}
	return nil
}
