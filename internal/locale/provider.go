// Package locale keeps each user's preferred interface language.
package locale

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// DefaultLanguage is used when nothing was stored or the store is unavailable.
const DefaultLanguage = "en"

var supported = map[string]string{
	"en": "English",
	"es": "Español",
	"fr": "Français",
	"pt": "Português",
	"zh": "中文",
	"vi": "Tiếng Việt",
	"ar": "العربية",
	"ko": "한국어",
	"ht": "Kreyòl Ayisyen",
	"ru": "Русский",
}

// ErrUnsupported is returned for languages outside the supported set.
var ErrUnsupported = errors.New("unsupported language")

// ErrNotFound is returned by stores when a key has no value.
var ErrNotFound = errors.New("language preference not found")

// Store persists a preference string per key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Provider resolves and updates language preferences through a Store.
type Provider struct {
	store Store
}

// NewProvider builds a Provider around the given store.
func NewProvider(store Store) *Provider {
	return &Provider{store: store}
}

// Supported reports whether code is a known language.
func Supported(code string) bool {
	_, ok := supported[code]
	return ok
}

// Name returns the native display name of a language code.
func Name(code string) string {
	return supported[code]
}

// Normalize lower-cases and trims region suffixes, e.g. "pt-BR" -> "pt".
func Normalize(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return code
}

func key(userID string) string {
	return "language:" + userID
}

// Get returns the stored language for a user, or DefaultLanguage when none is stored.
func (p *Provider) Get(ctx context.Context, userID string) (string, error) {
	lang, err := p.store.Get(ctx, key(userID))
	if errors.Is(err, ErrNotFound) {
		return DefaultLanguage, nil
	}
	if err != nil {
		return DefaultLanguage, fmt.Errorf("get language: %w", err)
	}
	if !Supported(lang) {
		return DefaultLanguage, nil
	}
	return lang, nil
}

// Set stores the language for a user after validating it.
func (p *Provider) Set(ctx context.Context, userID, language string) (string, error) {
	lang := Normalize(language)
	if !Supported(lang) {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, language)
	}
	if err := p.store.Set(ctx, key(userID), lang); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	return lang, nil
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}
