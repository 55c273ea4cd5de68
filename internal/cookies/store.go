package cookies

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const storeFileName = "cookies.json"

// Entry is the cookie string stored for one domain.
type Entry struct {
	Domain    string    `json:"domain"`
	Raw       string    `json:"raw"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Jar represents the cookies file.
type Jar struct {
	Version int              `json:"version"`
	Cookies map[string]Entry `json:"cookies"`
}

// Store keeps cookie strings on the local filesystem, one entry per domain.
type Store struct {
	baseDir string

	// serializes read-modify-write cycles within this process
	mu sync.Mutex
}

var _ Source = (*Store)(nil)

// NewStore creates a new cookie store.
// If baseDir is empty, uses ~/.jianshu/cookies/
func NewStore(baseDir string) (*Store, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".jianshu", "cookies")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cookies directory: %w", err)
	}

	store := &Store{baseDir: baseDir}

	if err := store.ensureJar(); err != nil {
		return nil, err
	}

	log.Debug().Str("baseDir", baseDir).Msg("cookie store initialized")

	return store, nil
}

// Dir returns the directory holding the cookies file.
func (s *Store) Dir() string {
	return s.baseDir
}

// Cookie implements Source.
func (s *Store) Cookie(ctx context.Context, domain string) (string, bool, error) {
	entry, err := s.Get(domain)
	if err != nil {
		if err == ErrCookieNotFound {
			return "", false, nil
		}
		return "", false, err
	}

	return entry.Raw, true, nil
}

// Get retrieves the entry stored for domain.
func (s *Store) Get(domain string) (*Entry, error) {
	jar, err := s.loadJar()
	if err != nil {
		return nil, err
	}

	entry, ok := jar.Cookies[domain]
	if !ok {
		return nil, ErrCookieNotFound
	}

	return &entry, nil
}

// Set stores raw as the cookie string for domain, replacing any previous value.
func (s *Store) Set(domain, raw string) error {
	if domain == "" {
		return ErrEmptyDomain
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	jar, err := s.loadJar()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	entry, ok := jar.Cookies[domain]
	if !ok {
		entry = Entry{Domain: domain, CreatedAt: now}
	}
	entry.Raw = raw
	entry.UpdatedAt = now

	jar.Cookies[domain] = entry

	if err := s.saveJar(jar); err != nil {
		return err
	}

	log.Debug().Str("domain", domain).Int("length", len(raw)).Msg("cookie string stored")

	return nil
}

// Delete removes the entry for domain.
func (s *Store) Delete(domain string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jar, err := s.loadJar()
	if err != nil {
		return err
	}

	if _, ok := jar.Cookies[domain]; !ok {
		return ErrCookieNotFound
	}

	delete(jar.Cookies, domain)

	if err := s.saveJar(jar); err != nil {
		return err
	}

	log.Info().Str("domain", domain).Msg("cookie string deleted")

	return nil
}

// List returns all stored entries ordered by domain.
func (s *Store) List() ([]Entry, error) {
	jar, err := s.loadJar()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(jar.Cookies))
	for _, entry := range jar.Cookies {
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Domain < entries[j].Domain
	})

	return entries, nil
}

// ensureJar creates an empty cookies file if it doesn't exist.
func (s *Store) ensureJar() error {
	path := filepath.Join(s.baseDir, storeFileName)

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	return s.saveJar(&Jar{
		Version: 1,
		Cookies: make(map[string]Entry),
	})
}

func (s *Store) loadJar() (*Jar, error) {
	path := filepath.Join(s.baseDir, storeFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}

	var jar Jar
	if err := json.Unmarshal(data, &jar); err != nil {
		return nil, fmt.Errorf("failed to parse cookies: %w", err)
	}

	if jar.Cookies == nil {
		jar.Cookies = make(map[string]Entry)
	}

	return &jar, nil
}

// saveJar writes the cookies file atomically.
func (s *Store) saveJar(jar *Jar) error {
	data, err := json.MarshalIndent(jar, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cookies: %w", err)
	}

	path := filepath.Join(s.baseDir, storeFileName)
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write cookies: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save cookies: %w", err)
	}

	return nil
}
