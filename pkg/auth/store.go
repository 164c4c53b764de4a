package auth

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Store is the read side of the session token storage.
// Get returns an empty string when the key is absent.
type Store interface {
	Get(key string) string
}

// Cookies reads cookie values by name, empty when absent.
type Cookies interface {
	Cookie(name string) string
}

// MemoryStore is a concurrency-safe in-process Store
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore creates a MemoryStore seeded with values
func NewMemoryStore(values map[string]string) *MemoryStore {
	s := &MemoryStore{values: make(map[string]string, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// Get returns the stored value for key
func (s *MemoryStore) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// Set stores a value, used by login flows outside the dispatcher
func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes a key
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// FileStore reads tokens from a flat YAML mapping on every Get,
// so tokens rotated by another process are picked up without a restart.
type FileStore struct {
	Path string
}

// NewFileStore creates a FileStore for path
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

// Load reads the whole session file
func (s *FileStore) Load() (map[string]string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	return values, nil
}

// Get returns the token stored under key; an unreadable file reads as empty
func (s *FileStore) Get(key string) string {
	values, err := s.Load()
	if err != nil {
		return ""
	}
	return values[key]
}

// StaticCookies is a fixed cookie set
type StaticCookies map[string]string

// Cookie returns the named cookie value
func (c StaticCookies) Cookie(name string) string {
	return c[name]
}

// JarCookies reads cookies an http.CookieJar holds for URL
type JarCookies struct {
	Jar http.CookieJar
	URL *url.URL
}

// Cookie returns the first cookie named name
func (c *JarCookies) Cookie(name string) string {
	if c.Jar == nil || c.URL == nil {
		return ""
	}
	for _, ck := range c.Jar.Cookies(c.URL) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}
