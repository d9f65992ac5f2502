package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
)

// Jar is the part of the API client whose cookies are persisted.
type Jar interface {
	Cookies() []*http.Cookie
	SetCookies(cookies []*http.Cookie)
}

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type savedSession struct {
	APIURL  string        `json:"api_url"`
	SavedAt time.Time     `json:"saved_at"`
	Cookies []savedCookie `json:"cookies"`
}

// Store keeps the API session cookies in a JSON file.
type Store struct {
	path   string
	apiURL string
}

// NewStore returns a store at path for sessions against apiURL. Sessions saved
// for a different API are ignored on restore.
func NewStore(path, apiURL string) *Store {
	return &Store{path: path, apiURL: apiURL}
}

// Path returns the session file location.
func (s *Store) Path() string {
	return s.path
}

// Restore loads saved cookies into jar and reports whether any were found.
func (s *Store) Restore(jar Jar) (bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read session: %w", err)
	}

	var saved savedSession
	if err := json.Unmarshal(data, &saved); err != nil {
		return false, fmt.Errorf("decode session %s: %w", s.path, err)
	}
	if saved.APIURL != s.apiURL || len(saved.Cookies) == 0 {
		return false, nil
	}

	cookies := make([]*http.Cookie, 0, len(saved.Cookies))
	for _, c := range saved.Cookies {
		cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	jar.SetCookies(cookies)
	return true, nil
}

// Save writes the jar's current cookies.
func (s *Store) Save(jar Jar) error {
	saved := savedSession{APIURL: s.apiURL, SavedAt: time.Now().UTC()}
	for _, c := range jar.Cookies() {
		saved.Cookies = append(saved.Cookies, savedCookie{Name: c.Name, Value: c.Value})
	}

	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// Clear removes the session file. A missing file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
