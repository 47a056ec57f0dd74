// Package vocab persists the set of injectable concept words. Every
// mutation is written through to disk before it is acknowledged, so a
// crash never loses an accepted word.
package vocab

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// ErrPersistence marks a failed write of the vocabulary file. The
// in-memory state is rolled back when it occurs.
var ErrPersistence = errors.New("vocabulary write failed")

// vocabFile is the on-disk shape.
type vocabFile struct {
	Vocabulary []string  `json:"vocabulary"`
	UpdatedAt  time.Time `json:"updated_at"`
	Count      int       `json:"count"`
}

// Store holds the vocabulary in insertion order with case-sensitive
// dedupe.
type Store struct {
	mu    sync.Mutex
	path  string
	words []string
	index map[string]struct{}
}

// Open loads the vocabulary from path, or starts empty when the file
// does not exist yet. A corrupt file is an error, not an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, index: make(map[string]struct{})}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read vocabulary %q: %w", path, err)
	}

	var file vocabFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode vocabulary %q: %w", path, err)
	}
	for _, word := range file.Vocabulary {
		if _, ok := s.index[word]; ok {
			continue
		}
		s.words = append(s.words, word)
		s.index[word] = struct{}{}
	}
	return s, nil
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Add stores a word. Adding a word that is already present is a no-op
// success.
func (s *Store) Add(word string) error {
	word = strings.TrimSpace(word)
	if word == "" {
		return errors.New("vocabulary word must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[word]; ok {
		return nil
	}

	next := append(slices.Clone(s.words), word)
	if err := s.persist(next); err != nil {
		return err
	}
	s.words = next
	s.index[word] = struct{}{}
	return nil
}

// Remove deletes a word. Removing an absent word is a no-op success.
func (s *Store) Remove(word string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[word]; !ok {
		return nil
	}

	next := make([]string, 0, len(s.words)-1)
	for _, w := range s.words {
		if w != word {
			next = append(next, w)
		}
	}
	if err := s.persist(next); err != nil {
		return err
	}
	s.words = next
	delete(s.index, word)
	return nil
}

// Clear empties the store.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(nil); err != nil {
		return err
	}
	s.words = nil
	s.index = make(map[string]struct{})
	return nil
}

// List returns all words in insertion order.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.words)
}

// Len reports the number of stored words.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.words)
}

// PickRandom returns a uniformly chosen word, or false when the store
// is empty.
func (s *Store) PickRandom() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.words) == 0 {
		return "", false
	}
	return s.words[rand.IntN(len(s.words))], true
}

// persist writes the given word list to disk atomically. Callers hold
// the mutex and swap in-memory state only after it succeeds.
func (s *Store) persist(words []string) error {
	file := vocabFile{
		Vocabulary: words,
		UpdatedAt:  time.Now().UTC(),
		Count:      len(words),
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal vocabulary: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create directory %q: %v", ErrPersistence, dir, err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: write temp file %q: %v", ErrPersistence, tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: replace %q: %v", ErrPersistence, s.path, err)
	}
	return nil
}
