package fake

import (
	"sync"

	"vivarium/internal/whisper"
)

var _ whisper.Vocabulary = (*Vocabulary)(nil)

// Vocabulary serves words round-robin, so tests stay deterministic where
// the production store picks at random.
type Vocabulary struct {
	CallRecorder
	mu    sync.Mutex
	words []string
	next  int
}

// NewVocabulary creates a Vocabulary holding the given words.
func NewVocabulary(words ...string) *Vocabulary {
	return &Vocabulary{words: words}
}

func (v *Vocabulary) PickRandom() (string, bool) {
	v.record("PickRandom")
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.words) == 0 {
		return "", false
	}
	w := v.words[v.next%len(v.words)]
	v.next++
	return w, true
}

// SetWords replaces the word list.
func (v *Vocabulary) SetWords(words ...string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.words = words
	v.next = 0
}
