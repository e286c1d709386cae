package knowledge

import (
	"fmt"
	"os"
	"strings"
)

// Store holds the static college reference text injected into every
// prompt. It is loaded once at startup and immutable afterwards, so it is
// safe to share across handler goroutines without locking.
type Store struct {
	text string
}

// Load reads the reference text file. The bot must not serve traffic
// without it, so any read failure is returned to the caller to treat as
// fatal.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference file %s: %w", path, err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("reference file %s is empty", path)
	}

	return &Store{text: text}, nil
}

// NewStore wraps already-loaded reference text.
func NewStore(text string) *Store {
	return &Store{text: text}
}

func (s *Store) Text() string {
	return s.text
}
