package choreo

import (
	"embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/teslashibe/go-figure/pkg/animation"
)

//go:embed data/*.yaml
var embedded embed.FS

// Library indexes a figure's actions by name and ID.
type Library struct {
	mu     sync.RWMutex
	byName map[string]*animation.Action
	byID   map[uuid.UUID]*animation.Action
}

// NewLibrary creates an empty library.
func NewLibrary() *Library {
	return &Library{
		byName: make(map[string]*animation.Action),
		byID:   make(map[uuid.UUID]*animation.Action),
	}
}

// Register adds an action. Names must be unique.
func (l *Library) Register(a *animation.Action) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.byName[a.Name()]; dup {
		return fmt.Errorf("%w: duplicate action name", ErrMalformed)
	}
	l.byName[a.Name()] = a
	l.byID[a.ID()] = a
	return nil
}

// Get retrieves an action by name, or by ID string.
func (l *Library) Get(key string) (*animation.Action, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if a, ok := l.byName[key]; ok {
		return a, nil
	}
	if id, err := uuid.Parse(key); err == nil {
		if a, ok := l.byID[id]; ok {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
}

// List returns all action names, sorted alphabetically.
func (l *Library) List() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.byName))
	for name := range l.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Actions returns every action, sorted by name.
func (l *Library) Actions() []*animation.Action {
	names := l.List()
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*animation.Action, len(names))
	for i, n := range names {
		out[i] = l.byName[n]
	}
	return out
}

// Count returns the number of registered actions.
func (l *Library) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byName)
}

// LoadFile reads and builds a choreography file.
func LoadFile(path string, opts Options) (*Figure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read choreography: %w", err)
	}
	return LoadBytes(data, opts)
}

// LoadEmbedded builds one of the bundled choreographies.
func LoadEmbedded(name string, opts Options) (*Figure, error) {
	data, err := embedded.ReadFile("data/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("choreography %q not found: %w", name, err)
	}
	return LoadBytes(data, opts)
}

// ListEmbedded returns the names of the bundled choreographies.
func ListEmbedded() ([]string, error) {
	entries, err := embedded.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded choreographies: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".yaml") {
			names = append(names, strings.TrimSuffix(entry.Name(), ".yaml"))
		}
	}
	return names, nil
}
