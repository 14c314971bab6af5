package prompt

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const fileExtension = ".prompt"

// Loader reads prompts by name from a directory and keeps them parsed
type Loader struct {
	dir string

	mu    sync.Mutex
	cache map[string]*Prompt
}

func NewLoader(dir string) *Loader {
	return &Loader{
		dir:   dir,
		cache: make(map[string]*Prompt),
	}
}

// Load returns <dir>/<name>.prompt
func (l *Loader) Load(name string) (*Prompt, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return nil, fmt.Errorf("%w: bad prompt name %q", ErrInvalidPrompt, name)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if p, ok := l.cache[name]; ok {
		return p, nil
	}

	path := filepath.Join(l.dir, name+fileExtension)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("prompt %q not found in %s: %w", name, l.dir, err)
	}
	if err != nil {
		return nil, fmt.Errorf("read prompt %q: %w", name, err)
	}

	p, err := Parse(name, string(data))
	if err != nil {
		return nil, err
	}

	l.cache[name] = p
	return p, nil
}
