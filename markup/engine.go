package markup

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

//go:embed components/*.xml
var builtin embed.FS

// ErrComponentNotFound is returned by a Resolver that has no such component.
var ErrComponentNotFound = errors.New("component not found")

// Resolver returns the source of a named component.
type Resolver interface {
	Resolve(name string) (string, error)
}

// componentFile maps "station" and "station.xml" to "station.xml".
func componentFile(name string) string {
	if strings.HasSuffix(name, ".xml") {
		return name
	}
	return name + ".xml"
}

// EmbedResolver serves the built-in components.
type EmbedResolver struct{}

func (EmbedResolver) Resolve(name string) (string, error) {
	data, err := builtin.ReadFile(path.Join("components", componentFile(name)))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s: %w", name, ErrComponentNotFound)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DirResolver loads components from a directory on disk.
type DirResolver struct {
	Dir string
}

func (r DirResolver) Resolve(name string) (string, error) {
	file := componentFile(name)
	if file != filepath.Base(file) {
		return "", fmt.Errorf("%s: component names cannot contain paths", name)
	}
	data, err := os.ReadFile(filepath.Join(r.Dir, file))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s: %w", name, ErrComponentNotFound)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ChainResolver tries each resolver in turn, moving on only when a component
// is not found.
type ChainResolver []Resolver

func (c ChainResolver) Resolve(name string) (string, error) {
	for _, r := range c {
		src, err := r.Resolve(name)
		if errors.Is(err, ErrComponentNotFound) {
			continue
		}
		return src, err
	}
	return "", fmt.Errorf("%s: %w", name, ErrComponentNotFound)
}

// NewResolver returns the built-in components, overridden by files in dir
// when dir is set.
func NewResolver(dir string) Resolver {
	if dir == "" {
		return EmbedResolver{}
	}
	return ChainResolver{DirResolver{Dir: dir}, EmbedResolver{}}
}

// Engine loads components through a resolver and caches the parsed result.
type Engine struct {
	resolver Resolver

	mu    sync.Mutex
	cache map[string]*Component
}

// NewEngine returns an engine over r.
func NewEngine(r Resolver) *Engine {
	return &Engine{resolver: r, cache: make(map[string]*Component)}
}

// Component returns the parsed component called name.
func (e *Engine) Component(name string) (*Component, error) {
	key := strings.TrimSuffix(name, ".xml")
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.cache[key]; ok {
		return c, nil
	}
	src, err := e.resolver.Resolve(key)
	if err != nil {
		return nil, err
	}
	c, err := Parse(key, src)
	if err != nil {
		return nil, err
	}
	c.engine = e
	e.cache[key] = c
	return c, nil
}

// Parse parses src and binds its imports to this engine without caching it.
func (e *Engine) Parse(name, src string) (*Component, error) {
	c, err := Parse(name, src)
	if err != nil {
		return nil, err
	}
	c.engine = e
	return c, nil
}
