// Package reload keeps loaded modules in an in-memory cache and reloads them
// when the files they were loaded from change.
//
// A module is any value produced by a Loader for a file name. Modules that a
// loader requires while it runs become that module's children, so the cache
// knows the full file set behind an entry module and can invalidate it as a
// unit.
package reload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// ErrCycle is returned when a module requires itself, directly or through its
// children, while it is still loading. Loads that wait on each other across
// goroutines are reported the same way.
var ErrCycle = errors.New("reload: module cycle")

// Loader produces the value of the module stored in file name. Calls to
// c.Require made with the ctx it receives record child modules.
type Loader func(ctx context.Context, c *Cache, name string) (any, error)

// Module is a cached module.
type Module struct {
	Name     string
	Value    any
	Err      error
	Children []string

	loading   bool
	done      chan struct{}
	waitingOn string
}

// Cache stores modules by cleaned file name. It is safe for concurrent use;
// concurrent requires of a module that is still loading wait for that load
// and share its result.
type Cache struct {
	mu   sync.Mutex
	load Loader
	mods map[string]*Module
}

// NewCache returns an empty cache that loads modules with load.
func NewCache(load Loader) *Cache {
	return &Cache{load: load, mods: make(map[string]*Module)}
}

// ctxKeyChain carries the modules being loaded by the current caller,
// outermost first. The last entry is the parent of any module required next.
type ctxKeyChain struct{}

// Require returns the value of module name, loading it on first use. A failed
// load stays cached with its error until the module is uncached, so the files
// it managed to reach remain part of the module graph.
func (c *Cache) Require(ctx context.Context, name string) (any, error) {
	name = filepath.Clean(name)
	chain, _ := ctx.Value(ctxKeyChain{}).([]string)
	parent := ""
	if len(chain) > 0 {
		parent = chain[len(chain)-1]
	}

	c.mu.Lock()
	if parent != "" {
		c.linkLocked(parent, name)
	}
	if slices.Contains(chain, name) {
		c.mu.Unlock()
		return nil, cycleError(chain, name)
	}
	if m, ok := c.mods[name]; ok {
		if !m.loading {
			v, err := m.Value, m.Err
			c.mu.Unlock()
			return v, err
		}
		if c.blocksLocked(name, chain) {
			c.mu.Unlock()
			return nil, cycleError(chain, name)
		}
		c.setWaitingLocked(parent, name)
		c.mu.Unlock()

		var err error
		select {
		case <-m.done:
		case <-ctx.Done():
			err = ctx.Err()
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		c.setWaitingLocked(parent, "")
		if err != nil {
			return nil, err
		}
		return m.Value, m.Err
	}
	m := &Module{Name: name, loading: true, done: make(chan struct{})}
	c.mods[name] = m
	c.setWaitingLocked(parent, name)
	c.mu.Unlock()

	next := append(chain[:len(chain):len(chain)], name)
	v, err := c.load(context.WithValue(ctx, ctxKeyChain{}, next), c, name)

	c.mu.Lock()
	m.loading = false
	m.Value, m.Err = v, err
	close(m.done)
	c.setWaitingLocked(parent, "")
	c.mu.Unlock()
	return v, err
}

func cycleError(chain []string, name string) error {
	return fmt.Errorf("%w: %s", ErrCycle, strings.Join(append(chain[:len(chain):len(chain)], name), " -> "))
}

// setWaitingLocked records that the loader of parent is blocked on name.
func (c *Cache) setWaitingLocked(parent, name string) {
	if p, ok := c.mods[parent]; ok && p.loading {
		p.waitingOn = name
	}
}

// blocksLocked reports whether waiting for name would never finish: following
// the modules that name's loader is blocked on leads back into chain.
func (c *Cache) blocksLocked(name string, chain []string) bool {
	seen := map[string]bool{}
	for n := name; n != "" && !seen[n]; {
		if slices.Contains(chain, n) {
			return true
		}
		seen[n] = true
		m, ok := c.mods[n]
		if !ok || !m.loading {
			return false
		}
		n = m.waitingOn
	}
	return false
}

func (c *Cache) linkLocked(parent, child string) {
	p, ok := c.mods[parent]
	if !ok {
		return
	}
	for _, ch := range p.Children {
		if ch == child {
			return
		}
	}
	p.Children = append(p.Children, child)
}

// Get returns the cached module for name.
func (c *Cache) Get(name string) (Module, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.mods[filepath.Clean(name)]
	if !ok {
		return Module{}, false
	}
	return Module{
		Name:     m.Name,
		Value:    m.Value,
		Err:      m.Err,
		Children: append([]string(nil), m.Children...),
	}, true
}

// Len reports the number of cached modules.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.mods)
}

// Modules lists name and every module below it, children before parents.
// It returns nil when name is not cached.
func (c *Cache) Modules(name string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subtreeLocked(filepath.Clean(name))
}

// Uncache removes name and every module below it.
func (c *Cache) Uncache(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range c.subtreeLocked(filepath.Clean(name)) {
		delete(c.mods, n)
	}
}

func (c *Cache) subtreeLocked(name string) []string {
	if _, ok := c.mods[name]; !ok {
		return nil
	}
	var out []string
	seen := map[string]bool{}
	var run func(n string)
	run = func(n string) {
		if seen[n] {
			return
		}
		seen[n] = true
		m, ok := c.mods[n]
		if !ok {
			return
		}
		for _, ch := range m.Children {
			run(ch)
		}
		out = append(out, n)
	}
	run(name)
	return out
}
