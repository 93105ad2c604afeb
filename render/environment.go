/*
Package render resolves and renders page templates against an ordered set of
search directories, with the shared filter set registered on the engine.

Environments are memoized per directory list: the first request for a given
ordered list builds a template set searching those directories (plus the
baseline view directory, always last) and every later request for the same
list gets the identical instance back.
*/
package render

import (
	"log"
	"os"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/fsnotify/fsnotify"
)

// Logger prints notifications from the development-mode template watcher.
var Logger = log.New(os.Stderr, "[apos] ", 0)

// Environment is a template set searching an ordered list of directories.
type Environment struct {
	set  *pongo2.TemplateSet
	dirs []string
}

// Set returns the underlying template set.
func (e *Environment) Set() *pongo2.TemplateSet { return e.set }

// Dirs returns the directories searched, in order, baseline last.
func (e *Environment) Dirs() []string { return e.dirs }

// Cache memoizes Environments by their ordered directory list, for the life
// of the process.  In watch mode, a change under any searched directory
// drops every cached environment so the next render recompiles.
type Cache struct {
	mu      sync.Mutex
	envs    map[string]*Environment
	watched map[string]bool
	viewDir string
	watcher *fsnotify.Watcher
}

// An Option configures a Cache.
type Option func(*Cache) error

// WithWatch enables development-mode watching of template directories.
func WithWatch(watch bool) Option {
	return func(c *Cache) error {
		if !watch || c.watcher != nil {
			return nil
		}
		var watcher, err = fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		c.watcher = watcher
		return nil
	}
}

// WithBuildFilter supplies the implementation of the "build" template
// filter.  The filter table is engine-wide, so the last cache to set this
// before first use wins.
func WithBuildFilter(fn FilterFunc) Option {
	return func(c *Cache) error {
		setBuildFilter(fn)
		return nil
	}
}

// NewCache returns a Cache whose environments search viewDir as their final
// fallback location.
func NewCache(viewDir string, opts ...Option) (*Cache, error) {
	var c = &Cache{
		envs:    make(map[string]*Environment),
		watched: make(map[string]bool),
		viewDir: viewDir,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	ensureFilters()
	if c.watcher != nil {
		go c.watch()
	}
	return c, nil
}

// Environment returns the cached environment for the given ordered
// directories, creating it on first use.  The baseline view directory is
// appended last.  The same directories in the same order always yield the
// identical instance; a different order yields a distinct one.
func (c *Cache) Environment(dirs ...string) (*Environment, error) {
	var all = make([]string, 0, len(dirs)+1)
	all = append(all, dirs...)
	all = append(all, c.viewDir)
	var key = strings.Join(all, ":")

	c.mu.Lock()
	defer c.mu.Unlock()
	if env, ok := c.envs[key]; ok {
		return env, nil
	}

	var loaders = make([]pongo2.TemplateLoader, 0, len(all))
	for _, dir := range all {
		var loader, err = pongo2.NewLocalFileSystemLoader(dir)
		if err != nil {
			return nil, err
		}
		loaders = append(loaders, loader)
		c.addWatch(dir)
	}
	var env = &Environment{
		set:  pongo2.NewSet(key, loaders...),
		dirs: all,
	}
	c.envs[key] = env
	return env, nil
}

// addWatch is called with c.mu held.
func (c *Cache) addWatch(dir string) {
	if c.watcher == nil || c.watched[dir] {
		return
	}
	if err := c.watcher.Add(dir); err != nil {
		Logger.Printf("cannot watch %s: %v", dir, err)
		return
	}
	c.watched[dir] = true
}

// watch drops all cached environments whenever a watched directory changes.
// This is a development aid: best effort, coarse invalidation.
func (c *Cache) watch() {
	for {
		select {
		case ev, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) ||
				ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
				c.mu.Lock()
				c.envs = make(map[string]*Environment)
				c.mu.Unlock()
				Logger.Printf("templates reloaded (%v)", ev)
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			Logger.Println(err)
		}
	}
}
