package reload

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultThrottle is the minimum time between two reloads.
const DefaultThrottle = 500 * time.Millisecond

// Options configures Watch.
type Options struct {
	// Watch enables file watching. When false Watch only performs the initial
	// load.
	Watch bool
	// Throttle is the minimum time between reloads. The first change in a
	// window reloads immediately; later changes in the same window are
	// dropped. Zero disables throttling.
	Throttle time.Duration
	// WatchAllModules also watches modules under vendor or third_party
	// directories.
	WatchAllModules bool
	// ExtraFiles are watched alongside the module files.
	ExtraFiles []string
	// Logger receives load failures and watcher diagnostics.
	Logger *zap.Logger
	// OnLoad is called after the initial load and after every reload.
	OnLoad func(value any, err error)
}

// DefaultOptions watches with DefaultThrottle.
func DefaultOptions() Options {
	return Options{Watch: true, Throttle: DefaultThrottle}
}

// Stats counts watcher activity.
type Stats struct {
	Loads      int
	Failures   int
	Events     int
	Suppressed int
	LastEvent  string
}

// Watcher reloads an entry module when any file of its module graph changes.
type Watcher struct {
	cache   *Cache
	entry   string
	opts    Options
	logger  *zap.Logger
	limiter *rate.Limiter

	fs     *fsnotify.Watcher
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	files map[string]struct{}
	dirs  map[string]struct{}
	stats Stats
}

// Watch loads entry through cache and, when opts.Watch is set, keeps reloading
// it on every add, change or removal of a file in its module graph until ctx is
// cancelled or Close is called. Load failures are logged and never stop the
// watcher.
func Watch(ctx context.Context, cache *Cache, entry string, opts Options) (*Watcher, error) {
	w := &Watcher{
		cache:  cache,
		entry:  filepath.Clean(entry),
		opts:   opts,
		logger: opts.Logger,
		files:  map[string]struct{}{},
		dirs:   map[string]struct{}{},
		done:   make(chan struct{}),
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	limit := rate.Inf
	if opts.Throttle > 0 {
		limit = rate.Every(opts.Throttle)
	}
	w.limiter = rate.NewLimiter(limit, 1)

	w.load(ctx)
	if !opts.Watch {
		close(w.done)
		return w, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.fs = fsw
	w.refreshFiles()

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	go w.run(runCtx)
	return w, nil
}

// Close stops the watcher and releases the file watcher.
func (w *Watcher) Close() error {
	if w.fs == nil {
		return nil
	}
	w.cancel()
	<-w.done
	return w.fs.Close()
}

// Files returns the files currently watched.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	return out
}

// Stats returns a snapshot of the watcher counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.String("module", w.entry), zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, ev fsnotify.Event) {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return
	}
	name := filepath.Clean(ev.Name)
	w.mu.Lock()
	_, tracked := w.files[name]
	if tracked {
		w.stats.Events++
		w.stats.LastEvent = name
	}
	w.mu.Unlock()
	if !tracked {
		return
	}
	if !w.limiter.Allow() {
		w.mu.Lock()
		w.stats.Suppressed++
		w.mu.Unlock()
		return
	}
	w.logger.Debug("reloading", zap.String("module", w.entry), zap.String("changed", name), zap.Stringer("op", ev.Op))
	w.cache.Uncache(w.entry)
	w.load(ctx)
	w.refreshFiles()
}

// load requires the entry module, logging instead of returning failures.
func (w *Watcher) load(ctx context.Context) {
	v, err := w.cache.Require(ctx, w.entry)
	w.mu.Lock()
	w.stats.Loads++
	if err != nil {
		w.stats.Failures++
	}
	w.mu.Unlock()
	if err != nil {
		w.logger.Error("module load failed", zap.String("module", w.entry), zap.Error(err))
	}
	if w.opts.OnLoad != nil {
		w.opts.OnLoad(v, err)
	}
}

// refreshFiles recomputes the watched file set and watches any new directory.
func (w *Watcher) refreshFiles() {
	names := w.cache.Modules(w.entry)
	if len(names) == 0 {
		names = []string{w.entry}
	}
	if !w.opts.WatchAllModules {
		names = firstParty(names)
	}
	for _, f := range w.opts.ExtraFiles {
		names = append(names, filepath.Clean(f))
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.files = make(map[string]struct{}, len(names))
	for _, n := range names {
		w.files[n] = struct{}{}
		dir := filepath.Dir(n)
		if _, ok := w.dirs[dir]; ok {
			continue
		}
		if err := w.fs.Add(dir); err != nil {
			w.logger.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		w.dirs[dir] = struct{}{}
	}
}

// firstParty drops files that live under a vendor or third_party directory.
func firstParty(names []string) []string {
	out := names[:0:0]
	for _, n := range names {
		if !IsThirdParty(n) {
			out = append(out, n)
		}
	}
	return out
}

// IsThirdParty reports whether path has a vendor or third_party segment.
func IsThirdParty(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == "vendor" || seg == "third_party" {
			return true
		}
	}
	return false
}
