// Package filedb implements the bounded-concurrency directory crawler and
// the fuzzy search over its resulting file store.
package filedb

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/sync/semaphore"

	"github.com/meshwatch/meshwatch/internal/model"
)

var log = logging.Logger("filedb")

// MaxConcurrentCrawler bounds how many directory reads may be in flight at
// once across an entire crawl.
const MaxConcurrentCrawler = 100

// MaxUpdateFrequency throttles how often UpdateProgress events are
// emitted during a crawl.
const MaxUpdateFrequency = 100 * time.Millisecond

// EventKind tags a FileDatabaseEvent.
type EventKind int

const (
	EventUpdateProgress EventKind = iota
	EventUpdateComplete
)

// Event is the database's outward event, delivered to the core's event
// loop.
type Event struct {
	Kind  EventKind
	Ratio float64 // progress ratio; 1.0 on EventUpdateComplete
}

// Database owns the crawl state and fuzzy search over its result. Only
// one crawl may be in flight at a time.
type Database struct {
	mu      sync.Mutex
	dirs    []string
	store   model.FileStore
	events  chan Event
	running atomic.Bool

	queued   atomic.Int64
	finished atomic.Int64

	cancel context.CancelFunc
}

// New returns a Database with no configured directories and an empty
// store.
func New() *Database {
	return &Database{events: make(chan Event, 16)}
}

func (d *Database) AddPath(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dirs = append(d.dirs, path)
}

func (d *Database) DelPath(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, p := range d.dirs {
		if p == path {
			d.dirs = append(d.dirs[:i], d.dirs[i+1:]...)
			return
		}
	}
}

func (d *Database) ClearPaths() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dirs = nil
}

func (d *Database) GetPaths() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.dirs))
	copy(out, d.dirs)
	return out
}

func (d *Database) AllFiles() model.FileStore {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.store
}

func (d *Database) FindFile(name string) (model.FileEntry, bool) {
	d.mu.Lock()
	store := d.store
	d.mu.Unlock()
	return store.Find(name)
}

// Event returns the channel of outward database events.
func (d *Database) Event() <-chan Event { return d.events }

// StartUpdate begins a new crawl over the configured media directories.
// Starting a crawl while one is already in flight is a no-op with a
// warning, matching the "exactly one crawl in flight" invariant.
func (d *Database) StartUpdate() {
	if !d.running.CompareAndSwap(false, true) {
		log.Warnw("crawl already in progress, ignoring StartUpdate")
		return
	}

	d.queued.Store(0)
	d.finished.Store(0)

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	dirs := d.GetPaths()
	sem := semaphore.NewWeighted(MaxConcurrentCrawler)

	go d.runCrawl(ctx, dirs, sem)
}

// StopUpdate aborts any in-flight crawl. The next StartUpdate resets both
// counters.
func (d *Database) StopUpdate() {
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (d *Database) runCrawl(ctx context.Context, dirs []string, sem *semaphore.Weighted) {
	defer d.running.Store(false)

	var wg sync.WaitGroup
	var filesMu sync.Mutex
	var files []model.FileEntry

	stopProgress := d.throttledProgress(ctx)
	defer stopProgress()

	for _, dir := range dirs {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			d.crawlDir(ctx, path, sem, &filesMu, &files)
		}(dir)
	}
	wg.Wait()

	select {
	case <-ctx.Done():
		return
	default:
	}

	d.mu.Lock()
	d.store = model.NewFileStore(files)
	d.mu.Unlock()

	d.emit(Event{Kind: EventUpdateComplete, Ratio: d.ratio()})
}

// throttledProgress emits UpdateProgress events at most every
// MaxUpdateFrequency while the crawl runs.
func (d *Database) throttledProgress(ctx context.Context) func() {
	ticker := time.NewTicker(MaxUpdateFrequency)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				d.emit(Event{Kind: EventUpdateProgress, Ratio: d.ratio()})
			}
		}
	}()
	return func() { close(done) }
}

func (d *Database) ratio() float64 {
	queued := d.queued.Load()
	if queued == 0 {
		return 1.0
	}
	finished := d.finished.Load()
	r := float64(finished) / float64(queued)
	if r > 1 {
		r = 1
	}
	return r
}

func (d *Database) emit(ev Event) {
	select {
	case d.events <- ev:
	default:
		// Producers must not block the core; drop the oldest pending
		// progress event rather than stall.
		select {
		case <-d.events:
		default:
		}
		d.events <- ev
	}
}

// crawlDir walks one directory, spawning a child crawl for each
// subdirectory found and sharing the same semaphore across the whole
// tree. Exactly one permit is held for the lifetime of a single
// directory's own read, then released before recursing into children.
func (d *Database) crawlDir(ctx context.Context, dir string, sem *semaphore.Weighted, filesMu *sync.Mutex, files *[]model.FileEntry) {
	d.queued.Add(1)
	defer d.finished.Add(1)

	if err := sem.Acquire(ctx, 1); err != nil {
		return
	}
	entries, err := os.ReadDir(dir)
	sem.Release(1)
	if err != nil {
		log.Warnw("skipping unreadable directory", "dir", dir, "error", err)
		return
	}

	var childWg sync.WaitGroup
	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return
		default:
		}

		full := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			childWg.Add(1)
			go func(path string) {
				defer childWg.Done()
				d.crawlDir(ctx, path, sem, filesMu, files)
			}(full)
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}

		fe := model.FileEntry{Name: entry.Name(), AbsolutePath: full}
		if info, err := entry.Info(); err == nil {
			fe.ModifiedTime = info.ModTime()
			fe.HasModified = true
		}
		filesMu.Lock()
		*files = append(*files, fe)
		filesMu.Unlock()
	}
	childWg.Wait()
}
