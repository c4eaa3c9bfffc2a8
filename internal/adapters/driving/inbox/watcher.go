package inbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/catalog-sync/internal/core/domain"
	"github.com/custodia-labs/catalog-sync/internal/core/ports/driving"
	"github.com/custodia-labs/catalog-sync/internal/logger"
	"github.com/custodia-labs/catalog-sync/internal/metrics"
)

// Subdirectories processed files are moved to.
const (
	DoneDir   = "done"
	FailedDir = "failed"
)

// Inbox file results reported to metrics.
const (
	resultApplied  = "applied"
	resultStale    = "stale"
	resultFailed   = "failed"
	resultRejected = "rejected"
)

// DefaultSettle is how long a file must stay quiet before it is applied.
const DefaultSettle = 250 * time.Millisecond

// Options tune a Watcher.
type Options struct {
	// Rate is the number of files applied per second. Zero means unlimited.
	Rate int

	// Settle is how long a file must stay unchanged before it is applied.
	Settle time.Duration
}

// Watcher applies index files dropped into a directory. Applied files move
// to done/, rejected and failed ones to failed/.
type Watcher struct {
	dir     string
	index   driving.IndexService
	limiter *rate.Limiter
	settle  time.Duration

	mu       sync.Mutex
	pending  map[string]*time.Timer
	jobs     chan string
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher for dir.
func NewWatcher(dir string, index driving.IndexService, opts Options) (*Watcher, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: inbox directory is required", domain.ErrInvalidInput)
	}
	if opts.Rate < 0 {
		return nil, fmt.Errorf("%w: inbox rate %d", domain.ErrInvalidInput, opts.Rate)
	}
	for _, sub := range []string{dir, filepath.Join(dir, DoneDir), filepath.Join(dir, FailedDir)} {
		if err := os.MkdirAll(sub, 0700); err != nil {
			return nil, fmt.Errorf("creating inbox directory: %w", err)
		}
	}

	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	settle := opts.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}
	return &Watcher{
		dir:     dir,
		index:   index,
		limiter: rate.NewLimiter(limit, 1),
		settle:  settle,
		pending: make(map[string]*time.Timer),
		jobs:    make(chan string, 64),
		done:    make(chan struct{}),
	}, nil
}

// ProcessPending applies every file already waiting in the inbox, oldest
// name first. Failures of individual files are joined.
func (w *Watcher) ProcessPending(ctx context.Context) error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("reading inbox: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		if err := w.process(ctx, filepath.Join(w.dir, name)); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run applies pending files and then every file created in the inbox
// until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer fw.Close()
	defer w.stop()
	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("Watching inbox %s", w.dir)

	// Files that arrive while pending ones are applied are caught by the watch.
	if err := w.ProcessPending(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		logger.Warn("Pending inbox files failed: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				w.schedule(event.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Inbox watcher error: %v", err)
		case path := <-w.jobs:
			if err := w.process(ctx, path); err != nil && ctx.Err() == nil {
				logger.Warn("%v", err)
			}
		}
	}
}

// schedule queues path once it has been quiet for the settle time.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case w.jobs <- path:
		case <-w.done:
		}
	})
}

// stop cancels pending timers and releases any still firing.
func (w *Watcher) stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		defer w.mu.Unlock()
		for path, t := range w.pending {
			t.Stop()
			delete(w.pending, path)
		}
	})
}

// process applies one file and moves it out of the inbox.
func (w *Watcher) process(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() || ignored(info.Name()) {
		// Already moved, a directory or still being written.
		return nil
	}

	job, err := ParseName(path)
	if err != nil {
		metrics.InboxFilesTotal.WithLabelValues(resultRejected).Inc()
		return w.moveTo(path, FailedDir, err)
	}
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}

	err = w.apply(ctx, job)
	switch {
	case err == nil:
		metrics.InboxFilesTotal.WithLabelValues(resultApplied).Inc()
		logger.Info("Applied %s", filepath.Base(path))
		return w.moveTo(path, DoneDir, nil)
	case ctx.Err() != nil:
		return err
	case errors.Is(err, domain.ErrStaleDiff):
		metrics.InboxFilesTotal.WithLabelValues(resultStale).Inc()
	default:
		metrics.InboxFilesTotal.WithLabelValues(resultFailed).Inc()
	}
	return w.moveTo(path, FailedDir, err)
}

func (w *Watcher) apply(ctx context.Context, job Job) error {
	f, err := os.Open(job.Path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", job.Path, err)
	}
	defer f.Close()

	if job.Mode == ModeFull {
		return w.index.ApplyFull(ctx, job.RepoID, job.Version, indexFormatVersion, f)
	}
	return w.index.Update(ctx, job.RepoID, job.Base, job.Version, f)
}

// moveTo files path under sub and returns cause annotated with the file name.
func (w *Watcher) moveTo(path, sub string, cause error) error {
	target := filepath.Join(w.dir, sub, filepath.Base(path))
	if err := os.Rename(path, target); err != nil {
		return errors.Join(cause, fmt.Errorf("moving %s to %s: %w", filepath.Base(path), sub, err))
	}
	if cause != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), cause)
	}
	return nil
}
