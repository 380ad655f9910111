package policy

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher watches a policy file for changes and triggers reloads.
// It debounces rapid write bursts (editors often write files in several
// events) so a save triggers a single reload.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	path     string
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
}

// FileWatcherConfig contains configuration for the file watcher.
type FileWatcherConfig struct {
	// Path is the policy file to watch.
	Path string

	// DebounceInterval is the time to wait before triggering a reload
	// after detecting file changes (default: 100ms).
	DebounceInterval time.Duration
}

// NewFileWatcher creates a new policy file watcher.
func NewFileWatcher(cfg FileWatcherConfig, logger *slog.Logger) (*FileWatcher, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("watch path cannot be empty")
	}
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = 100 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher:  watcher,
		logger:   logger.With("component", "policy.watcher"),
		path:     cfg.Path,
		debounce: cfg.DebounceInterval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching and invokes onReload after each debounced change.
// A failed reload is logged and the previous policy table stays in effect.
func (fw *FileWatcher) Start(onReload func() error) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.started {
		return fmt.Errorf("watcher already started")
	}

	// Watch the directory: editors replace files via rename, which would
	// otherwise drop the watch on the file itself.
	dir := filepath.Dir(fw.path)
	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	fw.started = true
	go fw.loop(onReload)

	fw.logger.Info("policy file watcher started", "path", fw.path)
	return nil
}

func (fw *FileWatcher) loop(onReload func() error) {
	defer close(fw.doneCh)

	target := filepath.Clean(fw.path)
	for {
		select {
		case <-fw.stopCh:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			fw.scheduleReload(onReload)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("watch error", "error", err)
		}
	}
}

// scheduleReload resets the debounce timer.
func (fw *FileWatcher) scheduleReload(onReload func() error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.debounce, func() {
		if err := onReload(); err != nil {
			fw.logger.Error("policy reload failed, keeping previous policies",
				"path", fw.path,
				"error", err,
			)
			return
		}
		fw.logger.Info("policies reloaded", "path", fw.path)
	})
}

// Stop stops the watcher and releases resources.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if !fw.started {
		fw.mu.Unlock()
		return fw.watcher.Close()
	}
	select {
	case <-fw.stopCh:
	default:
		close(fw.stopCh)
	}
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.mu.Unlock()

	<-fw.doneCh
	return fw.watcher.Close()
}
