package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"resumecraft/internal/errors"
)

// PromptWatcher reloads prompt files when they change on disk
type PromptWatcher struct {
	mu sync.Mutex

	cfg   *Config
	files []string

	lastModTime map[string]time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	onReload func(error)
	logger   *errors.Logger

	running bool
}

// NewPromptWatcher creates a watcher for every prompt file in cfg. onReload
// is called after each reload attempt with its error, if any.
func NewPromptWatcher(cfg *Config, debounceDelay time.Duration, onReload func(error), logger *errors.Logger) *PromptWatcher {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}
	if onReload == nil {
		onReload = func(error) {}
	}
	if logger == nil {
		logger = errors.NewNopLogger()
	}

	return &PromptWatcher{
		cfg:           cfg,
		files:         cfg.PromptFiles(),
		lastModTime:   make(map[string]time.Time),
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		onReload:      onReload,
		logger:        logger,
	}
}

// Start begins watching. It is a no-op when no prompt files are configured.
func (pw *PromptWatcher) Start() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.running {
		return fmt.Errorf("prompt watcher is already running")
	}
	if len(pw.files) == 0 {
		pw.logger.Debug("No prompt files configured, prompt watcher not started")
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	pw.fsWatcher = watcher
	pw.updateModTimes()

	// Watch directories so atomic writes (rename over the file) are seen
	dirs := make([]string, 0, len(pw.files))
	for _, file := range pw.files {
		dir := filepath.Dir(file)
		if slices.Contains(dirs, dir) {
			continue
		}
		dirs = append(dirs, dir)
		if err := pw.fsWatcher.Add(dir); err != nil {
			pw.logger.Warn("Failed to watch prompt directory", "directory", dir, "error", err)
		}
	}

	pw.running = true
	go pw.watchLoop()

	pw.logger.Info("Prompt file watcher started",
		"files", pw.files,
		"debounce_delay", pw.debounceDelay)
	return nil
}

// Stop stops the watcher
func (pw *PromptWatcher) Stop() error {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if !pw.running {
		return nil
	}

	close(pw.stopChan)
	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}
	pw.running = false

	if err := pw.fsWatcher.Close(); err != nil {
		pw.logger.LogError(err, "Failed to close file system watcher")
		return err
	}

	pw.logger.Info("Prompt file watcher stopped")
	return nil
}

// IsRunning returns whether the watcher is currently running
func (pw *PromptWatcher) IsRunning() bool {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	return pw.running
}

func (pw *PromptWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-pw.fsWatcher.Events:
			if !ok {
				return
			}
			if pw.shouldProcessEvent(event) {
				pw.scheduleReload()
			}

		case err, ok := <-pw.fsWatcher.Errors:
			if !ok {
				return
			}
			pw.logger.LogError(err, "File watcher error")

		case <-pw.reloadChan:
			if pw.hasAnyFileChanged() {
				pw.logger.Info("Prompt files changed, reloading")
				err := pw.cfg.LoadPromptsFromFiles()
				if err != nil {
					pw.logger.LogError(err, "Prompt reload failed, keeping previous prompts")
				}
				pw.onReload(err)
			}

		case <-pw.stopChan:
			return
		}
	}
}

func (pw *PromptWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	isWatchedFile := slices.ContainsFunc(pw.files, func(file string) bool {
		return filepath.Clean(event.Name) == filepath.Clean(file) ||
			filepath.Base(event.Name) == filepath.Base(file)
	})
	if !isWatchedFile {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (pw *PromptWatcher) scheduleReload() {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	if pw.debounceTimer != nil {
		pw.debounceTimer.Stop()
	}
	pw.debounceTimer = time.AfterFunc(pw.debounceDelay, func() {
		select {
		case pw.reloadChan <- struct{}{}:
		default:
			// reload already pending
		}
	})
}

func (pw *PromptWatcher) updateModTimes() {
	for _, file := range pw.files {
		if stat, err := os.Stat(file); err == nil {
			pw.lastModTime[file] = stat.ModTime()
		}
	}
}

// hasAnyFileChanged is only called from watchLoop
func (pw *PromptWatcher) hasAnyFileChanged() bool {
	changed := false
	for _, file := range pw.files {
		stat, err := os.Stat(file)
		if err != nil {
			continue
		}
		if last, ok := pw.lastModTime[file]; !ok || !stat.ModTime().Equal(last) {
			pw.lastModTime[file] = stat.ModTime()
			changed = true
		}
	}
	return changed
}
