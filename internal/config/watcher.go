package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

// DefaultReloadDelay collapses the burst of events editors emit on save.
const DefaultReloadDelay = 250 * time.Millisecond

// FileWatcher reloads a ConfigManager when its file changes on disk.
type FileWatcher struct {
	manager *ConfigManager
	logger  hclog.Logger
	watcher *fsnotify.Watcher
	delay   time.Duration

	mu    sync.Mutex
	timer *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewFileWatcher watches the directory holding the manager's config file.
// The directory is watched rather than the file so that atomic
// rename-on-save keeps working.
func NewFileWatcher(manager *ConfigManager, logger hclog.Logger, delay time.Duration) (*FileWatcher, error) {
	path := manager.Path()
	if path == "" {
		return nil, fmt.Errorf("no config path set")
	}
	if delay <= 0 {
		delay = DefaultReloadDelay
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &FileWatcher{
		manager: manager,
		logger:  logger.Named("config-watcher"),
		watcher: watcher,
		delay:   delay,
	}, nil
}

// Start begins processing file events until ctx is cancelled or Stop is called.
func (fw *FileWatcher) Start(ctx context.Context) {
	fw.ctx, fw.cancel = context.WithCancel(ctx)
	fw.wg.Add(1)
	go fw.eventLoop()
	fw.logger.Info("watching configuration file", "path", fw.manager.Path())
}

// Stop ends the event loop and releases the watcher.
func (fw *FileWatcher) Stop() error {
	if fw.cancel != nil {
		fw.cancel()
	}
	fw.wg.Wait()

	fw.mu.Lock()
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.mu.Unlock()

	return fw.watcher.Close()
}

func (fw *FileWatcher) eventLoop() {
	defer fw.wg.Done()

	target := filepath.Clean(fw.manager.Path())
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				fw.scheduleReload()
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("file watcher error", "error", err)
		case <-fw.ctx.Done():
			return
		}
	}
}

func (fw *FileWatcher) scheduleReload() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.delay, func() {
		if fw.ctx.Err() != nil {
			return
		}
		if err := fw.manager.Reload(); err != nil {
			// the previous configuration stays in effect
			fw.logger.Warn("configuration reload failed", "error", err)
			return
		}
		fw.logger.Info("configuration reloaded")
	})
}
