package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"cogmap/domain/services"
)

const debounceDuration = 100 * time.Millisecond

// LayoutWatcher watches the layout file and reports new spacing
type LayoutWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  services.LayoutConfig
	mu       sync.RWMutex
	onChange []func(services.LayoutConfig)
	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewLayoutWatcher loads the layout file and starts watching it
func NewLayoutWatcher(path string, logger *zap.Logger) (*LayoutWatcher, error) {
	// Load initial configuration
	layout, err := LoadLayoutFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial layout: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory so atomic saves (rename over the file) are seen
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch layout directory: %w", err)
	}

	return &LayoutWatcher{
		path:    path,
		watcher: watcher,
		current: layout,
		logger:  logger.Named("layout-watcher"),
		stopCh:  make(chan struct{}),
	}, nil
}

// Start begins watching for changes
func (w *LayoutWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("Layout watcher started", zap.String("path", w.path))
}

// Stop stops watching; it is safe to call more than once
func (w *LayoutWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.logger.Info("Layout watcher stopped")
	})
}

// OnChange registers a callback for layout changes
func (w *LayoutWatcher) OnChange(handler func(services.LayoutConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

// Current returns the last valid layout
func (w *LayoutWatcher) Current() services.LayoutConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *LayoutWatcher) watchLoop() {
	// Editors emit several events per save
	var debounceTimer *time.Timer

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, w.reload)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (w *LayoutWatcher) reload() {
	layout, err := LoadLayoutFile(w.path)
	if err != nil {
		w.logger.Error("Invalid layout file, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	old := w.current
	w.current = layout
	handlers := append([]func(services.LayoutConfig){}, w.onChange...)
	w.mu.Unlock()

	if old == layout {
		return
	}

	w.logger.Info("Layout reloaded",
		zap.Float64("levelHeight", layout.LevelHeight),
		zap.Float64("nodeWidth", layout.NodeWidth),
		zap.Float64("gap", layout.Gap),
	)
	for _, handler := range handlers {
		handler(layout)
	}
}
