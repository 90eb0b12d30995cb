package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vadviktor/icebreaker/pkg/logging"
)

// ChangeType represents the type of client file change detected
type ChangeType int

const (
	// ChangeTypeNone marks files the pipeline does not care about
	ChangeTypeNone ChangeType = iota
	// ChangeTypeConfig covers tsconfig, vite config and package.json changes
	ChangeTypeConfig
	// ChangeTypeSource covers TypeScript/JavaScript source changes
	ChangeTypeSource
	// ChangeTypeStyle covers stylesheet and markup changes
	ChangeTypeStyle
)

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// configFiles are client root files that force a full rebuild when touched
var configFiles = map[string]bool{
	"tsconfig.json":  true,
	"vite.config.ts": true,
	"vite.config.js": true,
	"package.json":   true,
}

// FileWatcher watches a client directory for source changes
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	clientDir string
	events    chan ChangeEvent
	done      chan struct{}
	closeOnce sync.Once
}

// NewFileWatcher creates a new file system watcher for a client directory
func NewFileWatcher(clientDir string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher:   watcher,
		clientDir: clientDir,
		events:    make(chan ChangeEvent, 100),
		done:      make(chan struct{}),
	}

	return fw, nil
}

// Start begins watching for file changes
func (fw *FileWatcher) Start(ctx context.Context) error {
	if err := fw.watchSourceDirs(); err != nil {
		return err
	}

	logging.Info("started watching client", "path", fw.clientDir)

	go fw.processEvents(ctx)

	return nil
}

// watchSourceDirs adds the client root and every directory under src/ to the
// watcher; fsnotify watches are not recursive. Build outputs and node_modules
// are skipped so the watcher does not trigger on its own pipeline runs.
func (fw *FileWatcher) watchSourceDirs() error {
	count := 0

	err := filepath.Walk(fw.clientDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip files we can't access
		}

		if !info.IsDir() {
			return nil
		}

		name := info.Name()
		if path != fw.clientDir && (name == "node_modules" || name == "dist" || strings.HasPrefix(name, ".")) {
			return filepath.SkipDir
		}

		if watchErr := fw.watcher.Add(path); watchErr != nil {
			logging.Warn("failed to watch directory", "path", path, "error", watchErr)
			return nil
		}
		count++

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk client directory: %w", err)
	}

	logging.Info("monitoring client directories", "count", count)
	return nil
}

// processEvents processes file system events and batches them by type
func (fw *FileWatcher) processEvents(ctx context.Context) {
	// Batch events to avoid sending one event per file
	var config []string
	var source []string
	var style []string

	flushTimer := time.NewTimer(100 * time.Millisecond)
	flushTimer.Stop()

	flush := func() {
		if len(config) > 0 {
			fw.events <- ChangeEvent{Type: ChangeTypeConfig, Paths: config, Timestamp: time.Now()}
			config = nil
		}
		if len(source) > 0 {
			fw.events <- ChangeEvent{Type: ChangeTypeSource, Paths: source, Timestamp: time.Now()}
			source = nil
		}
		if len(style) > 0 {
			fw.events <- ChangeEvent{Type: ChangeTypeStyle, Paths: style, Timestamp: time.Now()}
			style = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			fw.watcher.Close()
			fw.closeChannels()
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				fw.closeChannels()
				return
			}

			// Newly created directories need their own watch
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := fw.watcher.Add(event.Name); err != nil {
						logging.Warn("failed to watch new directory", "path", event.Name, "error", err)
					}
					continue
				}
			}

			changeType, relevant := Classify(event.Name)
			if !relevant {
				continue
			}

			switch changeType {
			case ChangeTypeConfig:
				config = append(config, event.Name)
			case ChangeTypeSource:
				source = append(source, event.Name)
			case ChangeTypeStyle:
				style = append(style, event.Name)
			}
			flushTimer.Reset(100 * time.Millisecond)

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				fw.closeChannels()
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// closeChannels closes the event and done channels exactly once. Only
// processEvents calls it; the Once guards against the context-cancel and
// watcher-closed paths both firing during shutdown.
func (fw *FileWatcher) closeChannels() {
	fw.closeOnce.Do(func() {
		close(fw.events)
		close(fw.done)
	})
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Done is closed once the event processor has shut down
func (fw *FileWatcher) Done() <-chan struct{} {
	return fw.done
}

// Stop stops the file watcher. Closing the fsnotify watcher ends the event
// stream, which lets processEvents drain and close its channels. Safe to call
// after context cancellation.
func (fw *FileWatcher) Stop() error {
	return fw.watcher.Close()
}
