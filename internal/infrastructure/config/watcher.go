package config

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads config.yaml when it changes on disk and hands the new
// configuration to a callback. Invalid files are logged and ignored, so
// the last good configuration stays in effect.
type Watcher struct {
	basePath string
	watcher  *fsnotify.Watcher
	onChange func(*Config)
	logger   *zap.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewWatcher starts watching the .kin directory under basePath. The
// directory is watched rather than the file because editors commonly
// replace files by rename.
func NewWatcher(basePath string, logger *zap.Logger, onChange func(*Config)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	dir, err := filepath.Abs(ConfigDir(basePath))
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("resolving config directory: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	w := &Watcher{
		basePath: basePath,
		watcher:  fw,
		onChange: onChange,
		logger:   logger,
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.processEvents()
	return w, nil
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != DefaultConfigFile {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", zap.Error(err))

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.basePath)
	if err != nil {
		w.logger.Warn("ignoring invalid config change", zap.Error(err))
		return
	}
	w.logger.Info("config reloaded", zap.String("path", ConfigFilePath(w.basePath)))
	w.onChange(cfg)
}
