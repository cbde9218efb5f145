package catalogfile

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher reloads a Source when its file changes. It watches the parent
// directory so editors that replace the file by rename are picked up.
type Watcher struct {
	source   *Source
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger
}

// NewWatcher starts watching the source's directory
func NewWatcher(source *Source, logger *zap.Logger) (*Watcher, error) {
	if source.Path() == "" {
		return nil, errors.New("catalog source has no file to watch")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(source.Path())
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, err
	}
	logger.Info("watching catalog", zap.String("dir", dir))

	return &Watcher{source: source, watcher: fw, debounce: defaultDebounce, logger: logger}, nil
}

// Run processes file events until ctx is done, then closes the watcher.
// Bursts of events within the debounce window trigger a single reload.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	target := filepath.Clean(w.source.Path())
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !relevant(ev.Op) {
				continue
			}
			w.logger.Debug("catalog file changed", zap.String("op", ev.Op.String()))
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("catalog watcher error", zap.Error(err))

		case <-timer.C:
			_ = w.source.Reload()
		}
	}
}

func relevant(op fsnotify.Op) bool {
	return op.Has(fsnotify.Write) || op.Has(fsnotify.Create) || op.Has(fsnotify.Rename)
}
