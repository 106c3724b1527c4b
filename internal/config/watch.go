package config

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"

	"github.com/factmesh/factmesh/internal/core"
)

// WeightWatcher re-reads the aggregation weight overrides when the
// config file changes, so a running server picks up tuning without a
// restart. Only the weight section is hot; everything else needs a
// restart.
type WeightWatcher struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchWeights watches the given config file and invokes onChange with
// the freshly parsed weight overrides after every write.
func WatchWeights(path string, logger *slog.Logger, onChange func(map[core.Dimension]float64)) (*WeightWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, err
	}

	w := &WeightWatcher{watcher: watcher, done: make(chan struct{})}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := NewLoader().WithConfigFile(path).Load()
				if err != nil {
					logger.Warn("config reload failed, keeping current weights", "error", err)
					continue
				}
				overrides := ParseWeightOverrides(cfg.Aggregation.WeightOverrides)
				logger.Info("aggregation weights reloaded", "overrides", len(overrides))
				onChange(overrides)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", "error", err)
			case <-w.done:
				return
			}
		}
	}()

	return w, nil
}

// Close stops the watcher.
func (w *WeightWatcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

// ParseWeightOverrides converts the string-keyed config section into
// dimension-keyed overrides, dropping unknown dimension names.
func ParseWeightOverrides(raw map[string]float64) map[core.Dimension]float64 {
	if len(raw) == 0 {
		return nil
	}
	overrides := make(map[core.Dimension]float64, len(raw))
	for name, w := range raw {
		dim := core.Dimension(name)
		for _, known := range core.Dimensions {
			if dim == known {
				overrides[dim] = w
				break
			}
		}
	}
	return overrides
}
