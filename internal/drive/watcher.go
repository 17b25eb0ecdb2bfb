package drive

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Watcher polls a Drive folder and calls onChange when any watched file gets a
// new modification time.
type Watcher struct {
	files    FileStore
	folderID string
	names    []string
	interval time.Duration
	onChange func(ctx context.Context) error

	mu   sync.Mutex
	seen map[string]string
}

func NewWatcher(files FileStore, folderID string, names []string, interval time.Duration, onChange func(ctx context.Context) error) *Watcher {
	return &Watcher{
		files:    files,
		folderID: folderID,
		names:    names,
		interval: interval,
		onChange: onChange,
		seen:     make(map[string]string),
	}
}

// Check lists the folder once and reports whether a watched file changed since
// the previous check. The first check records the state and reports false.
func (w *Watcher) Check(ctx context.Context) (bool, error) {
	files, err := w.files.ListFiles(ctx, w.folderID)
	if err != nil {
		return false, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	first := len(w.seen) == 0
	changed := false
	for _, name := range w.names {
		f := findNewest(files, name)
		if f == nil {
			continue
		}
		if prev, ok := w.seen[name]; ok && prev != f.ModifiedTime {
			changed = true
		}
		w.seen[name] = f.ModifiedTime
	}
	return changed && !first, nil
}

// Run polls until ctx is done
func (w *Watcher) Run(ctx context.Context) {
	if w.interval <= 0 {
		return
	}

	if _, err := w.Check(ctx); err != nil {
		log.Warn().Err(err).Str("folder", w.folderID).Msg("initial drive check failed")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			changed, err := w.Check(ctx)
			if err != nil {
				log.Warn().Err(err).Str("folder", w.folderID).Msg("drive check failed")
				continue
			}
			if !changed {
				continue
			}
			log.Info().Str("folder", w.folderID).Msg("drive dataset changed, reloading")
			if err := w.onChange(ctx); err != nil {
				log.Error().Err(err).Msg("reload after drive change failed")
			}
		}
	}
}
