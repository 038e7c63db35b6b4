package planfile

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kilianp07/mineplan/core/events"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 250 * time.Millisecond

// Watch calls onChange after the plan file settles following a write,
// create or rename. The parent directory is watched so atomic replacements
// are seen. Watch blocks until ctx is canceled.
func (s *FileSource) Watch(ctx context.Context, debounce time.Duration, onChange func(events.PlanChanged)) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	dir := filepath.Dir(s.path)
	file := filepath.Base(s.path)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	schedule := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, func() {
			if ctx.Err() != nil {
				return
			}
			onChange(events.PlanChanged{Path: s.path, Time: time.Now()})
		})
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != file {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				schedule()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.log.Warnf("plan watcher: %v", err)
		}
	}
}
