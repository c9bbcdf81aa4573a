package reverse

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/koustreak/sqlreverse/internal/errs"
)

// DefaultDebounce is how long Watch waits for a burst of file events to
// settle before re-running.
const DefaultDebounce = 300 * time.Millisecond

// Watch runs the pipeline, then re-runs it whenever a template matching the
// glob or the override file is written or created. A failing first run is
// returned; later failures are logged and watching continues. Watch returns
// nil once ctx is cancelled.
func (g *Generator) Watch(ctx context.Context, debounce time.Duration) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if _, err := g.Run(ctx); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errs.Wrap(errs.ErrKindIOFailed, "create file watcher", err)
	}
	defer watcher.Close()

	dirs := []string{filepath.Dir(g.opts.TemplateGlob)}
	if g.opts.OverridePath != "" {
		dirs = append(dirs, filepath.Dir(g.opts.OverridePath))
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return errs.Wrap(errs.ErrKindIOFailed, "watch "+dir, err)
		}
	}
	g.log.InfoWith("watching for changes", map[string]interface{}{"dirs": dirs})

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			g.log.Info("watch stopped")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !g.watched(event.Name) {
				continue
			}
			g.log.With().Str("file", event.Name).Logger().Debug("change detected")
			timer.Reset(debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			g.log.With().Err(err).Logger().Warn("watcher error")
		case <-timer.C:
			if _, err := g.Run(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				g.log.ErrorWith("regeneration failed", err, nil)
			}
		}
	}
}

// watched reports whether a change to name should trigger a run.
func (g *Generator) watched(name string) bool {
	name = filepath.Clean(name)
	if g.opts.OverridePath != "" && name == filepath.Clean(g.opts.OverridePath) {
		return true
	}
	ok, err := filepath.Match(filepath.Clean(g.opts.TemplateGlob), name)
	return err == nil && ok
}
