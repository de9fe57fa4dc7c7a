// FILE: watcher.go
package auditfile

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// ConfigWatcher reloads the interceptor's configuration whenever its TOML
// file changes on disk. ApplyConfig raises the shared force-rotation flag
// when the directory, pattern, or interval changed, so workers pick the
// new target up on their next write without any direct signal.
type ConfigWatcher struct {
	it      *Interceptor
	path    string
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// WatchConfig starts watching path and applying it on change. The parent
// directory is watched rather than the file itself so atomic
// rename-into-place saves are seen.
func WatchConfig(it *Interceptor, path string) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmtErrorf("could not resolve config path '%s': %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmtErrorf("could not create config watcher: %w", err)
	}

	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmtErrorf("could not watch config directory '%s': %w", filepath.Dir(abs), err)
	}

	cw := &ConfigWatcher{
		it:      it,
		path:    abs,
		watcher: fw,
		done:    make(chan struct{}),
	}
	go cw.run()
	return cw, nil
}

// run is the watch loop. Reload failures are reported through the server
// logger and the previous configuration stays in effect.
func (cw *ConfigWatcher) run() {
	for {
		select {
		case ev, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Clean(ev.Name) != cw.path {
				continue
			}
			cw.reload()

		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.it.warnf("auditfile: config watcher error: %v", err)

		case <-cw.done:
			return
		}
	}
}

// reload loads and applies the config file
func (cw *ConfigWatcher) reload() {
	cfg, err := NewConfigFromFile(cw.path)
	if err != nil {
		cw.it.warnf("auditfile: could not reload config '%s': %v", cw.path, err)
		return
	}
	if err := cw.it.ApplyConfig(cfg); err != nil {
		cw.it.warnf("auditfile: could not apply config '%s': %v", cw.path, err)
	}
}

// Close stops the watcher. Safe to call once.
func (cw *ConfigWatcher) Close() error {
	close(cw.done)
	return cw.watcher.Close()
}
