package config

import (
	"log"

	"github.com/fsnotify/fsnotify"
	"github.com/samsarahq/go/oops"
)

// Watcher reloads Config from path whenever the file changes on disk,
// invoking onChange with the freshly parsed value (spec.md §5 "Hot
// reload"): a background goroutine reloads the file and hands the new
// Config to onChange, rather than restarting the process. How the new
// value is applied is up to onChange; a reload that fails to parse is
// logged and the previous config is kept.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(*Config)
	done     chan struct{}
}

// NewWatcher loads path once synchronously (returning any parse error
// immediately) and arranges to call onChange on every subsequent write.
func NewWatcher(path string, onChange func(*Config)) (*Watcher, *Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, oops.Wrapf(err, "creating config watcher")
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, nil, oops.Wrapf(err, "watching config %s", path)
	}

	w := &Watcher{
		path:     path,
		watcher:  fw,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.run()
	return w, cfg, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := Load(w.path)
			if err != nil {
				log.Printf("config: reload of %s failed, keeping previous config: %v", w.path, err)
				continue
			}
			w.onChange(cfg)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("config: watcher error: %v", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
