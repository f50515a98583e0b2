package modules

import (
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// A Watcher marks registered script modules stale when their backing files
// change on disc. It watches directories, since that is what fsnotify is good
// at, and matches events against the registry by path.
type Watcher struct {
	fw  *fsnotify.Watcher
	reg *Registry
	log *slog.Logger
}

func NewWatcher(reg *Registry, log *slog.Logger) (*Watcher, error) {
	fw, e := fsnotify.NewWatcher()
	if e != nil {
		return nil, e
	}
	w := &Watcher{fw: fw, reg: reg, log: log}
	go w.run()
	return w, nil
}

// Add puts a directory under watch.
func (w *Watcher) Add(dir string) error {
	return w.fw.Add(dir)
}

func (w *Watcher) Close() error {
	return w.fw.Close()
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename) {
				w.reg.MarkStale(event.Name)
				w.log.Debug("script changed on disc", "script", event.Name, "op", event.Op.String())
			}
		case e, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watcher error", "error", e)
		}
	}
}
