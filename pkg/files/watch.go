package files

import (
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher follows the single current directory and reports external
// changes so the Browser can reload its listing. Only one directory is
// watched at a time; Watch replaces the previous one.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	changed   chan string

	mu  sync.Mutex
	dir string
}

func NewWatcher() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsWatcher: fsWatcher,
		changed:   make(chan string, 1),
	}
	go w.loop()
	return w, nil
}

// Changed delivers the path of a directory whose content changed
// externally. Events are coalesced: at most one is pending.
func (w *Watcher) Changed() <-chan string {
	return w.changed
}

// Watch replaces the watched directory. Unsupported filesystems are
// not fatal: the caller just stops getting change events.
func (w *Watcher) Watch(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dir == dir {
		return nil
	}
	if w.dir != "" {
		if err := w.fsWatcher.Remove(w.dir); err != nil {
			logrus.WithField("dir", w.dir).WithError(err).Debug("unwatch failed")
		}
	}
	w.dir = ""
	if err := w.fsWatcher.Add(dir); err != nil {
		return err
	}
	w.dir = dir
	return nil
}

func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename|fsnotify.Write) == 0 {
				continue
			}
			w.mu.Lock()
			dir := w.dir
			w.mu.Unlock()
			if dir == "" {
				continue
			}
			select {
			case w.changed <- dir:
			default:
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			logrus.WithError(err).Debug("watcher error")
		}
	}
}
