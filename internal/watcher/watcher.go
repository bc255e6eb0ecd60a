package watcher

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

var videoExtensions = map[string]bool{
	".mp4": true, ".mkv": true, ".mov": true, ".avi": true,
	".webm": true, ".m4v": true, ".ts": true,
}

// OnVideo is called once a newly arrived video file has settled.
type OnVideo func(path string)

// Watcher monitors the inbox folder for arriving videos and hands settled
// files to the callback. Writes are debounced so half-copied files are not
// fingerprinted.
type Watcher struct {
	dir      string
	callback OnVideo
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	debounce map[string]*time.Timer
	stop     chan struct{}
}

// New creates a filesystem watcher over the inbox directory.
func New(dir string, cb OnVideo) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		dir:      dir,
		callback: cb,
		watcher:  fw,
		debounce: make(map[string]*time.Timer),
		stop:     make(chan struct{}),
	}, nil
}

// Start begins watching the inbox and processing events.
func (w *Watcher) Start() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}
	go w.eventLoop()
	log.Printf("[watcher] watching inbox %s", w.dir)
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.stop)
	w.watcher.Close()
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[watcher] error: %v", err)
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Skip hidden files and temp files
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") ||
		strings.HasSuffix(base, ".part") {
		return
	}
	if !videoExtensions[strings.ToLower(filepath.Ext(base))] {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	// A copy in progress fires a stream of writes; only act once the file
	// has been quiet for a bit.
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.debounce[event.Name]; ok {
		timer.Stop()
	}
	path := event.Name
	w.debounce[path] = time.AfterFunc(2*time.Second, func() {
		w.mu.Lock()
		delete(w.debounce, path)
		w.mu.Unlock()

		info, err := os.Stat(path)
		if err != nil || info.IsDir() || info.Size() == 0 {
			return
		}
		w.callback(path)
	})
}
