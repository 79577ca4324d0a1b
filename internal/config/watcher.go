package config

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounce is how long the watcher waits after the last change event.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads the config file on change and hands the fresh copy to
// every registered handler. Files that fail to load or validate are logged
// and skipped.
type Watcher struct {
	path     string
	debounce time.Duration
	handlers []func(*Config)
	onError  func(error)
	mu       sync.RWMutex
	watcher  *fsnotify.Watcher
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewWatcher(path string, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     path,
		debounce: debounce,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// OnReload registers a handler to be called when config changes.
func (w *Watcher) OnReload(handler func(*Config)) {
	w.mu.Lock()
	w.handlers = append(w.handlers, handler)
	w.mu.Unlock()
}

// OnError registers a callback for load failures.
func (w *Watcher) OnError(handler func(error)) {
	w.mu.Lock()
	w.onError = handler
	w.mu.Unlock()
}

func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(w.path); err != nil {
		fw.Close()
		return err
	}
	w.watcher = fw
	log.Info().Str("path", w.path).Dur("debounce", w.debounce).Msg("config watcher started")
	go w.watch()
	return nil
}

func (w *Watcher) Stop() error {
	w.cancel()
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) watch() {
	defer close(w.done)
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			log.Debug().Msg("config watcher stopped")
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// editors that replace the file produce Create instead of Write
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				log.Debug().Str("op", ev.Op.String()).Msg("config change detected")
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			}

		case <-timerC:
			timerC = nil
			w.loadAndNotify()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("config watcher error")
		}
	}
}

func (w *Watcher) loadAndNotify() {
	c, err := Load(w.path)
	w.mu.RLock()
	handlers := append(([]func(*Config))(nil), w.handlers...)
	onError := w.onError
	w.mu.RUnlock()

	if err != nil {
		log.Warn().Err(err).Str("path", w.path).Msg("config reload failed")
		if onError != nil {
			onError(err)
		}
		return
	}
	log.Info().Str("path", w.path).Msg("config reloaded")
	for _, h := range handlers {
		h(c)
	}
}
