package scanner

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/thereceipt/desk-engine/internal/logger"
	"go.uber.org/zap"
)

// OpenFunc opens the reader for a device path
type OpenFunc func(path string) (*Reader, error)

// HandlerFunc builds the frame handler for a device path
type HandlerFunc func(path string) Handler

// WorkerStatus describes one supervised reader
type WorkerStatus struct {
	Path      string `json:"path"`
	Running   bool   `json:"running"`
	Restarts  int    `json:"restarts"`
	LastError string `json:"last_error,omitempty"`
}

type worker struct {
	path     string
	reader   *Reader
	done     chan struct{}
	restarts int
	lastErr  error
	stopped  bool
}

func (w *worker) running() bool {
	select {
	case <-w.done:
		return false
	default:
		return true
	}
}

// Supervisor keeps one read loop running per wanted reader path. Each
// loop is its own failure domain: a dead loop is restarted by the
// watchdog without touching the others.
type Supervisor struct {
	open     OpenFunc
	handler  HandlerFunc
	interval time.Duration

	mu      sync.Mutex
	workers map[string]*worker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSupervisor creates a supervisor. open defaults to a 115200 8N1 port.
func NewSupervisor(open OpenFunc, handler HandlerFunc, interval time.Duration) *Supervisor {
	if open == nil {
		open = func(path string) (*Reader, error) {
			return Open(DefaultPortConfig(path))
		}
	}
	if interval <= 0 {
		interval = time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Supervisor{
		open:     open,
		handler:  handler,
		interval: interval,
		workers:  make(map[string]*worker),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs the watchdog
func (s *Supervisor) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.restartDead()
			}
		}
	}()
}

// Sync starts loops for new paths and stops loops for paths no longer
// listed
func (s *Supervisor) Sync(paths []string) {
	wanted := make(map[string]bool, len(paths))
	for _, p := range paths {
		wanted[p] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for path, w := range s.workers {
		if !wanted[path] {
			logger.Info("stopping reader, no longer in use", zap.String("reader", path))
			s.stopWorker(w)
			delete(s.workers, path)
		}
	}

	for path := range wanted {
		if _, ok := s.workers[path]; !ok {
			logger.Info("starting reader", zap.String("reader", path))
			s.workers[path] = s.startWorker(path, 0)
		}
	}
}

// must be called with s.mu held
func (s *Supervisor) startWorker(path string, restarts int) *worker {
	w := &worker{
		path:     path,
		done:     make(chan struct{}),
		restarts: restarts,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(w.done)

		r, err := s.open(path)
		if err != nil {
			s.finish(w, err)
			return
		}

		s.mu.Lock()
		if w.stopped {
			s.mu.Unlock()
			r.Close()
			return
		}
		w.reader = r
		s.mu.Unlock()

		err = r.Run(s.handler(path))
		r.Close()
		s.finish(w, err)
	}()

	return w
}

func (s *Supervisor) finish(w *worker, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w.lastErr = err
	if w.stopped {
		return
	}
	if err != nil {
		logger.Warn("reader stopped with error", zap.String("reader", w.path), zap.Error(err))
	} else {
		logger.Info("reader reached end of stream", zap.String("reader", w.path))
	}
}

// must be called with s.mu held
func (s *Supervisor) stopWorker(w *worker) {
	w.stopped = true
	if w.reader != nil {
		w.reader.Close()
	}
}

func (s *Supervisor) restartDead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for path, w := range s.workers {
		if w.running() {
			continue
		}
		logger.Info("reader is dead, restarting", zap.String("reader", path), zap.Int("restarts", w.restarts+1))
		s.workers[path] = s.startWorker(path, w.restarts+1)
	}
}

// Status returns the supervised readers ordered by path
func (s *Supervisor) Status() []WorkerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]WorkerStatus, 0, len(s.workers))
	for path, w := range s.workers {
		st := WorkerStatus{
			Path:     path,
			Running:  w.running(),
			Restarts: w.restarts,
		}
		if w.lastErr != nil {
			st.LastError = w.lastErr.Error()
		}
		result = append(result, st)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result
}

// Stop stops the watchdog and every reader and waits for them to exit
func (s *Supervisor) Stop() {
	s.cancel()

	s.mu.Lock()
	for path, w := range s.workers {
		s.stopWorker(w)
		delete(s.workers, path)
	}
	s.mu.Unlock()

	s.wg.Wait()
}
