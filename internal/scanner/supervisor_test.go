package scanner

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

type fakePorts struct {
	mu      sync.Mutex
	opens   map[string]int
	writers map[string]*io.PipeWriter
	fail    map[string]error
}

func newFakePorts() *fakePorts {
	return &fakePorts{
		opens:   make(map[string]int),
		writers: make(map[string]*io.PipeWriter),
		fail:    make(map[string]error),
	}
}

func (f *fakePorts) open(path string) (*Reader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.opens[path]++
	if err := f.fail[path]; err != nil {
		return nil, err
	}
	pr, pw := io.Pipe()
	f.writers[path] = pw
	return NewReader(path, pr), nil
}

func (f *fakePorts) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens[path]
}

func (f *fakePorts) writer(path string) *io.PipeWriter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writers[path]
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met")
}

func noopHandler(string) Handler {
	return func(string) error { return nil }
}

func TestSupervisor_SyncStartsAndStops(t *testing.T) {
	ports := newFakePorts()
	s := NewSupervisor(ports.open, noopHandler, time.Hour)
	defer s.Stop()

	s.Sync([]string{"/dev/ttyACM0", "/dev/ttyACM1"})
	waitFor(t, func() bool { return ports.count("/dev/ttyACM0") == 1 && ports.count("/dev/ttyACM1") == 1 })

	status := s.Status()
	if len(status) != 2 || !status[0].Running || status[0].Path != "/dev/ttyACM0" {
		t.Fatalf("Unexpected status %+v", status)
	}

	s.Sync([]string{"/dev/ttyACM1"})
	if status := s.Status(); len(status) != 1 || status[0].Path != "/dev/ttyACM1" {
		t.Errorf("Expected only ACM1 to remain, got %+v", status)
	}

	// already running, not reopened
	s.Sync([]string{"/dev/ttyACM1"})
	if n := ports.count("/dev/ttyACM1"); n != 1 {
		t.Errorf("Expected a single open, got %d", n)
	}
}

func TestSupervisor_RestartsDeadReader(t *testing.T) {
	ports := newFakePorts()
	frames := make(chan string, 4)
	s := NewSupervisor(ports.open, func(path string) Handler {
		return func(frame string) error {
			frames <- frame
			return nil
		}
	}, time.Hour)
	defer s.Stop()

	s.Sync([]string{"/dev/ttyACM0"})
	waitFor(t, func() bool { return ports.writer("/dev/ttyACM0") != nil })

	ports.writer("/dev/ttyACM0").CloseWithError(errors.New("unplugged"))
	waitFor(t, func() bool {
		st := s.Status()
		return len(st) == 1 && !st[0].Running
	})
	if st := s.Status(); st[0].LastError == "" {
		t.Error("Expected the read error to be recorded")
	}

	s.restartDead()
	waitFor(t, func() bool { return ports.count("/dev/ttyACM0") == 2 })

	st := s.Status()
	if st[0].Restarts != 1 {
		t.Errorf("Expected 1 restart, got %d", st[0].Restarts)
	}

	// the restarted loop reads from the new port
	waitFor(t, func() bool { return s.Status()[0].Running })
	go ports.writer("/dev/ttyACM0").Write([]byte("X\n"))
	select {
	case f := <-frames:
		if f != "X\n" {
			t.Errorf("Unexpected frame %q", f)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("restarted reader delivered nothing")
	}
}

func TestSupervisor_OpenFailure(t *testing.T) {
	ports := newFakePorts()
	ports.fail["/dev/ttyACM9"] = errors.New("no such device")

	s := NewSupervisor(ports.open, noopHandler, time.Hour)
	defer s.Stop()

	s.Sync([]string{"/dev/ttyACM9"})
	waitFor(t, func() bool {
		st := s.Status()
		return len(st) == 1 && !st[0].Running && st[0].LastError != ""
	})
}
