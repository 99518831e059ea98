package storage

import (
	"context"
	"sync"
	"time"

	"github.com/GriffinCanCode/deathwatch/internal/recorder"
	"github.com/GriffinCanCode/deathwatch/internal/resilience"
	"github.com/GriffinCanCode/deathwatch/internal/trace"
)

// Saver debounces snapshot writes. Only the latest submitted snapshot is
// written; a burst of changes produces one write after the delay. A snapshot
// whose write fails is queued again after retryDelay unless a newer one has
// arrived, so callers may treat a submitted snapshot as saved.
type Saver struct {
	path       string
	delay      time.Duration
	retryDelay time.Duration
	write      func(path string, recs []recorder.Recorder) error

	mu      sync.Mutex
	pending []recorder.Recorder
	has     bool
	gen     uint64
	timer   *time.Timer
	closed  bool
	wg      sync.WaitGroup

	writeMu sync.Mutex
	written uint64
	lastErr error
}

// NewSaver creates a saver writing to path.
func NewSaver(path string, delay time.Duration) *Saver {
	if delay <= 0 {
		delay = DefaultFlushDelay
	}
	return &Saver{path: path, delay: delay, retryDelay: FailedWriteRetryDelay, write: Save}
}

// Submit queues snap for writing, replacing any snapshot not yet written.
func (s *Saver) Submit(snap []recorder.Recorder) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = snap
	s.has = true
	s.gen++

	s.armLocked(s.delay)
}

func (s *Saver) armLocked(d time.Duration) {
	if s.timer == nil {
		s.timer = time.AfterFunc(d, s.timerFlush)
	} else {
		s.timer.Reset(d)
	}
}

// requeue puts a snapshot that failed to write back in line. A newer
// submission supersedes it.
func (s *Saver) requeue(snap []recorder.Recorder, gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.has || gen != s.gen {
		return
	}
	s.pending, s.has = snap, true
	s.armLocked(s.retryDelay)
}

func (s *Saver) timerFlush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
}

func (s *Saver) flushLocked() {
	if !s.has {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	snap, gen := s.pending, s.gen
	s.pending, s.has = nil, false

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.store(snap, gen)
	}()
}

// store writes snap unless a newer generation already reached disk.
func (s *Saver) store(snap []recorder.Recorder, gen uint64) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if gen <= s.written {
		return
	}

	ctx, span := trace.StartSpan(context.Background(), "save_recorders")
	defer span.End()
	span.SetAttr("count", len(snap))
	log := trace.Logger(ctx)

	err := resilience.Retry(ctx, resilience.StorageRetryConfig(), func() error {
		return s.write(s.path, snap)
	})
	s.lastErr = err
	if err != nil {
		span.SetAttr("error", err.Error())
		log.Warn("saving recorders failed", "error", err, "path", s.path)
		s.requeue(snap, gen)
		return
	}
	s.written = gen
	log.Debug("recorders saved", "count", len(snap), "path", s.path)
}

// Flush writes any pending snapshot without waiting for the delay.
func (s *Saver) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
}

// Close flushes the pending snapshot and waits for every write to finish.
// It returns the error of the last write attempt.
func (s *Saver) Close() error {
	s.mu.Lock()
	s.closed = true
	s.flushLocked()
	s.mu.Unlock()
	s.wg.Wait()
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.lastErr
}
