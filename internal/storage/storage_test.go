package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/GriffinCanCode/deathwatch/internal/errors"
	"github.com/GriffinCanCode/deathwatch/internal/recorder"
)

func TestLoadMissingFile(t *testing.T) {
	recs, err := Load(filepath.Join(t.TempDir(), "storage.json"))
	if err != nil || len(recs) != 0 {
		t.Errorf("Load = %v, %v; want empty", recs, err)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	recs, err := Load(path)
	if err != nil || len(recs) != 0 {
		t.Errorf("Load = %v, %v; want empty", recs, err)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	want := []recorder.Recorder{
		{ID: "d", Title: "Total deaths", Counter: 12, Active: true, Kind: recorder.GlobalDeaths},
		{ID: "m", Title: "Margit", Counter: 7, Active: false, Kind: recorder.Classic},
	}
	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "[\n  {") {
		t.Errorf("file should be an indented array, got %q", data[:min(len(data), 20)])
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || *got[0] != want[0] || *got[1] != want[1] {
		t.Errorf("Load = %+v", got)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestSaveMissingDir(t *testing.T) {
	err := Save(filepath.Join(t.TempDir(), "nope", "storage.json"), nil)
	if !apperrors.IsCode(err, apperrors.StorageFailed) {
		t.Errorf("Save = %v, want StorageFailed", err)
	}
}

type recordingWriter struct {
	mu       sync.Mutex
	writes   [][]recorder.Recorder
	err      error
	failures int // writes to fail before succeeding
}

func (w *recordingWriter) write(_ string, recs []recorder.Recorder) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, recs)
	if w.failures > 0 {
		w.failures--
		return errors.New("file locked")
	}
	return w.err
}

func (w *recordingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.writes)
}

func snap(title string) []recorder.Recorder {
	return []recorder.Recorder{{ID: title, Title: title}}
}

func TestSaverDebounces(t *testing.T) {
	w := &recordingWriter{}
	s := NewSaver("unused", 20*time.Millisecond)
	s.write = w.write

	s.Submit(snap("a"))
	s.Submit(snap("b"))
	s.Submit(snap("c"))

	time.Sleep(100 * time.Millisecond)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if w.count() != 1 {
		t.Fatalf("writes = %d, want 1", w.count())
	}
	if w.writes[0][0].Title != "c" {
		t.Errorf("wrote %q, want latest snapshot", w.writes[0][0].Title)
	}
}

func TestSaverCloseFlushes(t *testing.T) {
	w := &recordingWriter{}
	s := NewSaver("unused", time.Hour)
	s.write = w.write

	s.Submit(snap("final"))
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if w.count() != 1 {
		t.Errorf("writes = %d, want final flush", w.count())
	}
}

func TestSaverReportsError(t *testing.T) {
	w := &recordingWriter{err: errors.New("disk full")}
	s := NewSaver("unused", time.Hour)
	s.write = w.write

	s.Submit(snap("x"))
	if err := s.Close(); err == nil {
		t.Error("Close should report the failed write")
	}
	if w.count() != 1 {
		t.Errorf("plain errors are not retried, writes = %d", w.count())
	}
}

func TestSaverRetriesFailedSnapshot(t *testing.T) {
	w := &recordingWriter{failures: 1}
	s := NewSaver("unused", 5*time.Millisecond)
	s.retryDelay = 10 * time.Millisecond
	s.write = w.write

	s.Submit(snap("x"))

	deadline := time.Now().Add(2 * time.Second)
	for w.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close = %v, want the retried write to succeed", err)
	}
	if w.count() != 2 {
		t.Fatalf("writes = %d, want failed write plus one retry", w.count())
	}
	if w.writes[1][0].Title != "x" {
		t.Errorf("retried %q, want the failed snapshot", w.writes[1][0].Title)
	}
}

func TestSaverRetryYieldsToNewerSnapshot(t *testing.T) {
	w := &recordingWriter{failures: 1}
	s := NewSaver("unused", time.Hour)
	s.retryDelay = time.Hour
	s.write = w.write

	s.Submit(snap("old"))
	s.Flush()
	time.Sleep(20 * time.Millisecond)
	s.Submit(snap("new"))

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if w.count() != 2 || w.writes[1][0].Title != "new" {
		t.Errorf("writes = %v, want the newer snapshot to replace the retry", w.writes)
	}
}

func TestSaverCloseWithoutSubmit(t *testing.T) {
	s := NewSaver("unused", time.Hour)
	if err := s.Close(); err != nil {
		t.Errorf("Close = %v", err)
	}
}
