// Package debugdump writes the images seen by the detectors to disk so
// zones and thresholds can be tuned.
package debugdump

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

type job struct {
	name string
	img  image.Image
	at   time.Time
}

// Dumper encodes images as PNG files in a directory on a background
// goroutine. Images arriving while the queue is full are dropped and the
// directory keeps at most maxFiles dumps.
type Dumper struct {
	dir      string
	maxFiles int
	jobs     chan job
	wg       sync.WaitGroup
	once     sync.Once
}

// New creates dir if needed and starts the writer.
func New(dir string, maxFiles int) (*Dumper, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	d := &Dumper{dir: dir, maxFiles: maxFiles, jobs: make(chan job, queueSize)}
	d.wg.Add(1)
	go d.loop()
	return d, nil
}

// Save queues img under name.
func (d *Dumper) Save(name string, img image.Image) {
	select {
	case d.jobs <- job{name: name, img: img, at: time.Now()}:
	default:
		slog.Debug("debug dump dropped", "name", name)
	}
}

// Close writes the queued images and stops the writer.
func (d *Dumper) Close() {
	d.once.Do(func() { close(d.jobs) })
	d.wg.Wait()
}

func (d *Dumper) loop() {
	defer d.wg.Done()
	for j := range d.jobs {
		if err := d.write(j); err != nil {
			slog.Warn("debug dump failed", "name", j.name, "error", err)
			continue
		}
		d.prune()
	}
}

func (d *Dumper) write(j job) error {
	name := fmt.Sprintf("%s_%s.png", j.at.Format("20060102_150405.000"), sanitize(j.name))
	f, err := os.Create(filepath.Join(d.dir, name))
	if err != nil {
		return err
	}
	if err := png.Encode(f, j.img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// prune removes the oldest dumps beyond maxFiles. Names start with a
// timestamp so lexical order is age order.
func (d *Dumper) prune() {
	matches, err := filepath.Glob(filepath.Join(d.dir, "*.png"))
	if err != nil || len(matches) <= d.maxFiles {
		return
	}
	slices.Sort(matches)
	for _, m := range matches[:len(matches)-d.maxFiles] {
		_ = os.Remove(m)
	}
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}

const (
	DefaultMaxFiles = 200
	queueSize       = 32
)
