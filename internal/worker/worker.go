// Package worker runs the death detection loop: capture a frame, prefilter
// the death zone, OCR it, and on a death read the boss name zones.
package worker

import (
	"context"
	"image"
	"runtime"
	"strconv"
	"time"

	"github.com/GriffinCanCode/deathwatch/internal/config"
	"github.com/GriffinCanCode/deathwatch/internal/detect"
	apperrors "github.com/GriffinCanCode/deathwatch/internal/errors"
	"github.com/GriffinCanCode/deathwatch/internal/imageproc"
	"github.com/GriffinCanCode/deathwatch/internal/screen"
	"github.com/GriffinCanCode/deathwatch/internal/trace"
)

// Options configures a Worker.
type Options struct {
	Monitor            int
	Detection          config.Detection
	Interval           time.Duration
	Cooldown           time.Duration
	PostDetectionPause time.Duration
	EngineBackoff      time.Duration
	DeathSimilarity    float64
	BossMinScore       float64
	FrameSkip          bool
	Sink               detect.ImageSink // optional
}

// OptionsFromConfig maps the loaded configuration onto worker options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Monitor:            cfg.MonitorIndex,
		Detection:          cfg.Detection,
		Interval:           cfg.ScanInterval,
		Cooldown:           cfg.DeathCooldown,
		PostDetectionPause: cfg.PostDetectionPause,
		EngineBackoff:      cfg.EngineErrorBackoff,
		DeathSimilarity:    cfg.DeathSimilarity,
		BossMinScore:       cfg.BossMinScore,
		FrameSkip:          cfg.FrameSkipEnabled,
	}
}

// Worker is a single run of the detection loop. Create a new one for every
// enable; it is not restartable.
type Worker struct {
	capturer screen.Capturer
	death    *detect.DeathChecker
	boss     *detect.BossScanner
	opts     Options
	events   chan Event

	// owned by the Run goroutine
	action  Action
	gate    *Gate
	skip    *frameSkipper
	pending *imageBuffer // death pass images, kept until a detection is acted on
}

// New creates a worker reading frames from capturer and text from rec.
func New(capturer screen.Capturer, rec detect.Recognizer, opts Options) *Worker {
	det := opts.Detection
	w := &Worker{
		capturer: capturer,
		boss:     detect.NewBossScanner(rec, det.BossZones, opts.BossMinScore, opts.Sink),
		opts:     opts,
		events:   make(chan Event, eventBuffer),
		action:   SearchingDeath,
		gate:     NewGate(opts.Cooldown),
	}
	var deathSink detect.ImageSink
	if opts.Sink != nil {
		w.pending = &imageBuffer{}
		deathSink = w.pending
	}
	w.death = detect.NewDeathChecker(rec, det.DeathText, opts.DeathSimilarity, deathSink)
	if opts.FrameSkip {
		w.skip = &frameSkipper{}
	}
	return w
}

// Events returns the channel the loop reports on. It is never closed.
func (w *Worker) Events() <-chan Event {
	return w.events
}

// Run validates the setup and loops until ctx is cancelled. A setup error is
// returned before any event is sent; cancellation returns nil.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.opts.Detection.Validate(); err != nil {
		return err
	}
	if n := w.capturer.NumMonitors(); w.opts.Monitor < 0 || w.opts.Monitor >= n {
		return apperrors.Newf(apperrors.CaptureNoMonitor, "monitor %d not found", w.opts.Monitor).
			WithMetadata("monitors", strconv.Itoa(n))
	}

	trace.Logger(ctx).Info("detection loop started",
		"monitor", w.opts.Monitor, "game", w.opts.Detection.Game, "interval", w.opts.Interval)
	w.emit(ctx, Event{Kind: Started})

	for {
		start := time.Now()
		pause := w.iterate(ctx)
		if pause == 0 {
			elapsed := time.Since(start)
			var overran bool
			if pause, overran = remaining(w.opts.Interval, elapsed); overran {
				trace.Logger(ctx).Debug("scan overran interval",
					"elapsed", elapsed, "interval", w.opts.Interval)
			}
		}
		if !sleep(ctx, pause) {
			trace.Logger(ctx).Info("detection loop stopped")
			return nil
		}
	}
}

// remaining is the wait that keeps scans interval apart. An overrun scan
// reports true and the next one starts at once.
func remaining(interval, elapsed time.Duration) (time.Duration, bool) {
	if elapsed > interval {
		return 0, true
	}
	return interval - elapsed, false
}

// iterate runs one scan and returns how long to wait before the next one;
// zero means normal pacing.
func (w *Worker) iterate(ctx context.Context) time.Duration {
	if w.action == EndingAction {
		w.setAction(ctx, SearchingDeath)
	}

	ctx, span := trace.StartSpan(ctx, "scan")
	defer span.End()
	log := trace.Logger(ctx)

	frame, err := w.capture(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Warn("capture failed", "error", err)
		}
		return 0
	}

	crop := imageproc.Crop(frame, w.opts.Detection.DeathZone)
	if !imageproc.HasRedText(crop) {
		return 0
	}
	if w.skip != nil && w.skip.Similar(crop) {
		return 0
	}

	w.pending.Reset()
	match, err := w.death.Check(ctx, crop)
	if err != nil {
		log.Error("ocr engine unavailable", "error", err, "backoff", w.opts.EngineBackoff)
		return w.opts.EngineBackoff
	}
	span.SetAttr("similarity", match.Similarity)
	if !match.Matched {
		if w.skip != nil {
			w.skip.Remember(crop)
		}
		return 0
	}
	if w.skip != nil {
		w.skip.Reset()
	}

	if !w.gate.Allow(time.Now()) {
		log.Debug("death within cooldown ignored", "similarity", match.Similarity)
		return 0
	}

	log.Info("death detected", "similarity", match.Similarity)
	w.pending.FlushTo(w.opts.Sink)
	w.setAction(ctx, SearchingBossName)
	w.emit(ctx, Event{Kind: DeathDetected})
	runtime.Gosched()

	done := make(chan struct{})
	go w.scanBosses(ctx, frame, done)
	select {
	case <-done:
	case <-ctx.Done():
		return 0
	}

	w.setAction(ctx, EndingAction)
	w.gate.Mark(time.Now())
	return w.opts.PostDetectionPause
}

type captureResult struct {
	frame *image.RGBA
	err   error
}

// capture grabs a frame on its own goroutine so cancellation does not wait
// for a stuck OS call.
func (w *Worker) capture(ctx context.Context) (*image.RGBA, error) {
	res := make(chan captureResult, 1)
	go func() {
		frame, err := w.capturer.Capture(ctx, w.opts.Monitor)
		res <- captureResult{frame, err}
	}()
	select {
	case r := <-res:
		return r.frame, r.err
	case <-ctx.Done():
		return nil, apperrors.Wrap(ctx.Err(), apperrors.Cancelled, "capture cancelled")
	}
}

// scanBosses reports boss names for frame. Failures report an empty list so
// the death is still attributed.
func (w *Worker) scanBosses(ctx context.Context, frame image.Image, done chan<- struct{}) {
	defer close(done)

	names, err := w.boss.Scan(ctx, frame)
	if err != nil {
		trace.Logger(ctx).Warn("boss name scan failed", "error", err)
		names = nil
	}
	w.emit(ctx, Event{Kind: BossNamesFound, Names: names})
}

func (w *Worker) setAction(ctx context.Context, a Action) {
	w.action = a
	w.emit(ctx, Event{Kind: StateChanged, Action: a})
}

// emit blocks until the event is queued or ctx ends, in which case it is
// dropped.
func (w *Worker) emit(ctx context.Context, ev Event) {
	if ctx.Err() != nil {
		return
	}
	ev.At = time.Now()
	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}

// sleep waits for d or until ctx is done; it reports false on cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
