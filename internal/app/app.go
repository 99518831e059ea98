// Package app owns the recorder list and applies every change to it from a
// single goroutine: detection events, hotkey presses and API commands.
package app

import (
	"context"
	"time"

	"github.com/GriffinCanCode/deathwatch/internal/chime"
	apperrors "github.com/GriffinCanCode/deathwatch/internal/errors"
	"github.com/GriffinCanCode/deathwatch/internal/history"
	"github.com/GriffinCanCode/deathwatch/internal/recorder"
	"github.com/GriffinCanCode/deathwatch/internal/syncx"
	"github.com/GriffinCanCode/deathwatch/internal/trace"
	"github.com/GriffinCanCode/deathwatch/internal/worker"
)

// Runner is one run of the detection loop.
type Runner interface {
	Run(ctx context.Context) error
	Events() <-chan worker.Event
}

// RunnerFactory builds a runner from the current configuration each time
// detection is enabled. It runs on its own goroutine and may block, for
// example while an OCR engine connects; ctx is cancelled if detection is
// disabled in the meantime.
type RunnerFactory func(ctx context.Context) (Runner, error)

// Saver persists recorder snapshots. A submitted snapshot is the saver's to
// write, including retrying a failed write, so the store is marked clean on
// submit.
type Saver interface {
	Submit(snap []recorder.Recorder)
}

// Options wires the collaborators of an App. Chime, Presses and Saver may be
// nil.
type Options struct {
	Store            *recorder.Store
	History          *history.Store
	Chime            chime.Notifier
	Saver            Saver
	NewRunner        RunnerFactory
	Presses          <-chan struct{}
	AutosaveInterval time.Duration
	StartOCR         bool
}

type command struct {
	fn    func() error
	reply chan error
}

type run struct {
	cancel context.CancelFunc
	ready  chan Runner
	events <-chan worker.Event
	done   chan error
}

// App is the single writer of the recorder store.
type App struct {
	store     *recorder.Store
	history   *history.Store
	chime     chime.Notifier
	saver     Saver
	newRunner RunnerFactory
	presses   <-chan struct{}
	autosave  time.Duration
	startOCR  bool

	cmds      chan command
	stopped   chan struct{}
	updates   chan Update
	recorders *syncx.RWGuard[[]recorder.Recorder]
	status    *syncx.RWGuard[Status]

	// owned by the Run goroutine
	ctx context.Context
	run *run
}

// New creates an app. Call Run to start applying changes.
func New(opts Options) *App {
	if opts.Chime == nil {
		opts.Chime = chime.Nop{}
	}
	if opts.History == nil {
		opts.History = history.NewStore(history.DefaultMaxEntries, history.DefaultEventBuffer)
	}
	if opts.AutosaveInterval <= 0 {
		opts.AutosaveInterval = DefaultAutosaveInterval
	}
	return &App{
		store:     opts.Store,
		history:   opts.History,
		chime:     opts.Chime,
		saver:     opts.Saver,
		newRunner: opts.NewRunner,
		presses:   opts.Presses,
		autosave:  opts.AutosaveInterval,
		startOCR:  opts.StartOCR,
		cmds:      make(chan command),
		stopped:   make(chan struct{}),
		updates:   make(chan Update, UpdateBuffer),
		recorders: syncx.NewGuard(opts.Store.Snapshot()),
		status:    syncx.NewGuard(Status{OCR: Stopped, Action: worker.SearchingDeath}),
	}
}

// Run processes events until ctx is cancelled, then stops detection and
// submits a final snapshot.
func (a *App) Run(ctx context.Context) error {
	defer close(a.stopped)
	a.ctx = ctx
	log := trace.Logger(ctx)

	ticker := time.NewTicker(a.autosave)
	defer ticker.Stop()

	if a.startOCR {
		a.enableOCR()
	}

	for {
		var (
			ready  <-chan Runner
			events <-chan worker.Event
			done   <-chan error
		)
		if a.run != nil {
			ready, events, done = a.run.ready, a.run.events, a.run.done
		}

		select {
		case <-ctx.Done():
			a.shutdown()
			return nil
		case r := <-ready:
			a.run.ready, a.run.events = nil, r.Events()
		case ev := <-events:
			a.handleEvent(ev)
		case err := <-done:
			a.runFinished(err)
		case <-a.presses:
			n := a.store.IncrementActive()
			a.history.Add(history.Entry{Kind: history.KindManual})
			log.Info("hotkey increment", "recorders", n)
			a.publishRecorders()
		case cmd := <-a.cmds:
			cmd.reply <- cmd.fn()
		case <-ticker.C:
			if a.store.Dirty() {
				a.persist()
			}
		}
	}
}

func (a *App) handleEvent(ev worker.Event) {
	log := trace.Logger(a.ctx)
	switch ev.Kind {
	case worker.Started:
		a.setStatus(func(s Status) Status {
			s.OCR, s.Action, s.LastError = Started, worker.SearchingDeath, ""
			return s
		})
	case worker.StateChanged:
		a.setStatus(func(s Status) Status {
			s.Action = ev.Action
			return s
		})
	case worker.DeathDetected:
		a.store.IncrementGlobalDeaths()
		a.chime.Play()
		a.history.Add(history.Entry{Time: ev.At, Kind: history.KindDeath})
		a.publishRecorders()
	case worker.BossNamesFound:
		label := recorder.JoinBossNames(ev.Names)
		attr, ok := a.store.HandleBossDetected(label)
		if !ok {
			log.Info("death not attributed, no boss name read")
			return
		}
		log.Info("death attributed", "label", label, "recorder", attr.Recorder.Title,
			"match", attr.Match.String(), "similarity", attr.Similarity)
		a.history.Add(history.Entry{
			Time:     ev.At,
			Kind:     history.KindBoss,
			Label:    label,
			Recorder: attr.Recorder.Title,
			Match:    attr.Match.String(),
		})
		a.publishRecorders()
	}
}

// enableOCR starts a worker unless one is running. The runner is built and
// run off the loop; the loop picks up its events once it is ready and learns
// of build failures through done.
func (a *App) enableOCR() {
	if a.run != nil {
		return
	}
	a.setStatus(func(Status) Status {
		return Status{OCR: Starting, Action: worker.SearchingDeath}
	})

	ctx, cancel := context.WithCancel(a.ctx)
	cur := &run{cancel: cancel, ready: make(chan Runner, 1), done: make(chan error, 1)}
	go func() {
		r, err := a.newRunner(ctx)
		if err != nil {
			cur.done <- err
			return
		}
		cur.ready <- r
		cur.done <- r.Run(ctx)
	}()
	a.run = cur
	trace.Logger(a.ctx).Info("detection enabled")
}

// disableOCR cancels the running worker without waiting for it.
func (a *App) disableOCR() *run {
	cur := a.run
	if cur == nil {
		return nil
	}
	cur.cancel()
	a.run = nil
	a.setStopped(nil)
	trace.Logger(a.ctx).Info("detection disabled")
	return cur
}

func (a *App) runFinished(err error) {
	a.run.cancel()
	a.run = nil
	if err != nil {
		trace.Logger(a.ctx).Error("detection stopped", "error", err)
	}
	a.setStopped(err)
}

func (a *App) shutdown() {
	if cur := a.disableOCR(); cur != nil {
		select {
		case <-cur.done:
		case <-time.After(WorkerStopTimeout):
			trace.Logger(a.ctx).Warn("worker did not stop in time")
		}
	}
	a.persist()
}

func (a *App) setStopped(err error) {
	a.setStatus(func(Status) Status {
		s := Status{OCR: Stopped, Action: worker.SearchingDeath}
		if err != nil {
			s.LastError = err.Error()
		}
		return s
	})
}

func (a *App) setStatus(fn func(Status) Status) {
	s := a.status.Update(fn)
	a.emit(Update{Kind: UpdateStatus, Status: &s})
}

func (a *App) publishRecorders() {
	snap := a.store.Snapshot()
	a.recorders.Set(snap)
	a.emit(Update{Kind: UpdateRecorders, Recorders: snap})
}

func (a *App) persist() {
	if a.saver == nil {
		return
	}
	a.saver.Submit(a.store.Snapshot())
	a.store.MarkClean()
}

// emit drops the update when subscribers lag; the next one carries the full
// state anyway.
func (a *App) emit(u Update) {
	select {
	case a.updates <- u:
	default:
	}
}

// do runs fn on the loop goroutine and returns its error.
func (a *App) do(ctx context.Context, fn func() error) error {
	cmd := command{fn: fn, reply: make(chan error, 1)}
	select {
	case a.cmds <- cmd:
	case <-a.stopped:
		return apperrors.New(apperrors.Unavailable, "app is shutting down")
	case <-ctx.Done():
		return apperrors.Wrap(ctx.Err(), apperrors.Cancelled, "request cancelled")
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-a.stopped:
		return apperrors.New(apperrors.Unavailable, "app is shutting down")
	case <-ctx.Done():
		return apperrors.Wrap(ctx.Err(), apperrors.Cancelled, "request cancelled")
	}
}
