package app

import (
	"context"

	"github.com/GriffinCanCode/deathwatch/internal/history"
	"github.com/GriffinCanCode/deathwatch/internal/recorder"
)

// Recorders returns the latest published recorder list.
func (a *App) Recorders() []recorder.Recorder {
	return a.recorders.Get()
}

// Status returns the detection status.
func (a *App) Status() Status {
	return a.status.Get()
}

// History returns up to n recent detections, newest first.
func (a *App) History(n int) []history.Entry {
	return a.history.Recent(n)
}

// HistoryEvents streams detections as they are recorded.
func (a *App) HistoryEvents() <-chan history.Entry {
	return a.history.Events()
}

// Updates streams recorder and status changes.
func (a *App) Updates() <-chan Update {
	return a.updates
}

// AddRecorder creates a classic recorder.
func (a *App) AddRecorder(ctx context.Context, title string) (recorder.Recorder, error) {
	return a.mutate(ctx, func() (recorder.Recorder, error) { return a.store.Add(title) })
}

// IncrementRecorder adds one to a recorder even when it is paused.
func (a *App) IncrementRecorder(ctx context.Context, id string) (recorder.Recorder, error) {
	return a.mutate(ctx, func() (recorder.Recorder, error) { return a.store.Increment(id) })
}

// DecrementRecorder removes one, stopping at zero.
func (a *App) DecrementRecorder(ctx context.Context, id string) (recorder.Recorder, error) {
	return a.mutate(ctx, func() (recorder.Recorder, error) { return a.store.Decrement(id) })
}

// ResetRecorder zeroes a recorder.
func (a *App) ResetRecorder(ctx context.Context, id string) (recorder.Recorder, error) {
	return a.mutate(ctx, func() (recorder.Recorder, error) { return a.store.Reset(id) })
}

// ToggleRecorder pauses or resumes a recorder.
func (a *App) ToggleRecorder(ctx context.Context, id string) (recorder.Recorder, error) {
	return a.mutate(ctx, func() (recorder.Recorder, error) { return a.store.Toggle(id) })
}

// RenameRecorder retitles a recorder.
func (a *App) RenameRecorder(ctx context.Context, id, title string) (recorder.Recorder, error) {
	return a.mutate(ctx, func() (recorder.Recorder, error) { return a.store.Rename(id, title) })
}

// DeleteRecorder removes a recorder.
func (a *App) DeleteRecorder(ctx context.Context, id string) error {
	_, err := a.mutate(ctx, func() (recorder.Recorder, error) {
		return recorder.Recorder{}, a.store.Delete(id)
	})
	return err
}

// MoveRecorder moves a recorder to position to and returns the new order.
func (a *App) MoveRecorder(ctx context.Context, id string, to int) ([]recorder.Recorder, error) {
	var out []recorder.Recorder
	_, err := a.mutate(ctx, func() (recorder.Recorder, error) {
		snap, err := a.store.Move(id, to)
		out = snap
		return recorder.Recorder{}, err
	})
	return out, err
}

// SetOCREnabled starts or stops detection and returns the status right after.
// A start reports Starting until the worker is up; build failures show up
// later as Stopped with LastError set.
func (a *App) SetOCREnabled(ctx context.Context, enabled bool) (Status, error) {
	err := a.do(ctx, func() error {
		if enabled {
			a.enableOCR()
		} else {
			a.disableOCR()
		}
		return nil
	})
	return a.Status(), err
}

// mutate runs fn on the loop and, on success, publishes and saves the
// result right away so manual edits survive a crash.
func (a *App) mutate(ctx context.Context, fn func() (recorder.Recorder, error)) (recorder.Recorder, error) {
	var r recorder.Recorder
	err := a.do(ctx, func() error {
		var err error
		if r, err = fn(); err != nil {
			return err
		}
		a.publishRecorders()
		a.persist()
		return nil
	})
	return r, err
}
