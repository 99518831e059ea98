// Package storage persists the recorder list as a JSON file.
package storage

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "github.com/GriffinCanCode/deathwatch/internal/errors"
	"github.com/GriffinCanCode/deathwatch/internal/recorder"
)

// Load reads the recorder list at path. A missing file is an empty list. A
// file that cannot be decoded is logged and treated as empty so a damaged
// save never blocks startup.
func Load(path string) ([]*recorder.Recorder, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("no saved recorders", "path", path)
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.StorageFailed, "read recorders").
			WithMetadata("path", path)
	}

	var recs []*recorder.Recorder
	if err := json.Unmarshal(data, &recs); err != nil {
		slog.Error("saved recorders are corrupt, starting empty", "path", path, "error", err)
		return nil, nil
	}
	return recs, nil
}

// Save writes recs to path atomically: the data goes to a temp file in the
// same directory which then replaces path.
func Save(path string, recs []recorder.Recorder) error {
	if recs == nil {
		recs = []recorder.Recorder{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, apperrors.Internal, "encode recorders")
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return storageErr(err, "create temp file", path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return storageErr(err, "write temp file", path)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return storageErr(err, "sync temp file", path)
	}
	if err := tmp.Close(); err != nil {
		return storageErr(err, "close temp file", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return storageErr(err, "replace recorders file", path)
	}
	return nil
}

func storageErr(err error, msg, path string) error {
	return apperrors.Wrap(err, apperrors.StorageFailed, msg).WithMetadata("path", path)
}
