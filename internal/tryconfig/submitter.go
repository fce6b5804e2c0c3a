package tryconfig

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Submitter hands a compiled document over to whatever schedules the tasks.
type Submitter interface {
	Submit(ctx context.Context, doc Document) error
}

// FileSubmitter writes the document to FileName in Directory, where the push to the CI backend picks it up.
type FileSubmitter struct {
	// Defaults to the working directory.
	Directory string
}

func (s *FileSubmitter) Submit(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}
	data, err := doc.Marshal()
	if err != nil {
		return err
	}
	dir := s.Directory
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "[tryconfig.Submit] error creating directory %s", dir)
	}

	// Write to a temporary file first so that readers never see a partial document.
	tmp, err := os.CreateTemp(dir, "."+FileName+"-*")
	if err != nil {
		return errors.Wrapf(err, "[tryconfig.Submit] error creating temporary file in %s", dir)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return errors.WithStack(err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "[tryconfig.Submit] error writing %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.WithStack(err)
	}
	path := filepath.Join(dir, FileName)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "[tryconfig.Submit] error writing %s", path)
	}

	log.WithField("path", path).
		WithField("tasks", len(doc.Parameters.TryTaskConfig.Tasks)).
		Info("try task config written")
	return nil
}
