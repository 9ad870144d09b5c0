package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spazza/bi-mail-service/internal/config"
	"github.com/spazza/bi-mail-service/internal/store"
)

// Uploader pushes the files of a local directory into a report's remote
// folder, overwriting remote files with the same name.
type Uploader struct {
	cfg    *config.Config
	store  store.Store
	logger *slog.Logger
}

// NewUploader creates an Uploader backed by the given store.
func NewUploader(cfg *config.Config, st store.Store, logger *slog.Logger) *Uploader {
	return &Uploader{cfg: cfg, store: st, logger: logger}
}

// Upload sends every regular file in localDir to the report's remote
// folder. It returns the number of files uploaded; the first failure stops
// the run.
func (u *Uploader) Upload(ctx context.Context, reportName, localDir string) (int, error) {
	rep, err := u.cfg.Report(reportName)
	if err != nil {
		return 0, err
	}

	entries, err := os.ReadDir(localDir)
	if err != nil {
		return 0, fmt.Errorf("read dir %s: %w", localDir, err)
	}

	uploaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(localDir, entry.Name()))
		if err != nil {
			return uploaded, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if err := u.store.Upload(ctx, rep.RemoteFolder, entry.Name(), data); err != nil {
			return uploaded, &TransportError{Stage: "upload", Err: err}
		}
		uploaded++
	}

	u.logger.Info("upload finished", "report", reportName, "files", uploaded)
	return uploaded, nil
}
