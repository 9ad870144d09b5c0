// Package report implements the two operations of the dispatch cycle:
// locating and downloading the current day's report export, and composing
// and sending it as an email. The local filesystem is the only handoff
// between the two.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spazza/bi-mail-service/internal/config"
	"github.com/spazza/bi-mail-service/internal/store"
)

// PDFName is the fixed local filename a downloaded export is written to.
// Re-running the locator for the same report overwrites it in place.
const PDFName = "report.pdf"

// Locator resolves and downloads the dated report export for the current
// day.
type Locator struct {
	cfg    *config.Config
	store  store.Store
	logger *slog.Logger

	now func() time.Time
}

// NewLocator creates a Locator backed by the given store.
func NewLocator(cfg *config.Config, st store.Store, logger *slog.Logger) *Locator {
	return &Locator{
		cfg:    cfg,
		store:  st,
		logger: logger,
		now:    time.Now,
	}
}

// Download lists the report's remote folder, selects the single file whose
// name contains today's date token, and writes its bytes to the report's
// local directory. It returns the local path of the downloaded file.
//
// imagePage is accepted here only so the full cycle can be validated up
// front; it must be non-negative (0 means no preview image). Bounds against
// the actual page count are checked at send time.
func (l *Locator) Download(ctx context.Context, reportName string, imagePage int) (string, error) {
	if imagePage < 0 {
		return "", fmt.Errorf("invalid image page %d: must not be negative", imagePage)
	}

	rep, err := l.cfg.Report(reportName)
	if err != nil {
		return "", err
	}

	token := l.now().UTC().Format(rep.DateFormat)

	files, err := l.store.List(ctx, rep.RemoteFolder)
	if err != nil {
		return "", &TransportError{Stage: "list", Err: err}
	}

	var matches []store.File
	for _, f := range files {
		if strings.Contains(f.Name, token) {
			matches = append(matches, f)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Report: reportName, Token: token}
	case 1:
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name
		}
		return "", &AmbiguousMatchError{Report: reportName, Token: token, Matches: names}
	}

	l.logger.Info("found remote file", "report", reportName, "file", matches[0].Name)

	data, err := l.store.Download(ctx, matches[0])
	if err != nil {
		return "", &TransportError{Stage: "download", Err: err}
	}

	dir := l.cfg.ReportDir(reportName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	localPath := filepath.Join(dir, PDFName)
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", localPath, err)
	}

	l.logger.Info("saved report", "report", reportName, "path", localPath, "bytes", len(data))
	return localPath, nil
}
