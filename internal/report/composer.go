package report

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/asaskevich/govalidator"
	mail "gopkg.in/mail.v2"

	"github.com/spazza/bi-mail-service/internal/config"
	"github.com/spazza/bi-mail-service/internal/mailer"
	"github.com/spazza/bi-mail-service/internal/pdf"
)

const (
	// BodyFile is the per-report HTML body template.
	BodyFile = "body.html"
	// RecipientsFile holds one address per line; blank lines are ignored.
	RecipientsFile = "recipients.txt"
	// ImagePlaceholder is the single recognized marker in the body
	// template. It is replaced with a cid reference to the embedded
	// preview image, or removed when no image page is requested.
	ImagePlaceholder = "{{inline_image}}"
)

// Composer assembles and submits the report email. It reads the PDF the
// locator produced, so the locator must have run first for the same report.
type Composer struct {
	cfg       *config.Config
	submitter mailer.Submitter
	logger    *slog.Logger
}

// NewComposer creates a Composer that submits through the given Submitter.
func NewComposer(cfg *config.Config, sub mailer.Submitter, logger *slog.Logger) *Composer {
	return &Composer{cfg: cfg, submitter: sub, logger: logger}
}

// Send composes the report email and hands it to the mail transport: HTML
// body from the report's template, the local PDF as attachment and, when
// imagePage > 0, that page rasterized and embedded inline. Any failure,
// including an out-of-range page, aborts before submission.
func (c *Composer) Send(reportName, subject string, imagePage int) error {
	if _, err := c.cfg.Report(reportName); err != nil {
		return err
	}

	dir := c.cfg.ReportDir(reportName)
	pdfPath := filepath.Join(dir, PDFName)
	if _, err := os.Stat(pdfPath); err != nil {
		if os.IsNotExist(err) {
			return &MissingReportError{Report: reportName, Path: pdfPath}
		}
		return fmt.Errorf("stat %s: %w", pdfPath, err)
	}

	recipients, err := c.loadRecipients(filepath.Join(dir, RecipientsFile))
	if err != nil {
		return err
	}

	body, err := os.ReadFile(filepath.Join(dir, BodyFile))
	if err != nil {
		return fmt.Errorf("read body template: %w", err)
	}

	html := string(body)
	var image []byte
	if imagePage > 0 {
		image, err = pdf.ExtractPage(pdfPath, imagePage)
		if err != nil {
			return err
		}
		html = strings.ReplaceAll(html, ImagePlaceholder, "cid:"+pdf.ImageName)
	} else {
		html = strings.ReplaceAll(html, ImagePlaceholder, "")
	}

	pdfData, err := os.ReadFile(pdfPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", pdfPath, err)
	}

	m := mail.NewMessage()
	m.SetHeader("From", c.cfg.SMTP.From)
	m.SetHeader("To", recipients...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)
	if image != nil {
		m.Embed(pdf.ImageName, mail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(image)
			return err
		}))
	}
	m.Attach(PDFName, mail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(pdfData)
		return err
	}))

	if err := c.submitter.Submit(m); err != nil {
		return &TransportError{Stage: "send", Err: err}
	}

	c.logger.Info("report sent",
		"report", reportName,
		"recipients", len(recipients),
		"inline_image", image != nil,
	)
	return nil
}

// loadRecipients reads one address per line, trimming whitespace and
// skipping blank lines. Lines that are not plausible email addresses are
// skipped with a warning rather than failing the send; yielding zero valid
// addresses is a hard failure.
func (c *Composer) loadRecipients(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read recipients: %w", err)
	}
	defer f.Close()

	var recipients []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		addr := strings.TrimSpace(scanner.Text())
		if addr == "" {
			continue
		}
		if !govalidator.IsEmail(addr) {
			c.logger.Warn("skipping invalid recipient", "file", path, "address", addr)
			continue
		}
		recipients = append(recipients, addr)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read recipients: %w", err)
	}

	if len(recipients) == 0 {
		return nil, &EmptyRecipientListError{Path: path}
	}
	return recipients, nil
}
