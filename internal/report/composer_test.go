package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mail "gopkg.in/mail.v2"

	"github.com/spazza/bi-mail-service/internal/config"
	"github.com/spazza/bi-mail-service/internal/pdf"
)

type fakeSubmitter struct {
	submitted []*mail.Message
	err       error
}

func (f *fakeSubmitter) Submit(m *mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.submitted = append(f.submitted, m)
	return nil
}

// writeReportDir lays out a report's local folder the way the locator and
// the operator would: report.pdf, body.html and recipients.txt.
func writeReportDir(t *testing.T, cfg *config.Config, body, recipients string, withPDF bool) string {
	t.Helper()
	dir := cfg.ReportDir("Sales")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	if withPDF {
		src, err := os.ReadFile(filepath.Join("testdata", "one_page.pdf"))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, PDFName), src, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, BodyFile), []byte(body), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, RecipientsFile), []byte(recipients), 0o644))
	return dir
}

func testComposerConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testConfig(t)
	cfg.SMTP = config.SMTP{Host: "smtp.example.com", Port: 587, From: "reports@example.com"}
	return cfg
}

func renderMessage(t *testing.T, m *mail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestSendSubmitsToValidRecipients(t *testing.T) {
	cfg := testComposerConfig(t)
	writeReportDir(t, cfg, "<p>report attached</p>", "a@x.com\n\nb@x.com\n", true)

	sub := &fakeSubmitter{}
	err := NewComposer(cfg, sub, testLogger()).Send("Sales", "Daily Sales", 0)
	require.NoError(t, err)

	require.Len(t, sub.submitted, 1)
	m := sub.submitted[0]
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Daily Sales"}, m.GetHeader("Subject"))

	raw := renderMessage(t, m)
	assert.Contains(t, raw, `filename="report.pdf"`)
	assert.Contains(t, raw, "report attached")
}

func TestSendSkipsInvalidRecipientLines(t *testing.T) {
	cfg := testComposerConfig(t)
	writeReportDir(t, cfg, "<p>hi</p>", "not-an-address\na@x.com\n", true)

	sub := &fakeSubmitter{}
	err := NewComposer(cfg, sub, testLogger()).Send("Sales", "s", 0)
	require.NoError(t, err)

	require.Len(t, sub.submitted, 1)
	assert.Equal(t, []string{"a@x.com"}, sub.submitted[0].GetHeader("To"))
}

func TestSendEmptyRecipientList(t *testing.T) {
	cfg := testComposerConfig(t)
	writeReportDir(t, cfg, "<p>hi</p>", "\nnot-an-address\n", true)

	sub := &fakeSubmitter{}
	err := NewComposer(cfg, sub, testLogger()).Send("Sales", "s", 0)

	var empty *EmptyRecipientListError
	require.ErrorAs(t, err, &empty)
	assert.Empty(t, sub.submitted)
}

func TestSendMissingReport(t *testing.T) {
	cfg := testComposerConfig(t)
	writeReportDir(t, cfg, "<p>hi</p>", "a@x.com\n", false)

	sub := &fakeSubmitter{}
	err := NewComposer(cfg, sub, testLogger()).Send("Sales", "s", 0)

	var missing *MissingReportError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "Sales", missing.Report)
	assert.Empty(t, sub.submitted)
}

func TestSendPageOutOfRangeAbortsBeforeSubmission(t *testing.T) {
	cfg := testComposerConfig(t)
	writeReportDir(t, cfg, "<p>hi</p>", "a@x.com\n", true)

	sub := &fakeSubmitter{}
	err := NewComposer(cfg, sub, testLogger()).Send("Sales", "s", 2)

	var pageErr *pdf.PageRangeError
	require.ErrorAs(t, err, &pageErr)
	assert.Equal(t, 2, pageErr.Page)
	assert.Equal(t, 1, pageErr.Pages)
	assert.Empty(t, sub.submitted)
}

func TestSendEmbedsInlineImage(t *testing.T) {
	cfg := testComposerConfig(t)
	writeReportDir(t, cfg, `<img src="{{inline_image}}">`, "a@x.com\n", true)

	sub := &fakeSubmitter{}
	err := NewComposer(cfg, sub, testLogger()).Send("Sales", "s", 1)
	require.NoError(t, err)

	require.Len(t, sub.submitted, 1)
	raw := renderMessage(t, sub.submitted[0])
	assert.Contains(t, raw, "cid:report.png")
	assert.Contains(t, raw, "report.png")
	assert.NotContains(t, raw, ImagePlaceholder)
}

func TestSendRemovesPlaceholderWithoutImage(t *testing.T) {
	cfg := testComposerConfig(t)
	writeReportDir(t, cfg, `<img src="{{inline_image}}">`, "a@x.com\n", true)

	sub := &fakeSubmitter{}
	err := NewComposer(cfg, sub, testLogger()).Send("Sales", "s", 0)
	require.NoError(t, err)

	raw := renderMessage(t, sub.submitted[0])
	assert.NotContains(t, raw, ImagePlaceholder)
	assert.NotContains(t, raw, "cid:report.png")
}

func TestSendUnknownReport(t *testing.T) {
	cfg := testComposerConfig(t)

	err := NewComposer(cfg, &fakeSubmitter{}, testLogger()).Send("Nope", "s", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown report")
}
