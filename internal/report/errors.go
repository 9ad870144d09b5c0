package report

import (
	"fmt"
	"strings"
)

// NotFoundError means no remote file in the report's folder contains the
// date token for the current day.
type NotFoundError struct {
	Report string
	Token  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("report %s: no remote file matches date token %q", e.Report, e.Token)
}

// AmbiguousMatchError means more than one remote file contains the date
// token. The locator never guesses between them.
type AmbiguousMatchError struct {
	Report  string
	Token   string
	Matches []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("report %s: %d remote files match date token %q: %s",
		e.Report, len(e.Matches), e.Token, strings.Join(e.Matches, ", "))
}

// MissingReportError means send was invoked before the locator produced a
// local PDF for the report.
type MissingReportError struct {
	Report string
	Path   string
}

func (e *MissingReportError) Error() string {
	return fmt.Sprintf("report %s: no local file at %s (run download first)", e.Report, e.Path)
}

// EmptyRecipientListError means the recipient file yielded no valid
// addresses.
type EmptyRecipientListError struct {
	Path string
}

func (e *EmptyRecipientListError) Error() string {
	return fmt.Sprintf("no valid recipient addresses in %s", e.Path)
}

// TransportError wraps a remote-store or mail-submission failure. Stage is
// "list", "download", "upload" or "send". Nothing retries it; callers wanting
// resilience must wrap the operation themselves.
type TransportError struct {
	Stage string
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
