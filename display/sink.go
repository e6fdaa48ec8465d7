package display

import (
	"fmt"

	"github.com/danielewood/vanitycrx/keygen"
	"github.com/danielewood/vanitycrx/sysinfo"
)

// Sink renders keygen progress reports on a Console: as the status bar on a
// TTY, one line per report otherwise.
type Sink struct {
	console *Console
	sampler *sysinfo.Sampler
}

// NewSink returns a Sink writing to c. When sampler is non-nil each report
// includes the user CPU share since the previous report.
func NewSink(c *Console, sampler *sysinfo.Sampler) *Sink {
	return &Sink{console: c, sampler: sampler}
}

// Progress implements keygen.ProgressSink.
func (s *Sink) Progress(p keygen.Progress) {
	status := Status(p)
	if s.sampler != nil {
		if u, err := s.sampler.Sample(); err == nil {
			status += fmt.Sprintf(" | CPU: %.0f%%", u.User)
		}
	}
	if s.console.IsTTY() {
		s.console.UpdateStatusBar(status + " | Ctrl+C to exit")
		return
	}
	s.console.PrintAboveStatus("%s", status)
}

// Status formats a progress report as a single line.
func Status(p keygen.Progress) string {
	eta := "unknown"
	if p.Rate > 0 {
		eta = FormatSeconds(p.Estimate)
	}
	return fmt.Sprintf("Keys: %s | Rate: %.1f/s | Space: %s | ETA: %s | Elapsed: %s | Last: %s",
		FormatCount(p.Attempts), p.Rate, FormatSpace(p.SearchSpace), eta,
		FormatDuration(p.Elapsed), p.Candidate)
}
