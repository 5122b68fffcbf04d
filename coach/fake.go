package coach

import (
	"context"
	"fmt"
)

// Fake replays a canned report. Used by tests and the offline replay
// mode when no API key is configured.
type Fake struct {
	Report Report
	Err    error

	calls []Request
}

func NewFake(report Report, err error) *Fake {
	return &Fake{Report: report, Err: err}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Analyze(_ context.Context, req Request) (*Report, error) {
	f.calls = append(f.calls, req)
	if f.Err != nil {
		return nil, fmt.Errorf("fake analyzer error: %w", f.Err)
	}
	report := f.Report
	report.normalize()
	return &report, nil
}

// Calls returns the requests seen so far.
func (f *Fake) Calls() []Request { return f.calls }
