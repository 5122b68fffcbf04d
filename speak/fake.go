package speak

import (
	"context"
	"sync"
)

// FakeSpeaker records what was spoken. Used in tests and by the host
// when no synthesizer is installed.
type FakeSpeaker struct {
	Err error

	mu     sync.Mutex
	spoken []string
}

func (f *FakeSpeaker) Name() string { return "fake" }

func (f *FakeSpeaker) Speak(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.Err != nil {
		return f.Err
	}
	f.mu.Lock()
	f.spoken = append(f.spoken, text)
	f.mu.Unlock()
	return nil
}

func (f *FakeSpeaker) Spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}
