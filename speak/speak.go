// Package speak plays reference text aloud through the platform speech
// synthesizer so the user can hear the script before recording it.
package speak

import "context"

// Speaker reads text aloud and returns when playback finishes or ctx is
// canceled.
type Speaker interface {
	Name() string
	Speak(ctx context.Context, text string) error
}

// Config is the playback tuning the host passes in explicitly.
type Config struct {
	// Rate is a speed multiplier; 1.0 is the synthesizer default.
	Rate float64
	// Voice selects a synthesizer voice; "" keeps the default.
	Voice string
}
