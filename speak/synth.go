package speak

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
)

// baseWPM is the words-per-minute Rate 1.0 maps to. Both `say` and
// espeak-ng take absolute WPM, not multipliers.
const baseWPM = 175

// Synth shells out to the platform speech synthesizer: `say` on macOS,
// `espeak-ng` (falling back to `espeak`) elsewhere.
type Synth struct {
	cfg Config
	bin string
}

// NewSynth locates a synthesizer binary on PATH. It fails up front so
// the host can disable the speak key instead of erroring mid-session.
func NewSynth(cfg Config) (*Synth, error) {
	if cfg.Rate <= 0 {
		cfg.Rate = 1.0
	}
	for _, bin := range candidates() {
		if path, err := exec.LookPath(bin); err == nil {
			return &Synth{cfg: cfg, bin: path}, nil
		}
	}
	return nil, fmt.Errorf("no speech synthesizer found (tried %v)", candidates())
}

func candidates() []string {
	if runtime.GOOS == "darwin" {
		return []string{"say"}
	}
	return []string{"espeak-ng", "espeak"}
}

func (s *Synth) Name() string { return s.bin }

func (s *Synth) Speak(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	cmd := exec.CommandContext(ctx, s.bin, s.args(text)...)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("speech synthesis failed: %w", err)
	}
	return nil
}

func (s *Synth) args(text string) []string {
	wpm := strconv.Itoa(int(baseWPM * s.cfg.Rate))
	var args []string
	if runtime.GOOS == "darwin" {
		args = append(args, "-r", wpm)
		if s.cfg.Voice != "" {
			args = append(args, "-v", s.cfg.Voice)
		}
	} else {
		args = append(args, "-s", wpm)
		if s.cfg.Voice != "" {
			args = append(args, "-v", s.cfg.Voice)
		}
	}
	return append(args, text)
}
