// Package export saves an analyzed take to disk: the recorded audio as
// WAV, the analysis as JSON, and a human-readable Markdown summary.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"recite/coach"
	"recite/encoder"
)

// Take is everything known about one analyzed recording.
type Take struct {
	Script        string        `json:"script"`
	Transcription string        `json:"transcription"`
	Similarity    int           `json:"similarity"`
	Seconds       int           `json:"seconds"`
	RecordedAt    time.Time     `json:"recorded_at"`
	Report        *coach.Report `json:"report,omitempty"`

	// PCM is the raw capture; not serialized, written as WAV instead.
	PCM []byte `json:"-"`
}

// Saved lists the files one SaveTake call produced.
type Saved struct {
	WAV      string
	JSON     string
	Markdown string
}

// SaveTake writes the take under dir using a shared timestamped stem,
// e.g. take_20260827_153000.{wav,json,md}. The WAV is skipped when the
// take carries no audio.
func SaveTake(dir string, take Take) (*Saved, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create practice directory: %w", err)
	}

	when := take.RecordedAt
	if when.IsZero() {
		when = time.Now()
	}
	stem := filepath.Join(dir, "take_"+when.Format("20060102_150405"))
	saved := &Saved{}

	if len(take.PCM) > 0 {
		saved.WAV = stem + ".wav"
		if err := os.WriteFile(saved.WAV, encoder.WAV(take.PCM), 0644); err != nil {
			return nil, fmt.Errorf("failed to write audio: %w", err)
		}
	}

	data, err := json.MarshalIndent(take, "", "  ")
	if err != nil {
		return nil, err
	}
	saved.JSON = stem + ".json"
	if err := os.WriteFile(saved.JSON, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	saved.Markdown = stem + ".md"
	if err := os.WriteFile(saved.Markdown, []byte(Markdown(take)), 0644); err != nil {
		return nil, fmt.Errorf("failed to write summary: %w", err)
	}
	return saved, nil
}

// Markdown renders the take as a self-contained practice summary.
func Markdown(take Take) string {
	var b strings.Builder

	when := take.RecordedAt
	if when.IsZero() {
		when = time.Now()
	}
	fmt.Fprintf(&b, "# Practice Take — %s\n\n", when.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "**Similarity:** %d%%  \n", take.Similarity)
	fmt.Fprintf(&b, "**Duration:** %ds\n\n", take.Seconds)
	fmt.Fprintf(&b, "## Script\n\n> %s\n\n", take.Script)
	fmt.Fprintf(&b, "## Transcription\n\n> %s\n", orNone(take.Transcription))

	r := take.Report
	if r == nil {
		return b.String()
	}

	fmt.Fprintf(&b, "\n## Coaching\n\n")
	fmt.Fprintf(&b, "**Fluency:** %d/5\n\n", r.FluencyScore)
	if r.Improvement != "" {
		fmt.Fprintf(&b, "%s\n\n", r.Improvement)
	}
	if len(r.FillerWords) > 0 {
		fmt.Fprintf(&b, "**Filler words:** %s\n\n", strings.Join(r.FillerWords, ", "))
	}
	if len(r.Words) > 0 {
		b.WriteString("| Word | Accuracy | Stress | Feedback |\n")
		b.WriteString("|------|----------|--------|----------|\n")
		for _, w := range r.Words {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				w.Word, w.Accuracy, w.Stress, w.Feedback)
		}
	}
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "(no speech detected)"
	}
	return s
}
