// Package coach sends a finalized recording plus the reference script to
// a hosted generative model and returns its structured pronunciation and
// fluency report.
package coach

import (
	"context"
	"strings"
)

// Accuracy grades one spoken word.
type Accuracy string

const (
	AccuracyExcellent Accuracy = "Excellent"
	AccuracyGood      Accuracy = "Good"
	AccuracyFair      Accuracy = "Fair"
	AccuracyPoor      Accuracy = "Poor"
)

// Stress grades the syllable stress of one spoken word.
type Stress string

const (
	StressCorrect   Stress = "Correct"
	StressIncorrect Stress = "Incorrect"
	StressNA        Stress = "N/A"
)

type WordAssessment struct {
	Word             string   `json:"word"`
	Accuracy         Accuracy `json:"accuracy"`
	Stress           Stress   `json:"stress"`
	Feedback         string   `json:"pronunciation_feedback"`
	ExpectedPhonetic string   `json:"expected_phonetic"`
	ActualPhonetic   string   `json:"user_phonetic"`
}

// Report is the model's assessment of one take.
type Report struct {
	Transcription string           `json:"transcription"`
	FluencyScore  int              `json:"fluency_score"` // 1 (halting) .. 5 (natural)
	Improvement   string           `json:"improvement"`
	FillerWords   []string         `json:"filler_words"`
	Words         []WordAssessment `json:"words"`

	Metrics *NetworkMetrics `json:"-"`
}

// NoSpeech reports whether the model heard nothing usable.
func (r *Report) NoSpeech() bool {
	return strings.TrimSpace(r.Transcription) == ""
}

// Request is one analysis call: the encoded audio payload, its encoding
// label, and the script the user was reading.
type Request struct {
	Audio    []byte
	MimeType string
	Script   string
	Language string
}

type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, req Request) (*Report, error)
}

// normalize clamps model output into the documented ranges so downstream
// rendering never sees an out-of-vocabulary grade.
func (r *Report) normalize() {
	if r.FluencyScore < 1 {
		r.FluencyScore = 1
	}
	if r.FluencyScore > 5 {
		r.FluencyScore = 5
	}
	for i := range r.Words {
		switch r.Words[i].Accuracy {
		case AccuracyExcellent, AccuracyGood, AccuracyFair, AccuracyPoor:
		default:
			r.Words[i].Accuracy = AccuracyFair
		}
		switch r.Words[i].Stress {
		case StressCorrect, StressIncorrect, StressNA:
		default:
			r.Words[i].Stress = StressNA
		}
	}
}
