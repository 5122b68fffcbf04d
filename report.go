package main

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"

	"recite/coach"
	"recite/score"
)

var (
	simGood   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	simOK     = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	simBad    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	wordMatch = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	wordNear  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	wordWrong = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	accuracyStyles = map[coach.Accuracy]lipgloss.Style{
		coach.AccuracyExcellent: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		coach.AccuracyGood:      lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		coach.AccuracyFair:      lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		coach.AccuracyPoor:      lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
)

func similarityStyle(similarity int) lipgloss.Style {
	switch {
	case similarity >= 90:
		return simGood
	case similarity >= 70:
		return simOK
	}
	return simBad
}

func renderReport(r *coach.Report, similarity int, script, savedPath string, take, width int) string {
	var b strings.Builder

	header := fmt.Sprintf("Take #%d — similarity %d%%", take, similarity)
	if !r.NoSpeech() {
		header += fmt.Sprintf(", fluency %d/5", r.FluencyScore)
	}
	b.WriteString(similarityStyle(similarity).Render(header) + "\n\n")

	if r.NoSpeech() {
		b.WriteString(warnStyle.Render("(no speech detected)") + "\n")
		return b.String()
	}

	// Transcription, word by word: white = in the script, yellow = sounds
	// like a script word, red = not in the script at all.
	var rendered []string
	for _, w := range classifyTranscription(script, r.Transcription) {
		switch w.kind {
		case matchExact:
			rendered = append(rendered, wordMatch.Render(w.text))
		case matchClose:
			rendered = append(rendered, wordNear.Render(w.text))
		default:
			rendered = append(rendered, wordWrong.Render(w.text))
		}
	}
	for _, line := range wrapText(strings.Join(rendered, " "), width*4) {
		b.WriteString("  " + line + "\n")
	}

	if missed := missedWords(script, r.Transcription); len(missed) > 0 {
		b.WriteString(dimStyle.Render("  missed: "+strings.Join(missed, ", ")) + "\n")
	}
	b.WriteString("\n")

	var flagged []coach.WordAssessment
	for _, w := range r.Words {
		if w.Accuracy == coach.AccuracyFair || w.Accuracy == coach.AccuracyPoor ||
			w.Stress == coach.StressIncorrect {
			flagged = append(flagged, w)
		}
	}
	if len(flagged) > 0 {
		b.WriteString(dimStyle.Render("Pronunciation") + "\n")
		for _, w := range flagged {
			style := accuracyStyles[w.Accuracy]
			line := "  " + style.Render(w.Word)
			if w.ExpectedPhonetic != "" && w.ActualPhonetic != "" {
				line += dimStyle.Render(fmt.Sprintf("  /%s/ → /%s/", w.ExpectedPhonetic, w.ActualPhonetic))
			}
			if w.Stress == coach.StressIncorrect {
				line += warnStyle.Render("  stress")
			}
			if w.Feedback != "" {
				line += "  " + w.Feedback
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	if len(r.FillerWords) > 0 {
		b.WriteString(warnStyle.Render("Fillers: "+strings.Join(r.FillerWords, ", ")) + "\n")
	}
	if r.Improvement != "" {
		for _, line := range wrapText("Tip: "+r.Improvement, width) {
			b.WriteString(scriptStyle.Render(line) + "\n")
		}
	}
	if savedPath != "" {
		b.WriteString(dimStyle.Render("saved to "+savedPath) + "\n")
	}
	return b.String()
}

type matchKind int

const (
	matchExact matchKind = iota
	matchClose           // sounds like a script word but is spelled differently
	matchWrong
)

type classifiedWord struct {
	text string
	kind matchKind
}

// classifyTranscription grades each transcribed word against the script:
// exact hits, sound-alikes (there/their class of miss), and words that
// have no counterpart in the script.
func classifyTranscription(script, transcription string) []classifiedWord {
	scriptWords := normalizeWords(script)
	inScript := make(map[string]bool, len(scriptWords))
	for _, w := range scriptWords {
		inScript[w] = true
	}

	var out []classifiedWord
	for _, raw := range strings.Fields(transcription) {
		w := normalizeWord(raw)
		if w == "" {
			continue
		}
		kind := matchWrong
		if inScript[w] {
			kind = matchExact
		} else {
			for _, sw := range scriptWords {
				if score.SoundsAlike(sw, w) {
					kind = matchClose
					break
				}
			}
		}
		out = append(out, classifiedWord{text: raw, kind: kind})
	}
	return out
}

// missedWords lists script words the transcription never produced, even
// as a sound-alike, preserving script order without duplicates.
func missedWords(script, transcription string) []string {
	spoken := normalizeWords(transcription)
	spokenSet := make(map[string]bool, len(spoken))
	for _, w := range spoken {
		spokenSet[w] = true
	}

	var missed []string
	seen := map[string]bool{}
	for _, w := range normalizeWords(script) {
		if seen[w] || spokenSet[w] {
			continue
		}
		seen[w] = true
		covered := false
		for _, sp := range spoken {
			if score.SoundsAlike(w, sp) {
				covered = true
				break
			}
		}
		if !covered {
			missed = append(missed, w)
		}
	}
	return missed
}

func normalizeWords(text string) []string {
	var out []string
	for _, raw := range strings.Fields(text) {
		if w := normalizeWord(raw); w != "" {
			out = append(out, w)
		}
	}
	return out
}

func normalizeWord(raw string) string {
	return strings.TrimFunc(strings.ToLower(raw), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
