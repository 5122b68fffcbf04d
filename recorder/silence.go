package recorder

import (
	"encoding/binary"
	"math"
)

// speechLevel is the RMS floor above which a fragment counts as speech.
const speechLevel = 0.015

// rmsLevel is the root-mean-square level of an s16le fragment, normalized
// to [0,1].
func rmsLevel(data []byte) float64 {
	n := len(data) / 2
	if n == 0 {
		return 0
	}
	var sumSquares float64
	for i := 0; i+1 < len(data); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(data[i:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
	}
	return math.Sqrt(sumSquares / float64(n))
}

type SilenceEvent int

const (
	SilenceNone    SilenceEvent = iota
	SilenceWarn                 // no voice detected over the window
	SilenceCleared              // speech resumed after a warning
)

const (
	silenceWindow    = 8 // ticks (seconds at the default interval)
	speechMinRatio   = 0.10
	speechClearRatio = 0.25 // higher threshold to clear (hysteresis)
)

// silenceMonitor watches the per-tick speech signal and warns when the
// user has gone quiet mid-take. Pure; one Tick per elapsed second.
type silenceMonitor struct {
	window [silenceWindow]bool
	ticks  int
	warned bool
}

func (m *silenceMonitor) Tick(speech bool) SilenceEvent {
	m.window[m.ticks%silenceWindow] = speech
	m.ticks++

	n := min(m.ticks, silenceWindow)
	count := 0
	for i := 0; i < n; i++ {
		if m.window[i] {
			count++
		}
	}
	ratio := float64(count) / float64(n)

	if !m.warned && m.ticks >= silenceWindow && ratio < speechMinRatio {
		m.warned = true
		return SilenceWarn
	}
	if m.warned && ratio >= speechClearRatio {
		m.warned = false
		return SilenceCleared
	}
	return SilenceNone
}
