package recorder

import (
	"encoding/binary"
	"testing"
)

func feedTicks(m *silenceMonitor, speech bool, n int) SilenceEvent {
	var last SilenceEvent
	for i := 0; i < n; i++ {
		last = m.Tick(speech)
	}
	return last
}

func TestSilenceWarnAfterQuietWindow(t *testing.T) {
	var m silenceMonitor
	for i := 0; i < silenceWindow-1; i++ {
		if ev := m.Tick(false); ev != SilenceNone {
			t.Fatalf("unexpected event %d at tick %d", ev, i)
		}
	}
	if ev := m.Tick(false); ev != SilenceWarn {
		t.Fatalf("expected SilenceWarn at tick %d, got %d", silenceWindow, ev)
	}
}

func TestSilenceClearsOnSpeech(t *testing.T) {
	var m silenceMonitor
	feedTicks(&m, false, silenceWindow) // warn

	for i := 0; i < silenceWindow; i++ {
		if ev := m.Tick(true); ev == SilenceCleared {
			return
		}
	}
	t.Fatal("expected SilenceCleared after sustained speech")
}

func TestNoWarnWhileSpeaking(t *testing.T) {
	var m silenceMonitor
	for i := 0; i < 100; i++ {
		if ev := m.Tick(true); ev == SilenceWarn {
			t.Fatalf("unexpected warn during speech at tick %d", i)
		}
	}
}

func TestWarnDoesNotRepeat(t *testing.T) {
	var m silenceMonitor
	feedTicks(&m, false, silenceWindow) // warn
	for i := 0; i < 50; i++ {
		if ev := m.Tick(false); ev == SilenceWarn {
			t.Fatalf("warning raised twice at tick %d", i)
		}
	}
}

func TestRMSLevel(t *testing.T) {
	silence := make([]byte, 640)
	if got := rmsLevel(silence); got != 0 {
		t.Errorf("rms of silence = %f, want 0", got)
	}

	loud := make([]byte, 640)
	for i := 0; i+1 < len(loud); i += 2 {
		binary.LittleEndian.PutUint16(loud[i:], uint16(int16(16000)))
	}
	if got := rmsLevel(loud); got < speechLevel {
		t.Errorf("rms of loud signal = %f, want >= %f", got, speechLevel)
	}

	if got := rmsLevel(nil); got != 0 {
		t.Errorf("rms of empty fragment = %f, want 0", got)
	}
}
