package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"recite/audio"
)

func TestWatchReplayStopSurvivesFullBuffer(t *testing.T) {
	wav := filepath.Join(t.TempDir(), "clip.wav")
	body := append(make([]byte, audio.WAVHeaderSize), make([]byte, 4096)...)
	if err := os.WriteFile(wav, body, 0644); err != nil {
		t.Fatal(err)
	}
	replay, err := audio.NewReplayContext(wav)
	if err != nil {
		t.Fatal(err)
	}
	capture, err := replay.NewCapture(nil, audio.CaptureConfig{})
	if err != nil {
		t.Fatal(err)
	}
	capture.SetCallback(func([]byte, uint32) {})
	if err := capture.Start(); err != nil {
		t.Fatal(err)
	}

	actions := make(chan action, 1)
	actions <- actionSpeak // buffer is full when the replay runs out
	go watchReplay(replay.LastCapture(), actions)

	// Give the replay time to finish against the full buffer.
	time.Sleep(50 * time.Millisecond)
	if got := <-actions; got != actionSpeak {
		t.Fatalf("first action = %v, want the one buffered before the replay", got)
	}
	select {
	case got := <-actions:
		if got != actionToggle {
			t.Errorf("action = %v, want the replay stop", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("replay stop was dropped on a full action buffer")
	}
}
