package speak

import (
	"context"
	"errors"
	"testing"
)

func TestFakeSpeakerRecords(t *testing.T) {
	f := &FakeSpeaker{}
	if err := f.Speak(context.Background(), "hello world"); err != nil {
		t.Fatal(err)
	}
	got := f.Spoken()
	if len(got) != 1 || got[0] != "hello world" {
		t.Errorf("spoken = %v, want [hello world]", got)
	}
}

func TestFakeSpeakerCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &FakeSpeaker{}
	if err := f.Speak(ctx, "hello"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if len(f.Spoken()) != 0 {
		t.Error("canceled speak should not record")
	}
}

func TestSynthArgsDefaultRate(t *testing.T) {
	s := &Synth{cfg: Config{Rate: 1.0}, bin: "espeak-ng"}
	args := s.args("good morning")
	if args[len(args)-1] != "good morning" {
		t.Errorf("text must be the last argument, got %v", args)
	}
	found := false
	for i, a := range args[:len(args)-1] {
		if (a == "-s" || a == "-r") && i+1 < len(args) && args[i+1] == "175" {
			found = true
		}
	}
	if !found {
		t.Errorf("rate 1.0 should map to 175 wpm, got %v", args)
	}
}

func TestSynthArgsVoice(t *testing.T) {
	s := &Synth{cfg: Config{Rate: 1.0, Voice: "en-gb"}, bin: "espeak-ng"}
	args := s.args("hi")
	found := false
	for i, a := range args {
		if a == "-v" && i+1 < len(args) && args[i+1] == "en-gb" {
			found = true
		}
	}
	if !found {
		t.Errorf("voice flag missing: %v", args)
	}
}

func TestSynthSpeakEmptyTextIsNoOp(t *testing.T) {
	s := &Synth{cfg: Config{Rate: 1.0}, bin: "/nonexistent/synth"}
	if err := s.Speak(context.Background(), ""); err != nil {
		t.Errorf("empty text should be a no-op, got %v", err)
	}
}
