package encoder

import (
	"encoding/binary"
	"math"
	"testing"
)

// sinePCM generates n samples of a 440 Hz tone as s16le bytes.
func sinePCM(n int) []byte {
	data := make([]byte, n*2)
	for i := 0; i < n; i++ {
		s := int16(math.Sin(2*math.Pi*440*float64(i)/SampleRate) * 12000)
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}

func TestFLACRoundsAllSamples(t *testing.T) {
	pcm := sinePCM(BlockSize*2 + 100) // two full blocks plus a partial

	out, err := FLAC(pcm)
	if err != nil {
		t.Fatalf("FLAC: %v", err)
	}
	if len(out) < 4 || string(out[:4]) != "fLaC" {
		t.Fatal("output does not start with FLAC magic")
	}
}

func TestFlacEncoderFrameCount(t *testing.T) {
	enc, err := NewFlac()
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}

	samples := Samples(sinePCM(BlockSize + BlockSize/4))
	var fed uint64
	for i := 0; i < len(samples); i += BlockSize {
		end := min(i+BlockSize, len(samples))
		if err := enc.EncodeBlock(samples[i:end]); err != nil {
			t.Fatalf("EncodeBlock at %d: %v", i, err)
		}
		fed += uint64(end - i)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if enc.TotalFrames() != fed {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), fed)
	}
}

func TestFlacEncoderEmpty(t *testing.T) {
	enc, err := NewFlac()
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close on empty encoder: %v", err)
	}
	if len(enc.Bytes()) == 0 {
		t.Error("expected at least a FLAC header")
	}
}

func TestWAVHeader(t *testing.T) {
	pcm := sinePCM(1000)
	out := WAV(pcm)

	if len(out) != wavHeaderSize+len(pcm) {
		t.Fatalf("len = %d, want %d", len(out), wavHeaderSize+len(pcm))
	}
	if string(out[:4]) != "RIFF" || string(out[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE magic")
	}
	if got := binary.LittleEndian.Uint32(out[4:]); got != uint32(36+len(pcm)) {
		t.Errorf("riff size = %d, want %d", got, 36+len(pcm))
	}
	if got := binary.LittleEndian.Uint32(out[24:]); got != SampleRate {
		t.Errorf("sample rate = %d, want %d", got, SampleRate)
	}
	if got := binary.LittleEndian.Uint32(out[40:]); got != uint32(len(pcm)) {
		t.Errorf("data size = %d, want %d", got, len(pcm))
	}
}

func TestSamplesDropsOddByte(t *testing.T) {
	got := Samples([]byte{0x01, 0x00, 0xFF})
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("Samples = %v, want [1]", got)
	}
}
