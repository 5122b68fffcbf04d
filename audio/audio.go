// Package audio abstracts the platform microphone: enumerate capture
// devices, open one, stream PCM fragments through a callback, and release
// it again. Backends exist for PulseAudio (linux), miniaudio (everything
// else) and an in-memory fake for tests and WAV replay.
package audio

import (
	"errors"
	"strings"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16

	WAVHeaderSize = 44
)

// ErrPermissionDenied marks a device acquisition rejected by the OS or
// sound server. Callers use it to word their guidance differently from
// a plain hardware failure.
var ErrPermissionDenied = errors.New("audio: device access denied")

// IsPermissionDenied reports whether err looks like an access-control
// rejection. Backends wrap ErrPermissionDenied where they can tell; the
// message heuristic covers sound servers that only return text.
func IsPermissionDenied(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPermissionDenied) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "denied") || strings.Contains(msg, "not authorized")
}

// DataCallback receives one fragment of little-endian 16-bit mono PCM.
// Fragments arrive in capture order on a backend-owned goroutine.
type DataCallback func(data []byte, frameCount uint32)

// ErrorCallback receives a runtime capture failure (device unplugged,
// stream collapsed) after Start has already succeeded.
type ErrorCallback func(err error)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID   string // opaque platform-specific identifier
	Name string
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	// NewCapture prepares a capture handle for the given device (nil =
	// system default). The underlying stream is not opened until Start.
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

// CaptureDevice is one exclusive microphone handle. Stop and Close are
// idempotent; Close implies Stop and frees the hardware so the OS capture
// indicator goes away.
type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	SetErrorCallback(cb ErrorCallback)
	// MimeType is the encoding label the backend reports for its
	// fragments, or "" when it reports none.
	MimeType() string
	DeviceName() string
}

var headsetKeywords = []string{
	"airpods", "beats", "bose", "wh-1000", "wf-1000",
	"jabra", "galaxy buds", "pixel buds", "powerbeats",
	"jbl ", "sennheiser", "plantronics", "skullcandy",
	"headset", "bluetooth", " bt ", " bt)", " bt]",
}

// IsHeadset guesses from the device name whether this is a wireless
// headset microphone, which usually records at a reduced quality that
// hurts pronunciation analysis.
func IsHeadset(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range headsetKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
