// Package recorder owns the microphone take lifecycle: a small state
// machine over one exclusive capture handle, collecting PCM fragments in
// delivery order, counting elapsed seconds against a hard cap, and
// assembling the finalized payload. All operations are meant to be called
// from one goroutine (the UI); fragment delivery, the tick timer and
// finalize completion arrive asynchronously and are internally serialized.
package recorder

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"recite/audio"
)

type Status int

const (
	StatusInactive Status = iota
	StatusRecording
	StatusStopped
	// StatusPaused is reserved. No operation transitions into it; it
	// exists so the status surface is stable if a pause ever lands.
	StatusPaused
)

func (s Status) String() string {
	switch s {
	case StatusInactive:
		return "inactive"
	case StatusRecording:
		return "recording"
	case StatusStopped:
		return "stopped"
	case StatusPaused:
		return "paused"
	}
	return "unknown"
}

// DefaultMaxDuration is the hard cap on one take. Reaching it finalizes
// the take exactly as an explicit Stop would.
const DefaultMaxDuration = 300 * time.Second

// DefaultMimeType labels payloads from devices that report no encoding
// type of their own. The backends produce raw 16 kHz s16le PCM.
const DefaultMimeType = "audio/L16;rate=16000"

// ErrNotRecording is returned by Stop when no take is active.
var ErrNotRecording = errors.New("recorder: not recording")

// Clip is one finalized take: fragments concatenated in capture order,
// tagged with the encoding label, plus the elapsed seconds counted while
// recording.
type Clip struct {
	Data     []byte
	MimeType string
	Seconds  int
}

type Option func(*Recorder)

// WithDevice records from the given device instead of the system default.
func WithDevice(d *audio.DeviceInfo) Option {
	return func(r *Recorder) { r.device = d }
}

// WithMaxDuration overrides the recording cap.
func WithMaxDuration(d time.Duration) Option {
	return func(r *Recorder) { r.maxDur = d }
}

// WithTickInterval shrinks the one-second elapsed tick. The cap still
// counts the same number of ticks, so tests can play out a full take in
// milliseconds.
func WithTickInterval(d time.Duration) Option {
	return func(r *Recorder) { r.tick = d }
}

// OnTick is invoked once per elapsed second with the count so far and the
// cap in seconds.
func OnTick(fn func(elapsed, limit int)) Option {
	return func(r *Recorder) { r.onTick = fn }
}

// OnLevel is invoked with the RMS level of each captured fragment.
func OnLevel(fn func(level float64)) Option {
	return func(r *Recorder) { r.onLevel = fn }
}

// OnSilence is invoked when the silence monitor raises or clears its
// no-voice warning.
func OnSilence(fn func(ev SilenceEvent)) Option {
	return func(r *Recorder) { r.onSilence = fn }
}

// Recorder is the recording controller. The zero state is inactive; a
// Recorder is reusable across any number of takes.
type Recorder struct {
	actx   audio.Context
	device *audio.DeviceInfo
	capCfg audio.CaptureConfig
	maxDur time.Duration
	tick   time.Duration

	onTick    func(elapsed, limit int)
	onLevel   func(level float64)
	onSilence func(ev SilenceEvent)

	mu         sync.Mutex
	status     Status
	capture    audio.CaptureDevice
	chunks     [][]byte
	elapsed    int
	errMsg     string
	speech     bool
	gen        int   // take generation; gates fragment and timer delivery
	cancelFlag *bool // current take's cancel mark, read by its finalize
	finalized  chan Clip
	stopTick   chan struct{}
}

// pending carries everything a detached finalize needs, snapshotted when
// the take stops. A new take started while the flush is still running
// cannot disturb it; only Cancel (via the cancel mark) discards it.
type pending struct {
	canceled *bool
	chunks   [][]byte
	seconds  int
	out      chan Clip
}

// pendingLocked detaches the current take's buffer and delivery channel.
// Callers hold r.mu.
func (r *Recorder) pendingLocked() pending {
	p := pending{
		canceled: r.cancelFlag,
		chunks:   r.chunks,
		seconds:  r.elapsed,
		out:      r.finalized,
	}
	r.chunks = nil
	return p
}

func New(actx audio.Context, opts ...Option) *Recorder {
	r := &Recorder{
		actx: actx,
		capCfg: audio.CaptureConfig{
			SampleRate: audio.SampleRate,
			Channels:   audio.Channels,
		},
		maxDur: DefaultMaxDuration,
		tick:   time.Second,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Start acquires the microphone and begins a new take. While a take is
// already recording Start is a no-op: the in-progress take keeps its
// device and buffer. A previous take still finalizing is left alone: its
// payload delivers on its own channel. Acquisition failure leaves the
// recorder inactive and restartable, with the failure also readable
// through ErrorMessage.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.status == StatusRecording {
		r.mu.Unlock()
		return nil
	}
	r.gen++
	gen := r.gen
	r.mu.Unlock()

	capture, err := r.actx.NewCapture(r.device, r.capCfg)
	if err != nil {
		return r.fail(gen, err)
	}
	capture.SetCallback(func(data []byte, _ uint32) { r.onData(gen, data) })
	capture.SetErrorCallback(func(err error) { r.abort(gen, err) })
	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		capture.Close()
		return r.fail(gen, err)
	}

	r.mu.Lock()
	if r.gen != gen { // canceled while the device was opening
		r.mu.Unlock()
		capture.ClearCallback()
		capture.Close()
		return nil
	}
	r.status = StatusRecording
	r.capture = capture
	r.chunks = nil
	r.elapsed = 0
	r.errMsg = ""
	r.speech = false
	r.cancelFlag = new(bool)
	r.finalized = make(chan Clip, 1)
	stop := make(chan struct{})
	r.stopTick = stop
	r.mu.Unlock()

	go r.runTimer(gen, stop)
	return nil
}

// Stop ends the active take. The device flush and release happen off the
// caller's goroutine; the assembled Clip resolves through Finalized.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if r.status != StatusRecording {
		r.mu.Unlock()
		return ErrNotRecording
	}
	capture := r.detachLocked()
	p := r.pendingLocked()
	r.status = StatusStopped
	r.mu.Unlock()

	go r.finalize(p, capture)
	return nil
}

// Cancel abandons the current take from any state, including before any
// Start; repeated calls are no-ops. The take is marked canceled first, so
// a finalize already in flight will never deliver, then the device is
// force-stopped and released and the fragment buffer discarded.
func (r *Recorder) Cancel() {
	r.mu.Lock()
	r.gen++
	if r.cancelFlag != nil {
		*r.cancelFlag = true
		r.cancelFlag = nil
	}
	capture := r.capture
	r.capture = nil
	if r.stopTick != nil {
		close(r.stopTick)
		r.stopTick = nil
	}
	r.chunks = nil
	r.elapsed = 0
	r.status = StatusInactive
	r.errMsg = ""
	r.finalized = nil
	r.mu.Unlock()

	if capture != nil {
		capture.ClearCallback()
		capture.Stop()
		capture.Close()
	}
}

// Finalized resolves exactly one Clip per take, delivered after Stop or
// after the duration cap fires. Nil until a take has started; nil again
// after Cancel.
func (r *Recorder) Finalized() <-chan Clip {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finalized
}

func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Elapsed is the number of whole seconds counted in the current take.
func (r *Recorder) Elapsed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsed
}

// ErrorMessage describes the last device failure in words meant for the
// user, or "" when the last operation succeeded.
func (r *Recorder) ErrorMessage() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errMsg
}

// MaxSeconds is the configured cap in whole seconds.
func (r *Recorder) MaxSeconds() int {
	return int(r.maxDur / time.Second)
}

// detachLocked hands the capture handle to the caller and stops the tick
// timer. Callers hold r.mu.
func (r *Recorder) detachLocked() audio.CaptureDevice {
	capture := r.capture
	r.capture = nil
	if r.stopTick != nil {
		close(r.stopTick)
		r.stopTick = nil
	}
	return capture
}

func (r *Recorder) fail(gen int, cause error) error {
	msg := describeAcquireError(cause)
	r.mu.Lock()
	if r.gen == gen {
		r.status = StatusInactive
		r.errMsg = msg
	}
	r.mu.Unlock()
	return fmt.Errorf("recorder: %w", cause)
}

func describeAcquireError(err error) string {
	if audio.IsPermissionDenied(err) {
		return "Microphone access was denied. Allow microphone use in your system privacy settings and try again."
	}
	return fmt.Sprintf("Could not start the microphone: %v", err)
}

// onData runs on the capture backend's goroutine for every fragment.
func (r *Recorder) onData(gen int, data []byte) {
	if len(data) == 0 {
		return
	}
	buf := make([]byte, len(data))
	copy(buf, data)

	r.mu.Lock()
	if r.gen != gen || r.status != StatusRecording {
		r.mu.Unlock()
		return
	}
	r.chunks = append(r.chunks, buf)
	level := rmsLevel(buf)
	if level >= speechLevel {
		r.speech = true
	}
	cb := r.onLevel
	r.mu.Unlock()

	if cb != nil {
		cb(level)
	}
}

// abort handles a runtime device failure: record the message, release the
// device, return to inactive. Runs on a backend goroutine.
func (r *Recorder) abort(gen int, cause error) {
	r.mu.Lock()
	if r.gen != gen || r.status != StatusRecording {
		r.mu.Unlock()
		return
	}
	r.gen++
	if r.cancelFlag != nil {
		*r.cancelFlag = true
		r.cancelFlag = nil
	}
	capture := r.detachLocked()
	r.chunks = nil
	r.status = StatusInactive
	r.errMsg = fmt.Sprintf("Recording failed: %v", cause)
	r.mu.Unlock()

	if capture != nil {
		capture.ClearCallback()
		capture.Stop()
		capture.Close()
	}
}

func (r *Recorder) runTimer(gen int, stop chan struct{}) {
	limit := r.MaxSeconds()
	var mon silenceMonitor
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		r.mu.Lock()
		if r.gen != gen || r.status != StatusRecording {
			r.mu.Unlock()
			return
		}
		r.elapsed++
		elapsed := r.elapsed
		speech := r.speech
		r.speech = false
		r.mu.Unlock()

		if r.onTick != nil {
			r.onTick(elapsed, limit)
		}
		if ev := mon.Tick(speech); ev != SilenceNone && r.onSilence != nil {
			r.onSilence(ev)
		}

		if elapsed >= limit {
			r.autoStop(gen)
			return
		}
	}
}

// autoStop is the cap path: same finalize as an explicit Stop, with no
// caller involvement.
func (r *Recorder) autoStop(gen int) {
	r.mu.Lock()
	if r.gen != gen || r.status != StatusRecording {
		r.mu.Unlock()
		return
	}
	capture := r.detachLocked()
	p := r.pendingLocked()
	r.status = StatusStopped
	r.mu.Unlock()

	r.finalize(p, capture)
}

// finalize flushes and releases the device, then assembles the snapshotted
// fragments in delivery order into one Clip. A Cancel issued while the
// flush was running marks the take canceled and the payload is discarded.
func (r *Recorder) finalize(p pending, capture audio.CaptureDevice) {
	capture.Stop()
	capture.ClearCallback()
	mime := capture.MimeType()
	capture.Close()
	if mime == "" {
		mime = DefaultMimeType
	}

	r.mu.Lock()
	canceled := *p.canceled
	r.mu.Unlock()
	if canceled {
		return
	}

	var total int
	for _, c := range p.chunks {
		total += len(c)
	}
	data := make([]byte, 0, total)
	for _, c := range p.chunks {
		data = append(data, c...)
	}
	p.out <- Clip{Data: data, MimeType: mime, Seconds: p.seconds}
}
