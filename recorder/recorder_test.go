package recorder

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"recite/audio"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestStartWhileRecordingIsNoOp(t *testing.T) {
	ctx := audio.NewFakeContext()
	rec := New(ctx)
	defer rec.Cancel()

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := rec.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	if got := ctx.Acquired(); got != 1 {
		t.Errorf("acquired %d devices, want exactly 1", got)
	}
	if rec.Status() != StatusRecording {
		t.Errorf("status = %v, want recording", rec.Status())
	}
}

func TestCancelWithoutSessionIsNoOp(t *testing.T) {
	rec := New(audio.NewFakeContext())

	rec.Cancel()
	rec.Cancel()

	if rec.Status() != StatusInactive {
		t.Errorf("status = %v, want inactive", rec.Status())
	}
	if rec.ErrorMessage() != "" {
		t.Errorf("unexpected error message %q", rec.ErrorMessage())
	}
}

func TestStopAssemblesFragmentsInOrder(t *testing.T) {
	ctx := audio.NewFakeContext()
	rec := New(ctx)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cap := ctx.LastCapture()
	cap.Feed([]byte{1, 2})
	cap.Feed([]byte{3, 4})
	cap.Feed([]byte{5, 6})

	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	var clip Clip
	select {
	case clip = <-rec.Finalized():
	case <-time.After(2 * time.Second):
		t.Fatal("finalize never delivered")
	}

	if !bytes.Equal(clip.Data, []byte{1, 2, 3, 4, 5, 6}) {
		t.Errorf("payload = %v, want fragments concatenated in order", clip.Data)
	}
	if clip.MimeType != DefaultMimeType {
		t.Errorf("mime = %q, want fallback %q", clip.MimeType, DefaultMimeType)
	}
	if rec.Status() != StatusStopped {
		t.Errorf("status = %v, want stopped", rec.Status())
	}
	if !cap.Closed() {
		t.Error("device not released after finalize")
	}
}

func TestFinalizeKeepsReportedMimeType(t *testing.T) {
	ctx := audio.NewFakeContext()
	ctx.ReportedMime = "audio/L16;rate=16000;channels=1"
	rec := New(ctx)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	clip := <-rec.Finalized()
	if clip.MimeType != ctx.ReportedMime {
		t.Errorf("mime = %q, want the device-reported %q", clip.MimeType, ctx.ReportedMime)
	}
}

func TestStopWhenInactive(t *testing.T) {
	rec := New(audio.NewFakeContext())
	if err := rec.Stop(); !errors.Is(err, ErrNotRecording) {
		t.Errorf("Stop on inactive = %v, want ErrNotRecording", err)
	}
}

func TestCancelPreventsPendingFinalizeDelivery(t *testing.T) {
	ctx := audio.NewFakeContext()
	rec := New(ctx)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cap := ctx.LastCapture()
	cap.Feed([]byte{9, 9})
	block := make(chan struct{})
	cap.StopBlock = block

	finalized := rec.Finalized()
	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	rec.Cancel() // while the finalize is held in the device flush
	close(block)

	select {
	case clip := <-finalized:
		t.Fatalf("finalize delivered %d bytes after Cancel", len(clip.Data))
	case <-time.After(200 * time.Millisecond):
	}
	if rec.Status() != StatusInactive {
		t.Errorf("status = %v, want inactive after cancel", rec.Status())
	}
}

func TestRestartDeliversPendingFinalize(t *testing.T) {
	ctx := audio.NewFakeContext()
	rec := New(ctx)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	first := ctx.LastCapture()
	first.Feed([]byte{1, 2})
	block := make(chan struct{})
	first.StopBlock = block

	finalized := rec.Finalized()
	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	// Next take starts while the previous one is still flushing.
	if err := rec.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	second := ctx.LastCapture()
	second.Feed([]byte{9, 9})
	close(block)

	var clip Clip
	select {
	case clip = <-finalized:
	case <-time.After(2 * time.Second):
		t.Fatal("stopped take's finalize never delivered after restart")
	}
	if !bytes.Equal(clip.Data, []byte{1, 2}) {
		t.Errorf("payload = %v, want only the stopped take's fragments", clip.Data)
	}

	if err := rec.Stop(); err != nil {
		t.Fatalf("stopping second take: %v", err)
	}
	clip = <-rec.Finalized()
	if !bytes.Equal(clip.Data, []byte{9, 9}) {
		t.Errorf("second payload = %v, want the new take's fragments", clip.Data)
	}
}

func TestFragmentsDroppedAfterStop(t *testing.T) {
	ctx := audio.NewFakeContext()
	rec := New(ctx)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cap := ctx.LastCapture()
	cap.Feed([]byte{1, 1})
	block := make(chan struct{})
	cap.StopBlock = block

	if err := rec.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	cap.Feed([]byte{2, 2}) // late fragment, session already stopped
	close(block)

	clip := <-rec.Finalized()
	if !bytes.Equal(clip.Data, []byte{1, 1}) {
		t.Errorf("payload = %v, want only fragments from the recording state", clip.Data)
	}
}

func TestDurationCapAutoFinalizes(t *testing.T) {
	ctx := audio.NewFakeContext()
	rec := New(ctx, WithTickInterval(time.Millisecond))

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	ctx.LastCapture().Feed([]byte{7, 7})

	// 300 simulated one-second ticks, no explicit Stop.
	var clip Clip
	select {
	case clip = <-rec.Finalized():
	case <-time.After(5 * time.Second):
		t.Fatal("cap never finalized the session")
	}

	if clip.Seconds != rec.MaxSeconds() {
		t.Errorf("clip seconds = %d, want the %d-second cap", clip.Seconds, rec.MaxSeconds())
	}
	if rec.Status() != StatusStopped {
		t.Errorf("status = %v, want stopped", rec.Status())
	}
	if !ctx.LastCapture().Closed() {
		t.Error("device not released after cap finalize")
	}
}

func TestAcquireFailurePermissionDenied(t *testing.T) {
	ctx := audio.NewFakeContext()
	ctx.AcquireErr = audio.ErrPermissionDenied
	rec := New(ctx)

	if err := rec.Start(); err == nil {
		t.Fatal("Start succeeded with a denied device")
	}
	if rec.Status() != StatusInactive {
		t.Errorf("status = %v, want inactive", rec.Status())
	}
	msg := rec.ErrorMessage()
	if msg == "" || !contains(msg, "privacy settings") {
		t.Errorf("error message %q should guide the user to permission settings", msg)
	}

	// Recoverable: the next Start works once access is granted.
	ctx.AcquireErr = nil
	if err := rec.Start(); err != nil {
		t.Fatalf("restart after denial: %v", err)
	}
	defer rec.Cancel()
	if rec.Status() != StatusRecording {
		t.Errorf("status after restart = %v, want recording", rec.Status())
	}
	if rec.ErrorMessage() != "" {
		t.Errorf("stale error message %q after successful restart", rec.ErrorMessage())
	}
}

func TestStartFailureGenericWording(t *testing.T) {
	ctx := audio.NewFakeContext()
	ctx.StartErr = errors.New("stream collapsed")
	rec := New(ctx)

	if err := rec.Start(); err == nil {
		t.Fatal("Start succeeded with a broken device")
	}
	msg := rec.ErrorMessage()
	if !contains(msg, "Could not start the microphone") {
		t.Errorf("error message %q, want the generic device wording", msg)
	}
	if contains(msg, "privacy settings") {
		t.Errorf("generic failure %q must not use the permission wording", msg)
	}
	if !ctx.LastCapture().Closed() {
		t.Error("failed capture handle not released")
	}
}

func TestRuntimeErrorAbortsAndReleases(t *testing.T) {
	ctx := audio.NewFakeContext()
	rec := New(ctx)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	cap := ctx.LastCapture()
	cap.Feed([]byte{1, 2})
	cap.FailRuntime(errors.New("device unplugged"))

	waitFor(t, func() bool { return rec.Status() == StatusInactive },
		"recorder did not return to inactive after a runtime error")
	if !contains(rec.ErrorMessage(), "device unplugged") {
		t.Errorf("error message %q should carry the cause", rec.ErrorMessage())
	}
	if !cap.Closed() {
		t.Error("device not released after runtime error")
	}

	// Restartable without operator cleanup.
	if err := rec.Start(); err != nil {
		t.Fatalf("restart after runtime error: %v", err)
	}
	rec.Cancel()
}

func TestElapsedCounts(t *testing.T) {
	ctx := audio.NewFakeContext()
	var last int
	done := make(chan struct{})
	rec := New(ctx,
		WithTickInterval(time.Millisecond),
		WithMaxDuration(20*time.Second),
		OnTick(func(elapsed, limit int) {
			last = elapsed
			if elapsed == limit {
				close(done)
			}
		}),
	)

	if err := rec.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ticks never reached the cap")
	}
	<-rec.Finalized()
	if last != 20 {
		t.Errorf("last tick = %d, want 20", last)
	}
}

func contains(s, sub string) bool {
	return len(sub) == 0 || bytes.Contains([]byte(s), []byte(sub))
}
