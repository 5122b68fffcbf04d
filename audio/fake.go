package audio

import (
	"os"
	"sync"
)

const fakeChunkBytes = 2048 // 1024 frames of 16-bit mono

// FakeContext is an in-memory capture backend. Tests drive fragments and
// failures by hand; the -wav replay mode preloads PCM that is fed to the
// callback as soon as the capture starts.
type FakeContext struct {
	mu sync.Mutex

	DeviceList    []DeviceInfo
	AcquireErr    error // returned from NewCapture
	StartErr      error // returned from the capture's Start
	ReportedMime  string
	pcm           []byte

	acquired int
	captures []*FakeCapture
}

func NewFakeContext() *FakeContext {
	return &FakeContext{}
}

// NewReplayContext loads a WAV file whose PCM body is replayed into the
// data callback on Start. Only the 44-byte canonical header is stripped;
// the payload is assumed to already be 16 kHz mono s16le.
func NewReplayContext(wavPath string) (*FakeContext, error) {
	data, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, err
	}
	if len(data) > WAVHeaderSize {
		data = data[WAVHeaderSize:]
	}
	return &FakeContext{pcm: data}, nil
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return f.DeviceList, nil
}

func (f *FakeContext) Close() {}

func (f *FakeContext) NewCapture(device *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AcquireErr != nil {
		return nil, f.AcquireErr
	}
	f.acquired++
	cap := &FakeCapture{
		device:    device,
		mime:      f.ReportedMime,
		startErr:  f.StartErr,
		pcm:       f.pcm,
		audioDone: make(chan struct{}),
	}
	f.captures = append(f.captures, cap)
	return cap, nil
}

// Acquired reports how many capture handles were handed out.
func (f *FakeContext) Acquired() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.acquired
}

// LastCapture returns the most recently acquired handle, or nil.
func (f *FakeContext) LastCapture() *FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.captures) == 0 {
		return nil
	}
	return f.captures[len(f.captures)-1]
}

type FakeCapture struct {
	device   *DeviceInfo
	mime     string
	startErr error
	pcm      []byte

	// StopBlock, when set before Stop is called, makes Stop wait until
	// the channel closes. Tests use it to hold a finalize in flight.
	StopBlock chan struct{}

	mu        sync.Mutex
	cb        DataCallback
	errCb     ErrorCallback
	started   bool
	stopped   bool
	closed    bool
	audioDone chan struct{}
}

func (c *FakeCapture) Start() error {
	if c.startErr != nil {
		return c.startErr
	}
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()

	if len(c.pcm) > 0 {
		go func() {
			for pos := 0; pos < len(c.pcm); pos += fakeChunkBytes {
				end := min(pos+fakeChunkBytes, len(c.pcm))
				chunk := make([]byte, end-pos)
				copy(chunk, c.pcm[pos:end])
				c.Feed(chunk)
			}
			close(c.audioDone)
		}()
	}
	return nil
}

func (c *FakeCapture) Stop() {
	if c.StopBlock != nil {
		<-c.StopBlock
	}
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
}

func (c *FakeCapture) Close() {
	c.mu.Lock()
	c.stopped = true
	c.closed = true
	c.mu.Unlock()
}

func (c *FakeCapture) SetCallback(cb DataCallback) {
	c.mu.Lock()
	c.cb = cb
	c.mu.Unlock()
}

func (c *FakeCapture) ClearCallback() {
	c.mu.Lock()
	c.cb = nil
	c.mu.Unlock()
}

func (c *FakeCapture) SetErrorCallback(cb ErrorCallback) {
	c.mu.Lock()
	c.errCb = cb
	c.mu.Unlock()
}

func (c *FakeCapture) MimeType() string { return c.mime }

func (c *FakeCapture) DeviceName() string {
	if c.device != nil {
		return c.device.Name
	}
	return "fake"
}

// AudioDone closes once all preloaded replay PCM has been delivered.
func (c *FakeCapture) AudioDone() <-chan struct{} { return c.audioDone }

// Feed delivers one fragment to the registered data callback, mimicking
// the backend goroutine.
func (c *FakeCapture) Feed(data []byte) {
	c.mu.Lock()
	cb := c.cb
	c.mu.Unlock()
	if cb != nil {
		cb(data, uint32(len(data)/2))
	}
}

// FailRuntime delivers a runtime capture error, mimicking a device that
// collapses mid-take.
func (c *FakeCapture) FailRuntime(err error) {
	c.mu.Lock()
	ecb := c.errCb
	c.mu.Unlock()
	if ecb != nil {
		ecb(err)
	}
}

func (c *FakeCapture) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func (c *FakeCapture) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
