package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/atotto/clipboard"

	"recite/audio"
	"recite/coach"
	"recite/encoder"
	"recite/export"
	"recite/log"
	"recite/recorder"
	"recite/score"
	"recite/speak"
)

var version = "dev"

// action is one user intent coming out of the TUI key handler.
type action int

const (
	actionToggle action = iota // start or stop the current take
	actionCancel
	actionSpeak
)

type session struct {
	rec        *recorder.Recorder
	analyzer   coach.Analyzer
	speaker    speak.Speaker
	cfg        *Config
	script     string
	deviceName string
	copyResult bool

	takeDone chan struct{} // closed on cancel; detaches the finalize waiter
	speaking atomic.Bool
	takesMu  sync.Mutex
	takes    int
}

var shutdownOnce sync.Once

func gracefulShutdown(sess *session) {
	shutdownOnce.Do(func() {
		if sess != nil {
			sess.takesMu.Lock()
			n := sess.takes
			sess.takesMu.Unlock()
			if n > 0 {
				log.SessionEnd(n)
			}
		}
		log.Close()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

func main() {
	scriptFlag := flag.String("script", "", "Path to the script file to practice (default: clipboard contents)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	setupFlag := flag.Bool("setup", false, "Select microphone device interactively")
	wavFlag := flag.String("wav", "", "Analyze a prerecorded WAV file instead of capturing live")
	speakFlag := flag.Bool("speak", false, "Read the script aloud once on startup")
	copyFlag := flag.Bool("copy", false, "Copy each transcription to the clipboard")
	logPathFlag := flag.String("logpath", "", "Log directory path (default: OS-specific location)")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("recite %s\n", version)
		os.Exit(0)
	}

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	if crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n",
			time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.GeminiAPIKey == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY is not set (put it in the environment or a .env file)")
		os.Exit(1)
	}

	script, err := loadScript(*scriptFlag, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Capture source: live microphone, or a replay backend that feeds the
	// WAV body through the same pipeline.
	var actx audio.Context
	var replay *audio.FakeContext
	if *wavFlag != "" {
		replay, err = audio.NewReplayContext(*wavFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot read %s: %v\n", *wavFlag, err)
			os.Exit(1)
		}
		actx = replay
	} else {
		actx, err = audio.NewContext()
		if err != nil {
			log.Errorf("audio context init error: %v", err)
			fmt.Fprintf(os.Stderr, "Error initializing audio: %v\n", err)
			os.Exit(1)
		}
	}
	defer actx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := actx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			fmt.Fprintf(os.Stderr, "Warning: device %q not found, using default\n", *deviceFlag)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(actx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: device selection failed: %v\n", err)
			selectedDevice = nil
		}
	}

	analyzer := coach.NewGemini(cfg.GeminiAPIKey, cfg.Model)
	go analyzer.Warm()

	var speaker speak.Speaker
	if synth, err := speak.NewSynth(speak.Config{Rate: cfg.SpeechRate, Voice: cfg.Voice}); err == nil {
		speaker = synth
	} else {
		log.Warnf("speech synthesis unavailable: %v", err)
	}

	sess := &session{
		analyzer:   analyzer,
		speaker:    speaker,
		cfg:        cfg,
		script:     script,
		deviceName: deviceLabel(selectedDevice),
		copyResult: *copyFlag,
	}
	sess.rec = recorder.New(actx,
		recorder.WithDevice(selectedDevice),
		recorder.WithMaxDuration(time.Duration(cfg.MaxSeconds)*time.Second),
		recorder.OnTick(func(elapsed, limit int) {
			tuiSend(RecordingTickMsg{Elapsed: elapsed, Limit: limit})
		}),
		recorder.OnLevel(func(level float64) {
			tuiSend(AudioLevelMsg{Level: level})
		}),
		recorder.OnSilence(func(ev recorder.SilenceEvent) {
			if ev == recorder.SilenceWarn {
				log.Info("no_voice_warning")
			}
			tuiSend(SilenceMsg{Warn: ev == recorder.SilenceWarn})
		}),
	)

	actions := make(chan action, 1)

	tuiMu.Lock()
	tuiProgram = NewTUIProgram(actions)
	tuiMu.Unlock()
	go func() {
		if _, err := tuiProgram.Run(); err != nil {
			log.Errorf("TUI error: %v", err)
			os.Exit(1)
		}
		gracefulShutdown(sess)
	}()

	log.SessionStart(analyzer.Name(), cfg.Model, sess.deviceName)
	tuiSend(ScriptMsg{Text: script})
	tuiSend(DeviceLineMsg{Text: deviceLine(selectedDevice)})
	tuiSend(SpeakerMsg{Available: speaker != nil})

	if *speakFlag {
		sess.speakScript()
	}

	for act := range actions {
		switch act {
		case actionToggle:
			sess.toggle(replay, actions)
		case actionCancel:
			sess.cancel()
		case actionSpeak:
			sess.speakScript()
		}
	}
}

// loadScript resolves the reference text: a file, the remaining args, or
// whatever is on the clipboard.
func loadScript(path string, args []string) (string, error) {
	var text string
	switch {
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("cannot read script: %w", err)
		}
		text = string(data)
	case len(args) > 0:
		text = strings.Join(args, " ")
	default:
		clip, err := clipboard.ReadAll()
		if err != nil {
			return "", fmt.Errorf("no -script given and clipboard is unreadable: %w", err)
		}
		text = clip
	}
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", fmt.Errorf("script is empty")
	}
	return text, nil
}

func deviceLabel(dev *audio.DeviceInfo) string {
	if dev == nil {
		return "system default"
	}
	return dev.Name
}

func deviceLine(dev *audio.DeviceInfo) string {
	line := "mic: " + deviceLabel(dev)
	if dev != nil && audio.IsHeadset(dev.Name) {
		line += " (headset)"
	}
	return line
}

// toggle starts a take, or stops the active one and hands the finalized
// clip to analysis.
func (s *session) toggle(replay *audio.FakeContext, actions chan action) {
	if s.rec.Status() == recorder.StatusRecording {
		if err := s.rec.Stop(); err != nil {
			return
		}
		tuiSend(RecordingStopMsg{})
		return
	}

	if err := s.rec.Start(); err != nil {
		log.Errorf("recording start failed: %v", err)
		tuiSend(StatusMsg{Text: s.rec.ErrorMessage(), IsError: true})
		return
	}
	log.RecordingStart(s.deviceName)
	tuiSend(RecordingStartMsg{Limit: s.rec.MaxSeconds()})

	done := make(chan struct{})
	s.takeDone = done
	finalized := s.rec.Finalized()
	go func() {
		select {
		case clip := <-finalized:
			s.analyze(clip)
		case <-done:
		}
	}()

	// Replay mode: stop on its own once the WAV body has been fed.
	if replay != nil {
		go watchReplay(replay.LastCapture(), actions)
	}
}

// watchReplay stops the take once the replayed WAV body has been fully
// delivered. The send blocks until the action loop takes it, so the stop
// is never dropped even when the buffer is momentarily full.
func watchReplay(capture *audio.FakeCapture, actions chan<- action) {
	<-capture.AudioDone()
	actions <- actionToggle
}

func (s *session) cancel() {
	if s.takeDone != nil {
		close(s.takeDone)
		s.takeDone = nil
	}
	s.rec.Cancel()
	log.Info("take_canceled")
	tuiSend(CanceledMsg{})
}

func (s *session) speakScript() {
	if s.speaker == nil {
		tuiSend(StatusMsg{Text: "No speech synthesizer available"})
		return
	}
	if !s.speaking.CompareAndSwap(false, true) {
		return
	}
	tuiSend(SpeakingMsg{On: true})
	go func() {
		defer s.speaking.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := s.speaker.Speak(ctx, s.script); err != nil {
			log.Warnf("speak failed: %v", err)
		}
		tuiSend(SpeakingMsg{On: false})
	}()
}

// analyze runs on the finalize waiter goroutine: encode, send to the
// coach, score, log, export.
func (s *session) analyze(clip recorder.Clip) {
	tuiSend(AnalyzingMsg{})

	hitCap := clip.Seconds >= s.rec.MaxSeconds()
	log.RecordingStop(clip.Seconds, len(clip.Data)/1024, hitCap)

	payload, mime := clip.Data, clip.MimeType
	if flacData, err := encoder.FLAC(clip.Data); err == nil {
		payload, mime = flacData, "audio/flac"
	} else {
		log.Warnf("flac encode failed, sending raw pcm: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()
	report, err := s.analyzer.Analyze(ctx, coach.Request{
		Audio:    payload,
		MimeType: mime,
		Script:   s.script,
		Language: s.cfg.Language,
	})
	if err != nil {
		log.Errorf("analysis failed: %v", err)
		tuiSend(StatusMsg{Text: fmt.Sprintf("Analysis failed: %v", err), IsError: true})
		return
	}

	similarity := score.Similarity(s.script, report.Transcription)

	s.takesMu.Lock()
	s.takes++
	take := s.takes
	s.takesMu.Unlock()

	m := log.AnalysisMetrics{
		AudioS:       float64(len(clip.Data)/2) / float64(encoder.SampleRate),
		RawKB:        float64(len(clip.Data)) / 1024,
		UploadKB:     float64(len(payload)) / 1024,
		FluencyScore: report.FluencyScore,
		Similarity:   similarity,
	}
	if nm := report.Metrics; nm != nil {
		m.DNSMs = float64(nm.DNS.Milliseconds())
		m.TLSMs = float64(nm.TLS.Milliseconds())
		m.UploadMs = float64(nm.Upload.Milliseconds())
		m.TTFBMs = float64(nm.TTFB.Milliseconds())
		m.TotalMs = float64(nm.Total.Milliseconds())
		m.ConnReused = nm.ConnReused
	}
	log.Analysis(m, s.analyzer.Name())
	log.Practice(similarity, report.Transcription)

	var savedPath string
	if s.cfg.PracticeDir != "" {
		saved, err := export.SaveTake(s.cfg.PracticeDir, export.Take{
			Script:        s.script,
			Transcription: report.Transcription,
			Similarity:    similarity,
			Seconds:       clip.Seconds,
			RecordedAt:    time.Now(),
			Report:        report,
			PCM:           clip.Data,
		})
		if err != nil {
			log.Warnf("export failed: %v", err)
		} else {
			savedPath = saved.Markdown
		}
	}

	if s.copyResult && !report.NoSpeech() {
		if err := clipboard.WriteAll(report.Transcription); err != nil {
			log.Warnf("clipboard copy failed: %v", err)
		}
	}

	tuiSend(ReportMsg{
		Report:     report,
		Similarity: similarity,
		Saved:      savedPath,
		Take:       take,
	})
}
