// Package log writes two files under the recite log directory: a
// zerolog-formatted diagnostics log and a plain practice log with one
// line per analyzed take.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog      zerolog.Logger
	diagFile     *os.File
	practiceFile *os.File
	logMu        sync.Mutex
	logReady     bool
	pid          int
	dir          string
)

// ResolveDir picks the log directory: flag, then RECITE_LOG_PATH, then
// the OS default location.
func ResolveDir(flagPath string) (string, error) {
	if flagPath != "" {
		return absolutize(flagPath)
	}
	if envPath := os.Getenv("RECITE_LOG_PATH"); envPath != "" {
		return absolutize(envPath)
	}
	return getDefaultDir()
}

func absolutize(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) { dir = d }

func Dir() string { return dir }

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	practicePath := filepath.Join(dir, "practice_log.txt")
	practiceFile, err = os.OpenFile(practicePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if practiceFile != nil {
		practiceFile.Close()
		practiceFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func SessionStart(analyzer, model, device string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("analyzer", analyzer).
		Str("model", model).
		Str("device", device).
		Msg("session_start")
}

func SessionEnd(takes int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("takes", takes).
		Msg("session_end")
}

func RecordingStart(device string) {
	if !logReady {
		return
	}
	diagLog.Info().Str("device", device).Msg("recording_start")
}

func RecordingStop(seconds, payloadKB int, capped bool) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("seconds", seconds).
		Int("payload_kb", payloadKB).
		Bool("hit_cap", capped).
		Msg("recording_stop")
}

// AnalysisMetrics is one analysis round trip, sizes in KB, times in ms.
type AnalysisMetrics struct {
	AudioS       float64
	RawKB        float64
	UploadKB     float64
	DNSMs        float64
	TLSMs        float64
	UploadMs     float64
	TTFBMs       float64
	TotalMs      float64
	ConnReused   bool
	FluencyScore int
	Similarity   int
}

func Analysis(m AnalysisMetrics, analyzer string) {
	if !logReady {
		return
	}
	conn := "new"
	if m.ConnReused {
		conn = "reused"
	}
	diagLog.Info().
		Str("analyzer", analyzer).
		Str("conn", conn).
		Float64("audio_s", m.AudioS).
		Float64("raw_kb", m.RawKB).
		Float64("upload_kb", m.UploadKB).
		Float64("dns_ms", m.DNSMs).
		Float64("tls_ms", m.TLSMs).
		Float64("upload_ms", m.UploadMs).
		Float64("ttfb_ms", m.TTFBMs).
		Float64("total_ms", m.TotalMs).
		Int("fluency", m.FluencyScore).
		Int("similarity", m.Similarity).
		Msg("analysis")
}

// Practice appends one tab-separated line per analyzed take: timestamp,
// pid, similarity, and the transcription.
func Practice(similarity int, transcription string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%d%%\t%s\n",
		time.Now().Format("2006-01-02 15:04:05"), pid, similarity, transcription)
	practiceFile.WriteString(line)
}
