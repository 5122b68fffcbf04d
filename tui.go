package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"recite/coach"
)

// TUI message types
type ScriptMsg struct{ Text string }
type DeviceLineMsg struct{ Text string }
type SpeakerMsg struct{ Available bool }
type RecordingStartMsg struct{ Limit int }
type RecordingStopMsg struct{}
type RecordingTickMsg struct{ Elapsed, Limit int }
type AudioLevelMsg struct{ Level float64 }
type SilenceMsg struct{ Warn bool }
type AnalyzingMsg struct{}
type CanceledMsg struct{}
type SpeakingMsg struct{ On bool }
type StatusMsg struct {
	Text    string
	IsError bool
}
type ReportMsg struct {
	Report     *coach.Report
	Similarity int
	Saved      string
	Take       int
}
type tickMsg time.Time

type tuiState int

const (
	tuiStateIdle tuiState = iota
	tuiStateRecording
	tuiStateAnalyzing
)

type tuiModel struct {
	actions chan<- action

	state         tuiState
	frame         int
	elapsed       int
	limit         int
	audioLevel    float64
	silenceWarn   bool
	speaking      bool
	speakerOK     bool
	width, height int

	script     string
	deviceLine string
	status     string
	statusErr  bool

	report     *coach.Report
	similarity int
	savedPath  string
	take       int
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	scriptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	recStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	idleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	meterStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	analyzeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	speakingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
)

func NewTUIProgram(actions chan<- action) *tea.Program {
	m := tuiModel{actions: actions, limit: 300}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func tuiTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

// send forwards a user intent without ever blocking the render loop.
func (m tuiModel) send(a action) {
	select {
	case m.actions <- a:
	default:
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case " ", "r":
			m.status = ""
			m.send(actionToggle)
		case "esc":
			m.status = ""
			m.send(actionCancel)
		case "s":
			m.send(actionSpeak)
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case ScriptMsg:
		m.script = msg.Text

	case DeviceLineMsg:
		m.deviceLine = msg.Text

	case SpeakerMsg:
		m.speakerOK = msg.Available

	case RecordingStartMsg:
		m.state = tuiStateRecording
		m.elapsed = 0
		m.limit = msg.Limit
		m.audioLevel = 0
		m.silenceWarn = false
		m.status = ""

	case RecordingStopMsg:
		m.state = tuiStateAnalyzing
		m.audioLevel = 0
		m.silenceWarn = false

	case RecordingTickMsg:
		m.elapsed = msg.Elapsed
		m.limit = msg.Limit

	case AudioLevelMsg:
		if m.state == tuiStateRecording {
			m.audioLevel = m.audioLevel*0.6 + msg.Level*0.4
		}

	case SilenceMsg:
		m.silenceWarn = msg.Warn

	case AnalyzingMsg:
		m.state = tuiStateAnalyzing
		m.audioLevel = 0
		m.silenceWarn = false

	case CanceledMsg:
		m.state = tuiStateIdle
		m.audioLevel = 0
		m.silenceWarn = false
		m.status = "Take canceled"
		m.statusErr = false

	case SpeakingMsg:
		m.speaking = msg.On

	case StatusMsg:
		m.state = tuiStateIdle
		m.status = msg.Text
		m.statusErr = msg.IsError

	case ReportMsg:
		m.state = tuiStateIdle
		m.report = msg.Report
		m.similarity = msg.Similarity
		m.savedPath = msg.Saved
		m.take = msg.Take
		m.status = ""
	}
	return m, nil
}

var spinnerFrames = []string{"◐", "◓", "◑", "◒"}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	wrapWidth := m.width - 4
	if wrapWidth < 20 {
		wrapWidth = 20
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("recite "+version) + "\n")
	if m.deviceLine != "" {
		b.WriteString(dimStyle.Render(m.deviceLine) + "\n")
	}
	b.WriteString("\n")

	for _, line := range wrapText(m.script, wrapWidth) {
		b.WriteString(scriptStyle.Render("  "+line) + "\n")
	}
	b.WriteString("\n")

	switch m.state {
	case tuiStateRecording:
		b.WriteString(recStyle.Render(fmt.Sprintf("● REC %s / %s",
			clock(m.elapsed), clock(m.limit))))
		b.WriteString("  " + meterStyle.Render(levelMeter(m.audioLevel)) + "\n")
		if m.silenceWarn {
			b.WriteString(warnStyle.Render("⚠ no voice detected") + "\n")
		}
	case tuiStateAnalyzing:
		spinner := spinnerFrames[m.frame%len(spinnerFrames)]
		b.WriteString(analyzeStyle.Render(spinner+" analyzing...") + "\n")
	default:
		b.WriteString(idleStyle.Render("○ READY") + "\n")
	}

	if m.speaking {
		b.WriteString(speakingStyle.Render("🔊 playing script") + "\n")
	}
	if m.status != "" {
		style := warnStyle
		if m.statusErr {
			style = errStyle
		}
		b.WriteString(style.Render(m.status) + "\n")
	}

	if m.report != nil {
		b.WriteString("\n")
		b.WriteString(renderReport(m.report, m.similarity, m.script, m.savedPath, m.take, wrapWidth))
	}

	b.WriteString("\n")
	help := "space record/stop · esc cancel"
	if m.speakerOK {
		help += " · s hear script"
	}
	help += " · q quit"
	b.WriteString(dimStyle.Render(help) + "\n")

	return b.String()
}

func clock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// levelMeter maps RMS (roughly 0..0.3 for speech) onto a 20-cell bar.
func levelMeter(level float64) string {
	const cells = 20
	filled := int(level / 0.3 * cells)
	if filled > cells {
		filled = cells
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", cells-filled)
}

// wrapText wraps on spaces at a width measured in runes, so multibyte
// scripts never get split mid-character.
func wrapText(text string, width int) []string {
	if width <= 0 {
		width = 1
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return []string{""}
	}

	var lines []string
	for len(runes) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if runes[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, string(runes[:splitAt]))
		runes = runes[splitAt:]
		for len(runes) > 0 && runes[0] == ' ' {
			runes = runes[1:]
		}
	}
	if len(runes) > 0 {
		lines = append(lines, string(runes))
	}
	return lines
}
