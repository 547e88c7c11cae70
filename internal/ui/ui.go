// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/orbitlapse/internal/geocode"
	"github.com/litescript/orbitlapse/internal/orbit"
	"github.com/litescript/orbitlapse/internal/sequencer"
	"github.com/litescript/orbitlapse/internal/state"
	"github.com/litescript/orbitlapse/internal/version"
)

const (
	defaultFrameInterval = time.Second / 30
	stateRefresh         = 250 * time.Millisecond

	// Rows used by everything except the globe.
	headerLines = 3
	eventLines  = 4
	footerLines = 2
)

// Msg types for Bubble Tea
type (
	// TickMsg triggers a refresh of sequencer state.
	TickMsg time.Time

	// FrameMsg advances the world by one frame.
	FrameMsg time.Time

	// SequenceDoneMsg signals the sequencer has returned.
	SequenceDoneMsg struct {
		Result sequencer.Result
		Err    error
	}
)

// CacheStats reports geocode cache activity for the HUD.
type CacheStats interface {
	Stats() geocode.Stats
	Len() int
}

// Option configures a Model.
type Option func(*Model)

// WithFrameInterval sets the time between world frames.
func WithFrameInterval(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.frameInterval = d
		}
	}
}

// WithCacheStats shows geocode cache counters in the HUD.
func WithCacheStats(c CacheStats) Option {
	return func(m *Model) {
		m.cache = c
	}
}

// WithFrameObserver is called after every world tick with entity counts.
func WithFrameObserver(fn func(launching, orbiting int)) Option {
	return func(m *Model) {
		m.onFrame = fn
	}
}

// Model is the root Bubble Tea model. The world is only touched from
// Update and View, both of which run on the Bubble Tea event loop.
type Model struct {
	// Dependencies
	state *state.Manager
	world *orbit.World
	cache CacheStats

	onFrame       func(launching, orbiting int)
	frameInterval time.Duration

	// UI state
	width     int
	height    int
	ready     bool
	paused    bool
	statusMsg string
	animTick  int

	globe GlobeModel

	// Sequencer snapshot (updated on TickMsg)
	snapshot state.Snapshot
	done     *SequenceDoneMsg
}

// New creates a new root UI model.
func New(stateMgr *state.Manager, world *orbit.World, opts ...Option) Model {
	m := Model{
		state:         stateMgr,
		world:         world,
		frameInterval: defaultFrameInterval,
		globe:         NewGlobeModel(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		frameCmd(m.frameInterval),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case " ":
			m.paused = !m.paused
			if m.paused {
				m.statusMsg = "Paused"
			} else {
				m.statusMsg = ""
			}

		default:
			var cmd tea.Cmd
			m.globe, cmd = m.globe.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.globe = m.globe.SetSize(msg.Width, m.globeHeight())

	case TickMsg:
		cmds = append(cmds, tickCmd())
		m.snapshot = m.state.Snapshot()

	case FrameMsg:
		cmds = append(cmds, frameCmd(m.frameInterval))
		m.animTick++
		if !m.paused {
			m.world.Tick()
			if m.onFrame != nil {
				launching, orbiting := m.world.Counts()
				m.onFrame(launching, orbiting)
			}
		}

	case SequenceDoneMsg:
		m.done = &msg
		m.snapshot = m.state.Snapshot()
		if msg.Err != nil {
			m.statusMsg = "Sequencer stopped: " + msg.Err.Error()
		}
	}

	return m, tea.Batch(cmds...)
}

func (m Model) globeHeight() int {
	h := m.height - headerLines - eventLines - footerLines - 2
	if h < 0 {
		return 0
	}
	return h
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.globe.View(m.world.Snapshot()))
	b.WriteString("\n")
	b.WriteString(m.renderEvents())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(renderGradient("ORBITLAPSE"))
	b.WriteString(muted.Render(fmt.Sprintf("  launch history time-lapse · v%s", version.Version)))
	b.WriteString("\n")
	b.WriteString(m.renderHUD())
	b.WriteString("\n")
	return b.String()
}

// renderHUD shows the replay date, sequencer counts, entity counts and
// cache counters.
func (m Model) renderHUD() string {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	dateStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)

	date := "----------"
	if !m.snapshot.CurrentDate.IsZero() {
		date = m.snapshot.CurrentDate.Format("2006-01-02")
	}

	res := m.snapshot.Result
	launching, orbiting := m.world.Counts()

	parts := []string{
		dateStyle.Render(date),
		label.Render("launched ") + value.Render(fmt.Sprint(res.Launched)),
		label.Render("skipped ") + value.Render(fmt.Sprint(res.Skipped)),
		label.Render("failed ") + value.Render(fmt.Sprint(res.Failed)),
		label.Render("launching ") + value.Render(fmt.Sprint(launching)),
		label.Render("orbiting ") + value.Render(fmt.Sprint(orbiting)),
	}
	if m.cache != nil {
		st := m.cache.Stats()
		parts = append(parts, label.Render("sites ")+value.Render(fmt.Sprint(m.cache.Len()))+
			label.Render(fmt.Sprintf(" (%d hits, %d lookups)", st.Hits, st.Misses)))
	}

	return "  " + strings.Join(parts, label.Render("  │  "))
}

func (m Model) renderEvents() string {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	title := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)

	lines := []string{"  " + title.Render("Recent launches")}
	events := m.snapshot.Events
	if n := eventLines - 1; len(events) > n {
		events = events[len(events)-n:]
	}
	for _, e := range events {
		lines = append(lines, "  "+renderEventLine(e))
	}
	for len(lines) < eventLines {
		lines = append(lines, dim.Render("  ·"))
	}
	return strings.Join(lines, "\n")
}

func renderEventLine(e state.Event) string {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	var typeStyle lipgloss.Style
	switch e.Type {
	case sequencer.EventLaunched:
		typeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	case sequencer.EventFailed:
		typeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	default:
		typeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	}

	date := "----------"
	if !e.Date.IsZero() {
		date = e.Date.Format("2006-01-02")
	}

	line := dim.Render(date) + " " + typeStyle.Render(fmt.Sprintf("%-8s", e.Type)) + " " +
		truncate(e.Name, 32) + dim.Render(" · "+truncate(e.Site, 40))
	if e.Detail != "" {
		line += dim.Render(" (" + truncate(e.Detail, 40) + ")")
	}
	return line
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	// Animated spinner frames
	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[(m.animTick/3)%len(spinnerFrames)]

	var status string
	switch {
	case m.paused:
		status = accentStyle.Render("❚❚") + dimStyle.Render(" paused")
	case m.done != nil || m.snapshot.Done:
		status = accentStyle.Render("✓") + dimStyle.Render(fmt.Sprintf(" sequence complete in %s", m.snapshot.Elapsed().Round(time.Second)))
	case m.snapshot.Total > 0:
		status = accentStyle.Render(spinner) + dimStyle.Render(fmt.Sprintf(" record %d/%d (%.1f%%)",
			m.snapshot.Processed, m.snapshot.Total, m.snapshot.Progress()*100))
	default:
		status = accentStyle.Render(spinner) + " " + m.renderShimmerText("Resolving launch sites...")
	}

	help := dimStyle.Render("arrows: rotate | +/-: zoom | r: reset | l: labels | g: grid | space: pause | q: quit")
	footer := "  " + status + "  " + dimStyle.Render("|") + "  " + help

	if m.statusMsg != "" && !m.paused {
		footer += "\n  " + dimStyle.Render(m.statusMsg)
	}
	return footer
}

func tickCmd() tea.Cmd {
	return tea.Tick(stateRefresh, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func frameCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return FrameMsg(t)
	})
}

// renderShimmerText renders text with a subtle moving shine effect.
func (m Model) renderShimmerText(text string) string {
	runes := []rune(text)
	textLen := len(runes)
	if textLen == 0 {
		return ""
	}

	// Shimmer sweeps smoothly across
	pos := (m.animTick / 2) % (textLen + 8) // A bit of padding for smooth entry/exit

	var result strings.Builder

	for i, r := range runes {
		// Distance from shimmer center
		dist := i - pos + 4
		if dist < 0 {
			dist = -dist
		}

		var r8, g8, b8 int
		if dist <= 1 {
			r8, g8, b8 = 180, 160, 220
		} else if dist <= 3 {
			r8, g8, b8 = 140, 120, 180
		} else if dist <= 5 {
			r8, g8, b8 = 110, 90, 150
		} else {
			r8, g8, b8 = 80, 70, 120
		}

		hexColor := fmt.Sprintf("#%02X%02X%02X", r8, g8, b8)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor))
		result.WriteString(style.Render(string(r)))
	}

	return result.String()
}

// renderGradient renders text with a blue to pink horizontal gradient.
func renderGradient(text string) string {
	runes := []rune(text)
	var b strings.Builder
	for i, r := range runes {
		color := gradientColor(i, len(runes))
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
		b.WriteString(style.Render(string(r)))
	}
	return b.String()
}

// gradientColor returns a hex color for a position in the title gradient:
// blue -> purple -> magenta -> pink.
func gradientColor(col, width int) string {
	if width <= 0 {
		width = 1
	}
	xRatio := float64(col) / float64(width)

	var r, g, b float64
	if xRatio < 0.33 {
		// Blue to Purple
		t := xRatio / 0.33
		r = 59 + t*(139-59)
		g = 130 + t*(92-130)
		b = 246
	} else if xRatio < 0.66 {
		// Purple to Magenta
		t := (xRatio - 0.33) / 0.33
		r = 139 + t*(217-139)
		g = 92 + t*(70-92)
		b = 246 + t*(239-246)
	} else {
		// Magenta to Pink
		t := (xRatio - 0.66) / 0.34
		r = 217 + t*(236-217)
		g = 70 + t*(72-70)
		b = 239 + t*(153-239)
	}

	return fmt.Sprintf("#%02X%02X%02X", clampByte(r), clampByte(g), clampByte(b))
}

func clampByte(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return int(v)
	}
}
