// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Thermoquad/linkshell/pkg/command"
	"github.com/Thermoquad/linkshell/pkg/console"
	"github.com/Thermoquad/linkshell/pkg/uart"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

// Event log entry kinds
type entryKind int

const (
	entryCommand entryKind = iota
	entryReply
	entryInbound
	entryFault
	entryInfo
)

// Event log entry
type logEntry struct {
	timestamp time.Time
	message   string
	kind      entryKind
}

// TUI model
type consoleModel struct {
	dispatcher *console.Dispatcher
	replies    *bytes.Buffer
	stats      *uart.Statistics
	connInfo   string
	started    time.Time

	input         textinput.Model
	eventLog      []logEntry
	maxLogEntries int
	linkLost      bool
	width         int
	height        int
	quitting      bool
}

// Messages
type consoleTickMsg time.Time
type inboundMsg struct {
	text string
}
type faultMsg struct {
	fault uart.Fault
}
type linkLostMsg struct {
	err error
}
type reconnectedMsg struct {
	connInfo string
}

// programSink forwards reporter output into the bubbletea program
type programSink struct {
	send func(tea.Msg)
}

func (s programSink) Message(msg []byte) {
	s.send(inboundMsg{text: string(msg)})
}

func (s programSink) Fault(f uart.Fault) {
	s.send(faultMsg{fault: f})
}

//////////////////////////////////////////////////////////////
// Model Initialization
//////////////////////////////////////////////////////////////

func initialConsoleModel(link io.Writer, stats *uart.Statistics, connInfo string, log zerolog.Logger) consoleModel {
	ti := textinput.New()
	ti.Placeholder = "send <field>..."
	ti.Prompt = "> "
	ti.CharLimit = command.MaxChars
	ti.Width = command.MaxChars
	ti.Focus()

	replies := &bytes.Buffer{}

	m := consoleModel{
		dispatcher:    console.NewDispatcher(replies, link, stats, log),
		replies:       replies,
		stats:         stats,
		connInfo:      connInfo,
		started:       time.Now(),
		input:         ti,
		eventLog:      make([]logEntry, 0),
		maxLogEntries: 200,
		width:         80,
		height:        24,
	}
	m.addLogEntry(strings.TrimSpace(console.ReplyReady), entryInfo)
	return m
}

//////////////////////////////////////////////////////////////
// Bubble Tea Interface
//////////////////////////////////////////////////////////////

func (m consoleModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, consoleTickCmd())
}

func consoleTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return consoleTickMsg(t)
	})
}

func (m consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case consoleTickMsg:
		m.stats.CalculateRates()
		return m, consoleTickCmd()

	case inboundMsg:
		m.addLogEntry("< "+msg.text, entryInbound)
		return m, nil

	case faultMsg:
		m.addLogEntry("[LINK ERROR] "+msg.fault.Error(), entryFault)
		return m, nil

	case linkLostMsg:
		m.linkLost = true
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("Secondary link lost: %v", msg.err), entryFault)
		} else {
			m.addLogEntry("Secondary link lost", entryFault)
		}
		m.addLogEntry("Reconnecting...", entryInfo)
		return m, nil

	case reconnectedMsg:
		m.linkLost = false
		m.connInfo = msg.connInfo
		m.addLogEntry("Reconnected: "+msg.connInfo, entryInfo)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m consoleModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit

	case tea.KeyEsc:
		m.input.Reset()
		return m, nil

	case tea.KeyEnter:
		m.execute(m.input.Value())
		m.input.Reset()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// execute runs one command line and logs it with its reply
func (m *consoleModel) execute(text string) {
	m.addLogEntry("> "+text, entryCommand)

	m.replies.Reset()
	m.dispatcher.ExecuteString(text)

	for _, reply := range strings.Split(strings.TrimRight(m.replies.String(), "\n"), "\n") {
		if reply != "" {
			m.addLogEntry(reply, entryReply)
		}
	}
}

func (m *consoleModel) addLogEntry(message string, kind entryKind) {
	entry := logEntry{
		timestamp: time.Now(),
		message:   message,
		kind:      kind,
	}
	m.eventLog = append(m.eventLog, entry)

	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

//////////////////////////////////////////////////////////////
// View
//////////////////////////////////////////////////////////////

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11"))

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("14"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func (m consoleModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("LINKSHELL CONSOLE"))
	s.WriteString(" ")
	connStatus := m.connInfo
	if m.linkLost {
		connStatus = warningStyle.Render("RECONNECTING...")
	}
	s.WriteString(headerStyle.Render(fmt.Sprintf("| %s | Enter=run Esc=clear Ctrl+C=quit", connStatus)))
	s.WriteString("\n")
	s.WriteString(fmt.Sprintf(" %s %s\n\n",
		statsLabelStyle.Render("Uptime:"),
		statsValueStyle.Render(formatUptime(uint64(time.Since(m.started).Milliseconds())))))

	s.WriteString(m.renderStatisticsBar())
	s.WriteString("\n")
	s.WriteString(m.renderEventLog())
	s.WriteString("\n")
	s.WriteString(boxStyle.Width(m.width - 4).Render(m.input.View()))
	s.WriteString("\n")

	return s.String()
}

func (m consoleModel) renderStatisticsBar() string {
	snap := m.stats.Snapshot()

	faults := statsValueStyle.Render(fmt.Sprintf("%d", snap.Faults))
	if snap.Faults > 0 {
		faults = errorStyle.Render(fmt.Sprintf("%d (P:%d F:%d O:%d)",
			snap.Faults, snap.ParityErrors, snap.FramingErrors, snap.OverrunErrors))
	}

	line := fmt.Sprintf("%s %s  %s %s  %s %s  %s %s  %s %.1f/s",
		statsLabelStyle.Render("Bytes:"), statsValueStyle.Render(fmt.Sprintf("%d", snap.DataBytes)),
		statsLabelStyle.Render("Messages:"), statsValueStyle.Render(fmt.Sprintf("%d", snap.Messages)),
		statsLabelStyle.Render("Faults:"), faults,
		statsLabelStyle.Render("Sent:"), statsValueStyle.Render(fmt.Sprintf("%d", snap.LinesSent)),
		statsLabelStyle.Render("Rate:"), snap.EventRate)

	if snap.Dropped > 0 {
		line += fmt.Sprintf("  %s %s", statsLabelStyle.Render("Dropped:"), warningStyle.Render(fmt.Sprintf("%d", snap.Dropped)))
	}

	return boxStyle.Width(m.width - 4).Render(line)
}

func (m consoleModel) renderEventLog() string {
	var s strings.Builder
	s.WriteString(statsLabelStyle.Render("EVENTS"))
	s.WriteString("\n")

	// Title, uptime, stats box, input box and borders take about 12 rows
	logHeight := m.height - 12
	if logHeight < 4 {
		logHeight = 4
	}
	startIdx := len(m.eventLog) - logHeight
	if startIdx < 0 {
		startIdx = 0
	}

	if len(m.eventLog) == 0 {
		s.WriteString(headerStyle.Render("  (no events yet)"))
	} else {
		for i := startIdx; i < len(m.eventLog); i++ {
			entry := m.eventLog[i]
			timestamp := entry.timestamp.Format("15:04:05.000")
			s.WriteString(fmt.Sprintf("%s %s\n",
				headerStyle.Render(timestamp),
				entryStyle(entry.kind).Render(entry.message)))
		}
	}

	return boxStyle.Width(m.width - 4).Render(s.String())
}

func entryStyle(kind entryKind) lipgloss.Style {
	switch kind {
	case entryCommand:
		return commandStyle
	case entryReply:
		return statsValueStyle
	case entryFault:
		return errorStyle
	case entryInfo:
		return warningStyle
	default:
		return lipgloss.NewStyle()
	}
}

// formatUptime formats a duration in milliseconds as readable text
func formatUptime(ms uint64) string {
	seconds := ms / 1000
	minutes := seconds / 60
	hours := minutes / 60
	days := hours / 24

	seconds %= 60
	minutes %= 60
	hours %= 24

	parts := []string{}
	for _, unit := range []struct {
		value uint64
		name  string
	}{
		{days, "day"},
		{hours, "hour"},
		{minutes, "minute"},
	} {
		if unit.value == 1 {
			parts = append(parts, "1 "+unit.name)
		} else if unit.value > 1 {
			parts = append(parts, fmt.Sprintf("%d %ss", unit.value, unit.name))
		}
	}
	if seconds > 0 || len(parts) == 0 {
		if seconds == 1 {
			parts = append(parts, "1 second")
		} else {
			parts = append(parts, fmt.Sprintf("%d seconds", seconds))
		}
	}

	// Join with commas and "and" for last item
	if len(parts) == 1 {
		return parts[0]
	}
	if len(parts) == 2 {
		return parts[0] + " and " + parts[1]
	}
	last := parts[len(parts)-1]
	rest := strings.Join(parts[:len(parts)-1], ", ")
	return rest + ", and " + last
}
