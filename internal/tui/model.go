// Package tui is the terminal front end for a bridge table.
package tui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/bridgetable/internal/bridge"
	"github.com/lox/bridgetable/internal/client"
	"github.com/lox/bridgetable/internal/play"
	"github.com/lox/bridgetable/internal/protocol"
	"github.com/lox/bridgetable/internal/table"
)

const sidebarWidth = 34

type serverMsg struct{ msg *protocol.Message }

type disconnectedMsg struct{}

type trickExpiredMsg struct{}

// Options configures a Model.
type Options struct {
	Actions      client.Actions
	Messages     <-chan *protocol.Message
	Clock        quartz.Clock
	TrickDisplay time.Duration
	Theme        string
	Logger       *log.Logger
}

// Model is the bubbletea model for one player's view of the table.
type Model struct {
	actions  client.Actions
	messages <-chan *protocol.Message
	logger   *log.Logger
	styles   Styles

	state   client.State
	hold    *TrickHold
	expired chan struct{}
	// pauseLogged is the seat whose absence was last logged, -1 if none.
	pauseLogged bridge.Seat

	logViewport viewport.Model
	input       textinput.Model
	gameLog     []string
	focusedPane int // 0 = log, 1 = input

	width    int
	height   int
	quitting bool
}

// New creates the model.
func New(opts Options) *Model {
	if opts.Clock == nil {
		opts.Clock = quartz.NewReal()
	}

	ti := textinput.New()
	ti.Placeholder = "sit N, ready, bid 1NT, play AS, ack, help"
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 60
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.Prompt = "> "

	m := &Model{
		actions:     opts.Actions,
		messages:    opts.Messages,
		logger:      opts.Logger.WithPrefix("tui"),
		styles:      Theme(opts.Theme),
		state:       client.NewState(),
		expired:     make(chan struct{}, 1),
		logViewport: viewport.New(10, 5),
		input:       ti,
		focusedPane: 1,
		pauseLogged: -1,
	}
	m.hold = NewTrickHold(opts.Clock, opts.TrickDisplay, func() {
		select {
		case m.expired <- struct{}{}:
		default:
		}
	})
	return m
}

// State returns the table as currently known.
func (m *Model) State() client.State { return m.state }

// Log returns the lines written to the game log.
func (m *Model) Log() []string { return m.gameLog }

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForServer(), m.waitForExpiry())
}

func (m *Model) waitForServer() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.messages
		if !ok {
			return disconnectedMsg{}
		}
		return serverMsg{msg: msg}
	}
}

func (m *Model) waitForExpiry() tea.Cmd {
	return func() tea.Msg {
		<-m.expired
		return trickExpiredMsg{}
	}
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case serverMsg:
		m.handleServer(msg.msg)
		cmds = append(cmds, m.waitForServer())

	case disconnectedMsg:
		m.addLog(m.styles.Error.Render("Disconnected from server"))
		m.quitting = true
		return m, tea.Quit

	case trickExpiredMsg:
		cmds = append(cmds, m.waitForExpiry())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "tab":
			if m.focusedPane == 0 {
				m.focusedPane = 1
				m.input.Focus()
			} else {
				m.focusedPane = 0
				m.input.Blur()
			}
		case "enter":
			if m.focusedPane == 1 {
				line := strings.TrimSpace(m.input.Value())
				m.input.SetValue("")
				if m.runCommand(line) {
					m.quitting = true
					return m, tea.Quit
				}
			}
		case "pgup":
			m.logViewport.HalfPageUp()
		case "pgdown":
			m.logViewport.HalfPageDown()
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == 1 {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// runCommand executes one input line and reports whether to quit.
func (m *Model) runCommand(line string) bool {
	if line == "" {
		return false
	}
	cmd, err := client.ParseCommand(line)
	if err != nil {
		m.addLog(m.styles.Error.Render(err.Error()))
		return false
	}
	switch cmd.Kind {
	case client.CmdQuit:
		return true
	case client.CmdHelp:
		for _, l := range strings.Split(client.Usage, "\n") {
			m.addLog(m.styles.Info.Render(l))
		}
		return false
	}
	if err := cmd.Execute(m.actions); err != nil {
		m.logger.Warn("Command failed", "command", line, "error", err)
		m.addLog(m.styles.Error.Render(err.Error()))
	}
	return false
}

func (m *Model) handleServer(msg *protocol.Message) {
	prev := m.state
	next, err := prev.Apply(msg)
	if err != nil {
		m.logger.Warn("Ignoring message", "type", msg.Type, "error", err)
		return
	}
	m.state = next

	if line, ok := m.describe(prev, msg); ok {
		m.addLog(line)
	}

	if msg.Type == protocol.TypePlayUpdate && next.LastTrick != nil && next.TrickCount != prev.TrickCount {
		m.hold.Show(*next.LastTrick)
	}
	if next.Phase == table.Lobby || next.Phase == table.Bidding {
		m.hold.Clear()
	}
}

// describe turns announcements into game log lines.
func (m *Model) describe(prev client.State, msg *protocol.Message) (string, bool) {
	st := m.state
	switch msg.Type {
	case protocol.TypeRoleAssigned:
		return m.styles.Success.Render(fmt.Sprintf("You are sitting %s", st.Seat.Name())), true
	case protocol.TypeActionFailed:
		if st.LastError == nil {
			return "", false
		}
		text := string(st.LastError.Reason)
		if st.LastError.Message != "" {
			text += ": " + st.LastError.Message
		}
		return m.styles.Error.Render(text), true
	case protocol.TypeBiddingPhase:
		return m.styles.Header.Render(fmt.Sprintf("Board %d: bidding", st.Board)), true
	case protocol.TypePlayPhase:
		if st.Contract != nil {
			return m.styles.Header.Render(fmt.Sprintf("Board %d: %s", st.Board, st.Contract)), true
		}
		return m.styles.Header.Render(fmt.Sprintf("Board %d: play", st.Board)), true
	case protocol.TypeScorePhase:
		return m.styles.Header.Render(fmt.Sprintf("Board %d: scoring, type ack to continue", st.Board)), true
	case protocol.TypeLobbyPhase:
		return m.styles.Info.Render("Back in the lobby, type ready for the next board"), true
	case protocol.TypeGamePaused:
		// Every refresh repeats gamePaused; log each absence once.
		if st.PausedBy == m.pauseLogged {
			return "", false
		}
		m.pauseLogged = st.PausedBy
		return m.styles.Warning.Render(fmt.Sprintf("Waiting for %s to reconnect", st.PausedBy.Name())), true
	case protocol.TypeGameResumed:
		m.pauseLogged = -1
		var p protocol.GameResumed
		if err := msg.Bind(&p); err == nil {
			return m.styles.Success.Render(fmt.Sprintf("%s is back", p.Seat.Name())), true
		}
	case protocol.TypeAuctionUpdate:
		if len(st.Auction) > len(prev.Auction) {
			call := st.Auction[len(st.Auction)-1]
			return fmt.Sprintf("%s: %s", call.Seat.Name(), m.styles.bid(call.Bid)), true
		}
	case protocol.TypePlayUpdate:
		if st.LastTrick != nil && st.TrickCount != prev.TrickCount {
			return fmt.Sprintf("Trick to %s (NS %d, EW %d)", st.LastTrick.Winner.Name(),
				st.TrickCount[bridge.NorthSouth], st.TrickCount[bridge.EastWest]), true
		}
	case protocol.TypeFinalScores:
		if st.Final != nil {
			return m.styles.Success.Render(fmt.Sprintf("Rubber over: NS %d, EW %d",
				st.Final.Total[bridge.NorthSouth], st.Final.Total[bridge.EastWest])), true
		}
	}
	return "", false
}

func (m *Model) addLog(line string) {
	m.gameLog = append(m.gameLog, line)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	m.logViewport.GotoBottom()
}

// displayedTrick is the completed trick while it is held, else the trick in
// progress.
func (m *Model) displayedTrick() []play.Play {
	if t, ok := m.hold.Current(); ok && len(m.state.CurrentTrick) == 0 {
		return t.Plays
	}
	return m.state.CurrentTrick
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionPane := m.renderActionPane()
	actionHeight := lipgloss.Height(actionPane)

	paneHeight := max(m.height-actionHeight-4, 1)
	logWidth := max(m.width-sidebarWidth-4, 1)

	sidebar := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.Border).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(m.renderSidebar())

	m.logViewport.Width = logWidth
	m.logViewport.Height = paneHeight
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.Border).
		Width(logWidth).
		Height(paneHeight)
	if m.focusedPane == 0 {
		logStyle = logStyle.BorderForeground(m.styles.Focus)
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top, logStyle.Render(m.logViewport.View()), sidebar)
	action := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.Focus).
		Width(max(m.width-2, 1)).
		Render(actionPane)
	return lipgloss.JoinVertical(lipgloss.Left, top, action)
}

func (m *Model) renderSidebar() string {
	st := m.state
	var b strings.Builder

	seat := "spectator"
	if st.Seated() {
		seat = st.Seat.Name()
	}
	b.WriteString(m.styles.Header.Render(fmt.Sprintf("Board %d  %s", st.Board, st.Phase)))
	b.WriteString("\n")
	b.WriteString(m.styles.Info.Render("You: " + seat))
	b.WriteString("\n\n")

	if st.Paused {
		b.WriteString(m.styles.Warning.Render(fmt.Sprintf("Paused: waiting for %s", st.PausedBy.Name())))
		b.WriteString("\n\n")
	}

	switch st.Phase {
	case table.Lobby:
		for _, s := range bridge.Seats {
			mark := "open"
			if st.Ready[s] {
				mark = "ready"
			} else if !slices.Contains(st.OpenSeats, s) {
				mark = "seated"
			}
			b.WriteString(fmt.Sprintf("%-6s %s\n", s.Name(), mark))
		}
		b.WriteString(m.styles.Info.Render(fmt.Sprintf("%d watching", st.Spectators)))

	case table.Bidding:
		b.WriteString(m.styles.renderAuction(st.Auction))

	case table.Playing:
		if st.Contract != nil {
			b.WriteString(m.styles.HandInfo.Render(st.Contract.String()))
			b.WriteString("\n")
		}
		b.WriteString(fmt.Sprintf("NS %d  EW %d\n\n", st.TrickCount[bridge.NorthSouth], st.TrickCount[bridge.EastWest]))
		b.WriteString(m.styles.renderTrick(m.displayedTrick()))
		if st.Contract != nil {
			dummy := st.Contract.Dummy()
			if hv, ok := st.Hands[dummy]; ok && hv.Visible {
				b.WriteString("\n\n")
				b.WriteString(m.styles.Seat.Render("Dummy (" + dummy.Name() + ")"))
				b.WriteString("\n")
				b.WriteString(m.styles.renderSeatHand(hv))
			}
		}

	case table.Scoring:
		if st.Scores != nil {
			b.WriteString(m.styles.renderTally(*st.Scores))
		}
	}
	return b.String()
}

func (m *Model) renderActionPane() string {
	st := m.state
	var b strings.Builder

	if len(st.Hand) > 0 {
		b.WriteString(m.styles.renderHand(st.Hand))
		b.WriteString("\n")
	}

	switch {
	case st.Paused:
		b.WriteString(m.styles.Warning.Render("Table paused"))
	case st.CanBid():
		codes := make([]string, 0, len(st.LegalBids))
		for _, bid := range st.LegalBids {
			codes = append(codes, m.styles.bid(bid))
		}
		b.WriteString(m.styles.Actions.Render("Your call: ") + strings.Join(codes, " "))
	case st.CanPlay():
		cards := make([]string, 0, len(st.LegalCards))
		for _, c := range st.LegalCards {
			cards = append(cards, m.styles.card(c))
		}
		label := "Your card: "
		if st.PlayingSeat != nil && *st.PlayingSeat != st.Seat {
			label = "Dummy's card: "
		}
		b.WriteString(m.styles.Actions.Render(label) + strings.Join(cards, " "))
	default:
		b.WriteString(m.styles.HandInfo.Render("Waiting..."))
	}
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.styles.Info.Render("Tab to scroll log • help for commands • Ctrl+C to quit"))
	return b.String()
}
