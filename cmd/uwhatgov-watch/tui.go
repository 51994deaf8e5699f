package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"uwhatgov/internal/client"
	"uwhatgov/internal/core/record"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// messages sent from the session goroutines into the program
type (
	composingMsg struct{ speaker string }
	showMsg      struct{ rec record.Record }
	stateMsg     struct{ ev client.Event }
	failedMsg    struct{ err error }
	doneMsg      struct{}
	sessionEnd   struct{ err error }
)

// teaUI forwards pacer and consumer callbacks to the program
type teaUI struct{ send func(tea.Msg) }

func (u teaUI) Composing(speaker string) { u.send(composingMsg{speaker}) }
func (u teaUI) Show(r record.Record)     { u.send(showMsg{r}) }
func (u teaUI) Failed(err error)         { u.send(failedMsg{err}) }
func (u teaUI) Done()                    { u.send(doneMsg{}) }
func (u teaUI) Notify(ev client.Event) {
	if ev.Type == client.EventState {
		u.send(stateMsg{ev})
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1).
			Foreground(lipgloss.Color("#1a1b26")).Background(lipgloss.Color("#7aa2f7"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
)

type model struct {
	debateID string
	width    int
	height   int

	view    viewport.Model
	spinner spinner.Model
	lines   []string

	composing string
	status    string
	finished  bool
	err       error
}

func newModel(debateID string) model {
	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ece6a"))
	return model{
		debateID: debateID,
		view:     viewport.New(0, 0),
		spinner:  sp,
		status:   "connecting",
	}
}

func (m model) Init() tea.Cmd { return m.spinner.Tick }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.view.Width = msg.Width
		m.view.Height = max(msg.Height-2, 1)
		m.refresh()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		cmds = append(cmds, cmd)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case composingMsg:
		m.composing = msg.speaker
	case showMsg:
		m.composing = ""
		m.lines = append(m.lines, renderRecord(msg.rec, m.width))
		m.refresh()
	case stateMsg:
		m.status = msg.ev.State.String()
		if msg.ev.State == client.StateReconnecting {
			m.status = fmt.Sprintf("reconnecting, attempt %d in %s", msg.ev.Attempt, msg.ev.Delay)
		}
	case failedMsg:
		m.composing = ""
		m.err = msg.err
		m.lines = append(m.lines, failStyle.Render("rewrite failed: "+msg.err.Error()))
		m.refresh()
	case doneMsg:
		m.composing = ""
		m.finished = true
		m.lines = append(m.lines, noticeStyle.Render("-- end of debate --"))
		m.refresh()
	case sessionEnd:
		m.finished = true
		if msg.err != nil && m.err == nil {
			m.err = msg.err
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *model) refresh() {
	m.view.SetContent(strings.Join(m.lines, "\n\n"))
	m.view.GotoBottom()
}

func renderRecord(r record.Record, width int) string {
	body := r.Text
	if width > 4 {
		body = lipgloss.NewStyle().Width(width - 2).Render(body)
	}
	if r.IsNarrator() {
		return narratorStyle.Render(body)
	}
	return speakerStyle.Render(r.Speaker) + "\n" + body
}

func (m model) footer() string {
	switch {
	case m.err != nil:
		return failStyle.Render("failed") + footerStyle.Render("  q to quit")
	case m.finished:
		return footerStyle.Render("finished  q to quit")
	case m.composing != "":
		return m.spinner.View() + " " + m.composing + " is speaking" + footerStyle.Render("  "+m.status)
	default:
		return m.spinner.View() + footerStyle.Render(" "+m.status)
	}
}

func (m model) View() string {
	return headerStyle.Render("uwhatgov  "+m.debateID) + "\n" + m.view.View() + "\n" + m.footer()
}

// runTUI runs the session and the program until the user quits
// quitting cancels the session, which discards anything not yet shown
func runTUI(ctx context.Context, o client.SessionOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newModel(o.Consumer.DebateID), tea.WithAltScreen(), tea.WithContext(ctx))
	sess := client.NewSession(o, teaUI{send: p.Send})

	errc := make(chan error, 1)
	go func() {
		err := sess.Run(ctx)
		p.Send(sessionEnd{err: err})
		errc <- err
	}()

	_, runErr := p.Run()
	cancel()
	err := <-errc
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return runErr
	}
	return err
}
