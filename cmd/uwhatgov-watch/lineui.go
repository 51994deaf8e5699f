package main

import (
	"fmt"
	"io"
	"sync"

	"uwhatgov/internal/client"
	"uwhatgov/internal/core/record"

	"github.com/charmbracelet/lipgloss"
)

var (
	speakerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7"))
	narratorStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#9aa5ce"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0af68"))
	failStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f7768e"))
)

// lineUI prints one line per contribution
// pacer callbacks and Notify come from different goroutines
type lineUI struct {
	mu  sync.Mutex
	out io.Writer
}

func newLineUI(w io.Writer) *lineUI { return &lineUI{out: w} }

func (u *lineUI) printf(format string, a ...any) {
	u.mu.Lock()
	defer u.mu.Unlock()
	_, _ = fmt.Fprintf(u.out, format, a...)
}

// Composing is silent in line mode, the pause is enough
func (u *lineUI) Composing(string) {}

func (u *lineUI) Show(r record.Record) {
	if r.IsNarrator() {
		u.printf("%s\n", narratorStyle.Render(r.Text))
		return
	}
	u.printf("%s %s\n", speakerStyle.Render(r.Speaker+":"), r.Text)
}

func (u *lineUI) Failed(err error) {
	u.printf("%s\n", failStyle.Render("rewrite failed: "+err.Error()))
}

func (u *lineUI) Done() {
	u.printf("%s\n", noticeStyle.Render("-- end of debate --"))
}

func (u *lineUI) Notify(ev client.Event) {
	if ev.Type != client.EventState {
		return
	}
	switch ev.State {
	case client.StateReconnecting:
		u.printf("%s\n", noticeStyle.Render(fmt.Sprintf("connection lost (%v), retry %d in %s", ev.Err, ev.Attempt, ev.Delay)))
	case client.StateOpen:
		u.printf("%s\n", noticeStyle.Render("connected"))
	}
}
