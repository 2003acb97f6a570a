// Package tui is the terminal front end for operating a kiosk directly.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kioskhub/kiosk-gateway/internal/kiosk"
)

type Panel int

const (
	ChatPanel Panel = iota
	StatusPanel
	ActivityPanel
)

const statusRefreshInterval = 5 * time.Second

// replyMsg carries a finished kiosk turn back into the update loop
type replyMsg kiosk.Reply

// statusTickMsg triggers a status panel refresh
type statusTickMsg time.Time

type App struct {
	width, height int
	currentPanel  Panel
	chat          *Chat
	status        *Status
	activity      *Activity
	input         *Input
	keys          KeyMap
	orch          *kiosk.Orchestrator
	sessionID     string
	waiting       bool
	startTime     time.Time
}

func NewApp(orch *kiosk.Orchestrator) *App {
	return &App{
		currentPanel: ChatPanel,
		chat:         NewChat(),
		status:       NewStatus(),
		activity:     NewActivity(),
		input:        NewInput(),
		keys:         DefaultKeyMap,
		orch:         orch,
		startTime:    time.Now(),
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.input.Init(), statusTick())
}

func statusTick() tea.Cmd {
	return tea.Tick(statusRefreshInterval, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			a.orch.EndSession(a.sessionID)
			return a, tea.Quit
		case key.Matches(msg, a.keys.Tab):
			a.currentPanel = (a.currentPanel + 1) % 3
		case msg.String() == "enter":
			if cmd := a.submit(); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}

	case replyMsg:
		a.waiting = false
		a.sessionID = msg.SessionID
		a.chat.AddMessage("kiosk", msg.Text)
		a.activity.AddTurn(kiosk.Reply(msg))

	case statusTickMsg:
		a.status.Refresh(a.orch)
		cmds = append(cmds, statusTick())

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
	}

	var cmd tea.Cmd
	a.chat, cmd = a.chat.Update(msg)
	cmds = append(cmds, cmd)
	a.activity, cmd = a.activity.Update(msg)
	cmds = append(cmds, cmd)
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// submit sends the typed question through the orchestrator on its own
// goroutine so the UI keeps rendering while a model responds
func (a *App) submit() tea.Cmd {
	question := a.input.Value()
	if question == "" || a.waiting {
		return nil
	}

	a.chat.AddMessage("visitor", question)
	a.input.Reset()
	a.waiting = true

	orch := a.orch
	sessionID := a.sessionID
	return func() tea.Msg {
		reply, handled := orch.HandleCommand(sessionID, question)
		if !handled {
			reply = orch.ProcessQuery(context.Background(), sessionID, question)
		}
		return replyMsg(reply)
	}
}

func (a *App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Initializing..."
	}

	statusBar := a.statusBarView()
	inputBar := a.input.View()

	contentHeight := a.height - lipgloss.Height(statusBar) - lipgloss.Height(inputBar)

	leftWidth := int(float64(a.width) * 0.7)
	rightWidth := a.width - leftWidth

	chatView := a.chat.View(leftWidth, contentHeight)
	var rightView string
	switch a.currentPanel {
	case ActivityPanel:
		rightView = a.activity.View(rightWidth, contentHeight)
	default:
		rightView = a.status.View(rightWidth, contentHeight)
	}

	layout := lipgloss.JoinHorizontal(lipgloss.Top, chatView, rightView)

	return lipgloss.JoinVertical(lipgloss.Left, statusBar, layout, inputBar)
}

func (a *App) statusBarView() string {
	uptime := time.Since(a.startTime).Round(time.Second)
	state := "ready"
	if a.waiting {
		state = "thinking..."
	}
	return StatusBarStyle.Width(a.width).Render(
		fmt.Sprintf("Kiosk-Gateway v1.0.0 | Uptime: %s | %s", uptime, state))
}
