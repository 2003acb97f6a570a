package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kioskhub/kiosk-gateway/internal/kiosk"
)

type Event struct {
	Kind    string
	Message string
}

// Activity shows the per-turn event log: which model answered, cache
// hits, and error outcomes.
type Activity struct {
	viewport viewport.Model
	events   []Event
}

func NewActivity() *Activity {
	vp := viewport.New(0, 0)
	vp.SetContent("Turn activity\n")
	return &Activity{
		viewport: vp,
		events:   []Event{},
	}
}

func (a *Activity) Init() tea.Cmd {
	return nil
}

func (a *Activity) Update(msg tea.Msg) (*Activity, tea.Cmd) {
	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

func (a *Activity) View(width, height int) string {
	a.viewport.Width = width - 2
	a.viewport.Height = height - 2
	return ActivityPanelStyle.Width(width).Height(height).Render(a.viewport.View())
}

// AddTurn records the outcome of one kiosk turn
func (a *Activity) AddTurn(reply kiosk.Reply) {
	switch {
	case reply.Error != "":
		a.addEvent("error", reply.Error)
	case reply.Cached:
		a.addEvent("cache", fmt.Sprintf("hit in %s", reply.ResponseTime.Round(time.Millisecond)))
	case reply.ModelUsed != "":
		a.addEvent("model", fmt.Sprintf("%s in %s", reply.ModelUsed, reply.ResponseTime.Round(time.Millisecond)))
	default:
		a.addEvent("info", "command")
	}
}

func (a *Activity) addEvent(kind, message string) {
	a.events = append(a.events, Event{Kind: kind, Message: message})
	a.updateContent()
	a.viewport.GotoBottom()
}

func (a *Activity) updateContent() {
	var sb strings.Builder
	for _, event := range a.events {
		color := Teal
		if event.Kind == "error" {
			color = ErrorRed
		}
		style := EventStyle.Foreground(color)
		sb.WriteString(style.Render(fmt.Sprintf("[%s] %s", event.Kind, event.Message)))
		sb.WriteString("\n")
	}
	a.viewport.SetContent(sb.String())
}
