package handoff

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	handoffdto "fieldcap/internal/modules/handoff/dto"
	apperrors "fieldcap/internal/platform/errors"
	"fieldcap/internal/ui/theme"
)

type HandoffPort interface {
	Peek(ctx context.Context) (handoffdto.PayloadOutput, error)
	Consume(ctx context.Context) (handoffdto.PayloadOutput, error)
}

// LoadedMsg carries a peeked payload, or a consumed one when Consumed is set.
type LoadedMsg struct {
	Payload  handoffdto.PayloadOutput
	Consumed bool
	Err      error
}

type Model struct {
	port     HandoffPort
	payload  handoffdto.PayloadOutput
	pending  bool
	consumed bool
	errText  string
	width    int
	height   int
}

func New(port HandoffPort) Model {
	return Model{port: port}
}

func (m Model) Init() tea.Cmd { return m.Refresh() }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case LoadedMsg:
		m.errText = ""
		switch {
		case errors.Is(msg.Err, apperrors.ErrNoHandoff):
			m.pending = false
			m.payload = handoffdto.PayloadOutput{}
		case msg.Err != nil:
			m.errText = msg.Err.Error()
		default:
			m.payload = msg.Payload
			m.pending = !msg.Consumed
			m.consumed = msg.Consumed
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return m, m.Refresh()
		case "c":
			return m, m.Consume()
		}
	}
	return m, nil
}

func (m Model) View() string {
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Form hand-off") + "\n\n")
	switch {
	case m.errText != "":
		sb.WriteString(theme.Warn.Render(m.errText) + "\n")
	case m.payload.PrimaryGeoImageID == "":
		sb.WriteString(theme.Muted.Render("No capture is waiting for the form.") + "\n")
	default:
		if m.consumed {
			sb.WriteString(theme.Hot.Render("consumed") + "\n\n")
		} else {
			sb.WriteString(theme.Hot.Render("pending") + "\n\n")
		}
		row := func(label, value string) {
			sb.WriteString(theme.Muted.Render(label) + value + "\n")
		}
		row("primary:   ", m.payload.PrimaryGeoImageID)
		row("images:    ", m.payload.ImageIDs+" ("+m.payload.TotalImages+")")
		row("latitude:  ", m.payload.Latitude)
		row("longitude: ", m.payload.Longitude)
		row("location:  ", m.payload.Location)
		row("timestamp: ", m.payload.Timestamp)
	}
	sb.WriteString("\n" + theme.Muted.Render("r: refresh  c: consume"))
	return theme.Pane.Padding(1).Width(max(m.width-2, 20)).Height(max(m.height-2, 1)).
		Render(sb.String())
}

func (m Model) Pending() bool { return m.pending }

func (m Model) Refresh() tea.Cmd {
	return func() tea.Msg {
		payload, err := m.port.Peek(context.Background())
		return LoadedMsg{Payload: payload, Err: err}
	}
}

func (m Model) Consume() tea.Cmd {
	return func() tea.Msg {
		payload, err := m.port.Consume(context.Background())
		return LoadedMsg{Payload: payload, Consumed: err == nil, Err: err}
	}
}
