package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	gallerydto "fieldcap/internal/modules/gallery/dto"
	"fieldcap/internal/ui/components"
	"fieldcap/internal/ui/theme"
	foldersview "fieldcap/internal/ui/views/folders"
	handoffview "fieldcap/internal/ui/views/handoff"
)

type galleryPort interface {
	foldersview.GalleryPort
	Stats(ctx context.Context) (gallerydto.StatsOutput, error)
}

type tabID int

const (
	tabFolders tabID = iota
	tabHandoff
	tabCount
)

var tabLabels = [tabCount]string{"Folders", "Hand-off"}

type statsLoadedMsg struct {
	stats gallerydto.StatsOutput
	err   error
}

type keyMap struct {
	Tab     key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
	Mark    key.Binding
	Delete  key.Binding
	Sort    key.Binding
	Consume key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Mark:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "mark folder")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Sort:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "cycle sort")),
		Consume: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "consume hand-off")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Mark, k.Delete, k.Sort},
		{k.Consume},
		{k.Help, k.Palette, k.Quit},
	}
}

// Model routes input between the folder browser and the hand-off view.
type Model struct {
	gallery galleryPort

	foldersView foldersview.Model
	handoffView handoffview.Model

	activeTab tabID
	keys      keyMap
	help      help.Model
	showHelp  bool
	palette   components.Palette
	stats     gallerydto.StatsOutput
	status    string
	width     int
	height    int
}

func NewModel(gallery galleryPort, handoff handoffview.HandoffPort) Model {
	return Model{
		gallery:     gallery,
		foldersView: foldersview.New(gallery),
		handoffView: handoffview.New(handoff),
		activeTab:   tabFolders,
		keys:        defaultKeys(),
		help:        help.New(),
		palette:     components.NewPalette(),
		status:      "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.foldersView.Init(), m.handoffView.Init(), m.loadStatsCmd())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
		m.foldersView, _ = m.foldersView.Update(sz)
		m.handoffView, _ = m.handoffView.Update(sz)
		return m, nil

	case statsLoadedMsg:
		if msg.err != nil {
			m.status = "stats: " + msg.err.Error()
		} else {
			m.stats = msg.stats
		}
		return m, nil

	case foldersview.DeletedMsg:
		var cmd tea.Cmd
		m.foldersView, cmd = m.foldersView.Update(msg)
		return m, tea.Batch(cmd, m.loadStatsCmd())

	case foldersview.FoldersLoadedMsg, foldersview.DetailLoadedMsg:
		var cmd tea.Cmd
		m.foldersView, cmd = m.foldersView.Update(msg)
		return m, cmd

	case handoffview.LoadedMsg:
		var cmd tea.Cmd
		m.handoffView, cmd = m.handoffView.Update(msg)
		return m, cmd

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		m.status = "ready"
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.activeTab == tabFolders && m.foldersView.Confirming() {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = true
			return m, nil
		case ":":
			return m, m.palette.Open()
		}
	}

	var cmd tea.Cmd
	switch m.activeTab {
	case tabFolders:
		m.foldersView, cmd = m.foldersView.Update(msg)
	case tabHandoff:
		m.handoffView, cmd = m.handoffView.Update(msg)
	}
	return m, cmd
}

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := max(m.height-lipgloss.Height(tabBar)-lipgloss.Height(statusBar), 1)

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabHandoff:
		content = m.handoffView.View()
	default:
		content = m.foldersView.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		label := tabLabels[i]
		if i == tabHandoff && m.handoffView.Pending() {
			label += " ●"
		}
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + label + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + label + " ")
		}
	}
	bar := "fieldcap  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := fmt.Sprintf("%d folders · %d photos (%d local)  %s",
		m.stats.Folders, m.stats.Photos, m.stats.LocalPhotos, m.status)
	right := theme.Muted.Render("?:help  tab:switch  ::palette  q:quit")
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	bar := left + strings.Repeat(" ", gap) + right
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(bar)
}

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	switch parts[0] {
	case "search":
		m.activeTab = tabFolders
		query := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))
		m.status = "search: " + query
		return m, m.foldersView.Search(query)
	case "search:clear":
		m.activeTab = tabFolders
		m.status = "ready"
		return m, m.foldersView.Search("")
	case "sort":
		if len(parts) < 2 {
			m.status = "usage: sort <newest|oldest|largest|smallest>"
			return m, nil
		}
		m.activeTab = tabFolders
		return m, m.foldersView.SetSort(parts[1])
	case "folders:refresh":
		m.activeTab = tabFolders
		return m, tea.Batch(m.foldersView.Reload(), m.loadStatsCmd())
	case "folders:delete":
		m.activeTab = tabFolders
		return m, m.foldersView.RequestDelete()
	case "handoff:show":
		m.activeTab = tabHandoff
		return m, m.handoffView.Refresh()
	case "handoff:consume":
		m.activeTab = tabHandoff
		return m, m.handoffView.Consume()
	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

func (m Model) loadStatsCmd() tea.Cmd {
	return func() tea.Msg {
		stats, err := m.gallery.Stats(context.Background())
		return statsLoadedMsg{stats: stats, err: err}
	}
}
