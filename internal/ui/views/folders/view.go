package folders

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	gallerydto "fieldcap/internal/modules/gallery/dto"
	"fieldcap/internal/ui/theme"
)

type GalleryPort interface {
	ListFolders(ctx context.Context, input gallerydto.ListFoldersInput) ([]gallerydto.FolderOutput, error)
	GetDetail(ctx context.Context, key string) (gallerydto.DetailOutput, error)
	DeleteFolders(ctx context.Context, input gallerydto.DeleteFoldersInput) (gallerydto.DeleteFoldersOutput, error)
}

type FoldersLoadedMsg struct {
	Folders []gallerydto.FolderOutput
	Err     error
}

type DetailLoadedMsg struct {
	Detail gallerydto.DetailOutput
	Err    error
}

type DeletedMsg struct {
	Removed int
	Err     error
}

var sortModes = []string{"newest", "oldest", "largest", "smallest"}

type folderItem struct {
	folder gallerydto.FolderOutput
	marked bool
}

func (i folderItem) Title() string {
	mark := "  "
	if i.marked {
		mark = theme.Hot.Render("✓ ")
	}
	return mark + i.folder.When
}

func (i folderItem) Description() string {
	kind := "session"
	if i.folder.Legacy {
		kind = "legacy"
	}
	noun := "photos"
	if i.folder.Count == 1 {
		noun = "photo"
	}
	return fmt.Sprintf("%d %s  %s", i.folder.Count, noun, kind)
}

func (i folderItem) FilterValue() string { return i.folder.When }

type Model struct {
	port       GalleryPort
	list       list.Model
	detail     gallerydto.DetailOutput
	preview    viewport.Model
	spinner    spinner.Model
	loading    bool
	query      string
	sortIdx    int
	marked     map[string]bool
	confirming bool
	status     string
	width      int
	height     int
}

func New(port GalleryPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Folders"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	// Search runs through the gallery so date-style queries match.
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	vp := viewport.New(0, 0)
	vp.Style = lipgloss.NewStyle().Background(theme.Mantle).Foreground(theme.Text).Padding(1)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	return Model{
		port:    port,
		list:    l,
		preview: vp,
		spinner: sp,
		loading: true,
		marked:  map[string]bool{},
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Reload(), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case FoldersLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.status = msg.Err.Error()
			return m, nil
		}
		m.pruneMarks(msg.Folders)
		cmds = append(cmds, m.list.SetItems(m.items(msg.Folders)))
		m.list.Title = m.title()
		if len(msg.Folders) > 0 {
			m.list.Select(0)
			cmds = append(cmds, m.loadDetailCmd(msg.Folders[0].DetailKey))
		} else {
			m.detail = gallerydto.DetailOutput{}
			m.preview.SetContent(m.renderDetail())
		}

	case DetailLoadedMsg:
		if msg.Err != nil {
			m.status = msg.Err.Error()
			return m, nil
		}
		m.detail = msg.Detail
		m.preview.SetContent(m.renderDetail())
		m.preview.GotoTop()

	case DeletedMsg:
		if msg.Err != nil {
			m.status = "delete failed: " + msg.Err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("removed %d photos", msg.Removed)
		m.marked = map[string]bool{}
		return m, m.Reload()

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		if m.confirming {
			m.confirming = false
			if msg.String() == "y" {
				return m, m.deleteCmd(m.deleteTargets())
			}
			m.status = "delete cancelled"
			return m, nil
		}
		switch msg.String() {
		case "o":
			m.sortIdx = (m.sortIdx + 1) % len(sortModes)
			return m, m.Reload()
		case "x":
			item, ok := m.list.SelectedItem().(folderItem)
			if !ok {
				return m, nil
			}
			if m.marked[item.folder.ID] {
				delete(m.marked, item.folder.ID)
			} else {
				m.marked[item.folder.ID] = true
			}
			return m, m.list.SetItem(m.list.Index(), folderItem{folder: item.folder, marked: m.marked[item.folder.ID]})
		case "d":
			return m, m.RequestDelete()
		}
	}

	if !m.loading {
		prev := m.list.Index()
		var lCmd tea.Cmd
		m.list, lCmd = m.list.Update(msg)
		cmds = append(cmds, lCmd)
		if m.list.Index() != prev {
			if item, ok := m.list.SelectedItem().(folderItem); ok {
				cmds = append(cmds, m.loadDetailCmd(item.folder.DetailKey))
			}
		}
		var vCmd tea.Cmd
		m.preview, vCmd = m.preview.Update(msg)
		cmds = append(cmds, vCmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading folders…")
	}
	listW := m.width * 4 / 10
	detailW := m.width - listW

	left := m.list.View()
	if line := m.footer(); line != "" {
		left += "\n" + line
	}
	listPane := lipgloss.NewStyle().Width(listW).Height(m.height).Render(left)
	detailPane := theme.Pane.Width(detailW - 2).Height(m.height - 2).Render(m.preview.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, listPane, detailPane)
}

// Search replaces the active query and reloads.
func (m *Model) Search(query string) tea.Cmd {
	m.query = strings.TrimSpace(query)
	return m.Reload()
}

// SetSort selects a sort mode by name; unknown names are reported by the gallery on reload.
func (m *Model) SetSort(mode string) tea.Cmd {
	for i, candidate := range sortModes {
		if candidate == mode {
			m.sortIdx = i
			return m.Reload()
		}
	}
	m.status = "unknown sort: " + mode
	return nil
}

// RequestDelete asks for confirmation before removing the marked folders,
// or the selected one when nothing is marked.
func (m *Model) RequestDelete() tea.Cmd {
	targets := m.deleteTargets()
	if len(targets) == 0 {
		m.status = "nothing selected"
		return nil
	}
	m.confirming = true
	m.status = fmt.Sprintf("delete %d folder(s)? y/N", len(targets))
	return nil
}

func (m Model) Reload() tea.Cmd {
	input := gallerydto.ListFoldersInput{Query: m.query, Sort: sortModes[m.sortIdx]}
	return func() tea.Msg {
		folders, err := m.port.ListFolders(context.Background(), input)
		return FoldersLoadedMsg{Folders: folders, Err: err}
	}
}

func (m Model) Status() string { return m.status }

func (m Model) Query() string { return m.query }

func (m Model) SortMode() string { return sortModes[m.sortIdx] }

func (m Model) Confirming() bool { return m.confirming }

func (m Model) Marked() []string {
	out := make([]string, 0, len(m.marked))
	for id := range m.marked {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (m *Model) resize() {
	listW := m.width * 4 / 10
	detailW := m.width - listW
	m.list.SetSize(listW, m.height-1)
	m.preview.Width = detailW - 4
	m.preview.Height = m.height - 4
}

func (m Model) title() string {
	t := "Folders · " + sortModes[m.sortIdx]
	if m.query != "" {
		t += " · \"" + m.query + "\""
	}
	return t
}

func (m Model) footer() string {
	if m.status == "" {
		return ""
	}
	if m.confirming {
		return theme.Warn.Render(m.status)
	}
	return theme.Muted.Render(m.status)
}

func (m Model) items(folders []gallerydto.FolderOutput) []list.Item {
	items := make([]list.Item, len(folders))
	for i, f := range folders {
		items[i] = folderItem{folder: f, marked: m.marked[f.ID]}
	}
	return items
}

func (m *Model) pruneMarks(folders []gallerydto.FolderOutput) {
	visible := make(map[string]bool, len(folders))
	for _, f := range folders {
		visible[f.ID] = true
	}
	for id := range m.marked {
		if !visible[id] {
			delete(m.marked, id)
		}
	}
}

func (m Model) deleteTargets() []string {
	if len(m.marked) > 0 {
		return m.Marked()
	}
	if item, ok := m.list.SelectedItem().(folderItem); ok {
		return []string{item.folder.ID}
	}
	return nil
}

func (m Model) renderDetail() string {
	d := m.detail
	if d.Key == "" {
		return theme.Muted.Render("No folder selected")
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(d.Key) + "\n")
	sb.WriteString(theme.Muted.Render("matched by "+d.Tier) + "\n\n")
	for _, p := range d.Photos {
		badge := theme.Local
		if p.Remote {
			badge = theme.Remote
		}
		sb.WriteString(fmt.Sprintf("#%d  %s  %.6f, %.6f\n", p.ID, badge, p.Lat, p.Lon))
		sb.WriteString(theme.Muted.Render("    "+p.CreatedAt) + "\n")
		sb.WriteString(theme.Muted.Render("    "+p.URI) + "\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("x: mark  d: delete  o: sort"))
	return sb.String()
}

func (m Model) loadDetailCmd(key string) tea.Cmd {
	return func() tea.Msg {
		detail, err := m.port.GetDetail(context.Background(), key)
		return DetailLoadedMsg{Detail: detail, Err: err}
	}
}

func (m Model) deleteCmd(ids []string) tea.Cmd {
	return func() tea.Msg {
		out, err := m.port.DeleteFolders(context.Background(), gallerydto.DeleteFoldersInput{IDs: ids})
		return DeletedMsg{Removed: out.Removed, Err: err}
	}
}
