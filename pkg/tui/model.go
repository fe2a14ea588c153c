// Package tui 在终端中显示播放器，player.Player 只在 bubbletea 的 Update 循环中调用
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yleoer/keepsake/pkg/events"
	"github.com/yleoer/keepsake/pkg/player"
)

// playerMsg 把 player.Event 送回 Update
type playerMsg struct {
	ev player.Event
}

type libraryMsg events.Event

type libraryClosedMsg struct{}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B8B"))
	artistStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	stateStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75"))
	noticeStyle  = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#E5C07B"))
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B8B"))
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	frameStyle   = lipgloss.NewStyle().Padding(1, 2)
)

type Model struct {
	player  *player.Player
	library <-chan events.Event

	keys    keyMap
	help    help.Model
	spinner spinner.Model

	cursor int
	moved  bool
	notice string
	width  int
}

// New 创建界面模型，服务端事件流不可用时 library 为 nil
func New(p *player.Player, library <-chan events.Event) Model {
	return Model{
		player:  p,
		library: library,
		keys:    defaultKeys,
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(stateStyle)),
	}
}

// batch 把播放器的 Cmd 包装成 tea.Cmd，结果以 playerMsg 返回
func batch(cmds []player.Cmd) tea.Cmd {
	out := make([]tea.Cmd, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, func() tea.Msg { return playerMsg{ev: c()} })
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return tea.Batch(out...)
}

func listenPlayer(ch <-chan player.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return playerMsg{ev: ev}
	}
}

func listenLibrary(ch <-chan events.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return libraryClosedMsg{}
		}
		return libraryMsg(ev)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		batch(m.player.Start()),
		listenPlayer(m.player.Events()),
		listenLibrary(m.library),
		m.spinner.Tick,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case playerMsg:
		cmd := batch(m.player.Handle(msg.ev))
		if _, ok := msg.ev.(player.TrackEnded); ok {
			cmd = tea.Batch(cmd, listenPlayer(m.player.Events()))
		}
		m.followCurrent()
		return m, cmd

	case libraryMsg:
		m.notice = fmt.Sprintf("Library changed: %d songs on the server. Restart to pick them up.", msg.TrackCount)
		return m, listenLibrary(m.library)

	case libraryClosedMsg:
		m.library = nil
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.player
	switch {
	case key.Matches(msg, m.keys.Quit):
		p.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Toggle):
		return m, batch(p.Toggle())
	case key.Matches(msg, m.keys.Next):
		m.moved = false
		cmd := batch(p.Next())
		m.followCurrent()
		return m, cmd
	case key.Matches(msg, m.keys.Prev):
		m.moved = false
		cmd := batch(p.Prev())
		m.followCurrent()
		return m, cmd
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.moved = true
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(p.Snapshot().Tracks)-1 {
			m.cursor++
			m.moved = true
		}
	case key.Matches(msg, m.keys.Select):
		m.moved = false
		return m, batch(p.Select(m.cursor))
	case key.Matches(msg, m.keys.Retry):
		return m, batch(p.Retry())
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// followCurrent 让光标跟随当前曲目，用户手动移动过光标时除外
func (m *Model) followCurrent() {
	if m.moved {
		return
	}
	if cur := m.player.Snapshot().Current; cur >= 0 {
		m.cursor = cur
	}
}

func (m Model) View() string {
	s := m.player.Snapshot()
	var b strings.Builder

	b.WriteString(titleStyle.Render("♪ keepsake"))
	b.WriteString("\n\n")

	if t, ok := s.Track(); ok {
		b.WriteString(titleStyle.Render(t.Title))
		b.WriteString("  ")
		b.WriteString(artistStyle.Render(t.Artist))
		if s.Album != "" {
			b.WriteString(dimStyle.Render("  · " + s.Album))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.stateLine(s))
	b.WriteString("\n")
	if s.LastError != "" {
		b.WriteString(errorStyle.Render(s.LastError))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for i, t := range s.Tracks {
		marker := "  "
		if i == m.cursor {
			marker = cursorStyle.Render("> ")
		}
		line := fmt.Sprintf("%d. %s - %s", i+1, t.Artist, t.Title)
		if i == s.Current {
			line = currentStyle.Render(line)
		}
		b.WriteString(marker + line + "\n")
	}
	if s.Loaded && len(s.Tracks) == 0 && s.LastError == "" {
		b.WriteString(dimStyle.Render("No songs available.") + "\n")
	}

	if m.notice != "" {
		b.WriteString("\n" + noticeStyle.Render(m.notice) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return frameStyle.Render(b.String())
}

func (m Model) stateLine(s player.Snapshot) string {
	switch s.State {
	case player.StateIdle:
		if !s.Loaded {
			return m.spinner.View() + " Fetching songs..."
		}
		return stateStyle.Render("■ Stopped")
	case player.StateLoading:
		return m.spinner.View() + " Loading..."
	case player.StatePlaying:
		return stateStyle.Render("▶ Playing")
	case player.StatePaused:
		return stateStyle.Render("⏸ Paused")
	case player.StateReady:
		return stateStyle.Render("■ Ready")
	default:
		return errorStyle.Render("✕ " + s.State.String())
	}
}
