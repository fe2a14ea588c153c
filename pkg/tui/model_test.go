package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yleoer/keepsake/pkg/catalog"
	"github.com/yleoer/keepsake/pkg/events"
	"github.com/yleoer/keepsake/pkg/logger"
	"github.com/yleoer/keepsake/pkg/player"
)

type stubFetcher []catalog.Track

func (f stubFetcher) Tracks(ctx context.Context) ([]catalog.Track, error) { return f, nil }

type stubStream struct {
	done chan struct{}
}

func (s *stubStream) Play(ctx context.Context) error { return nil }
func (s *stubStream) Pause()                         {}
func (s *stubStream) Done() <-chan struct{}          { return s.done }
func (s *stubStream) Close() error                   { return nil }

type stubMedia struct{}

func (stubMedia) Load(ctx context.Context, url string) (player.Stream, error) {
	return &stubStream{done: make(chan struct{})}, nil
}

func tracks(names ...string) stubFetcher {
	out := make(stubFetcher, 0, len(names))
	for _, n := range names {
		meta := catalog.Describe(n, nil)
		out = append(out, catalog.Track{Filename: n, Title: meta.Title, Artist: meta.Artist, URL: catalog.StreamURL(n)})
	}
	return out
}

func newTestModel(t *testing.T, f stubFetcher, lib <-chan events.Event) (tea.Model, *player.Player) {
	t.Helper()
	p := player.New(context.Background(), f, stubMedia{}, logger.Nop())
	t.Cleanup(func() { p.Close() })
	m := New(p, lib)
	return drain(t, m, batch(p.Start())), p
}

// drain 依次执行播放器命令并把结果送回，直到没有后续命令
func drain(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		pm, ok := msg.(playerMsg)
		if !ok {
			t.Fatalf("Expected playerMsg, got %T", msg)
		}
		m, cmd = m.Update(pm)
	}
	return m
}

func press(t *testing.T, m tea.Model, k string) tea.Model {
	t.Helper()
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	m, cmd := m.Update(msg)
	return drain(t, m, cmd)
}

func TestToggleAndSkip(t *testing.T) {
	m, p := newTestModel(t, tracks("A - One.mp3", "B - Two.mp3"), nil)

	s := p.Snapshot()
	if s.Current != 0 || s.State != player.StateReady {
		t.Fatalf("Expected first track ready, got %+v", s)
	}
	if view := m.View(); !strings.Contains(view, "One") || !strings.Contains(view, "Ready") {
		t.Errorf("Unexpected view:\n%s", view)
	}

	m = press(t, m, "p")
	if !p.Snapshot().Playing {
		t.Error("Expected playing after toggle")
	}
	m = press(t, m, "n")
	if s := p.Snapshot(); s.Current != 1 || !s.Playing {
		t.Errorf("Expected second track playing, got %+v", s)
	}
	m = press(t, m, "p")
	if s := p.Snapshot(); s.Playing || s.State != player.StatePaused {
		t.Errorf("Expected paused, got %+v", s)
	}
	if !strings.Contains(m.View(), "Paused") {
		t.Errorf("Expected paused view, got:\n%s", m.View())
	}
}

func TestCursorSelect(t *testing.T) {
	m, p := newTestModel(t, tracks("A - One.mp3", "B - Two.mp3", "C - Three.mp3"), nil)

	m = press(t, m, "down")
	m = press(t, m, "down")
	press(t, m, "enter")
	if s := p.Snapshot(); s.Current != 2 || !s.Playing {
		t.Errorf("Expected third track playing, got %+v", s)
	}
}

func TestEmptyCatalogView(t *testing.T) {
	m, p := newTestModel(t, tracks(), nil)
	m = press(t, m, "p")
	if s := p.Snapshot(); s.Playing || !s.Loaded || s.LastError != "" {
		t.Errorf("Expected idle empty player, got %+v", s)
	}
	if !strings.Contains(m.View(), "No songs available.") {
		t.Errorf("Unexpected view:\n%s", m.View())
	}
}

func TestLibraryNotice(t *testing.T) {
	lib := make(chan events.Event, 1)
	m, _ := newTestModel(t, tracks("A - One.mp3"), lib)

	lib <- events.Event{Type: events.TypeCatalogChanged, TrackCount: 4}
	msg := listenLibrary(lib)()
	m, cmd := m.Update(msg)
	if cmd == nil {
		t.Error("Expected to keep listening for library events")
	}
	if !strings.Contains(m.View(), "4 songs") {
		t.Errorf("Expected library notice, got:\n%s", m.View())
	}

	close(lib)
	if _, ok := listenLibrary(lib)().(libraryClosedMsg); !ok {
		t.Error("Expected libraryClosedMsg after close")
	}
}

func TestQuitClosesPlayer(t *testing.T) {
	m, p := newTestModel(t, tracks("A - One.mp3"), nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
	if cmds := p.Toggle(); cmds != nil {
		t.Error("Expected closed player to ignore toggle")
	}
}
