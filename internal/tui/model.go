// Package tui implements the jukebox player's terminal frontend: a
// Bubbletea model that turns key presses into asynctask-driven catalogue
// calls and playback-engine commands, and turns bus events back into
// screen updates.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/basket/jukeboxcore/internal/asynctask"
	"github.com/basket/jukeboxcore/internal/backend"
	"github.com/basket/jukeboxcore/internal/bus"
	"github.com/basket/jukeboxcore/internal/playback"
)

// State is the mutable state every spawned task's Mutation handler is
// given exclusive access to. A pointer to one lives on the model and is
// never replaced, so it survives Bubbletea's by-value model copies —
// the same pointer-held-state idiom the chat frontend uses for plan
// tracking.
type State struct {
	results   []backend.Track
	searchErr string

	lyricsFor string
	lyrics    string

	nowPlayingID string
	queuedID     string
	playErr      string

	lastQueueEvent backend.QueueEvent
}

type mode int

const (
	modeBrowse mode = iota
	modeSearchInput
)

// Model is the player's Bubbletea model.
type Model struct {
	ctx    context.Context
	ctrl   *Controller
	sender *asynctask.Sender[State]
	state  *State

	playSub *bus.Subscription

	mode     mode
	input    []rune
	cursor   int
	selected int

	nowPlaying   string
	position     time.Duration
	duration     time.Duration
	playingState string // "idle", "playing", "done"
	lastAlert    string

	queueID string
	width   int
	height  int
}

// New builds the player model. ctrl must already be wired to a live
// backend client, playback engine, and bus; sender is a fresh Sender
// scoped to this model's lifetime.
func New(ctx context.Context, ctrl *Controller, sender *asynctask.Sender[State], queueID string) Model {
	m := Model{
		ctx:          ctx,
		ctrl:         ctrl,
		sender:       sender,
		state:        &State{},
		queueID:      queueID,
		playingState: "idle",
	}
	m.playSub = ctrl.Bus.Subscribe("song.")
	return m
}

type outcomeMsg struct {
	kind  asynctask.OutcomeKind
	panic *asynctask.PanicError
}

type songEventMsg struct {
	event bus.Event
}

type ctxDoneMsg struct{}

func waitForOutcome(ctx context.Context, s *asynctask.Sender[State], state *State) tea.Cmd {
	return func() tea.Msg {
		out, ok := s.ApplyNext(ctx, state)
		if !ok {
			return nil
		}
		return outcomeMsg{kind: out.Kind(), panic: out.Panic()}
	}
}

func waitForSongEvent(sub *bus.Subscription) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-sub.Ch()
		if !ok {
			return nil
		}
		return songEventMsg{event: event}
	}
}

func waitCtxDone(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return ctxDoneMsg{}
	}
}

// Init kicks off the outcome-wait loop, the song-event-wait loop, the
// ctx-cancellation watcher, and the shared-queue watch stream.
func (m Model) Init() tea.Cmd {
	_ = m.sender.Spawn(m.ctx, m.ctrl.watchQueueTask(m.queueID))
	return tea.Batch(
		waitForOutcome(m.ctx, m.sender, m.state),
		waitForSongEvent(m.playSub),
		waitCtxDone(m.ctx),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ctxDoneMsg:
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case outcomeMsg:
		if msg.panic != nil {
			m.lastAlert = humanError(msg.panic)
		}
		return m, waitForOutcome(m.ctx, m.sender, m.state)

	case songEventMsg:
		m.applySongEvent(msg.event)
		return m, waitForSongEvent(m.playSub)

	case enginePlainMsg:
		m.lastAlert = msg.alert
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) applySongEvent(ev bus.Event) {
	switch ev.Topic {
	case bus.TopicSongStateChanged:
		if p, ok := ev.Payload.(bus.SongStateChangedEvent); ok {
			m.nowPlaying = p.SongID
			m.playingState = p.NewStatus
		}
	case bus.TopicSongProgress:
		if p, ok := ev.Payload.(bus.SongProgressEvent); ok {
			m.position = p.Position
			if p.Duration > 0 {
				m.duration = p.Duration
			}
		}
	case bus.TopicSongCompleted:
		if p, ok := ev.Payload.(bus.SongStateChangedEvent); ok {
			m.playingState = "done"
			_ = p
		}
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == modeSearchInput {
		return m.handleSearchInputKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "/":
		m.mode = modeSearchInput
		m.input = nil
		m.cursor = 0
		return m, nil
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case "down", "j":
		if m.selected < len(m.state.results)-1 {
			m.selected++
		}
		return m, nil
	case "l":
		if t, ok := m.currentTrack(); ok {
			_ = m.sender.Spawn(m.ctx, m.ctrl.lyricsTask(t.ID))
		}
		return m, nil
	case "enter", "p":
		if t, ok := m.currentTrack(); ok {
			_ = m.sender.Spawn(m.ctx, m.ctrl.playTask(t.ID, false))
		}
		return m, nil
	case "n":
		if t, ok := m.currentTrack(); ok {
			_ = m.sender.Spawn(m.ctx, m.ctrl.playTask(t.ID, true))
		}
		return m, nil
	case " ":
		return m, m.pausePlayCmd()
	case "s":
		return m, m.stopCmd()
	case "right":
		return m, m.seekCmd(5*time.Second, false)
	case "left":
		return m, m.seekCmd(5*time.Second, true)
	case "+", "=":
		return m, m.volumeCmd(10)
	case "-", "_":
		return m, m.volumeCmd(-10)
	}
	return m, nil
}

func (m Model) handleSearchInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		query := strings.TrimSpace(string(m.input))
		m.mode = modeBrowse
		if query != "" {
			_ = m.sender.Spawn(m.ctx, m.ctrl.searchTask(query))
		}
		return m, nil
	case tea.KeyEsc:
		m.mode = modeBrowse
		return m, nil
	case tea.KeyBackspace:
		m.input, m.cursor = deleteRuneLeft(m.input, m.cursor)
		return m, nil
	case tea.KeyRunes:
		m.input, m.cursor = insertRunes(m.input, m.cursor, msg.Runes)
		return m, nil
	}
	return m, nil
}

func insertRunes(in []rune, cursor int, r []rune) ([]rune, int) {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(in) {
		cursor = len(in)
	}
	out := make([]rune, 0, len(in)+len(r))
	out = append(out, in[:cursor]...)
	out = append(out, r...)
	out = append(out, in[cursor:]...)
	return out, cursor + len(r)
}

func deleteRuneLeft(in []rune, cursor int) ([]rune, int) {
	if cursor <= 0 || len(in) == 0 {
		return in, 0
	}
	if cursor > len(in) {
		cursor = len(in)
	}
	out := append([]rune(nil), in[:cursor-1]...)
	out = append(out, in[cursor:]...)
	return out, cursor - 1
}

func (m Model) currentTrack() (backend.Track, bool) {
	if m.selected < 0 || m.selected >= len(m.state.results) {
		return backend.Track{}, false
	}
	return m.state.results[m.selected], true
}

type enginePlainMsg struct {
	alert string
}

func (m Model) pausePlayCmd() tea.Cmd {
	return func() tea.Msg {
		resp, err := m.ctrl.Engine.PausePlay(m.ctx, m.nowPlaying)
		if err != nil {
			return enginePlainMsg{alert: humanError(err)}
		}
		status := "resumed"
		if resp.Paused {
			status = "paused"
		}
		return enginePlainMsg{alert: "playback " + status}
	}
}

func (m Model) stopCmd() tea.Cmd {
	return func() tea.Msg {
		if _, err := m.ctrl.Engine.Stop(m.ctx, m.nowPlaying); err != nil {
			return enginePlainMsg{alert: humanError(err)}
		}
		return enginePlainMsg{alert: "stopped"}
	}
}

func (m Model) seekCmd(delta time.Duration, backward bool) tea.Cmd {
	dir := playback.SeekForward
	if backward {
		dir = playback.SeekBackward
	}
	return func() tea.Msg {
		if _, err := m.ctrl.Engine.Seek(m.ctx, delta, dir); err != nil {
			return enginePlainMsg{alert: humanError(err)}
		}
		return nil
	}
}

func (m Model) volumeCmd(deltaPercent int) tea.Cmd {
	return func() tea.Msg {
		v, err := m.ctrl.Engine.IncreaseVolume(m.ctx, deltaPercent)
		if err != nil {
			return enginePlainMsg{alert: humanError(err)}
		}
		return enginePlainMsg{alert: fmt.Sprintf("volume %d%%", v.Percent)}
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	selStyle    = lipgloss.NewStyle().Reverse(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("jukebox") + "\n\n")

	if m.mode == modeSearchInput {
		fmt.Fprintf(&b, "search: %s\n\n", string(m.input))
	} else {
		b.WriteString(dimStyle.Render("press / to search, enter to play, n to queue, space to pause, q to quit") + "\n\n")
	}

	if m.state.searchErr != "" {
		fmt.Fprintf(&b, "search error: %s\n\n", m.state.searchErr)
	}

	for i, t := range m.state.results {
		line := fmt.Sprintf("%-28s %-20s %s", t.Title, t.Artist, t.Duration.Truncate(time.Second))
		if i == m.selected {
			line = selStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "now playing: %s [%s]  %s / %s\n",
		valueOr(m.nowPlaying, "(none)"), m.playingState,
		m.position.Truncate(time.Second), m.duration.Truncate(time.Second))
	if m.state.queuedID != "" {
		fmt.Fprintf(&b, "queued: %s\n", m.state.queuedID)
	}
	if m.state.lyricsFor != "" {
		fmt.Fprintf(&b, "\nlyrics for %s:\n%s\n", m.state.lyricsFor, m.state.lyrics)
	}
	if m.state.playErr != "" {
		fmt.Fprintf(&b, "\nplayback error: %s\n", m.state.playErr)
	}
	if m.lastAlert != "" {
		fmt.Fprintf(&b, "\n%s\n", m.lastAlert)
	}

	return b.String()
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// Run starts the player's Bubbletea program and blocks until it exits or
// ctx is cancelled, mirroring the status view's Run entrypoint.
func Run(ctx context.Context, m Model) error {
	defer bestEffortResetTTY()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))

	done := make(chan error, 1)
	go func() {
		_, err := p.Run()
		done <- err
	}()

	select {
	case <-ctx.Done():
		p.Quit()
		<-done
		return ctx.Err()
	case err := <-done:
		return err
	}
}
