package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/plx/internal/auth"
	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/shared"
)

const historySize = 8

// ViewState represents the current view in the TUI.
type ViewState int

const (
	StatusView ViewState = iota
	PlaylistView
)

// Session is the part of [auth.Controller] the monitor drives.
type Session interface {
	Snapshot() auth.Snapshot
	Subscribe(buffer int) (<-chan auth.Snapshot, func())
	CheckAuth(ctx context.Context) auth.Snapshot
	Refresh(ctx context.Context) error
	Logout(ctx context.Context)
}

// PlaylistLoader fetches playlists for a signed-in identity.
type PlaylistLoader func(ctx context.Context, identityID string) ([]models.Playlist, error)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	session      Session
	loadPlaylist PlaylistLoader
	updates      <-chan auth.Snapshot
	unsubscribe  func()
	snapshot     auth.Snapshot
	history      []auth.Snapshot
	busy         string
	notice       string
	width        int
	height       int
	playlistList list.Model
	spinner      spinner.Model
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a monitor for session. loader may be nil, which disables the playlist view.
func NewModel(ctx context.Context, session Session, loader PlaylistLoader) *Model {
	updates, unsubscribe := session.Subscribe(16)
	return &Model{
		ctx:          ctx,
		view:         StatusView,
		session:      session,
		loadPlaylist: loader,
		updates:      updates,
		unsubscribe:  unsubscribe,
		snapshot:     session.Snapshot(),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.warn)),
		help:         help.New(),
		keys:         newKeyMap(),
	}
}

// Init starts listening for status changes and runs the first session check.
func (m *Model) Init() tea.Cmd {
	m.busy = "check"
	return tea.Batch(m.spinner.Tick, m.waitForSnapshot(), m.checkAuth())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.view == PlaylistView {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	if m.view == PlaylistView {
		var cmd tea.Cmd
		m.playlistList, cmd = m.playlistList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSnapshot:
		m.snapshot = msg.data.(auth.Snapshot)
		m.history = append(m.history, m.snapshot)
		if len(m.history) > historySize {
			m.history = m.history[len(m.history)-historySize:]
		}
		return m, m.waitForSnapshot()

	case MsgSubscriptionClosed:
		m.updates = nil
		return m, nil

	case MsgActionDone:
		res := msg.data.(actionResult)
		m.busy = ""
		m.err = res.err
		if res.err == nil {
			m.notice = fmt.Sprintf("%s finished", res.action)
		}
		return m, nil

	case MsgPlaylistsFetched:
		res := msg.data.(playlistsResult)
		m.busy = ""
		if res.err != nil {
			m.err = res.err
			m.view = StatusView
			return m, nil
		}
		m.playlistList = newPlaylistList(res.playlists, m.width-4, m.height-8)
		m.view = PlaylistView
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		m.Close()
		return m, tea.Quit
	}

	if m.view == PlaylistView {
		if key.Matches(msg, m.keys.back) && m.playlistList.FilterState() != list.Filtering {
			m.view = StatusView
			return m, nil
		}
		var cmd tea.Cmd
		m.playlistList, cmd = m.playlistList.Update(msg)
		return m, cmd
	}

	if m.busy != "" {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.check):
		m.start("check")
		return m, tea.Batch(m.spinner.Tick, m.checkAuth())
	case key.Matches(msg, m.keys.refresh):
		m.start("refresh")
		return m, tea.Batch(m.spinner.Tick, m.refresh())
	case key.Matches(msg, m.keys.logout):
		m.start("logout")
		return m, m.logout()
	case key.Matches(msg, m.keys.playlists):
		if m.loadPlaylist == nil {
			m.err = fmt.Errorf("%w: playlists", shared.ErrNotImplemented)
			return m, nil
		}
		if !m.snapshot.Authenticated() {
			m.err = shared.ErrNotAuthenticated
			return m, nil
		}
		m.start("playlists")
		return m, tea.Batch(m.spinner.Tick, m.fetchPlaylists(m.snapshot.IdentityID))
	}
	return m, nil
}

func (m *Model) start(action string) {
	m.busy = action
	m.err = nil
	m.notice = ""
}

// Close cancels the status subscription. Safe to call more than once.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m *Model) waitForSnapshot() tea.Cmd {
	updates := m.updates
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return subscriptionClosedMsg()
		}
		return snapshotMsg(s)
	}
}

func (m *Model) checkAuth() tea.Cmd {
	return func() tea.Msg {
		m.session.CheckAuth(m.ctx)
		return actionDoneMsg("check", nil)
	}
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg("refresh", m.session.Refresh(m.ctx))
	}
}

func (m *Model) logout() tea.Cmd {
	return func() tea.Msg {
		m.session.Logout(m.ctx)
		return actionDoneMsg("logout", nil)
	}
}

func (m *Model) fetchPlaylists(identityID string) tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.loadPlaylist(m.ctx, identityID)
		return playlistsFetchedMsg(playlists, err)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PlaylistView:
		return m.renderPlaylists()
	default:
		return m.renderStatus()
	}
}

func (m *Model) renderStatus() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("Session"))
	b.WriteString("\n")

	status := styles.status(m.snapshot.Status).Render(m.snapshot.Status.String())
	if m.snapshot.Status.Pending() || m.busy != "" {
		status = fmt.Sprintf("%s %s", m.spinner.View(), status)
	}
	fmt.Fprintf(&b, "Status:   %s\n", status)

	identity := m.snapshot.IdentityID
	if identity == "" {
		identity = "-"
	}
	fmt.Fprintf(&b, "Identity: %s\n", identity)

	if len(m.history) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.help.Render("History"))
		for _, s := range m.history {
			fmt.Fprintf(&b, "\n  %s", s.Status)
			if s.IdentityID != "" {
				fmt.Fprintf(&b, " (%s)", s.IdentityID)
			}
		}
		b.WriteString("\n")
	}

	switch {
	case m.err != nil:
		fmt.Fprintf(&b, "\n%s\n", styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.notice != "":
		fmt.Fprintf(&b, "\n%s\n", styles.ok.Render(m.notice))
	}

	fmt.Fprintf(&b, "\n%s", m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderPlaylists() string {
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), helpView)
}
