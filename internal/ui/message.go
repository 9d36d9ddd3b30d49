package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/plx/internal/auth"
	"github.com/desertthunder/plx/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSnapshot MsgKind = iota
	MsgSubscriptionClosed
	MsgActionDone
	MsgPlaylistsFetched
)

type actionResult struct {
	action string
	err    error
}

type playlistsResult struct {
	playlists []models.Playlist
	err       error
}

// snapshotMsg is the constructor for [MsgSnapshot]
func snapshotMsg(s auth.Snapshot) Msg {
	return Msg{kind: MsgSnapshot, data: s}
}

// subscriptionClosedMsg is the constructor for [MsgSubscriptionClosed]
func subscriptionClosedMsg() Msg {
	return Msg{kind: MsgSubscriptionClosed}
}

// actionDoneMsg is the constructor for [MsgActionDone]
func actionDoneMsg(action string, err error) Msg {
	return Msg{kind: MsgActionDone, data: actionResult{action, err}}
}

// playlistsFetchedMsg is the constructor for [MsgPlaylistsFetched]
func playlistsFetchedMsg(playlists []models.Playlist, err error) Msg {
	return Msg{kind: MsgPlaylistsFetched, data: playlistsResult{playlists, err}}
}
