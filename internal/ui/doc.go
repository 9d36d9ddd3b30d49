// Package ui implements an interactive session monitor using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [StatusView] : Live session status with a transition history
//  2. [PlaylistView] : Browse the signed-in user's playlists
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Status changes flow through a controller subscription; a spinner runs while a check or refresh is in flight.
//
// Keyboard bindings (c, r, l, p, esc, q) are shown with contextual help via charmbracelet/bubbles/help.
package ui
