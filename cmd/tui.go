package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/plx/internal/shared"
	"github.com/desertthunder/plx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Monitor launches the interactive session monitor.
func (r *Runner) Monitor(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.logger = fileLogger

	ctrl, err := r.session(ctx)
	if err != nil {
		return err
	}

	var loader ui.PlaylistLoader
	if r.playlists != nil {
		loader = r.playlists.GetPlaylists
	}

	model := ui.NewModel(ctx, ctrl, loader)
	defer model.Close()

	if _, err := tea.NewProgram(model).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
