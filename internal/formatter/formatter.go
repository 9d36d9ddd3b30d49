// package formatter renders playlists and session status for the terminal or a file (CSV, Markdown, JSON, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/plx/internal/auth"
	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/shared"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or its common alias (txt, md).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidConfig, s)
	}
}

func visibility(public bool) string {
	if public {
		return "Public"
	}
	return "Private"
}

// PlaylistsToCSV renders playlists with columns: ID, Name, Tracks, Public, Enriched, URL
func PlaylistsToCSV(playlists []models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Tracks", "Public", "Enriched", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, pl := range playlists {
		record := []string{
			pl.ID,
			pl.Name,
			strconv.Itoa(pl.TrackCount),
			strconv.FormatBool(pl.Public),
			strconv.FormatBool(pl.Enriched),
			pl.URL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// PlaylistsToMarkdown renders playlists as a Markdown list under title.
func PlaylistsToMarkdown(title string, playlists []models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Playlists"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Playlists**: %d\n\n", len(playlists)))

	for i, pl := range playlists {
		name := pl.Name
		if pl.URL != "" {
			name = fmt.Sprintf("[%s](%s)", pl.Name, pl.URL)
		}
		buf.WriteString(fmt.Sprintf("%d. %s (%d tracks, %s)", i+1, name, pl.TrackCount, visibility(pl.Public)))
		if pl.Enriched {
			buf.WriteString(" *enriched*")
		}
		buf.WriteString("\n")
		if pl.Description != "" {
			buf.WriteString(fmt.Sprintf("   > %s\n", pl.Description))
		}
	}

	return buf.Bytes(), nil
}

// PlaylistsToText renders playlists as numbered plain text lines.
func PlaylistsToText(playlists []models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlists: %d\n\n", len(playlists)))
	for i, pl := range playlists {
		buf.WriteString(fmt.Sprintf("%d. %s (%d tracks)", i+1, pl.Name, pl.TrackCount))
		if pl.Enriched {
			buf.WriteString(" [enriched]")
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// PlaylistsToJSON renders playlists as a JSON array.
func PlaylistsToJSON(playlists []models.Playlist, pretty bool) ([]byte, error) {
	if playlists == nil {
		playlists = []models.Playlist{}
	}
	return shared.MarshalJSON(playlists, pretty)
}

// RenderPlaylists renders playlists in format.
func RenderPlaylists(format Format, playlists []models.Playlist) ([]byte, error) {
	switch format {
	case FormatCSV:
		return PlaylistsToCSV(playlists)
	case FormatMarkdown:
		return PlaylistsToMarkdown("", playlists)
	case FormatJSON:
		return PlaylistsToJSON(playlists, true)
	case FormatText, "":
		return PlaylistsToText(playlists)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidConfig, format)
	}
}

// WritePlaylists renders playlists in format to w.
func WritePlaylists(w io.Writer, format Format, playlists []models.Playlist) error {
	data, err := RenderPlaylists(format, playlists)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write playlists: %w", err)
	}
	return nil
}

// WritePlaylistsFile renders playlists to path.
//
// Defaults to playlists.{ext} for the format's extension.
func WritePlaylistsFile(format Format, playlists []models.Playlist, path string) (string, error) {
	if path == "" {
		path = "playlists" + extension(format)
	}

	data, err := RenderPlaylists(format, playlists)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return path, nil
}

func extension(format Format) string {
	switch format {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

// SnapshotToText renders a session snapshot as key/value lines.
func SnapshotToText(s auth.Snapshot) []byte {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Status: %s\n", s.Status))
	if s.IdentityID != "" {
		buf.WriteString(fmt.Sprintf("Identity: %s\n", s.IdentityID))
	}
	return buf.Bytes()
}

// SnapshotToJSON renders a session snapshot, with the status as its name.
func SnapshotToJSON(s auth.Snapshot, pretty bool) ([]byte, error) {
	return shared.MarshalJSON(s, pretty)
}

// WriteSnapshot writes s to w as JSON or text.
func WriteSnapshot(w io.Writer, format Format, s auth.Snapshot) error {
	data := SnapshotToText(s)
	if format == FormatJSON {
		var err error
		if data, err = SnapshotToJSON(s, true); err != nil {
			return err
		}
		data = append(data, '\n')
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write status: %w", err)
	}
	return nil
}
