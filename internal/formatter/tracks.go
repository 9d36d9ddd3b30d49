package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/desertthunder/plx/internal/models"
	"github.com/desertthunder/plx/internal/shared"
)

func enrichedMark(t models.Track) string {
	if t.Enriched {
		return " [enriched]"
	}
	return ""
}

// TracksToText renders a track page as numbered lines, followed by the credit balance.
func TracksToText(page models.TrackPage) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(page.Tracks)))
	for i, t := range page.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", i+1, t.Name, strings.Join(t.Artists, ", "), enrichedMark(t)))
		if len(t.Genres) > 0 || t.Language != "" {
			buf.WriteString(fmt.Sprintf("   %s", strings.Join(t.Genres, ", ")))
			if t.Language != "" {
				buf.WriteString(fmt.Sprintf(" (%s)", t.Language))
			}
			buf.WriteString("\n")
		}
	}

	buf.WriteString(fmt.Sprintf("\nCredits: %d\n", page.Credits))
	if page.HasMore {
		buf.WriteString("More tracks available, use --offset.\n")
	}
	return buf.Bytes()
}

// TracksToCSV renders tracks with columns: ID, Name, Artists, Album, Genres, Language, Enriched, URL
func TracksToCSV(tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Artists", "Album", "Genres", "Language", "Enriched", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, t := range tracks {
		record := []string{
			t.ID,
			t.Name,
			strings.Join(t.Artists, "; "),
			t.Album,
			strings.Join(t.Genres, "; "),
			t.Language,
			strconv.FormatBool(t.Enriched),
			t.URL,
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

// TracksToMarkdown renders tracks as a Markdown list under title.
func TracksToMarkdown(title string, tracks []models.Track) []byte {
	var buf bytes.Buffer

	if title == "" {
		title = "Tracks"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(tracks)))

	for i, t := range tracks {
		name := t.Name
		if t.URL != "" {
			name = fmt.Sprintf("[%s](%s)", t.Name, t.URL)
		}
		buf.WriteString(fmt.Sprintf("%d. %s by %s", i+1, name, strings.Join(t.Artists, ", ")))
		if t.Enriched {
			buf.WriteString(" *enriched*")
		}
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// RenderTracks renders a track page in format. JSON keeps the whole page, the other
// formats only its tracks (text adds the credit balance).
func RenderTracks(format Format, title string, page models.TrackPage) ([]byte, error) {
	switch format {
	case FormatCSV:
		return TracksToCSV(page.Tracks)
	case FormatMarkdown:
		return TracksToMarkdown(title, page.Tracks), nil
	case FormatJSON:
		if page.Tracks == nil {
			page.Tracks = []models.Track{}
		}
		return shared.MarshalJSON(page, true)
	case FormatText, "":
		return TracksToText(page), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidConfig, format)
	}
}

// WriteTracks renders page in format to w.
func WriteTracks(w io.Writer, format Format, title string, page models.TrackPage) error {
	data, err := RenderTracks(format, title, page)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write tracks: %w", err)
	}
	return nil
}

// ProfileToText renders an account profile as key/value lines.
func ProfileToText(p models.Profile) []byte {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Username: %s\n", p.Username))
	buf.WriteString(fmt.Sprintf("ID: %s\n", p.ID))
	if p.Email != "" {
		buf.WriteString(fmt.Sprintf("Email: %s\n", p.Email))
	}
	if p.Country != "" {
		buf.WriteString(fmt.Sprintf("Country: %s\n", p.Country))
	}
	if !p.MemberSince.IsZero() {
		buf.WriteString(fmt.Sprintf("Member since: %s\n", p.MemberSince.Format("2006-01-02")))
	}
	buf.WriteString(fmt.Sprintf("Credits: %d\n", p.Credits))
	return buf.Bytes()
}

// WriteProfile writes p to w as JSON or text.
func WriteProfile(w io.Writer, format Format, p models.Profile) error {
	data := ProfileToText(p)
	if format == FormatJSON {
		var err error
		if data, err = shared.MarshalJSON(p, true); err != nil {
			return err
		}
		data = append(data, '\n')
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}
