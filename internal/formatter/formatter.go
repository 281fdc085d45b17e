// package formatter renders batch summaries and run history in various formats (plain text, Markdown, JSON, CSV)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
	"github.com/desertthunder/setlist/internal/tasks"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatMarkdown, FormatJSON, FormatCSV}

// ParseFormat accepts a format name or common alias ("md", "txt"). Empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Headline is the one-line result shown above the per-item log.
func Headline(s *tasks.BatchSummary) string {
	var line string
	switch s.Kind {
	case tasks.KindSong:
		line = fmt.Sprintf("Successfully added %d out of %d %s", s.AddedTotal, s.TotalItems, shared.Pluralize(s.TotalItems, "song"))
	default:
		unit := shared.Pluralize(s.AddedTotal, s.Kind.Unit())
		line = fmt.Sprintf("Successfully added %d total %s from %d %s", s.AddedTotal, unit, s.TotalItems, shared.Pluralize(s.TotalItems, s.Kind.String()))
	}
	if s.Cancelled {
		line += " (cancelled)"
	}
	return line
}

// SummaryToText renders the headline followed by the log, one line per item.
func SummaryToText(s *tasks.BatchSummary) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(Headline(s) + "\n")
	if len(s.Log) > 0 {
		buf.WriteString("\n")
	}
	for _, line := range s.Log {
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// SummaryToMarkdown renders a report with a counts table and the log as a list.
func SummaryToMarkdown(s *tasks.BatchSummary) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s batch\n\n", titleCase(s.Kind.String()))
	fmt.Fprintf(&buf, "%s\n\n", Headline(s))

	buf.WriteString("| Playlist | Items | Succeeded | Failed | Added | Status |\n")
	buf.WriteString("|---|---|---|---|---|---|\n")
	fmt.Fprintf(&buf, "| %s | %d | %d | %d | %d | %s |\n\n",
		s.TargetID, s.TotalItems, s.SucceededItems, s.FailedItems(), s.AddedTotal, s.Status())

	if len(s.Log) > 0 {
		buf.WriteString("## Log\n\n")
		for _, line := range s.Log {
			fmt.Fprintf(&buf, "- %s\n", line)
		}
	}

	return buf.Bytes(), nil
}

// SummaryToJSON renders the summary with its derived status.
func SummaryToJSON(s *tasks.BatchSummary) ([]byte, error) {
	payload := struct {
		*tasks.BatchSummary
		Status   tasks.Status `json:"status"`
		Headline string       `json:"headline"`
	}{s, s.Status(), Headline(s)}

	return shared.MarshalJSON(payload, true)
}

// SummaryToCSV converts the per-item outcomes to CSV with columns: Position, Item, Succeeded, Added, Error
func SummaryToCSV(s *tasks.BatchSummary) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Item", "Succeeded", "Added", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, o := range s.Outcomes {
		record := []string{
			strconv.Itoa(i + 1),
			o.Item,
			strconv.FormatBool(o.Succeeded),
			strconv.Itoa(o.AddedCount),
			o.ErrorMessage,
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

// Render writes s to w in format f.
func Render(w io.Writer, s *tasks.BatchSummary, f Format) error {
	var (
		data []byte
		err  error
	)

	switch f {
	case FormatText, "":
		data, err = SummaryToText(s)
	case FormatMarkdown:
		data, err = SummaryToMarkdown(s)
	case FormatJSON:
		data, err = SummaryToJSON(s)
		data = append(data, '\n')
	case FormatCSV:
		data, err = SummaryToCSV(s)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

// WriteSummary renders s into the file at path, choosing the format from its extension when f is empty.
func WriteSummary(s *tasks.BatchSummary, path string, f Format) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_%s_%s%s", s.Kind, s.TargetID, s.CompletedAt.Format("20060102-150405"), extension(f))
	}
	if f == "" {
		f = formatFromPath(path)
	}

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := Render(file, s, f); err != nil {
		return "", err
	}
	return path, nil
}

// RunsToText renders the history list, one run per line.
func RunsToText(runs []*models.Run) []byte {
	var buf bytes.Buffer
	if len(runs) == 0 {
		buf.WriteString("No runs recorded.\n")
		return buf.Bytes()
	}

	for _, r := range runs {
		status := fmt.Sprintf("%d/%d", r.SucceededItems(), r.TotalItems())
		if r.Cancelled() {
			status += " cancelled"
		}
		fmt.Fprintf(&buf, "#%-4d %s  %-6s → %s  %s, %d added (%s)\n",
			r.Sequence(),
			r.CompletedAt().Local().Format(time.DateTime),
			r.Kind(),
			r.TargetID(),
			status,
			r.AddedTotal(),
			r.Duration().Round(time.Millisecond),
		)
	}
	return buf.Bytes()
}

// PlaylistsToText renders playlists as "ID  Name" lines.
func PlaylistsToText(playlists []models.Playlist) []byte {
	var buf bytes.Buffer
	if len(playlists) == 0 {
		buf.WriteString("No playlists found.\n")
		return buf.Bytes()
	}

	width := 0
	for _, p := range playlists {
		width = max(width, len(p.ID))
	}
	for _, p := range playlists {
		fmt.Fprintf(&buf, "%-*s  %s\n", width, p.ID, p.Name)
	}
	return buf.Bytes()
}

func extension(f Format) string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	case FormatCSV:
		return ".csv"
	default:
		return ".txt"
	}
}

func formatFromPath(path string) Format {
	switch {
	case strings.HasSuffix(path, ".md"):
		return FormatMarkdown
	case strings.HasSuffix(path, ".json"):
		return FormatJSON
	case strings.HasSuffix(path, ".csv"):
		return FormatCSV
	default:
		return FormatText
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
