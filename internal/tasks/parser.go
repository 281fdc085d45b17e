package tasks

import (
	"fmt"
	"io"
	"strings"
)

// ParseItems turns raw multi-line text into the ordered list of non-empty, trimmed items.
//
// Lines may end in \n, \r\n or \r. The result may be empty; it is never nil-vs-empty sensitive.
func ParseItems(raw string) []string {
	lines := strings.FieldsFunc(raw, func(r rune) bool { return r == '\n' || r == '\r' })

	items := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			items = append(items, line)
		}
	}
	return items
}

// ParseItemsFrom reads r to the end and parses it with [ParseItems].
func ParseItemsFrom(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}
	return ParseItems(string(data)), nil
}

// SplitTitleArtist splits an item written as "Name - Artist" on the first " - ".
//
// Items without a separator return the whole item as name and an empty artist.
func SplitTitleArtist(item string) (name, artist string) {
	name, artist, found := strings.Cut(item, " - ")
	if !found {
		return strings.TrimSpace(item), ""
	}
	return strings.TrimSpace(name), strings.TrimSpace(artist)
}
