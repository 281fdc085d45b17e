package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/setlist/internal/shared"
)

// BatchKind selects which remote operation a batch's items are sent to.
type BatchKind string

const (
	KindSong   BatchKind = "song"
	KindArtist BatchKind = "artist"
	KindAlbum  BatchKind = "album"
)

// Kinds lists every supported kind in display order.
var Kinds = []BatchKind{KindSong, KindArtist, KindAlbum}

// ParseKind accepts a kind name, case-insensitively, in singular or plural form.
func ParseKind(s string) (BatchKind, error) {
	k := BatchKind(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s"))
	if !k.Valid() {
		return "", fmt.Errorf("%w: unknown batch kind %q", shared.ErrValidation, s)
	}
	return k, nil
}

// Valid reports whether k is one of the supported kinds.
func (k BatchKind) Valid() bool {
	switch k {
	case KindSong, KindArtist, KindAlbum:
		return true
	}
	return false
}

// Unit is the noun for what one successful item adds to the playlist.
func (k BatchKind) Unit() string {
	if k == KindAlbum {
		return "track"
	}
	return "song"
}

func (k BatchKind) String() string { return string(k) }

// ArtistMode controls how many of an artist's songs are added.
type ArtistMode string

const (
	ModeAll   ArtistMode = "all"   // every track on the artist's albums and singles
	ModeTopN  ArtistMode = "topn"  // the artist's N most popular tracks
	ModeTop10 ArtistMode = "top10" // the catalog's own top tracks list
)

// ParseArtistMode validates a mode string. An empty string yields [ModeTop10].
func ParseArtistMode(s string) (ArtistMode, error) {
	switch m := ArtistMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeTop10, nil
	case ModeAll, ModeTopN, ModeTop10:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown artist mode %q", shared.ErrValidation, s)
	}
}

// Options carries the kind-specific settings of a batch.
type Options struct {
	Mode       ArtistMode `json:"mode,omitempty"`     // artist only
	CustomN    int        `json:"custom_n,omitempty"` // artist only, required with ModeTopN
	AutoSelect bool       `json:"auto_select"`        // artist and album
}

// BatchJob is one user submission: a kind, a destination playlist and the ordered items to add.
type BatchJob struct {
	Kind     BatchKind `json:"kind"`
	TargetID string    `json:"target_id"`
	Items    []string  `json:"items"`
	Options  Options   `json:"options"`
}

// NewJob builds a job from raw multi-line text.
func NewJob(kind BatchKind, targetID, raw string, opts Options) BatchJob {
	return BatchJob{Kind: kind, TargetID: strings.TrimSpace(targetID), Items: ParseItems(raw), Options: opts}
}

// Validate checks the preconditions that must hold before any remote call is made.
//
// All failures wrap [shared.ErrValidation].
func (j BatchJob) Validate() error {
	if !j.Kind.Valid() {
		return fmt.Errorf("%w: unknown batch kind %q", shared.ErrValidation, j.Kind)
	}
	if strings.TrimSpace(j.TargetID) == "" {
		return fmt.Errorf("%w: no target playlist selected", shared.ErrValidation)
	}
	if len(j.Items) == 0 {
		return fmt.Errorf("%w: no items to add", shared.ErrValidation)
	}
	for i, item := range j.Items {
		switch trimmed := strings.TrimSpace(item); {
		case trimmed == "":
			return fmt.Errorf("%w: item %d is blank", shared.ErrValidation, i)
		case trimmed != item:
			return fmt.Errorf("%w: item %d has surrounding whitespace", shared.ErrValidation, i)
		}
	}

	if j.Kind != KindArtist {
		return nil
	}
	if _, err := ParseArtistMode(string(j.Options.Mode)); err != nil {
		return err
	}
	if j.Options.Mode == ModeTopN && j.Options.CustomN <= 0 {
		return fmt.Errorf("%w: topn mode needs a positive custom N", shared.ErrValidation)
	}
	return nil
}
