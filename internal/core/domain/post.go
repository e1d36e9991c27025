package domain

import (
	"strings"
	"time"
)

// Post is a generated social-media text artifact derived from one figure.
// It is ephemeral until committed by the persistence router.
type Post struct {
	// ID is a unique identifier assigned at draft time.
	ID string

	// DocumentID is the identity of the source document.
	DocumentID DocumentID

	// FigureIndex is the index of the figure the post was derived from.
	FigureIndex int

	// Tone is the stylistic variant the post was drafted with.
	Tone Tone

	// Text is the post body, cleaned (trimmed, em dashes replaced).
	Text string

	// CreatedAt is when the post was drafted.
	CreatedAt time.Time
}

// PostWindow is an ordered, most-recent-first view of previously
// persisted post texts, used only for similarity comparison. It is
// fetched fresh per figure: posts committed earlier in the same run
// change the comparison baseline for later figures.
type PostWindow struct {
	// Bodies are full post texts, most recent first.
	Bodies []string

	// Openings are the k-word prefixes of the same posts, used for the
	// looser opening pre-check and for prompt avoidance guidance.
	Openings []string
}

// NewPostWindow derives a window from persisted post bodies, computing
// the opening prefix of each with openingWords words.
func NewPostWindow(bodies []string, openingWords int) PostWindow {
	w := PostWindow{Bodies: bodies}
	w.Openings = make([]string, 0, len(bodies))
	for _, b := range bodies {
		w.Openings = append(w.Openings, Opening(b, openingWords))
	}
	return w
}

// Empty reports whether the window holds no posts.
func (w PostWindow) Empty() bool {
	return len(w.Bodies) == 0
}

// CleanPostText normalises a raw generated segment: trims surrounding
// whitespace and replaces em dashes with plain dashes.
func CleanPostText(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "—", "-")
}
