package render

import (
	"fmt"
	"io"

	"github.com/equitylens/equitylens/internal/research"
)

// Overlay is the citation inspection panel: the declarative analog of
// the original popup. It holds the active citation index, or none, and
// is rendered from that state alone. At most one citation is active;
// opening another replaces it.
type Overlay struct {
	activeIndex int
	citation    string
	detail      research.CitationDetail
}

// NewOverlay creates a dismissed overlay.
func NewOverlay() *Overlay {
	return &Overlay{activeIndex: -1}
}

// Open resolves marker n (1-based) against citations and looks up its
// detail entry by exact URL equality. Without a matching detail entry
// nothing opens and the current state is kept. On success any existing
// overlay is replaced.
func (o *Overlay) Open(citations []string, details []research.CitationDetail, marker int) bool {
	url, ok := ResolveMarker(citations, marker)
	if !ok {
		return false
	}

	for _, d := range details {
		if d.Citation == url {
			o.activeIndex = marker - 1
			o.citation = url
			o.detail = d
			return true
		}
	}
	return false
}

// Active reports whether a citation is being inspected.
func (o *Overlay) Active() bool {
	return o.activeIndex >= 0
}

// ActiveIndex returns the active citation list index, -1 when none.
func (o *Overlay) ActiveIndex() int {
	return o.activeIndex
}

// Detail returns the active citation detail.
func (o *Overlay) Detail() research.CitationDetail {
	return o.detail
}

// Dismiss clears the overlay.
func (o *Overlay) Dismiss() {
	o.activeIndex = -1
	o.citation = ""
	o.detail = research.CitationDetail{}
}

// Render writes the overlay when active; a dismissed overlay renders
// nothing.
func (o *Overlay) Render(w io.Writer) {
	if !o.Active() {
		return
	}

	title := o.detail.Title
	if title == "" {
		title = "Citation Source"
	}
	description := o.detail.Description
	if description == "" {
		description = "No description available"
	}

	fmt.Fprintf(w, "┌─ %s\n", title)
	fmt.Fprintf(w, "│  %s\n", description)
	fmt.Fprintf(w, "└─ %s\n", o.citation)
}
