// Package render draws conversation transcripts and citation details
// as terminal output. Dispatch over turn variants is exhaustive; an
// unknown variant is a programming error.
package render

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/equitylens/equitylens/internal/conversation"
)

// citationMarker matches inline [n] citation references (1-based).
var citationMarker = regexp.MustCompile(`\[(\d+)\]`)

// Renderer writes transcript turns to a terminal.
type Renderer struct {
	out    io.Writer
	styles *palette
}

// New creates a renderer writing to out.
func New(out io.Writer) *Renderer {
	return &Renderer{out: out, styles: defaultPalette()}
}

// Transcript renders every turn in order. selected is the current
// suggestion selection, applied to the suggestions turn.
func (r *Renderer) Transcript(turns []conversation.Turn, selected []int) {
	for _, t := range turns {
		r.Turn(t, selected)
	}
}

// Turn renders a single turn.
func (r *Renderer) Turn(t conversation.Turn, selected []int) {
	switch turn := t.(type) {
	case conversation.UserTurn:
		fmt.Fprintf(r.out, "%s %s\n\n", r.styles.user.Sprint("you>"), turn.Content)

	case conversation.LoadingTurn:
		fmt.Fprintf(r.out, "%s\n\n", r.styles.loading.Sprint("thinking..."))

	case conversation.ErrorTurn:
		fmt.Fprintf(r.out, "%s %s\n\n", r.styles.errText.Sprint("error:"), turn.Content)

	case conversation.SuggestionsTurn:
		r.suggestions(turn, selected)

	case conversation.AssistantTurn:
		r.assistant(turn)

	default:
		panic(fmt.Sprintf("unhandled turn type %T", t))
	}
}

func (r *Renderer) suggestions(turn conversation.SuggestionsTurn, selected []int) {
	fmt.Fprintf(r.out, "%s\n", r.styles.heading.Sprint("Suggested Research Directions"))
	fmt.Fprintf(r.out, "%s\n", r.styles.dim.Sprint("Select one or more suggestions to explore:"))

	picked := make(map[int]bool, len(selected))
	for _, i := range selected {
		picked[i] = true
	}

	for i, s := range turn.Suggestions {
		mark := r.styles.unselected.Sprintf("[%d]", i+1)
		if picked[i] {
			mark = r.styles.selected.Sprintf("[%d]", i+1)
		}
		fmt.Fprintf(r.out, "  %s %s\n", mark, s)
	}
	fmt.Fprintln(r.out)
}

func (r *Renderer) assistant(turn conversation.AssistantTurn) {
	content := markdownText(turn.Content, r.styles)
	content = r.highlightMarkers(content, turn.Citations)
	fmt.Fprintf(r.out, "%s\n", content)

	if !turn.EquityRelated && len(turn.Citations) == 0 {
		fmt.Fprintf(r.out, "%s\n", r.styles.dim.Sprint("(general answer, no research thread)"))
	}

	if len(turn.Citations) > 0 {
		fmt.Fprintf(r.out, "\n%s\n", r.styles.dim.Sprint("Sources"))
		for i, c := range turn.Citations {
			fmt.Fprintf(r.out, "  %s %s\n", r.styles.dim.Sprintf("%d.", i+1), c)
		}
	}
	fmt.Fprintln(r.out)
}

// highlightMarkers styles every [n] marker that resolves to a citation;
// markers without a matching citation are left as literal text.
func (r *Renderer) highlightMarkers(content string, citations []string) string {
	return citationMarker.ReplaceAllStringFunc(content, func(match string) string {
		n, err := strconv.Atoi(strings.Trim(match, "[]"))
		if err != nil {
			return match
		}
		if _, ok := ResolveMarker(citations, n); !ok {
			return match
		}
		return r.styles.citation.Sprint(match)
	})
}

// ResolveMarker maps a 1-based [n] marker to its citation URL:
// marker n refers to citation list index n-1.
func ResolveMarker(citations []string, n int) (string, bool) {
	if n < 1 || n > len(citations) {
		return "", false
	}
	return citations[n-1], true
}

// Markers lists the distinct marker numbers present in content, in
// order of first appearance.
func Markers(content string) []int {
	var out []int
	seen := make(map[int]bool)
	for _, m := range citationMarker.FindAllStringSubmatch(content, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
