package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/equitylens/equitylens/internal/conversation"
	"github.com/equitylens/equitylens/internal/research"
)

func init() {
	// Assert on plain text, not ANSI sequences.
	color.NoColor = true
}

func TestResolveMarker(t *testing.T) {
	citations := []string{"http://x/1", "http://x/2", "http://x/3"}

	tests := []struct {
		name   string
		marker int
		want   string
		wantOK bool
	}{
		{name: "marker 3 resolves to index 2", marker: 3, want: "http://x/3", wantOK: true},
		{name: "marker 1 resolves to index 0", marker: 1, want: "http://x/1", wantOK: true},
		{name: "marker 0 invalid", marker: 0},
		{name: "marker past end", marker: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveMarker(citations, tt.marker)
			if ok != tt.wantOK {
				t.Fatalf("ResolveMarker() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ResolveMarker() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMarkers(t *testing.T) {
	got := Markers("Growth [1] is solid [2], see [1] again and [12].")
	want := []int{1, 2, 12}
	if len(got) != len(want) {
		t.Fatalf("Markers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Markers()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestTurnDispatchCoversAllVariants(t *testing.T) {
	turns := []conversation.Turn{
		conversation.UserTurn{Content: "question"},
		conversation.LoadingTurn{},
		conversation.ErrorTurn{Content: "boom"},
		conversation.SuggestionsTurn{Suggestions: []string{"A", "B"}, ThreadID: "t1"},
		conversation.AssistantTurn{Content: "answer", Citations: []string{"http://x/1"}},
	}

	var buf bytes.Buffer
	r := New(&buf)

	// Must not panic for any member of the closed set.
	r.Transcript(turns, []int{1})

	out := buf.String()
	for _, want := range []string{"question", "thinking", "boom", "Suggested Research Directions", "answer", "http://x/1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSuggestionsSelectionMarks(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	r.Turn(conversation.SuggestionsTurn{Suggestions: []string{"A", "B", "C"}}, []int{2, 0})

	out := buf.String()
	for _, want := range []string{"[1] A", "[2] B", "[3] C"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAssistantSourcesListed(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)

	r.Turn(conversation.AssistantTurn{
		Content:       "Answer [1] and [2]",
		Citations:     []string{"http://x/1", "http://x/2"},
		EquityRelated: true,
	}, nil)

	out := buf.String()
	if !strings.Contains(out, "Sources") {
		t.Errorf("output missing sources section:\n%s", out)
	}
	if !strings.Contains(out, "1. http://x/1") || !strings.Contains(out, "2. http://x/2") {
		t.Errorf("output missing numbered citations:\n%s", out)
	}
}

func TestMarkdownHeadingAndList(t *testing.T) {
	out := markdownText("# Outlook\n\nSome *text* here.\n\n- first\n- second\n", defaultPalette())

	for _, want := range []string{"Outlook", "Some text here.", "- first", "- second"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdownCodeBlock(t *testing.T) {
	out := markdownText("```\nEPS = 4.3\n```\n", defaultPalette())
	if !strings.Contains(out, "    EPS = 4.3") {
		t.Errorf("code block not indented:\n%s", out)
	}
}

func TestOverlayOpensOnlyWithMatchingDetail(t *testing.T) {
	citations := []string{"http://x/1", "http://x/2"}
	details := []research.CitationDetail{
		{Citation: "http://x/1", Title: "One", Description: "first"},
	}

	o := NewOverlay()

	if !o.Open(citations, details, 1) {
		t.Fatal("Open(1) should succeed: detail exists for http://x/1")
	}
	if o.ActiveIndex() != 0 {
		t.Errorf("ActiveIndex() = %d, want 0", o.ActiveIndex())
	}
	if o.Detail().Title != "One" {
		t.Errorf("Detail().Title = %q", o.Detail().Title)
	}

	// No detail entry for citation 2: nothing opens, prior state kept.
	if o.Open(citations, details, 2) {
		t.Error("Open(2) should fail: no detail with matching URL")
	}
	if o.ActiveIndex() != 0 {
		t.Errorf("failed open must keep existing overlay, ActiveIndex() = %d", o.ActiveIndex())
	}

	// Out-of-range marker.
	if o.Open(citations, details, 5) {
		t.Error("Open(5) should fail: marker out of range")
	}
}

func TestOverlayReplacedNotStacked(t *testing.T) {
	citations := []string{"http://x/1", "http://x/2"}
	details := []research.CitationDetail{
		{Citation: "http://x/1", Title: "One"},
		{Citation: "http://x/2", Title: "Two"},
	}

	o := NewOverlay()
	if !o.Open(citations, details, 1) {
		t.Fatal("Open(1) failed")
	}
	if !o.Open(citations, details, 2) {
		t.Fatal("Open(2) failed")
	}

	if o.ActiveIndex() != 1 {
		t.Errorf("ActiveIndex() = %d, want 1 (replaced)", o.ActiveIndex())
	}
	if o.Detail().Title != "Two" {
		t.Errorf("Detail().Title = %q, want Two", o.Detail().Title)
	}
}

func TestOverlayDismiss(t *testing.T) {
	citations := []string{"http://x/1"}
	details := []research.CitationDetail{{Citation: "http://x/1", Title: "One"}}

	o := NewOverlay()
	if !o.Open(citations, details, 1) {
		t.Fatal("Open failed")
	}

	o.Dismiss()

	if o.Active() {
		t.Error("overlay must be inactive after Dismiss")
	}

	var buf bytes.Buffer
	o.Render(&buf)
	if buf.Len() != 0 {
		t.Errorf("dismissed overlay rendered output: %q", buf.String())
	}
}

func TestOverlayRenderFallbacks(t *testing.T) {
	citations := []string{"http://x/1"}
	details := []research.CitationDetail{{Citation: "http://x/1"}}

	o := NewOverlay()
	if !o.Open(citations, details, 1) {
		t.Fatal("Open failed")
	}

	var buf bytes.Buffer
	o.Render(&buf)

	out := buf.String()
	if !strings.Contains(out, "Citation Source") {
		t.Errorf("missing title fallback:\n%s", out)
	}
	if !strings.Contains(out, "No description available") {
		t.Errorf("missing description fallback:\n%s", out)
	}
	if !strings.Contains(out, "http://x/1") {
		t.Errorf("missing citation link:\n%s", out)
	}
}
