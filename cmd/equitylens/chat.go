package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/equitylens/equitylens/internal/conversation"
	"github.com/equitylens/equitylens/internal/render"
)

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive research conversation",
		Long: `Start an interactive research conversation.

Ask any equity research question. Equity-related queries go through a
suggestion step: pick the research directions to explore, then submit
them for a cited answer. Inside the suggestion step the prompt accepts:

  1, 2, ...   toggle a suggestion
  go          submit the selected suggestions
  cite N      inspect citation [N]
  list        show the suggestions again`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(cmd); err != nil {
				return err
			}
			return runChat(cmd, a)
		},
	}
}

// chatUI owns the terminal side of the conversation: the flow state
// machine, the renderer and the citation overlay.
type chatUI struct {
	flow     *conversation.Flow
	renderer *render.Renderer
	overlay  *render.Overlay
	out      io.Writer

	// rendered counts durable turns already printed, so each update
	// only draws the new ones. Transient loading turns are not counted:
	// they vanish from the transcript when the request resolves.
	rendered int
}

func runChat(cmd *cobra.Command, a *app) error {
	ui := &chatUI{
		renderer: render.New(os.Stdout),
		overlay:  render.NewOverlay(),
		out:      os.Stdout,
	}
	ui.flow = conversation.NewFlow(a.research,
		conversation.WithLogger(a.logger.Named("chat")),
		conversation.WithUpdateFunc(ui.redraw),
	)

	line := liner.NewLiner()
	defer func() { _ = line.Close() }()
	line.SetCtrlCAborts(true)

	fmt.Fprintln(ui.out, "Equity Research Assistant")
	fmt.Fprintln(ui.out, "Ask any equity research question. Type 'quit' to leave.")
	fmt.Fprintln(ui.out)

	for {
		input, err := line.Prompt(ui.prompt())
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "quit" || input == "exit" {
			return nil
		}
		line.AppendHistory(input)

		if ui.flow.Stage() == conversation.StageSuggestions {
			ui.handleSelectionInput(cmd, input)
			continue
		}
		ui.handleQueryInput(cmd, input)
	}
}

func (ui *chatUI) prompt() string {
	if ui.flow.Stage() == conversation.StageSuggestions {
		return "select> "
	}
	return "you> "
}

// redraw prints durable turns appended since the last update.
func (ui *chatUI) redraw() {
	seen := 0
	for _, t := range ui.flow.Turns() {
		// The transient loading turn is represented by the prompt
		// being busy; printing it would leave stale lines behind.
		if _, ok := t.(conversation.LoadingTurn); ok {
			continue
		}
		seen++
		if seen > ui.rendered {
			ui.renderer.Turn(t, ui.flow.Selected())
		}
	}
	ui.rendered = seen
}

func (ui *chatUI) handleQueryInput(cmd *cobra.Command, input string) {
	if n, ok := parseCite(input); ok {
		ui.openCitation(n)
		return
	}

	err := ui.flow.SubmitQuery(cmd.Context(), input)
	switch {
	case errors.Is(err, conversation.ErrAwaitingSelection):
		fmt.Fprintln(ui.out, "Finish selecting suggestions first (or 'go' to submit).")
	case errors.Is(err, conversation.ErrBusy):
		fmt.Fprintln(ui.out, "Still working on the previous request.")
	}
}

func (ui *chatUI) handleSelectionInput(cmd *cobra.Command, input string) {
	switch {
	case input == "go":
		err := ui.flow.SubmitSelections(cmd.Context())
		if errors.Is(err, conversation.ErrNoSelection) {
			fmt.Fprintln(ui.out, "Select at least one suggestion first.")
		}

	case input == "list":
		ui.printSuggestions()

	default:
		if n, ok := parseCite(input); ok {
			ui.openCitation(n)
			return
		}
		if n, err := strconv.Atoi(input); err == nil {
			if err := ui.flow.ToggleSuggestion(n - 1); err != nil {
				fmt.Fprintf(ui.out, "No suggestion %d.\n", n)
				return
			}
			ui.printSuggestions()
			return
		}
		fmt.Fprintln(ui.out, "Enter a suggestion number, 'go', 'cite N' or 'list'.")
	}
}

func (ui *chatUI) printSuggestions() {
	ui.renderer.Turn(conversation.SuggestionsTurn{
		Suggestions: ui.flow.Suggestions(),
		Citations:   ui.flow.Citations(),
	}, ui.flow.Selected())
}

// openCitation shows the detail panel for marker n, replacing any
// panel already open.
func (ui *chatUI) openCitation(n int) {
	if !ui.overlay.Open(ui.flow.Citations(), ui.flow.CitationDetails(), n) {
		fmt.Fprintf(ui.out, "No details for citation [%d].\n", n)
		return
	}
	ui.overlay.Render(ui.out)
	ui.overlay.Dismiss()
}

func parseCite(input string) (int, bool) {
	rest, ok := strings.CutPrefix(input, "cite ")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false
	}
	return n, true
}
