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
	"github.com/equitylens/equitylens/internal/docqa"
	"github.com/equitylens/equitylens/internal/render"
)

func newPDFCmd(a *app) *cobra.Command {
	var question string

	cmd := &cobra.Command{
		Use:   "pdf [file...]",
		Short: "Ask questions about PDF documents",
		Long: `Upload PDF documents and ask a question about their contents.

Up to 5 PDF files of at most 10MB each can be analyzed per query. With
--question the command runs once and exits; otherwise it opens an
interactive prompt:

  add FILE...   stage more documents
  rm N          remove staged document N
  list          show staged documents
  ask QUESTION  run the query`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAuth(cmd); err != nil {
				return err
			}
			return runPDF(cmd, a, args, question)
		},
	}

	cmd.Flags().StringVarP(&question, "question", "q", "", "run a single query and exit")
	return cmd
}

func runPDF(cmd *cobra.Command, a *app, paths []string, question string) error {
	flow := docqa.NewFlow(a.research, docqa.WithLogger(a.logger.Named("pdf")))
	out := os.Stdout

	if len(paths) > 0 && !flow.Stage(paths...) {
		if question != "" {
			return errors.New(flow.Err())
		}
		fmt.Fprintln(out, flow.Err())
	}

	if question != "" {
		if !flow.Submit(cmd.Context(), question) {
			return errors.New(flow.Err())
		}
		printAnswer(out, flow.Answer())
		return nil
	}

	line := liner.NewLiner()
	defer func() { _ = line.Close() }()
	line.SetCtrlCAborts(true)

	printStaged(out, flow)
	for {
		input, err := line.Prompt("pdf> ")
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

		verb, rest, _ := strings.Cut(input, " ")
		rest = strings.TrimSpace(rest)

		switch verb {
		case "add":
			if rest == "" {
				fmt.Fprintln(out, "Usage: add FILE...")
				continue
			}
			if !flow.Stage(strings.Fields(rest)...) {
				fmt.Fprintln(out, flow.Err())
				continue
			}
			printStaged(out, flow)

		case "rm":
			n, err := strconv.Atoi(rest)
			if err != nil || n < 1 || n > len(flow.Files()) {
				fmt.Fprintln(out, "Usage: rm N")
				continue
			}
			flow.Remove(n - 1)
			printStaged(out, flow)

		case "list":
			printStaged(out, flow)

		case "ask":
			if !flow.Submit(cmd.Context(), rest) {
				fmt.Fprintln(out, flow.Err())
				continue
			}
			printAnswer(out, flow.Answer())

		default:
			fmt.Fprintln(out, "Commands: add FILE..., rm N, list, ask QUESTION, quit")
		}
	}
}

func printStaged(out io.Writer, flow *docqa.Flow) {
	files := flow.Files()
	if len(files) == 0 {
		fmt.Fprintln(out, "No documents staged. Use 'add FILE...' to stage PDFs.")
		return
	}
	fmt.Fprintf(out, "Staged documents (%d/%d):\n", len(files), docqa.MaxFiles)
	for i, f := range files {
		fmt.Fprintf(out, "  %d. %s (%.1f MB)\n", i+1, f.Name, float64(f.Size)/(1<<20))
	}
}

func printAnswer(out io.Writer, answer string) {
	render.New(out).Turn(conversation.AssistantTurn{
		Content:       answer,
		EquityRelated: true,
	}, nil)
}
