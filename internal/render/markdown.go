package render

import (
	"strings"

	"github.com/fatih/color"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// markdownText converts assistant markdown into styled terminal text by
// walking the goldmark AST. Unknown constructs degrade to their plain
// text content.
func markdownText(source string, styles *palette) string {
	src := []byte(source)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var b strings.Builder
	w := &mdWalker{out: &b, source: src, styles: styles}
	_ = ast.Walk(doc, w.walk)

	return strings.TrimRight(b.String(), "\n")
}

type mdWalker struct {
	out       *strings.Builder
	source    []byte
	styles    *palette
	listDepth int
}

func (w *mdWalker) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			w.out.WriteString(w.styles.heading.Sprint(nodeText(node, w.source)))
			w.out.WriteString("\n\n")
		}
		return ast.WalkSkipChildren, nil

	case *ast.Paragraph:
		if !entering {
			if w.listDepth == 0 {
				w.out.WriteString("\n\n")
			} else {
				w.out.WriteString("\n")
			}
		}

	case *ast.Text:
		if entering {
			w.out.Write(node.Segment.Value(w.source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				w.out.WriteString("\n")
			}
		}

	case *ast.Emphasis:
		if entering {
			style := w.styles.emphasis
			if node.Level >= 2 {
				style = w.styles.strong
			}
			w.out.WriteString(style.Sprint(nodeText(node, w.source)))
		}
		return ast.WalkSkipChildren, nil

	case *ast.CodeSpan:
		if entering {
			w.out.WriteString(w.styles.code.Sprint(nodeText(node, w.source)))
		}
		return ast.WalkSkipChildren, nil

	case *ast.Link:
		if entering {
			w.out.WriteString(nodeText(node, w.source))
			w.out.WriteString(w.styles.dim.Sprintf(" (%s)", node.Destination))
		}
		return ast.WalkSkipChildren, nil

	case *ast.AutoLink:
		if entering {
			w.out.WriteString(string(node.URL(w.source)))
		}
		return ast.WalkSkipChildren, nil

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				w.out.WriteString("    ")
				w.out.WriteString(w.styles.code.Sprint(strings.TrimRight(string(seg.Value(w.source)), "\n")))
				w.out.WriteString("\n")
			}
			w.out.WriteString("\n")
		}
		return ast.WalkSkipChildren, nil

	case *ast.List:
		if entering {
			w.listDepth++
		} else {
			w.listDepth--
			if w.listDepth == 0 {
				w.out.WriteString("\n")
			}
		}

	case *ast.ListItem:
		if entering {
			w.out.WriteString(strings.Repeat("  ", w.listDepth))
			w.out.WriteString("- ")
		}

	case *ast.ThematicBreak:
		if entering {
			w.out.WriteString(w.styles.dim.Sprint("----"))
			w.out.WriteString("\n\n")
		}

	case *ast.Blockquote:
		if entering {
			w.out.WriteString(w.styles.dim.Sprint("> "))
		}
	}

	return ast.WalkContinue, nil
}

// nodeText collects the raw text under a node.
func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := child.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() {
				b.WriteString(" ")
			}
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// palette groups the terminal styles used by the renderer.
type palette struct {
	user       *color.Color
	errText    *color.Color
	loading    *color.Color
	heading    *color.Color
	emphasis   *color.Color
	strong     *color.Color
	code       *color.Color
	dim        *color.Color
	citation   *color.Color
	selected   *color.Color
	unselected *color.Color
}

func defaultPalette() *palette {
	return &palette{
		user:       color.New(color.FgCyan),
		errText:    color.New(color.FgRed),
		loading:    color.New(color.Faint),
		heading:    color.New(color.Bold, color.Underline),
		emphasis:   color.New(color.Italic),
		strong:     color.New(color.Bold),
		code:       color.New(color.FgYellow),
		dim:        color.New(color.Faint),
		citation:   color.New(color.FgBlue, color.Bold),
		selected:   color.New(color.FgGreen, color.Bold),
		unselected: color.New(color.Faint),
	}
}
