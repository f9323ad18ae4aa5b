package cmd

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
)

var style = flag.String("style", "auto", "Output style: auto, dark, light, notty, or raw for plain markdown")

// printMarkdown renders md in the terminal. The raw style prints md as is.
func printMarkdown(md string) {
	if *style == "raw" {
		fmt.Fprint(out, md)
		return
	}
	opt := glamour.WithAutoStyle()
	if *style != "auto" {
		opt = glamour.WithStandardStyle(*style)
	}
	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(120))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot render markdown: %v\n", err)
		fmt.Fprint(out, md)
		return
	}
	rendered, err := r.Render(md)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot render markdown: %v\n", err)
		fmt.Fprint(out, md)
		return
	}
	fmt.Fprint(out, rendered)
}

// table writes a markdown table. Columns whose header starts with '>' are right aligned.
func table(b *strings.Builder, header []string, rows [][]string) {
	align := make([]string, len(header))
	for i, h := range header {
		if strings.HasPrefix(h, ">") {
			header[i] = h[1:]
			align[i] = "---:"
		} else {
			align[i] = ":---"
		}
	}
	fmt.Fprintf(b, "| %s |\n", strings.Join(header, " | "))
	fmt.Fprintf(b, "|%s|\n", strings.Join(align, "|"))
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = strings.ReplaceAll(c, "|", `\|`)
		}
		fmt.Fprintf(b, "| %s |\n", strings.Join(cells, " | "))
	}
	b.WriteString("\n")
}
