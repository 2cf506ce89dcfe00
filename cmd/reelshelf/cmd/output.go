package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/ssargent/reelshelf/pkg/codec"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// styles are bound to the writer they render for, so plain text is produced
// whenever that writer is not a terminal
type styles struct {
	title lipgloss.Style
	dim   lipgloss.Style
	warn  lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		title: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f")),
		dim:   r.NewStyle().Foreground(lipgloss.Color("#6e7681")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("#ffaf00")),
	}
}

// printer writes user-facing output for one command
type printer struct {
	w io.Writer
	s styles
}

func newPrinter(cmd *cobra.Command) *printer {
	w := cmd.OutOrStdout()
	return &printer{w: w, s: newStyles(w)}
}

func (p *printer) Printf(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *printer) Println(args ...interface{}) {
	fmt.Fprintln(p.w, args...)
}

func (p *printer) Warnf(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.s.warn.Render(fmt.Sprintf(format, args...)))
}

// Movie prints "Title (Year): Rating" with the title highlighted
func (p *printer) Movie(m codec.Movie) {
	fmt.Fprintf(p.w, "%s %s: %s\n", p.s.title.Render(m.Title), p.s.dim.Render(fmt.Sprintf("(%d)", m.Year)), formatRating(m.Rating))
}

// Movies prints the count line followed by one line per movie
func (p *printer) Movies(movies []codec.Movie) {
	p.Printf("%d movie(s) in total\n", len(movies))
	for _, m := range movies {
		p.Movie(m)
	}
}

// Render writes movies in the requested format
func (p *printer) Render(movies []codec.Movie, format string) error {
	switch format {
	case formatTable, "":
		p.Movies(movies)
		return nil
	case formatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(movies)
	case formatYAML:
		data, err := yaml.Marshal(movies)
		if err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		_, err = p.w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func formatRating(r float64) string {
	return strconv.FormatFloat(r, 'f', 1, 64)
}
