package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/ssargent/reelshelf/pkg/stats"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search movies by title",
	Long: `Search movies whose title contains the query, ignoring case. When nothing
matches, titles within a small edit distance are suggested instead.

Examples:
  reelshelf search god
  reelshelf search "shawshank"`,
	Args: cobra.ExactArgs(1),
	RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app) error {
		limit, _ := cmd.Flags().GetInt("suggestions")
		query := strings.TrimSpace(args[0])
		p := newPrinter(cmd)

		c, err := a.store.List(cmd.Context())
		if err != nil {
			p.Printf("Error reading catalog: %v\n", err)
			return nil
		}

		if matches := stats.Search(c, query); len(matches) > 0 {
			for _, m := range matches {
				p.Movie(m)
			}
			return nil
		}

		p.Printf("No movies match '%s'\n", query)
		if suggestions := stats.Suggest(c, query, limit); len(suggestions) > 0 {
			p.Println("Did you mean:")
			for _, m := range suggestions {
				p.Printf("  ")
				p.Movie(m)
			}
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().Int("suggestions", 5, "Maximum number of close titles to suggest")
}
