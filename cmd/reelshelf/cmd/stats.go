package cmd

import (
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"github.com/ssargent/reelshelf/pkg/codec"
	"github.com/ssargent/reelshelf/pkg/stats"
)

// newRand is replaced in tests for a predictable pick
var newRand = func() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show rating statistics",
	Long: `Show the average and median rating of the catalog together with the
best and worst rated movies. Ties are all listed.`,
	Args: cobra.NoArgs,
	RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app) error {
		p := newPrinter(cmd)
		c, err := a.store.List(cmd.Context())
		if err != nil {
			p.Printf("Error reading catalog: %v\n", err)
			return nil
		}

		s := stats.Summarize(c)
		if s.Count == 0 {
			p.Println("No movies in the catalog")
			return nil
		}
		p.Printf("Average rating: %.2f\n", s.Average)
		p.Printf("Median rating: %.2f\n", s.Median)
		printRanked(p, "Best movie(s):", s.Best)
		printRanked(p, "Worst movie(s):", s.Worst)
		return nil
	}),
}

func printRanked(p *printer, heading string, movies []codec.Movie) {
	p.Println(heading)
	for _, m := range movies {
		p.Printf("  ")
		p.Movie(m)
	}
}

// randomCmd represents the random command
var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Pick a random movie",
	Args:  cobra.NoArgs,
	RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app) error {
		p := newPrinter(cmd)
		c, err := a.store.List(cmd.Context())
		if err != nil {
			p.Printf("Error reading catalog: %v\n", err)
			return nil
		}

		m, ok := stats.Random(c, newRand())
		if !ok {
			p.Println("No movies in the catalog")
			return nil
		}
		p.Printf("Your movie for tonight: %s (%d), rated %s\n", m.Title, m.Year, formatRating(m.Rating))
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(randomCmd)
}
