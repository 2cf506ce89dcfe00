package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ssargent/reelshelf/pkg/codec"
	"github.com/ssargent/reelshelf/pkg/query"
	"github.com/ssargent/reelshelf/pkg/stats"
	"github.com/ssargent/reelshelf/pkg/store"
)

// sortCmd represents the sort command
var sortCmd = &cobra.Command{
	Use:   "sort",
	Short: "List movies ordered by rating, year or title",
	Long: `List movies ordered by rating, year or title. Ratings and years are shown
highest first unless --asc is given; ties are ordered by title.

Examples:
  reelshelf sort
  reelshelf sort --by year --asc`,
	Args: cobra.NoArgs,
	RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app) error {
		by, _ := cmd.Flags().GetString("by")
		asc, _ := cmd.Flags().GetBool("asc")
		format, _ := cmd.Flags().GetString("output")
		p := newPrinter(cmd)

		c, err := a.store.List(cmd.Context())
		if err != nil {
			p.Printf("Error reading catalog: %v\n", err)
			return nil
		}
		desc := !asc && !strings.EqualFold(by, stats.ByTitle)
		movies, err := stats.SortBy(c, by, desc)
		if err != nil {
			return err
		}
		return p.Render(movies, format)
	}),
}

// filterCmd represents the filter command
var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "List movies matching rating and year bounds",
	Long: `List movies matching every given bound. Bounds are inclusive and any left
out is open. --where adds free-form conditions on title, year, rating or poster
using =, !=, <, <=, >, >= or ~ (substring).

Examples:
  reelshelf filter --min-rating 8
  reelshelf filter --start-year 1990 --end-year 1999
  reelshelf filter --where "title~the" --where "rating>=9"`,
	Args: cobra.NoArgs,
	RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app) error {
		flags := cmd.Flags()
		minRating, _ := flags.GetFloat64("min-rating")
		startYear, _ := flags.GetInt("start-year")
		endYear, _ := flags.GetInt("end-year")
		conditions, _ := flags.GetStringArray("where")
		format, _ := flags.GetString("output")

		if flags.Changed("min-rating") {
			if err := store.ValidateRating(minRating); err != nil {
				return err
			}
		}
		if startYear > 0 && endYear > 0 && startYear > endYear {
			return fmt.Errorf("start year %d is after end year %d", startYear, endYear)
		}

		extractor := &query.MovieFieldExtractor{}
		queries := stats.RangeQueries(minRating, startYear, endYear)
		for _, cond := range conditions {
			q, err := query.ParseFieldQuery(cond)
			if err == nil {
				_, err = extractor.Extract(codec.Movie{}, q.Field)
			}
			if err != nil {
				return err
			}
			queries = append(queries, q)
		}

		p := newPrinter(cmd)
		movies, err := query.NewSimpleQueryEngine(a.store).Filter(cmd.Context(), queries...)
		if err != nil {
			p.Printf("Error filtering catalog: %v\n", err)
			return nil
		}
		return p.Render(movies, format)
	}),
}

func init() {
	rootCmd.AddCommand(sortCmd)
	sortCmd.Flags().String("by", stats.ByRating, "Sort field: rating, year or title")
	sortCmd.Flags().Bool("asc", false, "Lowest first")
	sortCmd.Flags().StringP("output", "o", formatTable, "Output format: table, json or yaml")

	rootCmd.AddCommand(filterCmd)
	filterCmd.Flags().Float64("min-rating", 0, "Lowest rating to include")
	filterCmd.Flags().Int("start-year", 0, "First release year to include")
	filterCmd.Flags().Int("end-year", 0, "Last release year to include")
	filterCmd.Flags().StringArray("where", nil, "Extra condition such as title~god (repeatable)")
	filterCmd.Flags().StringP("output", "o", formatTable, "Output format: table, json or yaml")
}
