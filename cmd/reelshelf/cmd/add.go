package cmd

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ssargent/reelshelf/pkg/codec"
	"github.com/ssargent/reelshelf/pkg/metadata"
	"github.com/ssargent/reelshelf/pkg/store"
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a movie to the catalog",
	Long: `Add a movie to the catalog.

Without --year and --rating the movie details are fetched online from the
configured metadata provider (OMDb or IMDb); --fetch forces a lookup and lets
explicit flags override what was found.

Examples:
  reelshelf add Up
  reelshelf add "Blade Runner" --year 1982 --rating 8.1
  reelshelf add Alien --fetch --rating 9`,
	Args: cobra.ExactArgs(1),
	RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app) error {
		flags := cmd.Flags()
		yearArg, _ := flags.GetString("year")
		ratingArg, _ := flags.GetString("rating")
		poster, _ := flags.GetString("poster")
		fetch, _ := flags.GetBool("fetch")
		p := newPrinter(cmd)

		title := strings.TrimSpace(args[0])
		if err := store.ValidateTitle(title); err != nil {
			return err
		}

		explicit := flags.Changed("year") || flags.Changed("rating")
		if !explicit {
			fetch = true
		}

		m := codec.Movie{Title: title}
		if fetch {
			fetched, ok := fetchMovie(cmd, a, p, title)
			if !ok {
				return nil
			}
			m = fetched
		} else if !flags.Changed("year") || !flags.Changed("rating") {
			return errors.New("both --year and --rating are required unless details are fetched")
		}

		if flags.Changed("year") {
			year, err := store.ParseYear(yearArg)
			if err != nil {
				return err
			}
			m.Year = year
		}
		if flags.Changed("rating") {
			rating, err := store.ParseRating(ratingArg)
			if err != nil {
				return err
			}
			m.Rating = rating
		}
		if poster != "" {
			m.Poster = poster
		}
		// the flag parsers range check typed values; fetched ones are kept as-is
		if err := store.ValidateRecord(m); err != nil {
			p.Printf("Error adding movie: %v\n", err)
			return nil
		}

		err := a.store.Add(cmd.Context(), m)
		switch {
		case err == nil:
			p.Printf("Movie '%s' (%d) added with rating %s\n", m.Title, m.Year, formatRating(m.Rating))
		case errors.Is(err, store.ErrDuplicateKey):
			p.Printf("Movie '%s' already exists\n", m.Title)
		case errors.Is(err, store.ErrIntegrity):
			p.Warnf("Warning: %v", err)
		default:
			p.Printf("Error adding movie: %v\n", err)
		}
		return nil
	}),
}

// fetchMovie looks title up online. Failures are reported and end the add.
func fetchMovie(cmd *cobra.Command, a *app, p *printer, title string) (codec.Movie, bool) {
	fetcher, err := container.GetFetcherFactory()(a.cfg.Metadata, a.logger)
	if err != nil {
		p.Printf("Error fetching movie details: %v\n", err)
		return codec.Movie{}, false
	}

	m, err := fetcher.Fetch(cmd.Context(), title)
	switch {
	case errors.Is(err, metadata.ErrNotFound):
		p.Printf("Movie '%s' not found online\n", title)
		return codec.Movie{}, false
	case err != nil:
		p.Printf("Error fetching movie details: %v\n", err)
		return codec.Movie{}, false
	}
	if m.Title == "" {
		m.Title = title
	}
	return m, true
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().String("year", "", "Release year (four digits)")
	addCmd.Flags().String("rating", "", "Rating from 0 to 10")
	addCmd.Flags().String("poster", "", "Poster image URL")
	addCmd.Flags().Bool("fetch", false, "Fetch details online even when --year or --rating is given")
}
