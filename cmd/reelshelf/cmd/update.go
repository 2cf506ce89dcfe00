package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/ssargent/reelshelf/pkg/store"
)

// updateCmd represents the update command
var updateCmd = &cobra.Command{
	Use:   "update <title> <rating>",
	Short: "Change the rating of a movie",
	Long: `Change the rating of a movie. Ratings run from 0 to 10 and are rounded
to one decimal place.

Example:
  reelshelf update Titanic 7.5`,
	Args: cobra.ExactArgs(2),
	RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app) error {
		title := args[0]
		rating, err := store.ParseRating(args[1])
		if err != nil {
			return err
		}
		p := newPrinter(cmd)

		err = a.store.Update(cmd.Context(), title, rating)
		switch {
		case err == nil:
			p.Printf("Movie '%s' updated to rating %s\n", title, formatRating(rating))
		case errors.Is(err, store.ErrNotFound):
			p.Printf("Movie '%s' not found\n", title)
		case errors.Is(err, store.ErrIntegrity):
			p.Warnf("Warning: %v", err)
		default:
			p.Printf("Error updating movie: %v\n", err)
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
