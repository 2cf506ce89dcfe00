package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/ssargent/reelshelf/pkg/store"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <title>",
	Short: "Delete a movie",
	Long: `Delete a movie from the catalog. Titles are matched exactly.

Example:
  reelshelf delete "The Godfather"`,
	Args: cobra.ExactArgs(1),
	RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app) error {
		title := args[0]
		p := newPrinter(cmd)

		err := a.store.Delete(cmd.Context(), title)
		switch {
		case err == nil:
			p.Printf("Movie '%s' deleted\n", title)
		case errors.Is(err, store.ErrNotFound):
			p.Printf("Movie '%s' not found\n", title)
		case errors.Is(err, store.ErrIntegrity):
			p.Warnf("Warning: %v", err)
		default:
			p.Printf("Error deleting movie: %v\n", err)
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
