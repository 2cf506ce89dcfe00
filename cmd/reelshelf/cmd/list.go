package cmd

import (
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every movie in the catalog",
	Long: `List every movie in the catalog in file order.

Examples:
  reelshelf list
  reelshelf list --output json
  reelshelf --file movies.csv list --output yaml`,
	Args: cobra.NoArgs,
	RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app) error {
		format, _ := cmd.Flags().GetString("output")

		c, err := a.store.List(cmd.Context())
		if err != nil {
			newPrinter(cmd).Printf("Error reading catalog: %v\n", err)
			return nil
		}
		return newPrinter(cmd).Render(c.Movies(), format)
	}),
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringP("output", "o", formatTable, "Output format: table, json or yaml")
}
