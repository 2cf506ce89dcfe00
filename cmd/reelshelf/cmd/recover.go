package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
	"github.com/ssargent/reelshelf/pkg/store"
)

// recoverCmd represents the recover command
var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Check the catalog file and report any reset",
	Long: `Read the catalog file once. A file that cannot be decoded is reset to an
empty catalog, after its contents are archived when a quarantine directory is
configured. The outcome is reported.`,
	Args: cobra.NoArgs,
	RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app) error {
		p := newPrinter(cmd)
		c, err := a.store.List(cmd.Context())
		if err != nil {
			p.Printf("Error reading catalog: %v\n", err)
			return nil
		}

		res := a.recovery
		if res == nil {
			p.Printf("Catalog file %s is healthy: %d movie(s)\n", a.cfg.Storage.Path, c.Len())
			return nil
		}
		printRecovery(p, res)
		return nil
	}),
}

func printRecovery(p *printer, res *store.RecoveryResult) {
	p.Warnf("Catalog file %s (%s) could not be read: %v", res.Path, res.Format, res.Cause)
	if res.QuarantineID != "" {
		p.Printf("Archived %d bytes as %s\n", res.BytesBefore, res.QuarantineID)
	}
	if res.Reset {
		p.Printf("Reset to an empty catalog at %s\n", res.At.Format(time.RFC3339))
	} else {
		p.Printf("Reset failed: %v\n", res.ResetErr)
	}
}

// quarantineCmd groups the commands inspecting archived corrupt files
var quarantineCmd = &cobra.Command{
	Use:   "quarantine",
	Short: "Inspect archived copies of corrupt catalog files",
	Long: `Inspect archived copies of corrupt catalog files. Archiving happens only
when storage.quarantine_dir is set in the configuration.`,
}

var errNoQuarantine = errors.New("no quarantine configured (set storage.quarantine_dir)")

var quarantineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived files",
	Args:  cobra.NoArgs,
	RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app) error {
		if a.quarantine == nil {
			return errNoQuarantine
		}
		entries, err := a.quarantine.List()
		if err != nil {
			return err
		}

		p := newPrinter(cmd)
		p.Printf("%d archived file(s)\n", len(entries))
		for _, e := range entries {
			p.Printf("%s %s %s (%d bytes)\n",
				p.s.title.Render(e.ID), e.ArchivedAt.Format(time.RFC3339), e.Path, e.Size)
		}
		return nil
	}),
}

var quarantineShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print an archived file",
	Args:  cobra.ExactArgs(1),
	RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app) error {
		if a.quarantine == nil {
			return errNoQuarantine
		}
		entry, data, err := a.quarantine.Get(args[0])
		if err != nil {
			return err
		}

		p := newPrinter(cmd)
		p.Printf("%s\n", p.s.dim.Render("# "+entry.Path+" archived "+entry.ArchivedAt.Format(time.RFC3339)))
		_, err = p.w.Write(data)
		return err
	}),
}

var quarantineDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Remove an archived file",
	Args:  cobra.ExactArgs(1),
	RunE: runWithApp(func(cmd *cobra.Command, args []string, a *app) error {
		if a.quarantine == nil {
			return errNoQuarantine
		}
		if err := a.quarantine.Delete(args[0]); err != nil {
			return err
		}
		newPrinter(cmd).Printf("Archived file %s deleted\n", args[0])
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(recoverCmd)

	rootCmd.AddCommand(quarantineCmd)
	quarantineCmd.AddCommand(quarantineListCmd)
	quarantineCmd.AddCommand(quarantineShowCmd)
	quarantineCmd.AddCommand(quarantineDeleteCmd)
}
