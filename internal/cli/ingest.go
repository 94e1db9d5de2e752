package cli

import (
	"fmt"

	"docudive/internal/service"

	"github.com/spf13/cobra"
)

func newIngestCmd(a *app) *cobra.Command {
	var opts service.IngestOptions
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Add new PDF chunks to the vector store",
		Long: `Loads every PDF in the data directory, splits pages into chunks and
stores the chunks whose ids are not in the store yet. Running it twice adds
nothing the second time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open(cmd)
			if err != nil {
				return err
			}
			res, err := r.Ingest(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("ingest failed: %w", err)
			}
			if opts.Reset {
				cmd.Printf("Cleared %d entries\n", res.Cleared)
			}
			if opts.Sync {
				cmd.Printf("Synced %d files\n", res.Synced)
			}
			rep := res.Report
			cmd.Printf("Number of existing documents in DB: %d\n", rep.Existing)
			if rep.Added == 0 {
				cmd.Println("No new documents to add")
				return nil
			}
			cmd.Printf("Adding new documents: %d\n", rep.Added)
			cmd.Printf("Run %s: %d documents, %d pages, %d chunks\n", rep.RunID, rep.Documents, rep.Pages, rep.Chunks)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "clear the vector store before ingesting")
	cmd.Flags().BoolVar(&opts.Sync, "sync", false, "copy uploaded files into the data directory first")
	return cmd
}
