package cli

import (
	"fmt"

	"docudive/internal/util"

	"github.com/spf13/cobra"
)

func newClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every stored chunk, uploaded file and local copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open(cmd)
			if err != nil {
				return err
			}
			res, err := r.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear failed: %w", err)
			}
			cmd.Printf("Deleted %d entries and %d files\n", res.Entries, res.Objects)
			return nil
		},
	}
}

func newCheckCmd(a *app) *cobra.Command {
	var peek int
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Show how many chunks are stored and a sample of them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open(cmd)
			if err != nil {
				return err
			}
			st, err := r.Inspect(cmd.Context(), peek)
			if err != nil {
				return fmt.Errorf("check failed: %w", err)
			}
			if st.Count == 0 {
				cmd.Println("The store is empty.")
				return nil
			}
			cmd.Printf("Stored chunks: %d (%s, embedder %s, llm %s)\n", st.Count, st.Backend, st.Embedder, st.LLM)
			for _, e := range st.Entries {
				cmd.Printf("  %s  %s\n", e.ID, util.Snippet(e.Text, 80))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&peek, "peek", "n", 5, "number of chunks to show")
	return cmd
}

func newFilesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "files",
		Short: "List uploaded files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open(cmd)
			if err != nil {
				return err
			}
			files, err := r.ListFiles(cmd.Context())
			if err != nil {
				return fmt.Errorf("list files failed: %w", err)
			}
			if len(files) == 0 {
				cmd.Println("No files uploaded.")
				return nil
			}
			for _, f := range files {
				cmd.Printf("  %-40s %10d  %s\n", f.Key, f.Size, f.LastModified.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
