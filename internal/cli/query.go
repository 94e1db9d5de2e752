package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"docudive/internal/util"

	"github.com/spf13/cobra"
)

func newQueryCmd(a *app) *cobra.Command {
	var (
		out     string
		asJSON  bool
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "query [text]",
		Short: "Answer a question from the ingested documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open(cmd)
			if err != nil {
				return err
			}
			ans, err := r.Query(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("query failed: %w", err)
			}
			if out != "" {
				if err := util.WriteTextAtomic(out, ans.Response+"\n"); err != nil {
					return err
				}
			}
			if asJSON {
				data, err := json.MarshalIndent(ans, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal answer: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), ans.Response)
			if verbose {
				cmd.Println()
				for i, res := range ans.Results {
					cmd.Printf("  [%d] %s (%.4f)\n", i+1, res.Chunk.ID, res.Score)
					cmd.Printf("      %s\n", util.QuerySnippet(res.Chunk.Text, strings.TrimSpace(args[0]), 200))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "also write the response to this file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the answer as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show retrieved chunks with scores")
	return cmd
}
