package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/drivequery/internal/core/domain"
)

var collectCmd = &cobra.Command{
	Use:   "collect <folder-link>",
	Short: "List every file under a Drive folder",
	Long: `Walk a shared Drive folder and every folder beneath it, listing the PDFs
and Google Workspace files that would be sent to the assistant.

If the walk fails part way, the files found so far are still printed.

Examples:
  drivequery collect https://drive.google.com/drive/folders/<id>
  drivequery collect <link> --json --dedupe
  drivequery collect <link> --skip-failed --max-depth 3`,
	Args: cobra.ExactArgs(1),
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().Bool("json", false, "Print the collection as JSON")
	addWalkFlags(collectCmd)
	rootCmd.AddCommand(collectCmd)
}

func runCollect(cmd *cobra.Command, args []string) error {
	query, _, err := queryService(cmd)
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	collection, err := query.Collect(cmd.Context(), args[0])
	if collection != nil {
		if asJSON {
			if encErr := writeJSON(cmd.OutOrStdout(), collection); encErr != nil {
				return fmt.Errorf("encoding collection: %w", encErr)
			}
		} else {
			printCollection(cmd, collection)
		}
	}
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}
	return nil
}

func printCollection(cmd *cobra.Command, c *domain.Collection) {
	for _, f := range c.Files {
		cmd.Printf("%-44s  %-12s  %s\n", f.ID, f.Kind(), f.Name)
	}
	cmd.Printf("\n%d files in %d folders\n", c.Len(), c.FoldersVisited)
	for _, s := range c.Skipped {
		cmd.Printf("Skipped folder %s (depth %d): %s\n", s.FolderID, s.Depth, s.Reason)
	}
}
