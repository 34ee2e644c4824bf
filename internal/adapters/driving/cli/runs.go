package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/drivequery/internal/core/domain"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show past query runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a single run and its answer",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	runsListCmd.Flags().IntP("limit", "n", 20, "Maximum runs to show (-1 for all)")
	runsListCmd.Flags().Bool("json", false, "Print runs as JSON")
	runsShowCmd.Flags().Bool("json", false, "Print the run as JSON")
	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, _ []string) error {
	if deps.History == nil {
		return errors.New("run history not configured")
	}
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	runs, err := deps.History.List(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("listing runs: %w", err)
	}
	if asJSON {
		if runs == nil {
			runs = []domain.Run{}
		}
		return writeJSON(cmd.OutOrStdout(), runs)
	}

	if len(runs) == 0 {
		cmd.Println("No runs yet.")
		return nil
	}
	for _, r := range runs {
		cmd.Printf("%s  %s  %-9s  %3d files  %s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status, r.FileCount, truncate(r.Question, 60))
	}
	return nil
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	if deps.History == nil {
		return errors.New("run history not configured")
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	run, err := deps.History.Get(cmd.Context(), args[0])
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("run %s not found", args[0])
	}
	if err != nil {
		return fmt.Errorf("getting run: %w", err)
	}
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), run)
	}

	cmd.Printf("ID:        %s\n", run.ID)
	cmd.Printf("Status:    %s\n", run.Status)
	cmd.Printf("Folder:    %s\n", run.FolderID)
	cmd.Printf("Question:  %s\n", run.Question)
	cmd.Printf("Files:     %d\n", run.FileCount)
	cmd.Printf("Started:   %s\n", run.StartedAt.Local().Format(time.DateTime))
	if d := run.Duration(); d > 0 {
		cmd.Printf("Duration:  %s\n", d.Round(time.Second))
	}
	if run.DocURL != "" {
		cmd.Printf("Document:  %s\n", run.DocURL)
	}
	if run.Error != "" {
		cmd.Printf("Error:     %s\n", run.Error)
	}
	if run.Answer != "" {
		cmd.Printf("\n%s\n", run.Answer)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
