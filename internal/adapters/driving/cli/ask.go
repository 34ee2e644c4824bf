package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/drivequery/internal/adapters/driving/tui"
	"github.com/custodia-labs/drivequery/internal/core/domain"
	"github.com/custodia-labs/drivequery/internal/core/ports/driving"
)

var askCmd = &cobra.Command{
	Use:   "ask <folder-link> [question]",
	Short: "Ask a question about the files in a Drive folder",
	Long: `Collect and download every file under a shared Drive folder, upload them
to an OpenAI assistant and ask a question against the set. The answer is
printed and written to a new Google Doc.

When the question is omitted it is read from stdin.

Examples:
  drivequery ask <link> "Summarise the Q3 reports"
  drivequery ask <link> --title "Q3 summary" "What were the key risks?"
  drivequery ask <link> --no-doc --no-tui "List every vendor mentioned"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().String("title", "", "Title of the answer document (default from config)")
	askCmd.Flags().Bool("no-doc", false, "Do not write the answer to a Google Doc")
	askCmd.Flags().Bool("keep-assistant", false, "Keep the assistant after the run")
	askCmd.Flags().Bool("no-tui", false, "Print plain progress lines instead of the live view")
	askCmd.Flags().String("dir", "", "Directory to download files into (default from config)")
	addWalkFlags(askCmd)
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args[1:], " "))
	if question == "" {
		cmd.Print("Question: ")
		question = readLine(bufio.NewReader(cmd.InOrStdin()))
	}
	if question == "" {
		return fmt.Errorf("%w: a question is required", domain.ErrInvalidInput)
	}

	query, _, err := queryService(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	title, _ := flags.GetString("title")
	noDoc, _ := flags.GetBool("no-doc")
	keep, _ := flags.GetBool("keep-assistant")
	noTUI, _ := flags.GetBool("no-tui")

	req := domain.QueryRequest{
		FolderLink:    args[0],
		Question:      question,
		Title:         title,
		SkipDoc:       noDoc,
		KeepAssistant: keep,
	}

	var run *domain.Run
	if !noTUI && isTerminal(cmd) {
		run, err = tui.Run(cmd.Context(), tui.Options{Title: "drivequery", Question: question},
			func(ctx context.Context, progress driving.ProgressFunc) (*domain.Run, error) {
				return query.Run(ctx, req, progress)
			})
	} else {
		run, err = query.Run(cmd.Context(), req, lineProgress(cmd.ErrOrStderr()))
	}
	if err != nil {
		if run != nil && run.ID != "" {
			return fmt.Errorf("run %s: %w", run.ID, err)
		}
		return err
	}

	printAnswer(cmd, run, keep)
	return nil
}

func printAnswer(cmd *cobra.Command, run *domain.Run, keptAssistant bool) {
	cmd.Println(run.Answer)
	cmd.Println()
	cmd.Printf("Files: %d\n", run.FileCount)
	if run.DocURL != "" {
		cmd.Printf("Document: %s\n", run.DocURL)
	}
	if keptAssistant && run.AssistantID != "" {
		cmd.Printf("Assistant: %s\n", run.AssistantID)
	}
	cmd.Printf("Run: %s\n", run.ID)
}

func isTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
