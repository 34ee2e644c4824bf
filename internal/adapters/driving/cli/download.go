package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download <folder-link>",
	Short: "Download every file under a Drive folder",
	Long: `Collect a shared Drive folder and download its files. PDFs are copied
as-is and Google Workspace files are exported to PDF.

Examples:
  drivequery download https://drive.google.com/drive/folders/<id>
  drivequery download <link> --dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().String("dir", "", "Directory to write files into (default from config)")
	addWalkFlags(downloadCmd)
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	query, settings, err := queryService(cmd)
	if err != nil {
		return err
	}

	files, err := query.Download(cmd.Context(), args[0], settings.DownloadDir, lineProgress(cmd.ErrOrStderr()))
	for _, f := range files {
		cmd.Println(f.Path)
	}
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	cmd.Printf("\nDownloaded %d files to %s\n", len(files), settings.DownloadDir)
	return nil
}
