package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/drivequery/internal/core/domain"
)

// secretKeys are masked when displayed and prompted for without echo.
var secretKeys = map[string]bool{
	"openai.api_key": true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View and change settings",
	Long: `View and change drivequery settings. Settings are stored in
~/.drivequery/config.toml; OPENAI_API_KEY and DRIVEQUERY_GOOGLE_CREDENTIALS
in the environment (or a .env file) take precedence.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show every setting and its effective value",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a single setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Change a setting",
	Long: `Change a setting. An empty value restores the default.

Secret values such as openai.api_key are prompted for when omitted.

Examples:
  drivequery config set drive.max_depth 10
  drivequery config set docs.folder_id 1AbCdEf
  drivequery config set openai.api_key`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if deps.Settings == nil {
		return errors.New("settings service not configured")
	}

	values, err := deps.Settings.Values()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}

	keys := make([]string, 0, len(values))
	width := 0
	for k := range values {
		keys = append(keys, k)
		width = max(width, len(k))
	}
	sort.Strings(keys)

	for _, k := range keys {
		cmd.Printf("%-*s  %s\n", width, k, displayValue(k, values[k]))
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if deps.Settings == nil {
		return errors.New("settings service not configured")
	}

	values, err := deps.Settings.Values()
	if err != nil {
		return fmt.Errorf("reading settings: %w", err)
	}
	value, ok := values[args[0]]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, args[0])
	}
	cmd.Println(displayValue(args[0], value))
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if deps.Settings == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	var value string
	if len(args) == 2 {
		value = args[1]
	} else if secretKeys[key] {
		cmd.Printf("%s: ", key)
		value = readSecret(cmd)
		cmd.Println()
	}

	if err := deps.Settings.SetValue(key, value); err != nil {
		return err
	}
	if value == "" {
		cmd.Printf("%s reset to default\n", key)
		return nil
	}
	cmd.Printf("%s = %s\n", key, displayValue(key, value))

	if secretKeys[key] && deps.VerifyAssistant != nil {
		verifyAPIKey(cmd)
	}
	return nil
}

// verifyAPIKey checks a freshly stored key. A rejected key is reported
// but the setting is kept.
func verifyAPIKey(cmd *cobra.Command) {
	settings, err := deps.Settings.Get()
	if err != nil {
		cmd.PrintErrf("Warning: could not verify API key: %v\n", err)
		return
	}
	if err := deps.VerifyAssistant(cmd.Context(), settings); err != nil {
		cmd.PrintErrf("Warning: API key verification failed: %v\n", err)
		return
	}
	cmd.Println("API key verified")
}

func displayValue(key, value string) string {
	if secretKeys[key] {
		return maskAPIKey(value)
	}
	return value
}

// readSecret reads without echo from a terminal stdin, falling back to a
// plain line read.
func readSecret(cmd *cobra.Command) string {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(secret))
		}
	}
	return readLine(bufio.NewReader(cmd.InOrStdin()))
}
