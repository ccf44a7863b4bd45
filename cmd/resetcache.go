package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/meysamhadeli/smartlint/constants/lipgloss"
	"github.com/meysamhadeli/smartlint/dispatcher"
	"github.com/meysamhadeli/smartlint/runstate"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// resetCacheCmd represents the reset-cache command
var resetCacheCmd = &cobra.Command{
	Use:   "reset-cache",
	Short: "Forget the recorded runs used for the cooldown window",
	Long: `The 'reset-cache' command removes the per-project run records kept under the
user cache directory. The next run in every project checks immediately,
regardless of the cooldown setting.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		stats, _ := cmd.Flags().GetBool("stats")
		olderThan, _ := cmd.Flags().GetDuration("older-than")

		return handleResetCacheCommand(force, stats, olderThan)
	},
}

func init() {
	// Define command-specific flags
	resetCacheCmd.Flags().BoolP("force", "f", false, "Reset without confirmation")
	resetCacheCmd.Flags().BoolP("stats", "s", false, "Only show statistics about the recorded runs")
	resetCacheCmd.Flags().Duration("older-than", 0, "Only remove records older than this age")

	// Add the reset-cache command to the root command
	rootCmd.AddCommand(resetCacheCmd)
}

func handleResetCacheCommand(force, showStats bool, olderThan time.Duration) error {
	store, err := runstate.NewStore("")
	if err != nil {
		return &ExitError{Code: dispatcher.ExitConfigError, Err: err}
	}

	if showStats {
		stats, err := store.Stats()
		if err != nil {
			return &ExitError{Code: dispatcher.ExitConfigError, Err: err}
		}
		fmt.Println(lipgloss.Info.Render("Run state:"))
		fmt.Printf("  Directory: %s\n", stats.Dir)
		fmt.Printf("  Records: %d\n", stats.Entries)
		fmt.Printf("  Total Size: %.2f KB\n", float64(stats.TotalBytes)/1024)
		if stats.Entries > 0 {
			fmt.Printf("  Oldest: %s\n", stats.Oldest.Format(time.RFC3339))
			fmt.Printf("  Newest: %s\n", stats.Newest.Format(time.RFC3339))
		}
		return nil
	}

	// Confirm reset (if not forced)
	if !force {
		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Are you sure you want to forget all recorded runs? (y/N): ")
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println(lipgloss.Yellow.Render("Reset cancelled."))
			return nil
		}
	}

	spinner := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100 * time.Millisecond).WithRemoveWhenDone(true)

	spinnerInstance, _ := spinner.Start("Removing run records...")

	var deleted int
	if olderThan > 0 {
		deleted, err = store.Prune(olderThan, time.Now())
	} else {
		deleted, err = store.Clear()
	}
	if spinnerInstance != nil {
		_ = spinnerInstance.Stop()
	}
	if err != nil {
		return &ExitError{Code: dispatcher.ExitConfigError, Err: fmt.Errorf("error resetting run state: %w", err)}
	}

	fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✓ Removed %d run %s.", deleted, pluralize(deleted, "record", "records"))))
	return nil
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
