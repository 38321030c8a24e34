// Command starshipctl drives the event-scheduling core end to end: spawn
// canonical events, subscribe an actor, list what is visible, and walk the
// claim/active/done lifecycle — all state persisted between invocations
// through the path named by EVT_STATE_FILE.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"starshipevents/internal/config"
	"starshipevents/internal/engine"
	"starshipevents/internal/logging"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "starshipctl",
	Short: "Drive the starship event-scheduling core from the command line",
	Long: `starshipctl exercises the event-scheduling core's bridge surface:
spawning canonical events, subscribing actors, listing what is visible to
them, and walking an event through claim, active, and done.`,
}

func init() {
	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(spawnRedAlertCmd)
	rootCmd.AddCommand(spawnRepairCmd)
	rootCmd.AddCommand(spawnSleepCmd)
	rootCmd.AddCommand(subscribeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(doneCmd)
}

func initLogging() {
	cfg, err := config.Load()
	if err != nil {
		return
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return
	}
	logging.ReplaceGlobals(logger)
}

// withEngine loads the config and persisted engine bundle, runs fn, and
// saves the bundle back before returning.
func withEngine(fn func(cfg *config.Config, e *engine.Engine) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	e, err := loadEngine(cfg)
	if err != nil {
		return err
	}
	if err := fn(cfg, e); err != nil {
		return err
	}
	return saveEngine(cfg, e)
}
