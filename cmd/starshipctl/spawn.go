package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"starshipevents/internal/config"
	"starshipevents/internal/engine"
)

var spawnRedAlertCmd = &cobra.Command{
	Use:   "spawn-red-alert REASON",
	Short: "Spawn a shipwide red-alert event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		autoStations, _ := cmd.Flags().GetBool("auto-stations")
		return withEngine(func(cfg *config.Config, e *engine.Engine) error {
			ev, err := e.SpawnRedAlert(args[0], autoStations)
			if err != nil {
				return err
			}
			fmt.Printf("spawned %s [%s] priority=%d\n", ev.ID, ev.Type, ev.Priority)
			return nil
		})
	},
}

var spawnRepairCmd = &cobra.Command{
	Use:   "spawn-repair SYSTEM_ID LOCATION SEVERITY",
	Short: "Spawn an engineering repair event",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(cfg *config.Config, e *engine.Engine) error {
			ev, err := e.SpawnRepair(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Printf("spawned %s [%s] priority=%d\n", ev.ID, ev.Type, ev.Priority)
			return nil
		})
	},
}

var spawnSleepCmd = &cobra.Command{
	Use:   "spawn-sleep ACTOR_ID DURATION_S",
	Short: "Spawn a private crew-sleep event",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		durationS, err := parseNonNegativeInt(args[1])
		if err != nil {
			return err
		}
		return withEngine(func(cfg *config.Config, e *engine.Engine) error {
			ev, err := e.SpawnSleep(args[0], durationS)
			if err != nil {
				return err
			}
			fmt.Printf("spawned %s [%s] priority=%d\n", ev.ID, ev.Type, ev.Priority)
			return nil
		})
	},
}

func init() {
	spawnRedAlertCmd.Flags().Bool("auto-stations", false, "automatically call crew to battle stations")
}
