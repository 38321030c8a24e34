package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"starshipevents/internal/config"
	"starshipevents/internal/engine"
	"starshipevents/internal/events"
)

var subscribeCmd = &cobra.Command{
	Use:   "subscribe ACTOR_ID SCOPE...",
	Short: "Subscribe an actor to one or more audience scopes",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		actorID, scopes := args[0], args[1:]
		return withEngine(func(cfg *config.Config, e *engine.Engine) error {
			if err := e.Subscribe(actorID, scopes...); err != nil {
				return err
			}
			fmt.Printf("%s subscribed to %v\n", actorID, scopes)
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list ACTOR_ID",
	Short: "List up to --limit of an actor's top events, ordered by heap key, without claiming them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		return withEngine(func(cfg *config.Config, e *engine.Engine) error {
			for _, ev := range e.List(args[0], limit) {
				fmt.Printf("%s\t%-20s\tpriority=%-3d state=%-10s taker=%s\n", ev.ID, ev.Type, ev.Priority, ev.State, ev.Taker)
			}
			return nil
		})
	},
}

func init() {
	listCmd.Flags().Int("limit", 0, "maximum number of events to list (0 means unbounded)")
}

var claimCmd = &cobra.Command{
	Use:   "claim ACTOR_ID",
	Short: "Claim the highest-urgency event off an actor's heap",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(cfg *config.Config, e *engine.Engine) error {
			ev, err := e.Claim(args[0])
			if err != nil {
				return err
			}
			if ev == nil {
				fmt.Println("nothing to claim")
				return nil
			}
			fmt.Printf("claimed %s [%s] priority=%d\n", ev.ID, ev.Type, ev.Priority)
			return nil
		})
	},
}

var doneCmd = &cobra.Command{
	Use:   "done ACTOR_ID EVENT_ID",
	Short: "Mark a claimed event done (transitioning through active first if needed)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		actorID, eventID := args[0], args[1]
		return withEngine(func(cfg *config.Config, e *engine.Engine) error {
			ev, err := e.GetByID(eventID)
			if err != nil {
				return err
			}
			if ev.State == events.StateClaimed || ev.State == events.StateSuspended {
				if err := e.MarkActive(actorID, eventID); err != nil {
					return err
				}
			}
			if err := e.Done(actorID, eventID); err != nil {
				return err
			}
			fmt.Printf("done %s\n", eventID)
			return nil
		})
	},
}

func parseNonNegativeInt(raw string) (int, error) {
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("expected a non-negative integer, got %q", raw)
	}
	return value, nil
}
