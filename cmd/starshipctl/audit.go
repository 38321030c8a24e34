package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"starshipevents/internal/audit"
	"starshipevents/internal/config"
	"starshipevents/internal/engine"
)

var exportAuditCmd = &cobra.Command{
	Use:   "export-audit EVENT_ID",
	Short: "Export one event's audit trail to a zstd-compressed segment under EVT_AUDIT_DIR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID := args[0]
		return withEngine(func(cfg *config.Config, e *engine.Engine) error {
			ev, err := e.GetByID(eventID)
			if err != nil {
				return err
			}
			w, err := audit.NewWriter(cfg.Paths.AuditDir, eventID, time.Now)
			if err != nil {
				return err
			}
			if err := w.Append(ev); err != nil {
				w.Close()
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}
			fmt.Printf("exported %d audit record(s) for %s to %s\n", len(ev.Audit), eventID, w.Path())
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(exportAuditCmd)
}
