package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forest6511/guardctl/pkg/audit"
)

// Audit flags
var auditLimit int

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditListCmd)

	auditListCmd.Flags().IntVar(&auditLimit, "limit", 100, "Maximum number of events to show (0 = unlimited)")
}

// auditCmd is the parent command for audit trail operations.
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit trail operations",
}

// auditListCmd lists audit trail entries.
var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit trail entries",
	Long: `List recorded session activity, most recent first.

The trail stores operations and record names only; field values are
never written to it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.AuditPath == "" {
			return fmt.Errorf("audit trail is disabled")
		}

		trail, err := audit.OpenReadOnly(cfg.AuditPath)
		if err != nil {
			return err
		}
		defer trail.Close()

		events, err := trail.List(auditLimit)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			fmt.Println("No audit events found")
			return nil
		}

		for _, event := range events {
			line := fmt.Sprintf("%s %s %s %s",
				event.Timestamp.Local().Format("2006-01-02 15:04:05"),
				event.Session, event.Op, event.Result)
			if event.Key != "" {
				line += " key:" + event.Key
			}
			fmt.Println(line)
		}

		fmt.Printf("\nTotal: %d events\n", len(events))
		return nil
	},
}
