package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forest6511/guardctl/pkg/audit"
	"github.com/forest6511/guardctl/pkg/store"
	"github.com/forest6511/guardctl/pkg/vault"
)

func init() {
	rootCmd.AddCommand(mergeCmd)
}

var mergeCmd = &cobra.Command{
	Use:   "merge [vault-file]",
	Short: "Merge another vault's records into this one",
	Long: `Merge every record of another encrypted vault into the current one.

Existing records are never overwritten: an incoming record whose name
is already taken is stored under the first free numbered variant
(gmail, gmail1, gmail2, ...). Each vault is unlocked with its own
passphrase.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		otherPath := args[0]

		lock, err := vault.Acquire(cfg.VaultPath)
		if err != nil {
			return err
		}
		defer lock.Release()

		records, passphrase, err := unlockVault(cfg.VaultPath)
		if err != nil {
			return err
		}

		otherPassphrase, err := promptPassphrase(fmt.Sprintf("Passphrase for %s: ", otherPath))
		if err != nil {
			return err
		}
		otherRecords, _, err := vault.Load(otherPath, otherPassphrase)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", otherPath, err)
		}

		s := store.FromRecords(records, version)
		stored := s.Import(otherRecords)

		if err := vault.Save(cfg.VaultPath, passphrase, s.Records()); err != nil {
			return err
		}

		if cfg.AuditPath != "" {
			if trail, auditErr := audit.Open(cfg.AuditPath); auditErr == nil {
				trail.Record(audit.OpVaultMerge, otherPath, audit.ResultSuccess)
				trail.Close()
			}
		}

		fmt.Printf("Merged %d records:\n", len(stored))
		for _, name := range stored {
			fmt.Printf("  %s\n", name)
		}
		return nil
	},
}
