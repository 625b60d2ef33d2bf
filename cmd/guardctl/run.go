package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/forest6511/guardctl/internal/cli"
	"github.com/forest6511/guardctl/pkg/audit"
	"github.com/forest6511/guardctl/pkg/eval"
	"github.com/forest6511/guardctl/pkg/store"
	"github.com/forest6511/guardctl/pkg/vault"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open the vault and start an interactive session",
	Long: `Unlock the vault and start an interactive session.

Type 'help' inside the session for the command language. The vault is
saved on 'save', on 'exit' and on Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSession()
	},
}

func runSession() error {
	lock, err := vault.Acquire(cfg.VaultPath)
	if err != nil {
		if errors.Is(err, vault.ErrLocked) {
			return fmt.Errorf("vault %s is already open in another session", cfg.VaultPath)
		}
		return err
	}
	defer lock.Release()

	records, passphrase, err := unlockVault(cfg.VaultPath)
	if err != nil {
		return err
	}

	s := store.FromRecords(records, version)

	var trail *audit.Logger
	if cfg.AuditPath != "" {
		if trail, err = audit.Open(cfg.AuditPath); err != nil {
			fmt.Fprintf(os.Stderr, "warning: audit disabled: %v\n", err)
			trail = nil
		}
	}
	defer trail.Close()

	save := func() error {
		err := vault.Save(cfg.VaultPath, passphrase, s.Records())
		result := audit.ResultSuccess
		if err != nil {
			result = audit.ResultError
		}
		trail.Record(audit.OpVaultSave, cfg.VaultPath, result)
		return err
	}

	e := eval.New(s)
	if !cfg.Clipboard {
		e.WithClipboard(nil)
	}
	if trail != nil {
		e.WithRecorder(trail)
	}

	// Ctrl+C ends the session like 'exit' does: save, then leave.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		fmt.Println()
		if err := save(); err != nil {
			fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			trail.Close()
			lock.Release()
			os.Exit(1)
		}
		fmt.Println("Saved!")
		trail.Close()
		lock.Release()
		os.Exit(0)
	}()

	return cli.New(e, os.Stdin, os.Stdout, save).Run()
}
