// Package main provides the guardctl CLI commands.
package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/forest6511/guardctl/internal/config"
	"github.com/forest6511/guardctl/pkg/security"
	"github.com/forest6511/guardctl/pkg/store"
	"github.com/forest6511/guardctl/pkg/vault"
)

const version = "0.1.0"

// Global flags
var (
	flagVault       string
	flagConfig      string
	flagNoClipboard bool
	flagNoAudit     bool
)

// cfg is the effective configuration after merging the config file and
// command-line flags. Set by PersistentPreRunE.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:     "guardctl",
	Short:   "guardctl is a local encrypted credential store",
	Long:    `An encrypted credential store driven by a small query language.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := flagConfig
		if path == "" {
			var err error
			if path, err = config.DefaultPath(); err != nil {
				return err
			}
		}

		var err error
		if cfg, err = config.Load(path); err != nil {
			return err
		}

		// Flags win over file values.
		if flagVault != "" {
			cfg.VaultPath = flagVault
		}
		if flagNoClipboard {
			cfg.Clipboard = false
		}
		if flagNoAudit {
			cfg.AuditPath = ""
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagVault, "file", "f", "", "Vault file path (default: ~/"+config.DefaultVaultName+")")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/"+config.DefaultFileName+")")
	rootCmd.PersistentFlags().BoolVar(&flagNoClipboard, "no-clipboard", false, "Disable clipboard access")
	rootCmd.PersistentFlags().BoolVar(&flagNoAudit, "no-audit", false, "Disable the audit trail")
}

// promptPassphrase reads a passphrase without echo.
func promptPassphrase(prompt string) (string, error) {
	fmt.Print(prompt)
	passphrase, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}
	return string(passphrase), nil
}

// unlockVault prompts for the master passphrase and loads the vault at
// path. A missing vault is initialized after a confirmation prompt and
// a strength check on the chosen passphrase.
func unlockVault(path string) (records []store.Record, passphrase string, err error) {
	_, statErr := os.Stat(path)
	creating := os.IsNotExist(statErr)

	if creating {
		fmt.Printf("No vault at %s, creating one.\n", path)
		passphrase, err = promptPassphrase("Choose master passphrase: ")
		if err != nil {
			return nil, "", err
		}

		confirm, err := promptPassphrase("Confirm master passphrase: ")
		if err != nil {
			return nil, "", err
		}
		if passphrase != confirm {
			return nil, "", fmt.Errorf("passphrases do not match")
		}

		result := security.ValidatePassphrase(passphrase)
		if !result.Valid {
			return nil, "", fmt.Errorf("passphrase rejected: %s", result.Warnings[0])
		}
		fmt.Printf("Passphrase strength: %s\n", result.Strength)
		for _, warning := range result.Warnings {
			fmt.Printf("Warning: %s\n", warning)
		}
	} else {
		passphrase, err = promptPassphrase("Enter master passphrase: ")
		if err != nil {
			return nil, "", err
		}
	}

	records, _, err = vault.Load(path, passphrase)
	if err != nil {
		return nil, "", err
	}
	return records, passphrase, nil
}
