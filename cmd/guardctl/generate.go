package main

import (
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/forest6511/guardctl/pkg/audit"
	"github.com/forest6511/guardctl/pkg/query"
	"github.com/forest6511/guardctl/pkg/security"
	"github.com/forest6511/guardctl/pkg/store"
	"github.com/forest6511/guardctl/pkg/vault"
)

const maxGenerateCount = 100

var (
	genLength      int
	genCount       int
	genNoSymbols   bool
	genNoDigits    bool
	genNoUppercase bool
	genNoLowercase bool
	genExclude     string
	genCopy        bool
	genSave        string
	genAttr        string
)

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().IntVarP(&genLength, "length", "l", security.DefaultGeneratedLength, "Password length (8-256)")
	generateCmd.Flags().IntVarP(&genCount, "count", "n", 1, "Number of passwords to generate (1-100)")
	generateCmd.Flags().BoolVar(&genNoSymbols, "no-symbols", false, "Exclude symbols")
	generateCmd.Flags().BoolVar(&genNoDigits, "no-numbers", false, "Exclude digits")
	generateCmd.Flags().BoolVar(&genNoUppercase, "no-uppercase", false, "Exclude uppercase letters")
	generateCmd.Flags().BoolVar(&genNoLowercase, "no-lowercase", false, "Exclude lowercase letters")
	generateCmd.Flags().StringVar(&genExclude, "exclude", "", "Characters to exclude")
	generateCmd.Flags().BoolVarP(&genCopy, "copy", "c", false, "Copy first password to clipboard (accessible to all processes)")
	generateCmd.Flags().StringVar(&genSave, "save", "", "Store the password in the vault under this record name")
	generateCmd.Flags().StringVar(&genAttr, "attr", "pass", "Attribute to store the password under (with --save)")
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate secure random passwords",
	Long: `Generate cryptographically secure random passwords.

Examples:
  # Generate a 24-character password (default)
  guardctl generate

  # Generate a 32-character password without symbols
  guardctl generate -l 32 --no-symbols

  # Generate and copy to clipboard
  guardctl generate -c

  # Generate excluding lookalike characters
  guardctl generate --exclude "0O1lI"

  # Generate and store it as a sensitive field, skipping the terminal
  guardctl generate --save gmail --attr pass`,
	RunE: func(cmd *cobra.Command, args []string) error {
		spec := generateSpec()
		if genCount < 1 || genCount > maxGenerateCount {
			return fmt.Errorf("count must be between 1 and %d", maxGenerateCount)
		}
		if genSave != "" && genCount != 1 {
			return fmt.Errorf("--save stores a single password; drop --count")
		}

		passwords := make([]string, genCount)
		for i := range passwords {
			p, err := spec.Generate()
			if err != nil {
				return err
			}
			passwords[i] = p
		}

		if genSave != "" {
			if err := saveGenerated(genSave, genAttr, passwords[0]); err != nil {
				return err
			}
			fmt.Printf("Stored %s %s\n", genSave, genAttr)
		} else {
			for _, p := range passwords {
				fmt.Println(p)
			}
		}

		if genCopy {
			if err := clipboard.WriteAll(passwords[0]); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to copy to clipboard: %v\n", err)
			} else {
				fmt.Fprintln(os.Stderr, "Password copied to clipboard")
			}
		}
		return nil
	},
}

func generateSpec() security.GenSpec {
	return security.GenSpec{
		Length:    genLength,
		Lowercase: !genNoLowercase,
		Uppercase: !genNoUppercase,
		Digits:    !genNoDigits,
		Symbols:   !genNoSymbols,
		Exclude:   genExclude,
	}
}

// saveGenerated writes the password into the vault as a sensitive
// field, so it reaches the record without ever being echoed.
func saveGenerated(name, attr, password string) error {
	lock, err := vault.Acquire(cfg.VaultPath)
	if err != nil {
		return err
	}
	defer lock.Release()

	records, passphrase, err := unlockVault(cfg.VaultPath)
	if err != nil {
		return err
	}

	s := store.FromRecords(records, version)
	s.Set(name, []query.Assign{{Attr: attr, Value: password, Sensitive: true}})

	if err := vault.Save(cfg.VaultPath, passphrase, s.Records()); err != nil {
		return err
	}

	if cfg.AuditPath != "" {
		if trail, auditErr := audit.Open(cfg.AuditPath); auditErr == nil {
			trail.Record(audit.OpSet, name, audit.ResultSuccess)
			trail.Close()
		}
	}
	return nil
}
