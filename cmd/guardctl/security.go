package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forest6511/guardctl/pkg/security"
	"github.com/forest6511/guardctl/pkg/store"
)

// Security command flags
var (
	securityJSON  bool
	securityLimit int
)

// securityCmd is the root security command.
var securityCmd = &cobra.Command{
	Use:   "security",
	Short: "Analyze vault security health",
	Long: `Analyze the security health of your vault and get recommendations.

The security score is calculated from:
  - Strength (0-50): Average strength of credential fields
  - Uniqueness (0-50): Share of unique credential values

Example:
  guardctl security             # Show security score and issues
  guardctl security --json      # Output in JSON format
  guardctl security weak        # List weak values
  guardctl security duplicates  # List reused values`,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadRecordsForAnalysis()
		if err != nil {
			return err
		}

		report, err := security.NewAnalyzer().Analyze(records)
		if err != nil {
			return fmt.Errorf("failed to analyze vault: %w", err)
		}

		if securityJSON {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		outputSecurityText(report)
		return nil
	},
}

// securityWeakCmd lists weak credential values.
var securityWeakCmd = &cobra.Command{
	Use:   "weak",
	Short: "List weak credential values",
	Long: `Show records whose credential fields are too short.

Values under 8 characters are considered weak.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadRecordsForAnalysis()
		if err != nil {
			return err
		}

		issues := security.NewAnalyzer().FindWeak(records, securityLimit)
		if len(issues) == 0 {
			fmt.Println("No weak values found!")
			return nil
		}

		fmt.Printf("Weak values (%d found)\n\n", len(issues))
		for i, issue := range issues {
			fmt.Printf("%d. %s / %s\n", i+1, issue.Name, issue.Attr)
			fmt.Printf("   %s\n\n", issue.Description)
		}
		return nil
	},
}

// securityDuplicatesCmd lists reused credential values.
var securityDuplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List reused credential values",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadRecordsForAnalysis()
		if err != nil {
			return err
		}

		groups, err := security.NewAnalyzer().FindDuplicates(records, securityLimit)
		if err != nil {
			return fmt.Errorf("failed to find duplicates: %w", err)
		}

		if len(groups) == 0 {
			fmt.Println("No reused values found!")
			return nil
		}

		fmt.Printf("Reused values (%d groups found)\n\n", len(groups))
		for i, group := range groups {
			fmt.Printf("%d. %d fields share the same value:\n", i+1, group.Count)
			for j, name := range group.Names {
				fmt.Printf("   - %s / %s\n", name, group.Attrs[j])
			}
			fmt.Println()
		}
		return nil
	},
}

// loadRecordsForAnalysis unlocks the vault read-only for analysis.
func loadRecordsForAnalysis() ([]store.Record, error) {
	records, _, err := unlockVault(cfg.VaultPath)
	return records, err
}

// outputSecurityText renders the report as formatted text.
func outputSecurityText(report *security.Report) {
	var rating string
	switch {
	case report.Overall >= 90:
		rating = "Excellent"
	case report.Overall >= 70:
		rating = "Good"
	case report.Overall >= 50:
		rating = "Fair"
	default:
		rating = "Needs Attention"
	}

	fmt.Printf("Security Score: %d/100 (%s)\n\n", report.Overall, rating)

	fmt.Println("Components:")
	fmt.Printf("  Strength:   %d/50 %s\n", report.Components.StrengthScore, progressBar(report.Components.StrengthScore, 50))
	fmt.Printf("  Uniqueness: %d/50 %s\n", report.Components.UniquenessScore, progressBar(report.Components.UniquenessScore, 50))
	fmt.Println()

	if len(report.Issues) > 0 {
		fmt.Printf("Issues (%d):\n", len(report.Issues))
		for i, issue := range report.Issues {
			typeLabel := strings.ToUpper(string(issue.Type))
			keyInfo := ""
			if issue.Name != "" {
				keyInfo = fmt.Sprintf(" %q", issue.Name)
			} else if len(issue.Names) > 0 {
				keyInfo = " " + strings.Join(issue.Names, ", ")
			}
			fmt.Printf("  %d. [%s]%s: %s\n", i+1, typeLabel, keyInfo, issue.Description)
		}
		fmt.Println()
	}

	if len(report.Suggestions) > 0 {
		fmt.Println("Suggestions:")
		for _, suggestion := range report.Suggestions {
			fmt.Printf("  - %s\n", suggestion)
		}
	}
}

// progressBar creates a simple ASCII progress bar.
func progressBar(value, maxVal int) string {
	width := 20
	filled := value * width / maxVal
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func init() {
	rootCmd.AddCommand(securityCmd)
	securityCmd.AddCommand(securityWeakCmd)
	securityCmd.AddCommand(securityDuplicatesCmd)

	securityCmd.Flags().BoolVar(&securityJSON, "json", false, "Output in JSON format")
	securityCmd.PersistentFlags().IntVar(&securityLimit, "limit", 0, "Maximum results to show (0 = unlimited)")
}
