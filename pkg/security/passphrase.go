package security

import (
	"fmt"
	"regexp"
)

// Passphrase length requirements. The lower bound is a hard error, the
// upper bound guards the KDF against pathological input.
const (
	MinPassphraseLength = 8
	MaxPassphraseLength = 1024
)

// PassphraseResult contains the result of master passphrase validation.
type PassphraseResult struct {
	Valid    bool     // Whether the passphrase meets minimum requirements
	Strength Strength // Estimated strength
	Warnings []string // Suggestions for improvement (not errors)
}

var (
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	lowerPattern   = regexp.MustCompile(`[a-z]`)
	digitPattern   = regexp.MustCompile(`\d`)
	specialPattern = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>\-_=+\[\]\\;'~/\x60]`)
)

// ValidatePassphrase validates a master passphrase. Length requirements
// are hard errors; complexity produces warnings only.
func ValidatePassphrase(passphrase string) *PassphraseResult {
	result := &PassphraseResult{Valid: true, Strength: StrengthFair}

	if len(passphrase) < MinPassphraseLength {
		result.Valid = false
		result.Strength = StrengthWeak
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("passphrase must be at least %d characters", MinPassphraseLength))
		return result
	}
	if len(passphrase) > MaxPassphraseLength {
		result.Valid = false
		result.Strength = StrengthWeak
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("passphrase must be at most %d characters", MaxPassphraseLength))
		return result
	}

	complexity := 0
	for _, p := range []*regexp.Regexp{upperPattern, lowerPattern, digitPattern, specialPattern} {
		if p.MatchString(passphrase) {
			complexity++
		}
	}

	if complexity < 2 {
		result.Warnings = append(result.Warnings,
			"consider mixing uppercase, lowercase, numbers and symbols")
	}
	if len(passphrase) < 12 {
		result.Warnings = append(result.Warnings,
			"longer passphrases (12+ characters) are more secure")
	}

	switch {
	case complexity >= 3 && len(passphrase) >= 16:
		result.Strength = StrengthStrong
	case complexity >= 2 && len(passphrase) >= 12:
		result.Strength = StrengthGood
	case complexity >= 2 || len(passphrase) >= 12:
		result.Strength = StrengthFair
	default:
		result.Strength = StrengthWeak
	}

	return result
}
