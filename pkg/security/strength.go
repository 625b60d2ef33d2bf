// Package security provides security analysis for stored credentials:
// value strength, reuse detection and passphrase validation.
package security

import "strings"

// Strength represents the strength level of a secret value.
type Strength int

const (
	// StrengthWeak indicates an insecure value (less than 8 characters).
	StrengthWeak Strength = iota
	// StrengthFair indicates a minimally acceptable value.
	StrengthFair
	// StrengthGood indicates a good value.
	StrengthGood
	// StrengthStrong indicates a strong value.
	StrengthStrong
)

// String returns a human-readable representation of the strength level.
func (s Strength) String() string {
	switch s {
	case StrengthWeak:
		return "weak"
	case StrengthFair:
		return "fair"
	case StrengthGood:
		return "good"
	case StrengthStrong:
		return "strong"
	default:
		return "unknown"
	}
}

// Points returns the score points for this strength level.
// Used in the strength component: Weak=0, Fair=16, Good=34, Strong=50.
func (s Strength) Points() int {
	switch s {
	case StrengthWeak:
		return 0
	case StrengthFair:
		return 16
	case StrengthGood:
		return 34
	case StrengthStrong:
		return 50
	default:
		return 0
	}
}

// CalculateStrength evaluates a secret value. Length is the primary
// factor per NIST SP 800-63B: no composition requirements, minimum 8
// characters for user-chosen values.
func CalculateStrength(value string) Strength {
	switch length := len(value); {
	case length >= 20:
		return StrengthStrong
	case length >= 14:
		return StrengthGood
	case length >= 8:
		return StrengthFair
	default:
		return StrengthWeak
	}
}

// credentialAttrs are attribute names treated as credentials even when
// the field was not marked sensitive.
var credentialAttrs = []string{
	"password", "pwd", "pass", "passwd",
	"secret", "credential", "token", "apikey", "api_key",
}

// IsCredentialAttr reports whether a field holds a credential worth
// analyzing. Sensitive fields always qualify; otherwise the attribute
// name decides.
func IsCredentialAttr(attr string, sensitive bool) bool {
	if sensitive {
		return true
	}
	lower := strings.ToLower(attr)
	for _, name := range credentialAttrs {
		if lower == name || strings.Contains(lower, name) {
			return true
		}
	}
	return false
}
