package security

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Generated value bounds.
const (
	MinGeneratedLength     = 8
	MaxGeneratedLength     = 256
	DefaultGeneratedLength = 24
	MaxExcludeLength       = 256
)

var ErrEmptyAlphabet = errors.New("security: every character class is disabled or excluded")

// GenSpec describes the values Generate produces. The zero value is
// unusable; start from DefaultGenSpec and switch classes off.
type GenSpec struct {
	Length    int
	Lowercase bool
	Uppercase bool
	Digits    bool
	Symbols   bool

	// Exclude removes individual characters from the alphabet, e.g.
	// "0O1lI" to avoid lookalikes.
	Exclude string
}

func DefaultGenSpec() GenSpec {
	return GenSpec{
		Length:    DefaultGeneratedLength,
		Lowercase: true,
		Uppercase: true,
		Digits:    true,
		Symbols:   true,
	}
}

func (s GenSpec) Validate() error {
	switch {
	case s.Length < MinGeneratedLength:
		return fmt.Errorf("security: length must be at least %d", MinGeneratedLength)
	case s.Length > MaxGeneratedLength:
		return fmt.Errorf("security: length must be at most %d", MaxGeneratedLength)
	case len(s.Exclude) > MaxExcludeLength:
		return fmt.Errorf("security: exclude list must be at most %d characters", MaxExcludeLength)
	}
	return nil
}

// alphabet assembles the enabled classes minus the excluded characters.
func (s GenSpec) alphabet() (string, error) {
	classes := []struct {
		enabled bool
		runes   string
	}{
		{s.Lowercase, "abcdefghijklmnopqrstuvwxyz"},
		{s.Uppercase, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"},
		{s.Digits, "0123456789"},
		{s.Symbols, "!@#$%^&*()_+-=[]{}|;:,.<>?"},
	}

	var b strings.Builder
	for _, class := range classes {
		if !class.enabled {
			continue
		}
		for i := 0; i < len(class.runes); i++ {
			if strings.IndexByte(s.Exclude, class.runes[i]) < 0 {
				b.WriteByte(class.runes[i])
			}
		}
	}

	if b.Len() == 0 {
		return "", ErrEmptyAlphabet
	}
	return b.String(), nil
}

// Generate draws one value from crypto/rand. Each position is an
// independent uniform pick over the alphabet.
func (s GenSpec) Generate() (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	alphabet, err := s.alphabet()
	if err != nil {
		return "", err
	}

	size := big.NewInt(int64(len(alphabet)))
	out := make([]byte, s.Length)
	for i := range out {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", fmt.Errorf("security: read random source: %w", err)
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
