package crypto_test

import (
	"crypto/rand"
	"testing"

	"github.com/forest6511/guardctl/pkg/crypto"
)

// BenchmarkDeriveKey measures PBKDF2 key derivation performance.
// The 100k iteration count makes this deliberately slow (~50ms on modern hardware).
func BenchmarkDeriveKey(b *testing.B) {
	passphrase := []byte("testpassphrase123!")
	salt := make([]byte, crypto.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		crypto.DeriveKey(passphrase, salt)
	}
}

// BenchmarkEncrypt measures AES-256-GCM encryption performance with 1KB payload.
func BenchmarkEncrypt(b *testing.B) {
	key := make([]byte, crypto.KeyLength)
	if _, err := rand.Read(key); err != nil {
		b.Fatal(err)
	}
	data := make([]byte, 1024)
	if _, err := rand.Read(data); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.SetBytes(1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := crypto.Encrypt(key, data); err != nil {
			b.Fatal(err)
		}
	}
}
