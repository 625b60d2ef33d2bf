// Package vault persists the record store as a single encrypted file.
//
// Layout of the persisted file:
//
//	[16-byte salt][12-byte nonce][AES-256-GCM ciphertext]
//
// where the ciphertext is an authenticated encryption of a UTF-8 JSON
// array of records and the key is derived from the master passphrase
// and the salt with PBKDF2-SHA256.
package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/forest6511/guardctl/pkg/crypto"
	"github.com/forest6511/guardctl/pkg/store"
)

// FileMode restricts the vault file to owner read/write.
const FileMode = 0o600

// Sentinel errors.
var (
	// ErrAuthFailed indicates the passphrase cannot decrypt the file.
	ErrAuthFailed = errors.New("vault: master passphrase incorrect")

	// ErrCorrupt indicates the file is too short to hold salt and nonce.
	ErrCorrupt = errors.New("vault: file corrupt")
)

// Load reads and decrypts the vault at path. A missing file is
// transparently initialized as a new empty, valid encrypted vault;
// created reports when that happened. Decryption is all-or-nothing: a
// wrong passphrase yields ErrAuthFailed and no records.
func Load(path, passphrase string) (records []store.Record, created bool, err error) {
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		if err := Save(path, passphrase, nil); err != nil {
			return nil, false, fmt.Errorf("vault: failed to initialize %q: %w", path, err)
		}
		created = true
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, created, fmt.Errorf("vault: failed to read %q: %w", path, err)
	}

	if len(blob) < crypto.SaltLength+crypto.NonceLength {
		return nil, created, ErrCorrupt
	}

	salt := blob[:crypto.SaltLength]
	nonce := blob[crypto.SaltLength : crypto.SaltLength+crypto.NonceLength]
	ciphertext := blob[crypto.SaltLength+crypto.NonceLength:]

	key := crypto.DeriveKey([]byte(passphrase), salt)
	defer crypto.SecureWipe(key)

	plaintext, err := crypto.Decrypt(key, ciphertext, nonce)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return nil, created, ErrAuthFailed
		}
		return nil, created, err
	}

	if err := json.Unmarshal(plaintext, &records); err != nil {
		return nil, created, fmt.Errorf("vault: failed to decode records: %w", err)
	}

	return records, created, nil
}

// Save encrypts the records under a fresh salt and nonce and replaces
// the file atomically (write to a temp file in the same directory, then
// rename), so a crash mid-write never leaves a half-written vault as
// the only copy.
func Save(path, passphrase string, records []store.Record) error {
	if records == nil {
		records = []store.Record{}
	}

	plaintext, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("vault: failed to encode records: %w", err)
	}

	salt, err := crypto.NewSalt()
	if err != nil {
		return err
	}

	key := crypto.DeriveKey([]byte(passphrase), salt)
	defer crypto.SecureWipe(key)

	ciphertext, nonce, err := crypto.Encrypt(key, plaintext)
	if err != nil {
		return err
	}
	crypto.SecureWipe(plaintext)

	blob := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	blob = append(blob, salt...)
	blob = append(blob, nonce...)
	blob = append(blob, ciphertext...)

	return writeAtomic(path, blob)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("vault: failed to create directory %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("vault: failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("vault: failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("vault: failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("vault: failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, FileMode); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("vault: failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("vault: failed to replace %q: %w", path, err)
	}

	return nil
}
