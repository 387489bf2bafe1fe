// Package auth issues and verifies access tokens and resolves bearer tokens to users.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// PASETO v4 requires a 256-bit (32-byte) symmetric key.
	keyLength = 32
	// KeyFileName is the key file created under the data directory.
	KeyFileName = "auth.key"
)

// LoadOrGenerateKey reads the hex-encoded token key from <dataPath>/auth.key,
// creating the file with a fresh random key on first run. An explicit keyHex
// (from configuration) wins over the file.
func LoadOrGenerateKey(dataPath, keyHex string) ([]byte, error) {
	if keyHex != "" {
		return decodeKey(keyHex, "configured auth key")
	}

	keyPath := filepath.Join(dataPath, KeyFileName)

	//#nosec G304 -- key path is derived from the configured data directory
	if raw, err := os.ReadFile(keyPath); err == nil {
		return decodeKey(string(raw), keyPath)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read auth key: %w", err)
	}

	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate auth key: %w", err)
	}

	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("failed to save auth key: %w", err)
	}

	return key, nil
}

func decodeKey(keyHex, source string) ([]byte, error) {
	keyHex = strings.TrimSpace(keyHex)
	if len(keyHex) != keyLength*2 {
		return nil, fmt.Errorf("%s: expected %d hex chars, got %d", source, keyLength*2, len(keyHex))
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("%s: not valid hex: %w", source, err)
	}
	return key, nil
}
