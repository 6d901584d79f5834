package credential

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	envelopePrefix = "todoctl.credentials.v1:"
	algorithm      = "aes-256-gcm"

	// KeyFileName is the generated key file used when no key is configured.
	KeyFileName = "credentials.key"
)

// ErrKeyMismatch is returned when a payload was sealed with another key id.
var ErrKeyMismatch = errors.New("credential: key id mismatch")

type envelope struct {
	KeyID      string `json:"kid"`
	Version    int    `json:"ver"`
	Algorithm  string `json:"alg"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

// Cipher seals credential payloads with AES-256-GCM.
type Cipher struct {
	aead    cipher.AEAD
	keyID   string
	version int
}

// NewCipher builds a cipher from arbitrary key material. Material that is not
// a valid AES key length is stretched with SHA-256.
func NewCipher(keyMaterial []byte, keyID string) (*Cipher, error) {
	key := bytes.TrimSpace(keyMaterial)
	if len(key) == 0 {
		return nil, fmt.Errorf("credential: key material is required")
	}
	if len(key) != 32 {
		sum := sha256.Sum256(key)
		key = sum[:]
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("credential: create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("credential: create gcm: %w", err)
	}

	if keyID = strings.TrimSpace(keyID); keyID == "" {
		keyID = "default"
	}
	return &Cipher{aead: aead, keyID: keyID, version: 1}, nil
}

// Seal encrypts plaintext into a self-describing envelope.
func (c *Cipher) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("credential: nonce generation failed: %w", err)
	}

	data, err := json.Marshal(envelope{
		KeyID:      c.keyID,
		Version:    c.version,
		Algorithm:  algorithm,
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(c.aead.Seal(nil, nonce, plaintext, []byte(c.keyID))),
	})
	if err != nil {
		return nil, fmt.Errorf("credential: encode envelope: %w", err)
	}
	return append([]byte(envelopePrefix), data...), nil
}

// Open decrypts an envelope produced by Seal.
func (c *Cipher) Open(sealed []byte) ([]byte, error) {
	payload, ok := bytes.CutPrefix(sealed, []byte(envelopePrefix))
	if !ok {
		return nil, fmt.Errorf("credential: unknown envelope format")
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("credential: decode envelope: %w", err)
	}
	if env.KeyID != c.keyID {
		return nil, fmt.Errorf("%w: got %q want %q", ErrKeyMismatch, env.KeyID, c.keyID)
	}
	if env.Algorithm != algorithm {
		return nil, fmt.Errorf("credential: unsupported algorithm %q", env.Algorithm)
	}

	nonce, err := base64.StdEncoding.DecodeString(env.Nonce)
	if err != nil {
		return nil, fmt.Errorf("credential: decode nonce: %w", err)
	}
	if len(nonce) != c.aead.NonceSize() {
		return nil, fmt.Errorf("credential: invalid nonce length %d", len(nonce))
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("credential: decode ciphertext: %w", err)
	}

	plaintext, err := c.aead.Open(nil, nonce, ciphertext, []byte(c.keyID))
	if err != nil {
		return nil, fmt.Errorf("credential: decrypt payload: %w", err)
	}
	return plaintext, nil
}

// LoadOrCreateKey reads the key file in dir, generating a random key with
// owner-only permissions on first use.
func LoadOrCreateKey(dir string) ([]byte, error) {
	path := filepath.Join(dir, KeyFileName)

	// #nosec G304 -- path is built from configuration, not request input
	data, err := os.ReadFile(path)
	if err == nil {
		key, decErr := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if decErr != nil {
			return nil, fmt.Errorf("credential: decode key file: %w", decErr)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("credential: read key file: %w", err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("credential: create key directory: %w", err)
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("credential: generate key: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := os.WriteFile(path, []byte(encoded+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("credential: write key file: %w", err)
	}
	return key, nil
}
