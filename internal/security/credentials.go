// Package security provides credential encryption and log masking.
package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// EncryptionKeySize is the size of the AES-256 key in bytes.
	EncryptionKeySize = 32
	// SaltSize is the size of the salt for key derivation.
	SaltSize = 16
	// NonceSize is the size of the GCM nonce.
	NonceSize = 12
	// PBKDF2Iterations is the number of iterations for key derivation.
	PBKDF2Iterations = 100000

	encryptedFileName = "credentials.enc"
)

// PlainCredentials holds decrypted credential data.
type PlainCredentials struct {
	Market MarketCredentials `json:"market"`
	OpenAI OpenAICredentials `json:"openai"`
}

// MarketCredentials holds the market data provider API key.
type MarketCredentials struct {
	APIKey string `json:"api_key"`
}

// OpenAICredentials holds OpenAI API credentials.
type OpenAICredentials struct {
	APIKey string `json:"api_key"`
}

// encryptedCredentials is the on-disk envelope.
type encryptedCredentials struct {
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
	Version    int    `json:"version"`
}

// CredentialManager stores credentials encrypted at rest with a key
// derived from a master password.
type CredentialManager struct {
	configDir string

	mu        sync.RWMutex
	masterKey []byte
	envelope  *encryptedCredentials
}

// NewCredentialManager creates a credential manager rooted at the
// given config directory.
func NewCredentialManager(configDir string) *CredentialManager {
	return &CredentialManager{configDir: configDir}
}

// Initialize unlocks the manager with the master password, creating an
// empty encrypted file if none exists yet.
func (cm *CredentialManager) Initialize(masterPassword string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	path := filepath.Join(cm.configDir, encryptedFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cm.save(masterPassword, &PlainCredentials{}, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading encrypted credentials: %w", err)
	}

	env := &encryptedCredentials{}
	if err := json.Unmarshal(data, env); err != nil {
		return fmt.Errorf("parsing encrypted credentials: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(env.Salt)
	if err != nil {
		return fmt.Errorf("decoding salt: %w", err)
	}

	cm.masterKey = deriveKey(masterPassword, salt)
	cm.envelope = env

	// Verify the password by attempting a decrypt.
	if _, err := cm.decryptLocked(); err != nil {
		cm.masterKey = nil
		cm.envelope = nil
		return fmt.Errorf("invalid master password")
	}
	return nil
}

// GetCredentials returns the decrypted credentials.
func (cm *CredentialManager) GetCredentials() (*PlainCredentials, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.decryptLocked()
}

func (cm *CredentialManager) decryptLocked() (*PlainCredentials, error) {
	if cm.masterKey == nil || cm.envelope == nil {
		return nil, fmt.Errorf("credential manager not initialized")
	}

	nonce, err := base64.StdEncoding.DecodeString(cm.envelope.Nonce)
	if err != nil {
		return nil, fmt.Errorf("decoding nonce: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(cm.envelope.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decoding ciphertext: %w", err)
	}

	plaintext, err := decrypt(ciphertext, cm.masterKey, nonce)
	if err != nil {
		return nil, fmt.Errorf("decrypting credentials: %w", err)
	}

	creds := &PlainCredentials{}
	if err := json.Unmarshal(plaintext, creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	return creds, nil
}

// UpdateCredentials re-encrypts and persists new credential values.
func (cm *CredentialManager) UpdateCredentials(creds *PlainCredentials) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.masterKey == nil || cm.envelope == nil {
		return fmt.Errorf("credential manager not initialized")
	}

	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("serializing credentials: %w", err)
	}

	nonce, ciphertext, err := encrypt(plaintext, cm.masterKey)
	if err != nil {
		return fmt.Errorf("encrypting credentials: %w", err)
	}

	cm.envelope.Nonce = base64.StdEncoding.EncodeToString(nonce)
	cm.envelope.Ciphertext = base64.StdEncoding.EncodeToString(ciphertext)

	return cm.writeEnvelope(filepath.Join(cm.configDir, encryptedFileName))
}

// ClearSession wipes the master key from memory.
func (cm *CredentialManager) ClearSession() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for i := range cm.masterKey {
		cm.masterKey[i] = 0
	}
	cm.masterKey = nil
	cm.envelope = nil
}

func (cm *CredentialManager) save(masterPassword string, creds *PlainCredentials, path string) error {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("generating salt: %w", err)
	}

	key := deriveKey(masterPassword, salt)

	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("serializing credentials: %w", err)
	}

	nonce, ciphertext, err := encrypt(plaintext, key)
	if err != nil {
		return fmt.Errorf("encrypting credentials: %w", err)
	}

	cm.masterKey = key
	cm.envelope = &encryptedCredentials{
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		Version:    1,
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return cm.writeEnvelope(path)
}

func (cm *CredentialManager) writeEnvelope(path string) error {
	data, err := json.MarshalIndent(cm.envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing encrypted credentials: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing encrypted credentials: %w", err)
	}
	return nil
}

// deriveKey derives an encryption key from a password using PBKDF2.
func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, PBKDF2Iterations, EncryptionKeySize, sha256.New)
}

// encrypt encrypts plaintext using AES-256-GCM.
func encrypt(plaintext, key []byte) (nonce, ciphertext []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("creating GCM: %w", err)
	}

	nonce = make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, fmt.Errorf("generating nonce: %w", err)
	}

	ciphertext = gcm.Seal(nil, nonce, plaintext, nil)
	return nonce, ciphertext, nil
}

// decrypt decrypts ciphertext using AES-256-GCM.
func decrypt(ciphertext, key, nonce []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	return plaintext, nil
}
