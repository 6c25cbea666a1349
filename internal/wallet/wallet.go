package wallet

import (
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/tyler-smith/go-bip39"
)

var (
	// ErrInvalidSecret is returned when import material is neither a valid
	// base58 secret key nor a valid recovery phrase.
	ErrInvalidSecret = errors.New("invalid secret key or recovery phrase")
)

// Well-known wallet record filenames inside the vault directory.
const (
	PrimaryFile  = "wallet.json"
	ImportedFile = "imported_wallet.json"
)

// Origin records how a wallet came into existence.
type Origin string

const (
	OriginGenerated Origin = "generated"
	OriginImported  Origin = "imported"
)

// Wallet is the signing identity record. Exactly one of Secret and Blob is
// set: a plaintext wallet carries Secret, an at-rest encrypted wallet carries
// Blob. The address is always derived from the secret at construction.
type Wallet struct {
	Address   string
	Secret    solana.PrivateKey
	Blob      *EncryptedSecret
	Origin    Origin
	CreatedAt time.Time
}

// Locked reports whether the secret key is still encrypted.
func (w *Wallet) Locked() bool {
	return w.Blob != nil
}

// Unlock decrypts the wallet's secret with the given password and returns a
// plaintext copy. The receiver is not mutated.
func (w *Wallet) Unlock(password []byte) (*Wallet, error) {
	if !w.Locked() {
		return w, nil
	}
	secret, err := Decrypt(w.Blob, password)
	if err != nil {
		return nil, err
	}
	return &Wallet{
		Address:   w.Address,
		Secret:    solana.PrivateKey(secret),
		Origin:    w.Origin,
		CreatedAt: w.CreatedAt,
	}, nil
}

// Vault generates, imports and persists wallet records.
type Vault struct {
	dir    string
	logger *slog.Logger
}

// NewVault creates a Vault storing records under dir.
func NewVault(dir string, logger *slog.Logger) *Vault {
	return &Vault{dir: dir, logger: logger}
}

// PrimaryPath returns the path of the generated wallet record.
func (v *Vault) PrimaryPath() string { return filepath.Join(v.dir, PrimaryFile) }

// ImportedPath returns the path of the imported wallet record.
func (v *Vault) ImportedPath() string { return filepath.Join(v.dir, ImportedFile) }

// Generate produces a fresh random keypair. With a non-empty password the
// secret is encrypted before it is placed in the returned record and the
// plaintext does not leave this call.
func (v *Vault) Generate(password []byte) (*Wallet, error) {
	kp := solana.NewWallet()
	w, err := newWallet(kp.PrivateKey, OriginGenerated, password)
	if err != nil {
		return nil, err
	}
	v.logger.Info("wallet generated", "address", w.Address, "encrypted", w.Locked())
	return w, nil
}

// Import builds a wallet from either a base58-encoded secret key or a BIP-39
// recovery phrase. Malformed material yields ErrInvalidSecret and nothing is
// persisted.
func (v *Vault) Import(material string, password []byte) (*Wallet, error) {
	secret, err := parseSecret(material)
	if err != nil {
		return nil, err
	}

	w, err := newWallet(secret, OriginImported, password)
	if err != nil {
		return nil, err
	}
	v.logger.Info("wallet imported", "address", w.Address, "encrypted", w.Locked())
	return w, nil
}

func parseSecret(material string) (solana.PrivateKey, error) {
	material = strings.TrimSpace(material)
	if material == "" {
		return nil, ErrInvalidSecret
	}

	// A phrase with spaces is treated as a mnemonic, anything else as a
	// base58 secret key.
	if strings.Contains(material, " ") {
		if !bip39.IsMnemonicValid(material) {
			return nil, ErrInvalidSecret
		}
		seed := bip39.NewSeed(material, "")
		defer clear(seed)
		key := ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize])
		return solana.PrivateKey(key), nil
	}

	key, err := solana.PrivateKeyFromBase58(material)
	if err != nil || len(key) != ed25519.PrivateKeySize {
		return nil, ErrInvalidSecret
	}
	return key, nil
}

func newWallet(secret solana.PrivateKey, origin Origin, password []byte) (*Wallet, error) {
	w := &Wallet{
		Address:   secret.PublicKey().String(),
		Origin:    origin,
		CreatedAt: time.Now().UTC(),
	}
	if len(password) == 0 {
		w.Secret = secret
		return w, nil
	}
	blob, err := Encrypt(secret, password)
	if err != nil {
		return nil, err
	}
	clear(secret) // plaintext never leaves this call when a password is set
	w.Blob = blob
	return w, nil
}

// walletFile is the on-disk JSON shape of one wallet record.
type walletFile struct {
	Address      string           `json:"address"`
	SecretKey    string           `json:"secret_key,omitempty"`
	EncryptedKey *EncryptedSecret `json:"encrypted_key,omitempty"`
	Encrypted    bool             `json:"encrypted"`
	Origin       Origin           `json:"origin"`
	CreatedAt    time.Time        `json:"created_at"`
}

// Save writes one wallet record to path. Plaintext secrets are stored base58
// encoded, encrypted secrets keep their blob as-is.
func (v *Vault) Save(w *Wallet, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create wallet dir: %w", err)
	}

	record := walletFile{
		Address:      w.Address,
		EncryptedKey: w.Blob,
		Encrypted:    w.Locked(),
		Origin:       w.Origin,
		CreatedAt:    w.CreatedAt,
	}
	if !w.Locked() {
		record.SecretKey = w.Secret.String()
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal wallet record: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write wallet file: %w", err)
	}
	v.logger.Info("wallet saved", "path", path, "address", w.Address)
	return nil
}

// Load reads one wallet record from path. A missing file returns (nil, nil).
// An encrypted record is decrypted when a password is supplied; without one
// the record is returned still locked and the caller must Unlock it.
func (v *Vault) Load(path string, password []byte) (*Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read wallet file: %w", err)
	}

	var record walletFile
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet record: %w", err)
	}

	w := &Wallet{
		Address:   record.Address,
		Origin:    record.Origin,
		CreatedAt: record.CreatedAt,
	}

	if record.Encrypted {
		if record.EncryptedKey == nil {
			return nil, fmt.Errorf("wallet record %s marked encrypted but has no blob", path)
		}
		w.Blob = record.EncryptedKey
		if len(password) == 0 {
			return w, nil
		}
		return w.Unlock(password)
	}

	secret, err := solana.PrivateKeyFromBase58(record.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("wallet record %s has malformed secret key: %w", path, err)
	}
	w.Secret = secret
	return w, nil
}

// IsValidAddress reports whether s parses as a Solana public key.
func IsValidAddress(s string) bool {
	_, err := solana.PublicKeyFromBase58(s)
	return err == nil
}
