package secrets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/99designs/keyring"

	"github.com/salmonumbrella/wikigap-cli/internal/config"
)

const (
	// LLMKey names the keyring entry holding the translation model API key.
	LLMKey = "llm_api_key"

	keyringBackendEnv  = "WIKIGAP_KEYRING_BACKEND"
	keyringPasswordEnv = "WIKIGAP_KEYRING_PASSWORD"

	keyringOpenTimeout = 5 * time.Second
)

// ErrNotFound is returned when a key has no stored credential.
var ErrNotFound = errors.New("credential not found")

var errKeyringTimeout = errors.New("timed out opening keyring")

// Token is a stored credential.
type Token struct {
	Provider  string    `json:"provider"`
	Secret    string    `json:"secret"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists credentials.
type Store interface {
	GetToken(name string) (Token, error)
	SetToken(name string, tok Token) error
	DeleteToken(name string) error
	Keys() ([]string, error)
}

// KeyringBackendInfo records the selected keyring backend and where the
// choice came from.
type KeyringBackendInfo struct {
	Value  string
	Source string
}

// ResolveKeyringBackend picks the backend from the environment, then the
// config file, then "auto".
func ResolveKeyringBackend(cfg *config.Config) KeyringBackendInfo {
	if v := strings.TrimSpace(os.Getenv(keyringBackendEnv)); v != "" {
		return KeyringBackendInfo{Value: strings.ToLower(v), Source: "env"}
	}
	if cfg != nil && strings.TrimSpace(cfg.KeyringBackend) != "" {
		return KeyringBackendInfo{Value: strings.ToLower(strings.TrimSpace(cfg.KeyringBackend)), Source: "config"}
	}
	return KeyringBackendInfo{Value: "auto", Source: "default"}
}

// KeyringStore stores credentials as JSON items in the system keyring.
type KeyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore wraps an open keyring.
func NewKeyringStore(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

var keyringOpenFunc = keyring.Open

// OpenDefault opens the keyring selected by the environment and config.
func OpenDefault() (Store, error) {
	cfg, err := config.ReadConfig()
	if err != nil {
		cfg = nil
	}
	info := ResolveKeyringBackend(cfg)
	dbusAddr := os.Getenv("DBUS_SESSION_BUS_ADDRESS")

	if shouldForceFileBackend(runtime.GOOS, info, dbusAddr) {
		info = KeyringBackendInfo{Value: "file", Source: "no-dbus"}
	}

	backends, err := allowedBackends(info)
	if err != nil {
		return nil, err
	}

	if runtime.GOOS == "darwin" {
		if err := EnsureKeychainAccess(); err != nil {
			return nil, err
		}
	}

	dir, err := config.EnsureKeyringDir()
	if err != nil {
		return nil, err
	}

	kc := keyring.Config{
		ServiceName:              config.AppName,
		AllowedBackends:          backends,
		KeychainTrustApplication: true,
		FileDir:                  dir,
		FilePasswordFunc:         filePassword,
	}

	var ring keyring.Keyring
	if shouldUseKeyringTimeout(runtime.GOOS, info, dbusAddr) {
		ring, err = openKeyringWithTimeout(kc, keyringOpenTimeout)
	} else {
		ring, err = keyringOpenFunc(kc)
	}
	if err != nil {
		return nil, wrapKeychainError(fmt.Errorf("open keyring: %w", err))
	}
	return NewKeyringStore(ring), nil
}

func allowedBackends(info KeyringBackendInfo) ([]keyring.BackendType, error) {
	switch info.Value {
	case "", "auto":
		return nil, nil
	case "keychain":
		return []keyring.BackendType{keyring.KeychainBackend}, nil
	case "secret-service":
		return []keyring.BackendType{keyring.SecretServiceBackend}, nil
	case "file":
		return []keyring.BackendType{keyring.FileBackend}, nil
	default:
		return nil, fmt.Errorf("invalid keyring backend %q (from %s): expected auto, keychain, secret-service or file", info.Value, info.Source)
	}
}

func filePassword(prompt string) (string, error) {
	if pw, ok := os.LookupEnv(keyringPasswordEnv); ok {
		return pw, nil
	}
	return keyring.TerminalPrompt(prompt)
}

// shouldForceFileBackend reports whether a Linux host without a D-Bus session
// must use the file backend; the secret service would hang otherwise.
func shouldForceFileBackend(goos string, info KeyringBackendInfo, dbusAddr string) bool {
	return goos == "linux" && info.Value == "auto" && dbusAddr == ""
}

// shouldUseKeyringTimeout reports whether opening may block on a D-Bus
// secret service.
func shouldUseKeyringTimeout(goos string, info KeyringBackendInfo, dbusAddr string) bool {
	if goos != "linux" || dbusAddr == "" {
		return false
	}
	return info.Value == "auto" || info.Value == "secret-service"
}

func openKeyringWithTimeout(cfg keyring.Config, timeout time.Duration) (keyring.Keyring, error) {
	type result struct {
		ring keyring.Keyring
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		ring, err := keyringOpenFunc(cfg)
		ch <- result{ring, err}
	}()

	select {
	case res := <-ch:
		return res.ring, res.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w after %s; the D-Bus secret service did not respond. Set %s=file to use the encrypted file backend",
			errKeyringTimeout, timeout, keyringBackendEnv)
	}
}

func wrapKeychainError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	if !strings.Contains(msg, "errSecInteractionNotAllowed") && !strings.Contains(msg, "-25308") {
		return err
	}
	return fmt.Errorf("%w\n\nThe macOS keychain is locked. Unlock it and retry:\n  security unlock-keychain ~/Library/Keychains/login.keychain-db", err)
}

// GetToken implements Store.
func (s *KeyringStore) GetToken(name string) (Token, error) {
	item, err := s.ring.Get(name)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return Token{}, ErrNotFound
		}
		return Token{}, wrapKeychainError(err)
	}
	var tok Token
	if err := json.Unmarshal(item.Data, &tok); err != nil {
		return Token{}, fmt.Errorf("decode credential %q: %w", name, err)
	}
	return tok, nil
}

// SetToken implements Store.
func (s *KeyringStore) SetToken(name string, tok Token) error {
	if strings.TrimSpace(tok.Secret) == "" {
		return errors.New("credential secret is empty")
	}
	if tok.CreatedAt.IsZero() {
		tok.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return wrapKeychainError(s.ring.Set(keyring.Item{
		Key:   name,
		Data:  data,
		Label: config.AppName + " " + name,
	}))
}

// DeleteToken implements Store.
func (s *KeyringStore) DeleteToken(name string) error {
	err := s.ring.Remove(name)
	if errors.Is(err, keyring.ErrKeyNotFound) || os.IsNotExist(err) {
		return ErrNotFound
	}
	return wrapKeychainError(err)
}

// Keys implements Store.
func (s *KeyringStore) Keys() ([]string, error) {
	keys, err := s.ring.Keys()
	if err != nil {
		return nil, wrapKeychainError(err)
	}
	sort.Strings(keys)
	return keys, nil
}
