package secrets

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/99designs/keyring"
)

func TestWrapKeychainError_IncludesRecoveryInstructions(t *testing.T) {
	// Test locked keychain error
	lockedErr := fmt.Errorf("operation failed: errSecInteractionNotAllowed -25308")
	wrapped := wrapKeychainError(lockedErr)

	errStr := wrapped.Error()
	if !strings.Contains(errStr, "security unlock-keychain") {
		t.Errorf("wrapKeychainError() should include unlock instructions, got: %s", errStr)
	}
}

func TestWrapKeychainError_NilError(t *testing.T) {
	wrapped := wrapKeychainError(nil)
	if wrapped != nil {
		t.Errorf("wrapKeychainError(nil) should return nil, got: %v", wrapped)
	}
}

func TestWrapKeychainError_NonLockedError(t *testing.T) {
	originalErr := fmt.Errorf("some other error")
	wrapped := wrapKeychainError(originalErr)

	if wrapped != originalErr {
		t.Errorf("wrapKeychainError() should return original error unchanged for non-locked errors, got: %v", wrapped)
	}
}

func TestKeyringTimeoutError_IncludesRecoveryInstructions(t *testing.T) {
	// Save original function
	originalOpen := keyringOpenFunc

	// Channel to signal when mock function has completed
	mockDone := make(chan struct{})

	// Mock a slow keyring open that blocks longer than timeout
	keyringOpenFunc = func(_ keyring.Config) (keyring.Keyring, error) {
		defer close(mockDone)
		time.Sleep(200 * time.Millisecond)
		return &fakeKeyring{}, nil
	}

	_, err := openKeyringWithTimeout(keyring.Config{}, 50*time.Millisecond)

	// Wait for goroutine to finish before restoring original function
	<-mockDone
	keyringOpenFunc = originalOpen

	if err == nil {
		t.Fatal("openKeyringWithTimeout() expected error, got nil")
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "WIKIGAP_KEYRING_BACKEND=file") {
		t.Errorf("timeout error should mention file backend, got: %s", errStr)
	}
}

type memoryRing struct {
	fakeKeyring
	items map[string]keyring.Item
}

func (m *memoryRing) Get(key string) (keyring.Item, error) {
	item, ok := m.items[key]
	if !ok {
		return keyring.Item{}, keyring.ErrKeyNotFound
	}
	return item, nil
}

func (m *memoryRing) Set(item keyring.Item) error {
	m.items[item.Key] = item
	return nil
}

func (m *memoryRing) Remove(key string) error {
	if _, ok := m.items[key]; !ok {
		return keyring.ErrKeyNotFound
	}
	delete(m.items, key)
	return nil
}

func (m *memoryRing) Keys() ([]string, error) {
	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	return keys, nil
}

func TestKeyringStore_TokenLifecycle(t *testing.T) {
	store := NewKeyringStore(&memoryRing{items: map[string]keyring.Item{}})

	if _, err := store.GetToken(LLMKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetToken() on empty store error = %v, want ErrNotFound", err)
	}
	if err := store.SetToken(LLMKey, Token{Provider: "anthropic"}); err == nil {
		t.Fatal("SetToken() with empty secret should fail")
	}
	if err := store.SetToken(LLMKey, Token{Provider: "anthropic", Secret: "sk-test"}); err != nil {
		t.Fatalf("SetToken() error = %v", err)
	}

	tok, err := store.GetToken(LLMKey)
	if err != nil {
		t.Fatalf("GetToken() error = %v", err)
	}
	if tok.Secret != "sk-test" || tok.Provider != "anthropic" {
		t.Errorf("GetToken() = %+v", tok)
	}
	if tok.CreatedAt.IsZero() {
		t.Error("SetToken() should stamp CreatedAt")
	}

	keys, err := store.Keys()
	if err != nil || len(keys) != 1 || keys[0] != LLMKey {
		t.Errorf("Keys() = %v, %v", keys, err)
	}

	if err := store.DeleteToken(LLMKey); err != nil {
		t.Fatalf("DeleteToken() error = %v", err)
	}
	if err := store.DeleteToken(LLMKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteToken() error = %v, want ErrNotFound", err)
	}
}

func TestAllowedBackends(t *testing.T) {
	for _, v := range []string{"auto", "keychain", "secret-service", "file"} {
		if _, err := allowedBackends(KeyringBackendInfo{Value: v}); err != nil {
			t.Errorf("allowedBackends(%q) error = %v", v, err)
		}
	}
	if _, err := allowedBackends(KeyringBackendInfo{Value: "vault", Source: "env"}); err == nil {
		t.Error("allowedBackends(vault) should fail")
	}
}

func TestResolveKeyringBackend(t *testing.T) {
	t.Setenv("WIKIGAP_KEYRING_BACKEND", "")
	if got := ResolveKeyringBackend(nil); got.Value != "auto" || got.Source != "default" {
		t.Errorf("default backend = %+v", got)
	}

	t.Setenv("WIKIGAP_KEYRING_BACKEND", "FILE")
	if got := ResolveKeyringBackend(nil); got.Value != "file" || got.Source != "env" {
		t.Errorf("env backend = %+v", got)
	}
}
