//go:build integration

package secrets

import (
	"runtime"
	"testing"
)

func TestFileBackendRoundTrip_Integration(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("file backend fallback is exercised on Linux")
	}

	t.Setenv("HOME", t.TempDir())
	t.Setenv("DBUS_SESSION_BUS_ADDRESS", "")
	t.Setenv("WIKIGAP_KEYRING_BACKEND", "file")
	t.Setenv("WIKIGAP_KEYRING_PASSWORD", "testpassword")

	store, err := OpenDefault()
	if err != nil {
		t.Fatalf("OpenDefault() with file backend failed: %v", err)
	}
	if err := store.SetToken(LLMKey, Token{Provider: "anthropic", Secret: "sk-test"}); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	tok, err := store.GetToken(LLMKey)
	if err != nil || tok.Secret != "sk-test" {
		t.Fatalf("GetToken = %+v, %v", tok, err)
	}
	if err := store.DeleteToken(LLMKey); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
}

func TestKeychainAccess_Integration(t *testing.T) {
	if runtime.GOOS != "darwin" {
		t.Skip("keychain tests only run on macOS")
	}
	if err := EnsureKeychainAccess(); err != nil {
		t.Logf("keychain may be locked: %v", err)
	}
}
