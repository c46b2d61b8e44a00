//go:build darwin

package secrets

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

// EnsureKeychainAccess unlocks the login keychain when it is locked and a
// terminal is attached.
func EnsureKeychainAccess() error {
	if !CheckKeychainLocked() {
		return nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("login keychain is locked; run: security unlock-keychain %s", loginKeychainPath())
	}
	return UnlockKeychain()
}

// CheckKeychainLocked reports whether the login keychain is locked.
func CheckKeychainLocked() bool {
	out, err := exec.Command("security", "show-keychain-info", loginKeychainPath()).CombinedOutput()
	if err != nil {
		return IsKeychainLockedError(string(out)) || strings.Contains(string(out), "locked")
	}
	return false
}

// UnlockKeychain prompts for the keychain password.
func UnlockKeychain() error {
	cmd := exec.Command("security", "unlock-keychain", loginKeychainPath())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("unlock keychain: %w", err)
	}
	return nil
}

// IsKeychainLockedError reports whether s carries the locked keychain status.
func IsKeychainLockedError(s string) bool {
	return strings.Contains(s, "errSecInteractionNotAllowed") || strings.Contains(s, "-25308")
}

func loginKeychainPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "~"
	}
	return filepath.Join(home, "Library", "Keychains", "login.keychain-db")
}
