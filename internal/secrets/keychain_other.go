//go:build !darwin

package secrets

func EnsureKeychainAccess() error { return nil }

func CheckKeychainLocked() bool { return false }

func UnlockKeychain() error { return nil }

func IsKeychainLockedError(string) bool { return false }
