package credential

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "slopmail"

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/slopmail/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("slopmail-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// AccountKey returns the keyring key for an account's password.
func AccountKey(accountID int64) string {
	return "account-" + strconv.FormatInt(accountID, 10)
}

// Ref returns the opaque password reference stored on an account row
// for the given keyring key.
func Ref(key string) string {
	return "keyring:" + key
}

// KeyFromRef extracts the keyring key from a password reference. It
// returns false for references in an unrecognized format.
func KeyFromRef(ref string) (string, bool) {
	key, ok := strings.CutPrefix(ref, "keyring:")
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := openKeyring()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:  key,
		Data: []byte(value),
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring.
func Delete(key string) error {
	ring, err := openKeyring()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
