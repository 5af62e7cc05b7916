// Package id generates the stable string UIDs used as foreign keys across
// accounts, transactions, splits and prices.
package id

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// New returns a fresh UID: a lowercase hex UUID without dashes, matching the
// stored format of every entity key.
func New() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Validate rejects empty or malformed UIDs before they reach the store.
func Validate(uid string) error {
	if uid == "" {
		return fmt.Errorf("empty UID")
	}
	if len(uid) != 32 {
		return fmt.Errorf("UID %q: want 32 hex chars, got %d", uid, len(uid))
	}
	for _, r := range uid {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return fmt.Errorf("UID %q: invalid character %q", uid, r)
		}
	}
	return nil
}
