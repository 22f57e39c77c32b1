// Package password hashes and verifies local account passwords with Argon2id.
package password

import (
	"fmt"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// Params are the Argon2id parameters used for new hashes.
var Params = argon2id.DefaultParams //nolint:gochecknoglobals

// Hash returns the Argon2id encoded hash of plain.
func Hash(plain string) (string, error) {
	hash, err := argon2id.CreateHash(plain, Params)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return hash, nil
}

// Verify reports whether plain matches the encoded hash.
// An empty hash never matches, so accounts without a password can not log in.
func Verify(plain, hash string) bool {
	if hash == "" {
		return false
	}

	match, err := argon2id.ComparePasswordAndHash(plain, hash)
	if err != nil {
		log.Error().Err(err).Msg("failed to verify password")
		return false
	}

	return match
}
