package auth

import (
	"crypto/subtle"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/password"
)

// builtinPassword is the recovery password of the permanent admin identity.
const builtinPassword = "admin"

// isBuiltinLogin reports whether the credentials are the hardcoded recovery login.
// It is checked before anything else and works with an empty or corrupt document.
func isBuiltinLogin(username, pass string) bool {
	return username == SuperUsername &&
		subtle.ConstantTimeCompare([]byte(pass), []byte(builtinPassword)) == 1
}

// verifyLocal checks username and password against the local accounts.
func verifyLocal(store *IdentityStore, username, pass string) (document.LocalAccount, bool) {
	acc, ok := store.FindLocalAccount(username)
	if !ok {
		return document.LocalAccount{}, false
	}

	if !password.Verify(pass, acc.PasswordHash) {
		return document.LocalAccount{}, false
	}

	return acc, true
}
