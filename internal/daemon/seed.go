package daemon

import (
	"context"
	"fmt"
	"os"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/auth"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/password"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/store"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/uniuri"
)

// seed gives local accounts without a password a generated one in dev mode and prints
// the credentials once to stderr. The builtin admin account is left alone.
func seed(ctx context.Context, manager *store.Manager) error {
	generated := map[string]string{}

	_, err := manager.Update(ctx, func(doc *document.Document) error {
		for i := range doc.LocalAccounts {
			acc := &doc.LocalAccounts[i]
			if acc.PasswordHash != "" || acc.Username == auth.SuperUsername {
				continue
			}

			plain, err := uniuri.Password()
			if err != nil {
				return err
			}

			hash, err := password.Hash(plain)
			if err != nil {
				return err
			}

			acc.PasswordHash = hash
			generated[acc.Username] = plain
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to seed local accounts: %w", err)
	}

	for user, plain := range generated {
		_, _ = fmt.Fprintf(os.Stderr, "dev mode: generated password for local account %q: %s\n", user, plain)
	}

	return nil
}
