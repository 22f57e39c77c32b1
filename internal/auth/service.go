package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
)

// Authenticator verifies credentials against the local accounts and, when enabled,
// the directory. It keeps no state between calls.
type Authenticator struct {
	store     *IdentityStore
	directory Directory
	now       func() time.Time
}

// AuthenticatorOption customises an Authenticator.
type AuthenticatorOption func(*Authenticator)

// WithClock sets the clock used for Identity.LoginTime.
func WithClock(now func() time.Time) AuthenticatorOption {
	return func(a *Authenticator) {
		a.now = now
	}
}

// NewAuthenticator creates an authenticator. directory may be nil, in which case
// directory logins behave as disabled.
func NewAuthenticator(store *IdentityStore, directory Directory, opts ...AuthenticatorOption) *Authenticator {
	a := &Authenticator{
		store:     store,
		directory: directory,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Authenticate returns the identity for username and password.
//
// The builtin admin/admin login is checked first, then local accounts, then the
// directory if it is enabled. Errors are ErrNoSuchIdentity, ErrDirectoryUnavailable
// or *UnauthorizedGroupError; use PublicMessage to present them.
func (a *Authenticator) Authenticate(ctx context.Context, username, pass string) (*Identity, error) {
	now := a.now()

	if isBuiltinLogin(username, pass) {
		countLogin(SourceBuiltin, resultSuccess)
		log.Info().Str("user", username).Str("source", string(SourceBuiltin)).Msg("login succeeded")

		return newIdentity(username, "", SourceBuiltin, document.EmptyGrant(), now), nil
	}

	if acc, ok := verifyLocal(a.store, username, pass); ok {
		countLogin(SourceLocal, resultSuccess)
		log.Info().Str("user", username).Str("source", string(SourceLocal)).Msg("login succeeded")

		return newIdentity(acc.Username, acc.Profile, SourceLocal, acc.PortGrant, now), nil
	}

	settings := a.store.DirectorySettings()
	if !settings.Enabled || a.directory == nil || username == "" || pass == "" {
		countLogin(SourceLocal, resultFailure)
		log.Info().Str("user", username).Msg("login failed, no such identity")

		return nil, ErrNoSuchIdentity
	}

	res, err := a.directory.Authenticate(ctx, DirectoryRequest{
		Servers:      settings.Servers,
		Port:         settings.Port,
		UseTLS:       settings.UseTLS,
		SkipVerify:   settings.SkipVerify,
		BaseDN:       settings.BaseDN,
		DomainPrefix: settings.DomainPrefix,
		Username:     username,
		Password:     pass,
	})
	if err != nil {
		countLogin(SourceDirectory, resultDirFailure)
		log.Info().Str("user", username).Msg("login failed, directory bind unsuccessful")

		return nil, fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err)
	}

	grant, ok := ResolveRole(res.Groups, settings.Mappings)
	if !ok {
		countLogin(SourceDirectory, resultUnmapped)
		log.Warn().Str("user", username).Str("server", res.Server).Int("groups", len(res.Groups)).
			Msg("directory login without mapped group")

		return nil, &UnauthorizedGroupError{Username: username, Groups: GroupNames(res.Groups)}
	}

	countLogin(SourceDirectory, resultSuccess)
	log.Info().Str("user", username).Str("source", string(SourceDirectory)).Str("server", res.Server).
		Str("role", grant.Role).Msg("login succeeded")

	return newIdentity(username, grant.Role, SourceDirectory, grant.PortGrant, now), nil
}
