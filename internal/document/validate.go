package document

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidDocument is returned when a field violates its constraints.
	ErrInvalidDocument = errors.New("invalid configuration document")
	// ErrDuplicateProfile is returned when two profiles share a name.
	ErrDuplicateProfile = errors.New("duplicate profile name")
	// ErrDuplicateAccount is returned when two local accounts share a username.
	ErrDuplicateAccount = errors.New("duplicate local account")
	// ErrUnknownProfile is returned when an account or mapping references a missing profile.
	ErrUnknownProfile = errors.New("unknown profile")
)

var (
	validate     *validator.Validate //nolint:gochecknoglobals
	validateOnce sync.Once           //nolint:gochecknoglobals
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})

	return validate
}

// Validate checks field constraints and cross references of the document.
func Validate(doc *Document) error {
	if err := Validator().Struct(doc); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	seen := make(map[string]struct{}, len(doc.AdminProfiles))

	for _, p := range doc.AdminProfiles {
		if _, ok := seen[p.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateProfile, p.Name)
		}

		seen[p.Name] = struct{}{}
	}

	users := make(map[string]struct{}, len(doc.LocalAccounts))

	for _, a := range doc.LocalAccounts {
		if _, ok := users[a.Username]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateAccount, a.Username)
		}

		users[a.Username] = struct{}{}

		if _, ok := seen[a.Profile]; !ok {
			return fmt.Errorf("%w: %s (account %s)", ErrUnknownProfile, a.Profile, a.Username)
		}
	}

	for _, m := range doc.LDAPSettings.Mappings {
		if _, ok := seen[m.Profile]; !ok {
			return fmt.Errorf("%w: %s (mapping %s)", ErrUnknownProfile, m.Profile, m.GroupMatch)
		}
	}

	return nil
}
