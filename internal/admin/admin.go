// Package admin implements the operator edits of profiles, local accounts, directory
// and e-mail settings. Every edit requires write access on the System module, runs as one
// serialised update of the configuration document and is recorded to the audit trail.
package admin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/audit"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/auth"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/password"
)

var (
	// ErrNotFound is returned when the profile, account or mapping does not exist.
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when creating something that already exists.
	ErrExists = errors.New("already exists")
	// ErrReservedProfile is returned when changing or deleting the Super_User profile.
	ErrReservedProfile = errors.New("profile is reserved")
	// ErrProfileInUse is returned when deleting a profile an account or mapping references.
	ErrProfileInUse = errors.New("profile is in use")
	// ErrInvalid is returned when input fails validation.
	ErrInvalid = errors.New("invalid input")
)

// Updater is the serialised access to the configuration document.
type Updater interface {
	Snapshot() *document.Document
	Update(ctx context.Context, fn func(doc *document.Document) error) (*document.Document, error)
}

// Service performs administrative edits.
type Service struct {
	docs     Updater
	engine   *auth.Engine
	recorder *audit.Recorder
}

// New creates the administration service.
func New(docs Updater, engine *auth.Engine, recorder *audit.Recorder) *Service {
	return &Service{docs: docs, engine: engine, recorder: recorder}
}

// AccountRequest creates a local account.
type AccountRequest struct {
	Username string `json:"user"     validate:"required,max=128,excludesall=\\@"`
	Password string `json:"password" validate:"required,min=8"`
	Profile  string `json:"profile"  validate:"required"`
	document.PortGrant
}

// AccountView is a local account without its password hash.
type AccountView struct {
	Username    string `json:"user"`
	Profile     string `json:"profile"`
	HasPassword bool   `json:"has_password"`
	document.PortGrant
}

// DNS are the name servers pushed to managed devices.
type DNS struct {
	Primary   string `json:"primary_dns"   validate:"omitempty,ip"`
	Secondary string `json:"secondary_dns" validate:"omitempty,ip"`
}

// Profiles lists the profiles.
func (s *Service) Profiles(actor *auth.Identity) ([]document.Profile, error) {
	doc, err := s.read(actor)
	if err != nil {
		return nil, err
	}

	return doc.AdminProfiles, nil
}

// Accounts lists the local accounts.
func (s *Service) Accounts(actor *auth.Identity) ([]AccountView, error) {
	doc, err := s.read(actor)
	if err != nil {
		return nil, err
	}

	out := make([]AccountView, 0, len(doc.LocalAccounts))
	for _, a := range doc.LocalAccounts {
		out = append(out, AccountView{
			Username:    a.Username,
			Profile:     a.Profile,
			HasPassword: a.PasswordHash != "",
			PortGrant:   a.PortGrant.Clone(),
		})
	}

	return out, nil
}

// Directory returns the directory settings.
func (s *Service) Directory(actor *auth.Identity) (document.DirectorySettings, error) {
	doc, err := s.read(actor)
	if err != nil {
		return document.DirectorySettings{}, err
	}

	return doc.LDAPSettings, nil
}

// Email returns the notification settings without the sender password.
func (s *Service) Email(actor *auth.Identity) (document.EmailSettings, error) {
	doc, err := s.read(actor)
	if err != nil {
		return document.EmailSettings{}, err
	}

	out := doc.EmailSettings
	out.SenderPassword = ""

	return out, nil
}

// SaveProfile creates a profile or, when originalName is set, edits and possibly
// renames it. References to a renamed profile follow the new name.
func (s *Service) SaveProfile(ctx context.Context, actor *auth.Identity, originalName string, p document.Profile) error {
	p.Name = strings.TrimSpace(p.Name)

	if err := validateStruct(&p); err != nil {
		return err
	}

	if p.Name == document.SuperUserProfile || originalName == document.SuperUserProfile {
		return fmt.Errorf("%w: %s", ErrReservedProfile, document.SuperUserProfile)
	}

	action := "CreateProfile"
	if originalName != "" {
		action = "EditProfile"
	}

	return s.update(ctx, actor, action, "name="+p.Name, func(doc *document.Document) error {
		if originalName == "" {
			if _, ok := doc.FindProfile(p.Name); ok {
				return fmt.Errorf("%w: profile %s", ErrExists, p.Name)
			}

			doc.AdminProfiles = append(doc.AdminProfiles, p)

			return nil
		}

		existing, ok := doc.FindProfile(originalName)
		if !ok {
			return fmt.Errorf("%w: profile %s", ErrNotFound, originalName)
		}

		if p.Name != originalName {
			if _, taken := doc.FindProfile(p.Name); taken {
				return fmt.Errorf("%w: profile %s", ErrExists, p.Name)
			}

			renameProfile(doc, originalName, p.Name)
		}

		*existing = p

		return nil
	})
}

func renameProfile(doc *document.Document, from, to string) {
	for i := range doc.LocalAccounts {
		if doc.LocalAccounts[i].Profile == from {
			doc.LocalAccounts[i].Profile = to
		}
	}

	for i := range doc.LDAPSettings.Mappings {
		if doc.LDAPSettings.Mappings[i].Profile == from {
			doc.LDAPSettings.Mappings[i].Profile = to
		}
	}
}

// DeleteProfile removes an unreferenced profile.
func (s *Service) DeleteProfile(ctx context.Context, actor *auth.Identity, name string) error {
	if name == document.SuperUserProfile {
		return fmt.Errorf("%w: %s", ErrReservedProfile, name)
	}

	return s.update(ctx, actor, "DeleteProfile", "name="+name, func(doc *document.Document) error {
		if _, ok := doc.FindProfile(name); !ok {
			return fmt.Errorf("%w: profile %s", ErrNotFound, name)
		}

		if doc.ProfileInUse(name) {
			return fmt.Errorf("%w: %s", ErrProfileInUse, name)
		}

		doc.AdminProfiles = slices.DeleteFunc(doc.AdminProfiles, func(p document.Profile) bool {
			return p.Name == name
		})

		return nil
	})
}

// CreateAccount adds a local account with a hashed password.
func (s *Service) CreateAccount(ctx context.Context, actor *auth.Identity, req AccountRequest) error {
	req.Username = strings.TrimSpace(req.Username)

	if err := validateStruct(&req); err != nil {
		return err
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return err
	}

	details := "user=" + req.Username + " profile=" + req.Profile

	return s.update(ctx, actor, "CreateAccount", details, func(doc *document.Document) error {
		if _, ok := doc.FindAccount(req.Username); ok {
			return fmt.Errorf("%w: account %s", ErrExists, req.Username)
		}

		if _, ok := doc.FindProfile(req.Profile); !ok {
			return fmt.Errorf("%w: profile %s", ErrNotFound, req.Profile)
		}

		doc.LocalAccounts = append(doc.LocalAccounts, document.LocalAccount{
			Username:     req.Username,
			PasswordHash: hash,
			Profile:      req.Profile,
			PortGrant:    req.PortGrant.Normalize(),
		})

		return nil
	})
}

// SetAccountPassword replaces the password of a local account.
func (s *Service) SetAccountPassword(ctx context.Context, actor *auth.Identity, username, plain string) error {
	if len(plain) < minPasswordLength {
		return fmt.Errorf("%w: password must have at least %d characters", ErrInvalid, minPasswordLength)
	}

	hash, err := password.Hash(plain)
	if err != nil {
		return err
	}

	return s.update(ctx, actor, "SetAccountPassword", "user="+username, func(doc *document.Document) error {
		acc, ok := doc.FindAccount(username)
		if !ok {
			return fmt.Errorf("%w: account %s", ErrNotFound, username)
		}

		acc.PasswordHash = hash

		return nil
	})
}

// DeleteAccount removes a local account.
func (s *Service) DeleteAccount(ctx context.Context, actor *auth.Identity, username string) error {
	return s.update(ctx, actor, "DeleteAccount", "user="+username, func(doc *document.Document) error {
		if _, ok := doc.FindAccount(username); !ok {
			return fmt.Errorf("%w: account %s", ErrNotFound, username)
		}

		doc.LocalAccounts = slices.DeleteFunc(doc.LocalAccounts, func(a document.LocalAccount) bool {
			return a.Username == username
		})

		return nil
	})
}

// SetAccountPorts replaces the port whitelist of a local account.
func (s *Service) SetAccountPorts(ctx context.Context, actor *auth.Identity, username string, grant document.PortGrant) error {
	grant = grant.Normalize()

	return s.update(ctx, actor, "SetAccountPorts", "user="+username+" "+describeGrant(grant), func(doc *document.Document) error {
		acc, ok := doc.FindAccount(username)
		if !ok {
			return fmt.Errorf("%w: account %s", ErrNotFound, username)
		}

		acc.PortGrant = grant

		return nil
	})
}

// SetMappingPorts replaces the port whitelist of the group mapping matching groupMatch.
func (s *Service) SetMappingPorts(ctx context.Context, actor *auth.Identity, groupMatch string, grant document.PortGrant) error {
	grant = grant.Normalize()

	return s.update(ctx, actor, "SetMappingPorts", "group="+groupMatch+" "+describeGrant(grant), func(doc *document.Document) error {
		for i := range doc.LDAPSettings.Mappings {
			if doc.LDAPSettings.Mappings[i].GroupMatch == groupMatch {
				doc.LDAPSettings.Mappings[i].PortGrant = grant
				return nil
			}
		}

		return fmt.Errorf("%w: mapping %s", ErrNotFound, groupMatch)
	})
}

// UpdateDirectorySettings replaces the directory connection settings. Group mappings
// are kept, they are edited with SetGroupMappings.
func (s *Service) UpdateDirectorySettings(ctx context.Context, actor *auth.Identity, settings document.DirectorySettings) error {
	servers := make([]string, 0, len(settings.Servers))

	for _, srv := range settings.Servers {
		if srv = strings.TrimSpace(srv); srv != "" {
			servers = append(servers, srv)
		}
	}

	settings.Servers = servers

	if settings.Port == 0 {
		settings.Port = document.ConventionalPort(settings.UseTLS)
	}

	if settings.Enabled && len(settings.Servers) == 0 {
		return fmt.Errorf("%w: directory login needs at least one server", ErrInvalid)
	}

	details := fmt.Sprintf("enabled=%t servers=%s port=%d tls=%t skip_verify=%t",
		settings.Enabled, strings.Join(settings.Servers, ","), settings.Port, settings.UseTLS, settings.SkipVerify)

	return s.update(ctx, actor, "UpdateDirectorySettings", details, func(doc *document.Document) error {
		settings.Mappings = doc.LDAPSettings.Mappings
		doc.LDAPSettings = settings

		return nil
	})
}

// SetGroupMappings replaces the ordered list of group mappings. Order is precedence.
func (s *Service) SetGroupMappings(ctx context.Context, actor *auth.Identity, mappings []document.GroupMapping) error {
	out := make([]document.GroupMapping, 0, len(mappings))

	for _, m := range mappings {
		m.GroupMatch = strings.TrimSpace(m.GroupMatch)
		m.PortGrant = m.PortGrant.Normalize()
		out = append(out, m)
	}

	return s.update(ctx, actor, "SetGroupMappings", fmt.Sprintf("count=%d", len(out)), func(doc *document.Document) error {
		doc.LDAPSettings.Mappings = out
		return nil
	})
}

// UpdateEmailSettings replaces the notification settings. An empty sender password
// keeps the stored one.
func (s *Service) UpdateEmailSettings(ctx context.Context, actor *auth.Identity, settings document.EmailSettings) error {
	if settings.ReceiverEmails == nil {
		settings.ReceiverEmails = []string{}
	}

	details := fmt.Sprintf("enabled=%t server=%s receivers=%d", settings.Enabled, settings.SMTPServer, len(settings.ReceiverEmails))

	return s.update(ctx, actor, "UpdateEmailSettings", details, func(doc *document.Document) error {
		if settings.SenderPassword == "" {
			settings.SenderPassword = doc.EmailSettings.SenderPassword
		}

		doc.EmailSettings = settings

		return nil
	})
}

// DNS returns the name servers.
func (s *Service) DNS(actor *auth.Identity) (DNS, error) {
	doc, err := s.read(actor)
	if err != nil {
		return DNS{}, err
	}

	return DNS{Primary: doc.PrimaryDNS, Secondary: doc.SecondaryDNS}, nil
}

// UpdateDNS replaces both name servers. An empty value clears it.
func (s *Service) UpdateDNS(ctx context.Context, actor *auth.Identity, dns DNS) error {
	dns.Primary = strings.TrimSpace(dns.Primary)
	dns.Secondary = strings.TrimSpace(dns.Secondary)

	if err := validateStruct(dns); err != nil {
		return err
	}

	details := "primary=" + dns.Primary + " secondary=" + dns.Secondary

	return s.update(ctx, actor, "UpdateDNS", details, func(doc *document.Document) error {
		doc.PrimaryDNS = dns.Primary
		doc.SecondaryDNS = dns.Secondary

		return nil
	})
}

// AuditLog returns audit entries, newest first. It requires read access on Logs.
func (s *Service) AuditLog(actor *auth.Identity, q audit.Query) ([]audit.Entry, error) {
	if err := s.engine.Require(actor, document.ModuleLogs, document.LevelRead); err != nil {
		return nil, err
	}

	if s.recorder == nil {
		return nil, audit.ErrNotReadable
	}

	return s.recorder.Entries(q)
}

const minPasswordLength = 8

func (s *Service) read(actor *auth.Identity) (*document.Document, error) {
	if err := s.engine.Require(actor, document.ModuleSystem, document.LevelRead); err != nil {
		return nil, err
	}

	doc := s.docs.Snapshot()
	if doc == nil {
		return document.Default(), nil
	}

	return doc, nil
}

// update checks System write, applies fn and records the action on success.
func (s *Service) update(ctx context.Context, actor *auth.Identity, action, details string, fn func(doc *document.Document) error) error {
	if err := s.engine.Require(actor, document.ModuleSystem, document.LevelWrite); err != nil {
		return err
	}

	if _, err := s.docs.Update(ctx, fn); err != nil {
		log.Warn().Err(err).Str("user", actor.Username).Str("action", action).Msg("administrative change failed")
		return err
	}

	log.Info().Str("user", actor.Username).Str("action", action).Msg("administrative change saved")

	if s.recorder != nil {
		s.recorder.Record(ctx, actor.Username, action, "", details)
	}

	return nil
}

func validateStruct(v any) error {
	if err := document.Validator().Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return nil
}

func describeGrant(g document.PortGrant) string {
	devices := make([]string, 0, len(g.DeviceAllowedPorts))
	for d, ports := range g.DeviceAllowedPorts {
		devices = append(devices, d+":"+strings.Join(ports, "|"))
	}

	slices.Sort(devices)

	return "global=" + strings.Join(g.GlobalAllowedPorts, "|") + " devices=" + strings.Join(devices, ",")
}
