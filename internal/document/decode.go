package document

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/password"
)

// ErrConfigCorrupt is returned together with a default document when the stored bytes
// can not be parsed. Callers log it and keep serving with the defaults.
var ErrConfigCorrupt = errors.New("configuration document is corrupt")

type rawGrant struct {
	GlobalAllowedPorts []string            `json:"global_allowed_ports"`
	DeviceAllowedPorts map[string][]string `json:"device_allowed_ports"`
	// AllowedPorts is the legacy key: a list for mappings, an object for accounts.
	AllowedPorts json.RawMessage `json:"allowed_ports"`
}

type rawAccount struct {
	Username     string  `json:"user"`
	Password     *string `json:"password"`
	PasswordHash string  `json:"password_hash"`
	Profile      string  `json:"profile"`
	rawGrant
}

type rawMapping struct {
	GroupMatch string `json:"group_dn"`
	Profile    string `json:"profile"`
	rawGrant
}

type rawDirectory struct {
	Enabled      bool         `json:"enabled"`
	Servers      []string     `json:"servers"`
	Port         int          `json:"port"`
	UseTLS       *bool        `json:"use_ssl"`
	SkipVerify   bool         `json:"tls_skip_verify"`
	BaseDN       string       `json:"base_dn"`
	DomainPrefix *string      `json:"domain_prefix"`
	Mappings     []rawMapping `json:"mappings"`
}

type rawDocument struct {
	LDAPSettings  *rawDirectory  `json:"ldap_settings"`
	AdminProfiles *[]Profile     `json:"admin_profiles"`
	LocalAccounts *[]rawAccount  `json:"local_accounts"`
	EmailSettings *EmailSettings `json:"email_settings"`
	PrimaryDNS    string         `json:"primary_dns"`
	SecondaryDNS  string         `json:"secondary_dns"`
}

// Decode parses raw into a Document and runs the schema migration:
// missing sections get their defaults, legacy allowed_ports keys are split into
// global and device grants, plaintext passwords are replaced by Argon2id hashes
// and the Super_User profile is restored.
//
// migrated is true when the result differs from raw in a way worth persisting.
// Empty or unparsable input yields Default() and, for unparsable input, ErrConfigCorrupt.
func Decode(raw []byte) (doc *Document, migrated bool, err error) {
	if len(raw) == 0 {
		return Default(), true, nil
	}

	var rd rawDocument
	if err = json.Unmarshal(raw, &rd); err != nil {
		return Default(), false, fmt.Errorf("%w: %w", ErrConfigCorrupt, err)
	}

	def := Default()
	doc = &Document{
		PrimaryDNS:   rd.PrimaryDNS,
		SecondaryDNS: rd.SecondaryDNS,
	}

	if rd.LDAPSettings == nil {
		doc.LDAPSettings = def.LDAPSettings
		migrated = true
	} else {
		var m bool

		doc.LDAPSettings, m = rd.LDAPSettings.migrate()
		migrated = migrated || m
	}

	if rd.AdminProfiles == nil {
		doc.AdminProfiles = def.AdminProfiles
		migrated = true
	} else {
		doc.AdminProfiles = *rd.AdminProfiles
	}

	if normalizeLevels(doc.AdminProfiles) {
		migrated = true
	}

	if ensureSuperUser(doc) {
		migrated = true
	}

	if rd.LocalAccounts == nil {
		doc.LocalAccounts = def.LocalAccounts
		migrated = true
	} else {
		doc.LocalAccounts = make([]LocalAccount, 0, len(*rd.LocalAccounts))

		for _, ra := range *rd.LocalAccounts {
			acc, m := ra.migrate()
			migrated = migrated || m
			doc.LocalAccounts = append(doc.LocalAccounts, acc)
		}
	}

	if rd.EmailSettings == nil {
		doc.EmailSettings = def.EmailSettings
		migrated = true
	} else {
		doc.EmailSettings = *rd.EmailSettings
		if doc.EmailSettings.SMTPPort == 0 {
			doc.EmailSettings.SMTPPort = defaultSMTPPort
			migrated = true
		}

		if doc.EmailSettings.ReceiverEmails == nil {
			doc.EmailSettings.ReceiverEmails = []string{}
		}
	}

	return doc, migrated, nil
}

// Encode serialises the document the way it is persisted.
func Encode(doc *Document) ([]byte, error) {
	out, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration document: %w", err)
	}

	return out, nil
}

func (rd *rawDirectory) migrate() (DirectorySettings, bool) {
	migrated := false

	ds := DirectorySettings{
		Enabled:    rd.Enabled,
		Servers:    rd.Servers,
		Port:       rd.Port,
		UseTLS:     true,
		SkipVerify: rd.SkipVerify,
		BaseDN:     rd.BaseDN,
		Mappings:   make([]GroupMapping, 0, len(rd.Mappings)),
	}

	if ds.Servers == nil {
		ds.Servers = []string{}
	}

	if rd.UseTLS != nil {
		ds.UseTLS = *rd.UseTLS
	} else {
		migrated = true
	}

	if ds.Port == 0 {
		ds.Port = ConventionalPort(ds.UseTLS)
		migrated = true
	}

	if rd.DomainPrefix != nil {
		ds.DomainPrefix = *rd.DomainPrefix
	} else {
		ds.DomainPrefix = DefaultDomainPrefix
		migrated = true
	}

	for _, rm := range rd.Mappings {
		grant, m := rm.grant()
		migrated = migrated || m

		profile := rm.Profile
		if profile == "" {
			profile = StandardUserProfile
			migrated = true
		}

		ds.Mappings = append(ds.Mappings, GroupMapping{GroupMatch: rm.GroupMatch, Profile: profile, PortGrant: grant})
	}

	return ds, migrated
}

func (ra *rawAccount) migrate() (LocalAccount, bool) {
	grant, migrated := ra.grant()

	acc := LocalAccount{
		Username:     ra.Username,
		PasswordHash: ra.PasswordHash,
		Profile:      ra.Profile,
		PortGrant:    grant,
	}

	if acc.Profile == "" {
		acc.Profile = StandardUserProfile
		migrated = true
	}

	if ra.Password != nil {
		// the plaintext key is dropped on the next save either way
		migrated = true

		if acc.PasswordHash == "" && *ra.Password != "" {
			hash, err := password.Hash(*ra.Password)
			if err != nil {
				log.Error().Err(err).Str("user", acc.Username).Msg("failed to migrate plaintext password")
			} else {
				acc.PasswordHash = hash
			}
		}
	}

	return acc, migrated
}

// grant resolves the legacy allowed_ports key. Accounts stored it as a device
// object, mappings as a global list; the shape decides, the new keys win.
func (g *rawGrant) grant() (PortGrant, bool) {
	out := PortGrant{
		GlobalAllowedPorts: g.GlobalAllowedPorts,
		DeviceAllowedPorts: g.DeviceAllowedPorts,
	}

	migrated := false

	if len(g.AllowedPorts) > 0 {
		var (
			list []string
			dict map[string][]string
		)

		switch {
		case json.Unmarshal(g.AllowedPorts, &list) == nil:
			if out.GlobalAllowedPorts == nil {
				out.GlobalAllowedPorts = list
			}
		case json.Unmarshal(g.AllowedPorts, &dict) == nil:
			if out.DeviceAllowedPorts == nil {
				out.DeviceAllowedPorts = dict
			}
		default:
			log.Warn().Str("allowed_ports", string(g.AllowedPorts)).Msg("ignoring unreadable legacy port grant")
		}

		migrated = true
	}

	if out.GlobalAllowedPorts == nil || out.DeviceAllowedPorts == nil {
		migrated = true
	}

	return out.Normalize(), migrated
}

// normalizeLevels clamps hand edited levels into range and drops unknown modules.
func normalizeLevels(profiles []Profile) bool {
	changed := false

	for i := range profiles {
		for m, lvl := range profiles[i].Permissions {
			switch {
			case !m.Valid():
				delete(profiles[i].Permissions, m)
				changed = true
			case lvl.Clamp() != lvl:
				profiles[i].Permissions[m] = lvl.Clamp()
				changed = true
			}
		}
	}

	return changed
}

// ensureSuperUser restores the reserved profile and pins it to write on every module.
func ensureSuperUser(doc *Document) bool {
	full := make(map[Module]AccessLevel, len(Modules))
	for _, m := range Modules {
		full[m] = LevelWrite
	}

	p, ok := doc.FindProfile(SuperUserProfile)
	if !ok {
		doc.AdminProfiles = append([]Profile{{Name: SuperUserProfile, Permissions: full}}, doc.AdminProfiles...)
		return true
	}

	changed := len(p.Permissions) != len(full)

	for m, lvl := range p.Permissions {
		if full[m] != lvl {
			changed = true
		}
	}

	p.Permissions = full

	return changed
}

// ConventionalPort returns 636 for TLS and 389 otherwise.
func ConventionalPort(useTLS bool) int {
	if useTLS {
		return PortLDAPS
	}

	return PortLDAP
}
