// Package document defines the configuration document shared by every console
// request: access profiles, local accounts, directory settings, e-mail settings
// and the DNS servers pushed to managed devices.
//
// The document is persisted wholesale as JSON. Decode runs the schema migration
// once on read so business logic never has to probe for missing or legacy keys.
package document

import (
	"slices"
	"strings"
)

// AccessLevel is the permission a profile grants on a module.
type AccessLevel int

const (
	// LevelNone denies access to the module.
	LevelNone AccessLevel = 0
	// LevelRead allows viewing.
	LevelRead AccessLevel = 1
	// LevelWrite allows viewing and changing.
	LevelWrite AccessLevel = 2
)

// Clamp maps l into the range LevelNone to LevelWrite.
func (l AccessLevel) Clamp() AccessLevel {
	switch {
	case l < LevelNone:
		return LevelNone
	case l > LevelWrite:
		return LevelWrite
	default:
		return l
	}
}

// Module identifies a functional area of the console.
type Module string

const (
	// ModuleDashboard is the device and interface dashboard.
	ModuleDashboard Module = "Dashboard"
	// ModuleFMGConn is the management API connection screen.
	ModuleFMGConn Module = "FMG_Conn"
	// ModuleSystem covers profiles, accounts, directory and e-mail settings.
	ModuleSystem Module = "System"
	// ModuleLogs is the audit log viewer.
	ModuleLogs Module = "Logs"
)

// Modules lists every module in display order.
var Modules = []Module{ModuleDashboard, ModuleFMGConn, ModuleSystem, ModuleLogs} //nolint:gochecknoglobals

// Valid reports whether m is a known module.
func (m Module) Valid() bool {
	return slices.Contains(Modules, m)
}

const (
	// SuperUserProfile is the system reserved profile granting write on every module.
	SuperUserProfile = "Super_User"
	// StandardUserProfile is the default profile of new accounts and mappings.
	StandardUserProfile = "Standard_User"
	// ReadOnlyProfile is the default read only profile.
	ReadOnlyProfile = "Read_Only"

	// DefaultDomainPrefix qualifies bare directory usernames as PREFIX\user.
	DefaultDomainPrefix = "MFA"

	// PortLDAPS is the conventional port of LDAP over TLS.
	PortLDAPS = 636
	// PortLDAP is the conventional port of plain LDAP.
	PortLDAP = 389

	defaultSMTPPort = 587
)

// Document is the whole persisted console configuration.
type Document struct {
	LDAPSettings  DirectorySettings `json:"ldap_settings"`
	AdminProfiles []Profile         `json:"admin_profiles" validate:"dive"`
	LocalAccounts []LocalAccount    `json:"local_accounts" validate:"dive"`
	EmailSettings EmailSettings     `json:"email_settings"`
	PrimaryDNS    string            `json:"primary_dns,omitempty" validate:"omitempty,ip"`
	SecondaryDNS  string            `json:"secondary_dns,omitempty" validate:"omitempty,ip"`
}

// Profile is a named permission template.
type Profile struct {
	Name        string                 `json:"name" validate:"required,max=64"`
	Permissions map[Module]AccessLevel `json:"permissions" validate:"dive,keys,oneof=Dashboard FMG_Conn System Logs,endkeys,min=0,max=2"`
}

// Level returns the access level the profile grants on m, LevelNone if unset.
func (p *Profile) Level(m Module) AccessLevel {
	if p.Name == SuperUserProfile {
		return LevelWrite
	}

	return p.Permissions[m].Clamp()
}

// PortGrant is the two tier port whitelist shared by accounts and group mappings.
type PortGrant struct {
	GlobalAllowedPorts []string            `json:"global_allowed_ports"`
	DeviceAllowedPorts map[string][]string `json:"device_allowed_ports"`
}

// LocalAccount is an operator account verified against the document itself.
type LocalAccount struct {
	Username     string `json:"user" validate:"required,max=128"`
	PasswordHash string `json:"password_hash,omitempty"`
	Profile      string `json:"profile" validate:"required"`
	PortGrant
}

// GroupMapping maps a directory group to a profile and a port grant.
type GroupMapping struct {
	GroupMatch string `json:"group_dn" validate:"required"`
	Profile    string `json:"profile" validate:"required"`
	PortGrant
}

// DirectorySettings configures directory authentication.
type DirectorySettings struct {
	Enabled bool     `json:"enabled"`
	Servers []string `json:"servers" validate:"dive,required"`
	Port    int      `json:"port" validate:"min=0,max=65535"`
	UseTLS  bool     `json:"use_ssl"`
	// SkipVerify disables certificate validation for self signed directories.
	SkipVerify   bool           `json:"tls_skip_verify"`
	BaseDN       string         `json:"base_dn"`
	DomainPrefix string         `json:"domain_prefix"`
	Mappings     []GroupMapping `json:"mappings" validate:"dive"`
}

// EmailSettings configures the audit notification mails.
type EmailSettings struct {
	Enabled        bool     `json:"enabled"`
	SMTPServer     string   `json:"smtp_server"`
	SMTPPort       int      `json:"smtp_port" validate:"min=0,max=65535"`
	SenderEmail    string   `json:"sender_email" validate:"omitempty,email"`
	SenderPassword string   `json:"sender_password"`
	ReceiverEmails []string `json:"receiver_emails" validate:"dive,email"`
}

// Default returns the document a fresh installation starts with.
func Default() *Document {
	return &Document{
		LDAPSettings: DirectorySettings{
			Enabled:      false,
			Servers:      []string{"192.168.1.10"},
			Port:         PortLDAPS,
			UseTLS:       true,
			BaseDN:       "dc=example,dc=com",
			DomainPrefix: DefaultDomainPrefix,
			Mappings:     []GroupMapping{},
		},
		AdminProfiles: DefaultProfiles(),
		LocalAccounts: []LocalAccount{
			{Username: "admin", Profile: SuperUserProfile, PortGrant: EmptyGrant()},
			{Username: "operator", Profile: StandardUserProfile, PortGrant: EmptyGrant()},
		},
		EmailSettings: EmailSettings{
			SMTPPort:       defaultSMTPPort,
			ReceiverEmails: []string{},
		},
	}
}

// DefaultProfiles returns the three built in profiles.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Name: SuperUserProfile,
			Permissions: map[Module]AccessLevel{
				ModuleDashboard: LevelWrite, ModuleFMGConn: LevelWrite, ModuleSystem: LevelWrite, ModuleLogs: LevelWrite,
			},
		},
		{
			Name: StandardUserProfile,
			Permissions: map[Module]AccessLevel{
				ModuleDashboard: LevelWrite, ModuleFMGConn: LevelRead, ModuleSystem: LevelNone, ModuleLogs: LevelRead,
			},
		},
		{
			Name: ReadOnlyProfile,
			Permissions: map[Module]AccessLevel{
				ModuleDashboard: LevelRead, ModuleFMGConn: LevelNone, ModuleSystem: LevelNone, ModuleLogs: LevelRead,
			},
		},
	}
}

// EmptyGrant returns a grant with non nil, empty collections.
func EmptyGrant() PortGrant {
	return PortGrant{GlobalAllowedPorts: []string{}, DeviceAllowedPorts: map[string][]string{}}
}

// Clone returns a deep copy of the grant.
func (g PortGrant) Clone() PortGrant {
	out := PortGrant{
		GlobalAllowedPorts: slices.Clone(g.GlobalAllowedPorts),
		DeviceAllowedPorts: make(map[string][]string, len(g.DeviceAllowedPorts)),
	}

	if out.GlobalAllowedPorts == nil {
		out.GlobalAllowedPorts = []string{}
	}

	for device, ports := range g.DeviceAllowedPorts {
		out.DeviceAllowedPorts[device] = slices.Clone(ports)
	}

	return out
}

// Normalize trims names, drops empties and duplicates while keeping order.
func (g PortGrant) Normalize() PortGrant {
	out := PortGrant{
		GlobalAllowedPorts: uniqueTrimmed(g.GlobalAllowedPorts),
		DeviceAllowedPorts: make(map[string][]string, len(g.DeviceAllowedPorts)),
	}

	for device, ports := range g.DeviceAllowedPorts {
		device = strings.TrimSpace(device)
		if device == "" {
			continue
		}

		out.DeviceAllowedPorts[device] = append(out.DeviceAllowedPorts[device], uniqueTrimmed(ports)...)
		out.DeviceAllowedPorts[device] = uniqueTrimmed(out.DeviceAllowedPorts[device])
	}

	return out
}

func uniqueTrimmed(in []string) []string {
	out := make([]string, 0, len(in))

	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || slices.Contains(out, s) {
			continue
		}

		out = append(out, s)
	}

	return out
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}

	out := *d

	out.LDAPSettings.Servers = slices.Clone(d.LDAPSettings.Servers)
	out.LDAPSettings.Mappings = make([]GroupMapping, len(d.LDAPSettings.Mappings))

	for i, m := range d.LDAPSettings.Mappings {
		m.PortGrant = m.PortGrant.Clone()
		out.LDAPSettings.Mappings[i] = m
	}

	out.AdminProfiles = make([]Profile, len(d.AdminProfiles))

	for i, p := range d.AdminProfiles {
		perms := make(map[Module]AccessLevel, len(p.Permissions))
		for k, v := range p.Permissions {
			perms[k] = v
		}

		out.AdminProfiles[i] = Profile{Name: p.Name, Permissions: perms}
	}

	out.LocalAccounts = make([]LocalAccount, len(d.LocalAccounts))

	for i, a := range d.LocalAccounts {
		a.PortGrant = a.PortGrant.Clone()
		out.LocalAccounts[i] = a
	}

	out.EmailSettings.ReceiverEmails = slices.Clone(d.EmailSettings.ReceiverEmails)

	return &out
}

// FindProfile returns the profile called name.
func (d *Document) FindProfile(name string) (*Profile, bool) {
	for i := range d.AdminProfiles {
		if d.AdminProfiles[i].Name == name {
			return &d.AdminProfiles[i], true
		}
	}

	return nil, false
}

// FindAccount returns the local account called username.
func (d *Document) FindAccount(username string) (*LocalAccount, bool) {
	for i := range d.LocalAccounts {
		if d.LocalAccounts[i].Username == username {
			return &d.LocalAccounts[i], true
		}
	}

	return nil, false
}

// ProfileInUse reports whether an account or group mapping references the profile.
func (d *Document) ProfileInUse(name string) bool {
	for _, a := range d.LocalAccounts {
		if a.Profile == name {
			return true
		}
	}

	for _, m := range d.LDAPSettings.Mappings {
		if m.Profile == name {
			return true
		}
	}

	return false
}
