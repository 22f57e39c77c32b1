// Package settings provides the directory and e-mail settings endpoints of the admin
// area, including the directory reachability probe and the interactive bind test.
package settings

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/admin"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/audit"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/auth"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/handler"
)

const (
	// DirectoryPath is the base path of the directory settings.
	DirectoryPath = handler.APIPath + "/directory"
	// EmailPath is the base path of the e-mail settings.
	EmailPath = handler.APIPath + "/email"
	// DNSPath is the base path of the name server settings.
	DNSPath = handler.APIPath + "/dns"
)

// ServerStatus is the probe result of one directory server.
type ServerStatus struct {
	Server    string `json:"server"`
	Port      int    `json:"port"`
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
}

// TestRequest runs a bind test. Empty connection fields fall back to the stored settings.
type TestRequest struct {
	Servers      []string `json:"servers"`
	Port         int      `json:"port"`
	UseTLS       *bool    `json:"use_ssl"`
	SkipVerify   *bool    `json:"tls_skip_verify"`
	BaseDN       string   `json:"base_dn"`
	DomainPrefix string   `json:"domain_prefix"`
	Username     string   `json:"username"`
	Password     string   `json:"password"`
}

// TestResult is the outcome of a bind test.
type TestResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Service provides the settings endpoints.
type Service struct {
	handler.Service
	admin      *admin.Service
	identities *auth.IdentityStore
	directory  *auth.DirectoryClient
	recorder   *audit.Recorder
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil || deps.Admin == nil || deps.Engine == nil || deps.Directory == nil {
		return handler.ErrNilDeps
	}

	s.admin = deps.Admin
	s.identities = deps.Identities
	s.directory = deps.Directory
	s.recorder = deps.Recorder

	app.Route(DirectoryPath, func(router fiber.Router) {
		router.Use(auth.RequireAuthenticated())
		router.Get(handler.RootPath, s.GetDirectory)
		router.Put(handler.RootPath, s.PutDirectory)
		router.Put("/mappings", s.PutMappings)
		router.Put("/mappings/ports", s.PutMappingPorts)
		router.Get("/status",
			auth.RequireModule(deps.Engine, document.ModuleSystem, document.LevelRead),
			s.Status,
		)
		router.Post("/test",
			auth.RequireModule(deps.Engine, document.ModuleSystem, document.LevelWrite),
			s.Test,
		)
	})

	app.Route(EmailPath, func(router fiber.Router) {
		router.Use(auth.RequireAuthenticated())
		router.Get(handler.RootPath, s.GetEmail)
		router.Put(handler.RootPath, s.PutEmail)
	})

	app.Route(DNSPath, func(router fiber.Router) {
		router.Use(auth.RequireAuthenticated())
		router.Get(handler.RootPath, s.GetDNS)
		router.Put(handler.RootPath, s.PutDNS)
	})

	return nil
}

// GetDirectory returns the directory settings and mappings.
func (s *Service) GetDirectory(c *fiber.Ctx) error {
	settings, err := s.admin.Directory(auth.IdentityFromContext(c))
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(settings)
}

// PutDirectory replaces the connection settings. Mappings are kept.
func (s *Service) PutDirectory(c *fiber.Ctx) error {
	settings := new(document.DirectorySettings)
	if err := c.BodyParser(settings); err != nil {
		return handler.BadRequest(c, "invalid directory settings")
	}

	if err := s.admin.UpdateDirectorySettings(c.UserContext(), auth.IdentityFromContext(c), *settings); err != nil {
		return handler.Error(c, err)
	}

	return s.GetDirectory(c)
}

// PutMappings replaces the ordered group mappings.
func (s *Service) PutMappings(c *fiber.Ctx) error {
	var mappings []document.GroupMapping
	if err := c.BodyParser(&mappings); err != nil {
		return handler.BadRequest(c, "invalid group mappings")
	}

	if err := s.admin.SetGroupMappings(c.UserContext(), auth.IdentityFromContext(c), mappings); err != nil {
		return handler.Error(c, err)
	}

	return s.GetDirectory(c)
}

// PutMappingPorts replaces the port whitelist of the mapping given by the group query.
func (s *Service) PutMappingPorts(c *fiber.Ctx) error {
	group := c.Query("group")
	if group == "" {
		return handler.BadRequest(c, "group is required")
	}

	grant := new(document.PortGrant)
	if err := c.BodyParser(grant); err != nil {
		return handler.BadRequest(c, "invalid port grant")
	}

	if err := s.admin.SetMappingPorts(c.UserContext(), auth.IdentityFromContext(c), group, *grant); err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(grant.Normalize())
}

// Status probes every configured directory server over TCP.
func (s *Service) Status(c *fiber.Ctx) error {
	settings := s.identities.DirectorySettings()

	port := settings.Port
	if port == 0 {
		port = document.ConventionalPort(settings.UseTLS)
	}

	out := make([]ServerStatus, 0, len(settings.Servers))

	for _, server := range settings.Servers {
		st := ServerStatus{Server: server, Port: port, Reachable: true}

		if err := s.directory.Probe(c.UserContext(), server, port); err != nil {
			st.Reachable = false
			st.Error = err.Error()
		}

		out = append(out, st)
	}

	return c.JSON(out)
}

// Test binds against the first server and reports the detailed outcome.
func (s *Service) Test(c *fiber.Ctx) error {
	in := new(TestRequest)
	if err := c.BodyParser(in); err != nil {
		return handler.BadRequest(c, "invalid test request")
	}

	if in.Username == "" || in.Password == "" {
		return handler.BadRequest(c, "username and password are required")
	}

	req := s.testRequest(in)
	actor := auth.IdentityFromContext(c)

	msg, err := s.directory.TestConnection(c.UserContext(), req)
	if err != nil {
		log.Warn().Err(err).Str("user", actor.Username).Msg("directory test failed")

		msg = err.Error()
	}

	if s.recorder != nil {
		s.recorder.Record(c.UserContext(), actor.Username, "TestDirectory", "",
			fmt.Sprintf("server=%v bind_user=%s success=%t", req.Servers, in.Username, err == nil))
	}

	return c.JSON(TestResult{Success: err == nil, Message: msg})
}

func (s *Service) testRequest(in *TestRequest) auth.DirectoryRequest {
	stored := s.identities.DirectorySettings()

	req := auth.DirectoryRequest{
		Servers:      stored.Servers,
		Port:         stored.Port,
		UseTLS:       stored.UseTLS,
		SkipVerify:   stored.SkipVerify,
		BaseDN:       stored.BaseDN,
		DomainPrefix: stored.DomainPrefix,
		Username:     in.Username,
		Password:     in.Password,
	}

	if len(in.Servers) > 0 {
		req.Servers = in.Servers
	}

	if in.UseTLS != nil {
		req.UseTLS = *in.UseTLS
	}

	if in.SkipVerify != nil {
		req.SkipVerify = *in.SkipVerify
	}

	if in.Port != 0 {
		req.Port = in.Port
	}

	if req.Port == 0 {
		req.Port = document.ConventionalPort(req.UseTLS)
	}

	if in.BaseDN != "" {
		req.BaseDN = in.BaseDN
	}

	if in.DomainPrefix != "" {
		req.DomainPrefix = in.DomainPrefix
	}

	return req
}

// GetEmail returns the notification settings without the sender password.
func (s *Service) GetEmail(c *fiber.Ctx) error {
	settings, err := s.admin.Email(auth.IdentityFromContext(c))
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(settings)
}

// PutEmail replaces the notification settings. An empty sender password keeps the stored one.
func (s *Service) PutEmail(c *fiber.Ctx) error {
	settings := new(document.EmailSettings)
	if err := c.BodyParser(settings); err != nil {
		return handler.BadRequest(c, "invalid e-mail settings")
	}

	if err := s.admin.UpdateEmailSettings(c.UserContext(), auth.IdentityFromContext(c), *settings); err != nil {
		return handler.Error(c, err)
	}

	return s.GetEmail(c)
}

// GetDNS returns the name servers pushed to managed devices.
func (s *Service) GetDNS(c *fiber.Ctx) error {
	dns, err := s.admin.DNS(auth.IdentityFromContext(c))
	if err != nil {
		return handler.Error(c, err)
	}

	return c.JSON(dns)
}

// PutDNS replaces both name servers.
func (s *Service) PutDNS(c *fiber.Ctx) error {
	dns := new(admin.DNS)
	if err := c.BodyParser(dns); err != nil {
		return handler.BadRequest(c, "invalid dns settings")
	}

	if err := s.admin.UpdateDNS(c.UserContext(), auth.IdentityFromContext(c), *dns); err != nil {
		return handler.Error(c, err)
	}

	return s.GetDNS(c)
}
