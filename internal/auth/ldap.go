package auth

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/config"
)

const memberOfAttr = "memberOf"

// DirectoryConn is the part of *ldap.Conn the directory client uses.
type DirectoryConn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// DialFunc opens a directory connection to one server.
type DialFunc func(ctx context.Context, server string, port int, useTLS, skipVerify bool, timeout time.Duration) (DirectoryConn, error)

// Directory authenticates a user against the configured directory servers.
type Directory interface {
	Authenticate(ctx context.Context, req DirectoryRequest) (*DirectoryResult, error)
}

// DirectoryRequest carries everything one directory login needs.
type DirectoryRequest struct {
	Servers      []string
	Port         int
	UseTLS       bool
	SkipVerify   bool
	BaseDN       string
	DomainPrefix string
	Username     string
	Password     string
}

// DirectoryResult describes a successful bind.
type DirectoryResult struct {
	Server string
	BindDN string
	Groups []string
}

// DirectoryClient binds against LDAP servers and reads group memberships.
type DirectoryClient struct {
	dial         DialFunc
	bindTimeout  time.Duration
	probeTimeout time.Duration
	totalTimeout time.Duration
}

// DirectoryOption customises a DirectoryClient.
type DirectoryOption func(*DirectoryClient)

// WithDialer replaces the LDAP dialer.
func WithDialer(dial DialFunc) DirectoryOption {
	return func(c *DirectoryClient) {
		c.dial = dial
	}
}

// NewDirectoryClient creates a directory client using the given timeouts.
func NewDirectoryClient(cfg config.Directory, opts ...DirectoryOption) *DirectoryClient {
	cfg.SetDefaults()

	c := &DirectoryClient{
		dial:         DialLDAP,
		bindTimeout:  cfg.BindTimeout,
		probeTimeout: cfg.ProbeTimeout,
		totalTimeout: cfg.TotalTimeout,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// DialLDAP connects to server with ldap:// or ldaps:// depending on useTLS.
func DialLDAP(ctx context.Context, server string, port int, useTLS, skipVerify bool, timeout time.Duration) (DirectoryConn, error) {
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}

	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}

	hostPort := net.JoinHostPort(server, strconv.Itoa(port))
	opts := []ldap.DialOpt{ldap.DialWithDialer(&net.Dialer{Timeout: timeout})}

	ldapURL := "ldap://" + hostPort

	if useTLS {
		ldapURL = "ldaps://" + hostPort

		opts = append(opts, ldap.DialWithTLSConfig(&tls.Config{
			InsecureSkipVerify: skipVerify, //nolint:gosec // self signed directories, configurable
			ServerName:         server,
			MinVersion:         tls.VersionTLS12,
		}))
	}

	conn, err := ldap.DialURL(ldapURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", ldapURL, err)
	}

	conn.SetTimeout(timeout)

	return conn, nil
}

// Authenticate tries every server in order until one accepts a bind for one of the
// candidate names, then reads the user's groups from that server.
// Any failure on a server moves on to the next one. When all servers fail the
// error wraps ErrInvalidCredentials.
func (c *DirectoryClient) Authenticate(ctx context.Context, req DirectoryRequest) (*DirectoryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.totalTimeout)
	defer cancel()

	servers := normalizeServers(req.Servers)
	if len(servers) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, ErrNoDirectoryServer)
	}

	failures := make([]error, 0, len(servers))

	for _, server := range servers {
		if err := ctx.Err(); err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", server, err))
			break
		}

		res, err := c.authenticateServer(ctx, server, req)
		if err == nil {
			return res, nil
		}

		log.Warn().Err(err).Str("server", server).Str("user", req.Username).Msg("directory login attempt failed")

		failures = append(failures, fmt.Errorf("%s: %w", server, err))
	}

	return nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, errors.Join(failures...))
}

// TestConnection runs the login algorithm against the first server of req only and
// reports the outcome with the underlying detail. It is meant for interactive diagnostics.
func (c *DirectoryClient) TestConnection(ctx context.Context, req DirectoryRequest) (string, error) {
	servers := normalizeServers(req.Servers)
	if len(servers) == 0 {
		return "", ErrNoDirectoryServer
	}

	ctx, cancel := context.WithTimeout(ctx, c.bindTimeout)
	defer cancel()

	res, err := c.authenticateServer(ctx, servers[0], req)
	if err != nil {
		return "", fmt.Errorf("directory test against %s failed: %w", servers[0], err)
	}

	return fmt.Sprintf("Bind to %s as %s succeeded, %d group(s) found: %s",
		res.Server, res.BindDN, len(res.Groups), strings.Join(GroupNames(res.Groups), ", ")), nil
}

// Probe checks whether server:port accepts TCP connections. It never binds.
func (c *DirectoryClient) Probe(ctx context.Context, server string, port int) error {
	server = normalizeHost(server)
	if server == "" {
		return ErrNoDirectoryServer
	}

	dialer := &net.Dialer{Timeout: c.probeTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(server, strconv.Itoa(port)))
	if err != nil {
		return fmt.Errorf("directory server %s unreachable: %w", server, err)
	}

	if errClose := conn.Close(); errClose != nil {
		log.Debug().Err(errClose).Str("server", server).Msg("failed to close probe connection")
	}

	return nil
}

func (c *DirectoryClient) authenticateServer(ctx context.Context, server string, req DirectoryRequest) (*DirectoryResult, error) {
	conn, err := c.dial(ctx, server, req.Port, req.UseTLS, req.SkipVerify, c.bindTimeout)
	if err != nil {
		return nil, err
	}

	// closes the connection as soon as the budget runs out, even mid operation
	stop := context.AfterFunc(ctx, func() {
		_ = conn.Close()
	})

	defer func() {
		stop()

		if errClose := conn.Close(); errClose != nil {
			log.Warn().Err(errClose).Str("server", server).Msg("failed to close LDAP connection")
		}
	}()

	var bindErrs []error

	bindDN := ""

	for _, candidate := range bindCandidates(req.Username, req.DomainPrefix, req.BaseDN) {
		if errBind := conn.Bind(candidate, req.Password); errBind != nil {
			bindErrs = append(bindErrs, fmt.Errorf("bind as %s: %w", candidate, errBind))
			continue
		}

		bindDN = candidate

		break
	}

	if bindDN == "" {
		if err := ctx.Err(); err != nil {
			bindErrs = append(bindErrs, err)
		}

		return nil, errors.Join(bindErrs...)
	}

	groups, err := searchGroups(conn, req.BaseDN, shortUsername(req.Username), c.bindTimeout)
	if err != nil {
		return nil, err
	}

	return &DirectoryResult{Server: server, BindDN: bindDN, Groups: groups}, nil
}

func searchGroups(conn DirectoryConn, baseDN, username string, timeout time.Duration) ([]string, error) {
	if baseDN == "" {
		return []string{}, nil
	}

	filter := fmt.Sprintf("(|(sAMAccountName=%[1]s)(uid=%[1]s)(cn=%[1]s))", ldap.EscapeFilter(username))
	searchRequest := ldap.NewSearchRequest(
		baseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		int(timeout.Seconds()),
		false,
		filter,
		[]string{memberOfAttr},
		nil,
	)

	result, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to search for user groups: %w", err)
	}

	if len(result.Entries) == 0 {
		return []string{}, nil
	}

	return result.Entries[0].GetAttributeValues(memberOfAttr), nil
}

// bindCandidates returns the names tried for a bind, in order.
// Bare usernames are qualified as PREFIX\user, and a user@domain candidate is derived
// from the dc= components of the base DN.
func bindCandidates(username, prefix, baseDN string) []string {
	qualified := strings.ContainsAny(username, `\@`)

	first := username
	if !qualified && prefix != "" {
		first = prefix + `\` + username
	}

	candidates := []string{first}

	if !qualified {
		if domain := domainFromBaseDN(baseDN); domain != "" {
			candidates = append(candidates, username+"@"+domain)
		}
	}

	return candidates
}

// domainFromBaseDN turns dc=example,dc=com into example.com.
func domainFromBaseDN(baseDN string) string {
	var parts []string

	for _, rdn := range strings.Split(baseDN, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(rdn), "=")
		if ok && strings.EqualFold(strings.TrimSpace(key), "dc") && strings.TrimSpace(value) != "" {
			parts = append(parts, strings.TrimSpace(value))
		}
	}

	return strings.Join(parts, ".")
}

// shortUsername strips a DOMAIN\ prefix and an @realm suffix.
func shortUsername(username string) string {
	if i := strings.LastIndex(username, `\`); i >= 0 {
		username = username[i+1:]
	}

	if i := strings.Index(username, "@"); i >= 0 {
		username = username[:i]
	}

	return username
}

var schemePrefixes = []string{"ldaps://", "ldap://", "https://", "http://"} //nolint:gochecknoglobals

// normalizeHost strips a URL scheme and surrounding whitespace from a server entry.
func normalizeHost(server string) string {
	server = strings.TrimSpace(server)

	lower := strings.ToLower(server)
	for _, prefix := range schemePrefixes {
		if strings.HasPrefix(lower, prefix) {
			server = server[len(prefix):]
			break
		}
	}

	return strings.TrimSpace(server)
}

func normalizeServers(servers []string) []string {
	out := make([]string, 0, len(servers))

	for _, s := range servers {
		if s = normalizeHost(s); s != "" {
			out = append(out, s)
		}
	}

	return out
}
