package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-ldap/ldap/v3"
)

var errUnreachable = errors.New("connection refused")

// fakeServer is one directory server of fakeDirectory.
type fakeServer struct {
	down      bool
	accounts  map[string]string // bind name -> password
	entries   []*ldap.Entry
	searchErr error
	// blockBind makes Bind wait until the connection is closed.
	blockBind bool
}

// fakeDirectory implements DialFunc over in-memory servers.
type fakeDirectory struct {
	mu      sync.Mutex
	servers map[string]*fakeServer
	dialed  []string
	binds   []string
	opened  int
	closed  int
	lastReq *ldap.SearchRequest
}

func (f *fakeDirectory) dial(ctx context.Context, server string, _ int, _, _ bool, _ time.Duration) (DirectoryConn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.dialed = append(f.dialed, server)

	srv, ok := f.servers[server]
	if !ok || srv.down {
		return nil, errUnreachable
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.opened++

	return &fakeConn{dir: f, srv: srv, done: make(chan struct{})}, nil
}

func (f *fakeDirectory) counts() (opened, closed int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.opened, f.closed
}

type fakeConn struct {
	dir       *fakeDirectory
	srv       *fakeServer
	closeOnce sync.Once
	done      chan struct{}
}

func (c *fakeConn) Bind(username, password string) error {
	c.dir.mu.Lock()
	c.dir.binds = append(c.dir.binds, username)
	c.dir.mu.Unlock()

	if c.srv.blockBind {
		<-c.done
		return ldap.NewError(ldap.ErrorNetwork, errors.New("connection closed"))
	}

	if pw, ok := c.srv.accounts[username]; ok && pw == password && password != "" {
		return nil
	}

	return ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("invalid credentials"))
}

func (c *fakeConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	c.dir.mu.Lock()
	c.dir.lastReq = req
	c.dir.mu.Unlock()

	if c.srv.searchErr != nil {
		return nil, c.srv.searchErr
	}

	return &ldap.SearchResult{Entries: c.srv.entries}, nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)

		c.dir.mu.Lock()
		c.dir.closed++
		c.dir.mu.Unlock()
	})

	return nil
}

// fakeDirectoryAuth is a Directory returning a fixed outcome.
type fakeDirectoryAuth struct {
	result *DirectoryResult
	err    error
	calls  int
	last   DirectoryRequest
}

func (f *fakeDirectoryAuth) Authenticate(_ context.Context, req DirectoryRequest) (*DirectoryResult, error) {
	f.calls++
	f.last = req

	return f.result, f.err
}
