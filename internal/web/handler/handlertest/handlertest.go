// Package handlertest builds handler dependencies on a temporary configuration
// document for the http handler tests.
package handlertest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/admin"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/audit"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/auth"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/config"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/store"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/handler"
	authmiddleware "github.com/GoFMG-Admin/GoFMG-Admin/internal/web/middleware/auth"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/session"
)

// Fixture is a set of handler dependencies backed by a document file in a temp dir.
type Fixture struct {
	Deps    *handler.Deps
	Manager *store.Manager
	Audit   *bytes.Buffer
}

// Config returns a minimal console configuration for tests.
func Config() *config.Config {
	cfg := &config.Config{
		DevMode: true,
		Webserver: config.Webserver{
			URL:     "http://localhost",
			Port:    3000,
			Session: config.Session{ExpiryTime: time.Minute},
		},
	}
	cfg.Directory.SetDefaults()

	return cfg
}

// New creates the fixture. A nil doc starts from the default document.
func New(t testing.TB, doc *document.Document, opts ...auth.DirectoryOption) *Fixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fmg_config.json")

	if doc != nil {
		raw, err := document.Encode(doc)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(path, raw, 0o600))
	}

	m := store.NewManager(store.NewFileStore(path))
	require.NoError(t, m.Reload(context.Background()))

	cfg := Config()
	identities := auth.NewIdentityStore(m)
	engine := auth.NewEngine(identities)
	directory := auth.NewDirectoryClient(cfg.Directory, opts...)

	var buf bytes.Buffer

	recorder := audit.NewRecorder(audit.NewSinkReadWriter(&buf, func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
	}), nil)

	session.Init(nil)

	return &Fixture{
		Deps: &handler.Deps{
			Config:        cfg,
			Identities:    identities,
			Authenticator: auth.NewAuthenticator(identities, directory),
			Engine:        engine,
			Directory:     directory,
			Admin:         admin.New(m, engine, recorder),
			Recorder:      recorder,
		},
		Manager: m,
		Audit:   &buf,
	}
}

// App returns a fiber app with the session middleware installed.
func App() *fiber.App {
	app := fiber.New()
	app.Use(authmiddleware.Middleware)

	return app
}

// Session stores id in a new session and returns the cookie value.
func Session(t testing.TB, id auth.Identity) string {
	t.Helper()

	sid, err := session.GenerateSessionID()
	require.NoError(t, err)
	require.NoError(t, (&session.Data{Identity: id}).Write(sid, time.Minute))

	return sid
}

// Do sends a request with an optional json body and session cookie and returns the
// status and the response body.
func Do(t testing.TB, app *fiber.App, method, path string, body any, cookie string) (int, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: cookie})
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, out
}
