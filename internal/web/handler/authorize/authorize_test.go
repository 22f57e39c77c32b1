package authorize

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/auth"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/handler/handlertest"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	f := handlertest.New(t, nil)
	app := handlertest.App()

	s := &Service{}
	require.NoError(t, s.Init(app, f.Deps))

	return app
}

func TestModule(t *testing.T) {
	app := newTestApp(t)

	standard := handlertest.Session(t, auth.Identity{Username: "op", Role: document.StandardUserProfile})
	ghost := handlertest.Session(t, auth.Identity{Username: "ghost", Role: "Deleted_Profile"})
	super := handlertest.Session(t, auth.Identity{Username: "admin", Role: document.SuperUserProfile})

	tests := []struct {
		name   string
		cookie string
		module string
		want   document.AccessLevel
	}{
		{name: "standard dashboard", cookie: standard, module: "Dashboard", want: document.LevelWrite},
		{name: "standard system", cookie: standard, module: "System", want: document.LevelNone},
		{name: "standard logs", cookie: standard, module: "Logs", want: document.LevelRead},
		{name: "unknown module", cookie: super, module: "Nope", want: document.LevelNone},
		{name: "super system", cookie: super, module: "System", want: document.LevelWrite},
		{name: "deleted profile", cookie: ghost, module: "Dashboard", want: document.LevelNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := handlertest.Do(t, app, http.MethodGet, Path+"/module/"+tt.module, nil, tt.cookie)
			require.Equal(t, http.StatusOK, status)

			var out ModuleAccess
			require.NoError(t, json.Unmarshal(body, &out))
			assert.Equal(t, tt.want, out.Level)
		})
	}
}

func TestPort(t *testing.T) {
	app := newTestApp(t)

	cookie := handlertest.Session(t, auth.Identity{
		Username:           "op",
		Role:               document.StandardUserProfile,
		GlobalAllowedPorts: []string{"port1"},
		DeviceAllowedPorts: map[string][]string{"FGT-A": {"port5"}},
	})

	tests := []struct {
		query string
		want  bool
	}{
		{query: "device=FGT-A&port=port1", want: true},
		{query: "device=FGT-B&port=port1", want: true},
		{query: "device=FGT-A&port=port5", want: true},
		{query: "device=FGT-B&port=port5", want: false},
		{query: "device=FGT-A&port=port9", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			status, body := handlertest.Do(t, app, http.MethodGet, Path+"/port?"+tt.query, nil, cookie)
			require.Equal(t, http.StatusOK, status)

			var out PortAccess
			require.NoError(t, json.Unmarshal(body, &out))
			assert.Equal(t, tt.want, out.Allowed)
		})
	}

	status, _ := handlertest.Do(t, app, http.MethodGet, Path+"/port?device=FGT-A", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAnonymousIsRejected(t *testing.T) {
	app := newTestApp(t)

	status, _ := handlertest.Do(t, app, http.MethodGet, Path+"/module/Dashboard", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
}
