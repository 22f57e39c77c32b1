package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/auth"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/devices"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/web/handler/handlertest"
)

type fakeClient struct {
	err error
}

func (f fakeClient) Devices(context.Context) ([]devices.Device, error) {
	return []devices.Device{{Name: "FGT-A"}, {Name: "FGT-B"}}, f.err
}

func (f fakeClient) VDOMs(context.Context, string) ([]string, error) {
	return []string{"root"}, f.err
}

func (f fakeClient) Interfaces(_ context.Context, _, _ string) ([]devices.Interface, error) {
	return []devices.Interface{{Name: "port1"}, {Name: "port2"}, {Name: "port3"}, {Name: "port5"}}, f.err
}

func newTestApp(t *testing.T, client devices.Client) *fiber.App {
	t.Helper()

	f := handlertest.New(t, nil)
	f.Deps.Devices = client

	app := handlertest.App()

	s := &Service{}
	require.NoError(t, s.Init(app, f.Deps))

	return app
}

func operator(t *testing.T) string {
	t.Helper()

	return handlertest.Session(t, auth.Identity{
		Username:           "op",
		Role:               document.StandardUserProfile,
		GlobalAllowedPorts: []string{"port1"},
		DeviceAllowedPorts: map[string][]string{"FGT-A": {"port5"}, "FGT-B": {"port2"}},
	})
}

func TestPortsAreFiltered(t *testing.T) {
	app := newTestApp(t, fakeClient{})
	cookie := operator(t)

	status, body := handlertest.Do(t, app, http.MethodGet, Path+"/FGT-A/ports?vdom=root", nil, cookie)
	require.Equal(t, http.StatusOK, status)

	var out Ports
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "root", out.VDOM)
	assert.Equal(t, []string{"port1", "port5"}, devices.Names(out.Interfaces))
}

func TestSuperUserSeesEveryPort(t *testing.T) {
	app := newTestApp(t, fakeClient{})
	cookie := handlertest.Session(t, auth.Identity{Username: "admin", Role: document.SuperUserProfile})

	status, body := handlertest.Do(t, app, http.MethodGet, Path+"/FGT-B/ports", nil, cookie)
	require.Equal(t, http.StatusOK, status)

	var out Ports
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Len(t, out.Interfaces, 4)
}

func TestListAndVDOMs(t *testing.T) {
	app := newTestApp(t, fakeClient{})
	cookie := operator(t)

	status, body := handlertest.Do(t, app, http.MethodGet, Path+"/", nil, cookie)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "FGT-B")

	status, body = handlertest.Do(t, app, http.MethodGet, Path+"/FGT-A/vdoms", nil, cookie)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `["root"]`, string(body))
}

func TestWithoutClient(t *testing.T) {
	app := newTestApp(t, nil)

	status, _ := handlertest.Do(t, app, http.MethodGet, Path+"/FGT-A/ports", nil, operator(t))
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestUpstreamFailure(t *testing.T) {
	app := newTestApp(t, fakeClient{err: errors.New("timeout")})

	status, _ := handlertest.Do(t, app, http.MethodGet, Path+"/FGT-A/ports", nil, operator(t))
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestRequiresDashboardAccess(t *testing.T) {
	app := newTestApp(t, fakeClient{})

	status, _ := handlertest.Do(t, app, http.MethodGet, Path+"/FGT-A/ports", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)

	noDashboard := handlertest.Session(t, auth.Identity{Username: "x", Role: "Missing"})
	status, _ = handlertest.Do(t, app, http.MethodGet, Path+"/FGT-A/ports", nil, noDashboard)
	assert.Equal(t, http.StatusForbidden, status)
}
