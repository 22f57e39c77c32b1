package app

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/password"
)

func TestMain(m *testing.M) {
	password.Params = &argon2id.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

	os.Exit(m.Run())
}

func writeConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	doc := filepath.Join(dir, "fmg_config.json")

	content := fmt.Sprintf(`
Title = "test"

[Webserver]
Port = 8080
URL = "http://localhost:8080"

[Store]
Driver = "file"
Path = %q

[Log]
LogLevel = "error"
`, doc)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.toml"), []byte(content), 0o600))

	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	t.Cleanup(func() {
		accountPassword, loginPassword, dumpJSON = "", "", false
		accountPorts = nil
		accountProfile = document.StandardUserProfile
	})

	err := rootCmd.Execute()

	return out.String(), err
}

func TestConfigDump(t *testing.T) {
	dir := writeConfig(t)

	out, err := run(t, "config", "dump", "--json", "-c", dir)
	require.NoError(t, err)
	assert.Contains(t, out, `"Title": "test"`)
	assert.Contains(t, out, `"Driver": "file"`)
}

func TestLoginCommand(t *testing.T) {
	dir := writeConfig(t)

	out, err := run(t, "login", "-c", dir, "-u", "admin", "-p", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, `"role": "Super_User"`)

	out, err = run(t, "login", "-c", dir, "-u", "nobody", "-p", "wrong")
	require.ErrorIs(t, err, ErrLoginFailed)
	assert.Contains(t, out, "Invalid username or password.")
}

func TestAccountAddThenLogin(t *testing.T) {
	dir := writeConfig(t)

	out, err := run(t, "account", "add", "-c", dir, "-u", "bob", "-p", "bobs-password", "--ports", "port1,port2")
	require.NoError(t, err)
	assert.Contains(t, out, "account bob created")

	out, err = run(t, "login", "-c", dir, "-u", "bob", "-p", "bobs-password")
	require.NoError(t, err)
	assert.Contains(t, out, `"role": "Standard_User"`)
	assert.Contains(t, out, `"port2"`)
}

func TestAccountAddGeneratesPassword(t *testing.T) {
	dir := writeConfig(t)

	out, err := run(t, "account", "add", "-c", dir, "-u", "carol", "--profile", "Read_Only")
	require.NoError(t, err)
	assert.Contains(t, out, "account carol created with password: ")
}
