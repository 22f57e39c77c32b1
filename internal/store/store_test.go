package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/db/models"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/password"
)

func TestMain(m *testing.M) {
	password.Params = &argon2id.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Setting{}))

	return db
}

// stores returns every Store implementation on fresh storage.
func stores(t *testing.T) map[string]Store {
	t.Helper()

	return map[string]Store{
		"file": NewFileStore(filepath.Join(t.TempDir(), "conf", "fmg_config.json")),
		"db":   NewDBStore(setupTestDB(t)),
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			raw, tag, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Nil(t, raw)
			assert.Empty(t, tag)

			tag1, err := s.Save(ctx, []byte(`{"a":1}`), "")
			require.NoError(t, err)
			assert.NotEmpty(t, tag1)

			raw, tag, err = s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, []byte(`{"a":1}`), raw)
			assert.Equal(t, tag1, tag)

			_, err = s.Save(ctx, []byte(`{"a":2}`), "")
			require.ErrorIs(t, err, ErrConflict)

			tag2, err := s.Save(ctx, []byte(`{"a":2}`), tag1)
			require.NoError(t, err)
			assert.NotEqual(t, tag1, tag2)

			_, err = s.Save(ctx, []byte(`{"a":3}`), tag1)
			require.ErrorIs(t, err, ErrConflict)

			raw, _, err = s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, []byte(`{"a":2}`), raw)
		})
	}
}

func TestFileStoreLeavesNoTemporaryFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "fmg_config.json"))

	_, err := s.Save(context.Background(), []byte("{}"), "")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fmg_config.json", entries[0].Name())

	info, err := entries[0].Info()
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePerm), info.Mode().Perm())
}

func TestFileStoreSaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	s := NewFileStore(filepath.Join(blocker, "fmg_config.json"))

	_, err := s.Save(context.Background(), []byte("{}"), "")
	require.ErrorIs(t, err, ErrSaveFailed)
}

func TestDBStoreMalformedETag(t *testing.T) {
	_, err := NewDBStore(setupTestDB(t)).Save(context.Background(), []byte("{}"), "abc")
	require.ErrorIs(t, err, ErrConflict)
}

func TestManagerReloadMissingWritesDefaults(t *testing.T) {
	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "fmg_config.json"))
	m := NewManager(s)

	assert.Nil(t, m.Snapshot())
	require.NoError(t, m.Reload(ctx))
	assert.Equal(t, document.Default(), m.Snapshot())

	raw, _, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, raw, "defaults are written back")

	doc, migrated, err := document.Decode(raw)
	require.NoError(t, err)
	assert.False(t, migrated)
	assert.Equal(t, document.Default(), doc)
}

func TestManagerReloadCorruptKeepsFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fmg_config.json")
	require.NoError(t, os.WriteFile(path, []byte("{corrupt"), 0o600))

	m := NewManager(NewFileStore(path))
	require.NoError(t, m.Reload(ctx))
	assert.Equal(t, document.Default(), m.Snapshot())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{corrupt", string(raw))

	// the next update replaces the corrupt file
	_, err = m.Update(ctx, func(doc *document.Document) error {
		doc.PrimaryDNS = "10.0.0.53"
		return nil
	})
	require.NoError(t, err)

	raw, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "10.0.0.53")
}

func TestManagerReloadMigratesPlaintextOnce(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fmg_config.json")
	legacy := `{"local_accounts": [{"user": "ops", "password": "pw", "profile": "Standard_User", "allowed_ports": {"fgt": ["wan1"]}}]}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	m := NewManager(NewFileStore(path))
	require.NoError(t, m.Reload(ctx))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"password"`)
	assert.Contains(t, string(raw), `"password_hash"`)
	assert.Contains(t, string(raw), `"device_allowed_ports"`)

	acc, ok := m.Snapshot().FindAccount("ops")
	require.True(t, ok)
	assert.True(t, password.Verify("pw", acc.PasswordHash))

	// a second load finds nothing left to migrate
	_, migrated, err := document.Decode(raw)
	require.NoError(t, err)
	assert.False(t, migrated)
}

func TestManagerRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			m := NewManager(s)
			require.NoError(t, m.Reload(ctx))

			saved, err := m.Update(ctx, func(doc *document.Document) error {
				doc.LDAPSettings.Enabled = true
				doc.LDAPSettings.Servers = []string{"dc1", "dc2"}
				doc.LDAPSettings.Mappings = []document.GroupMapping{{
					GroupMatch: "netops", Profile: document.StandardUserProfile,
					PortGrant: document.PortGrant{GlobalAllowedPorts: []string{"port1"}, DeviceAllowedPorts: map[string][]string{"fgt": {"wan1"}}},
				}}
				doc.AdminProfiles = append(doc.AdminProfiles, document.Profile{
					Name:        "Auditor",
					Permissions: map[document.Module]document.AccessLevel{document.ModuleLogs: document.LevelRead},
				})

				return nil
			})
			require.NoError(t, err)

			fresh := NewManager(s)
			require.NoError(t, fresh.Reload(ctx))

			loaded := fresh.Snapshot()
			assert.Equal(t, saved.AdminProfiles, loaded.AdminProfiles)
			assert.Equal(t, saved.LocalAccounts, loaded.LocalAccounts)
			assert.Equal(t, saved.LDAPSettings, loaded.LDAPSettings)
		})
	}
}

func TestManagerUpdateDoesNotTouchSnapshotOnError(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewFileStore(filepath.Join(t.TempDir(), "fmg_config.json")))
	require.NoError(t, m.Reload(ctx))

	before := m.Snapshot()

	_, err := m.Update(ctx, func(doc *document.Document) error {
		doc.PrimaryDNS = "1.1.1.1"
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, err = m.Update(ctx, func(doc *document.Document) error {
		doc.LocalAccounts[1].Profile = "Missing"
		return nil
	})
	require.ErrorIs(t, err, document.ErrUnknownProfile)

	assert.Same(t, before, m.Snapshot())
	assert.Empty(t, m.Snapshot().PrimaryDNS)
}

func TestManagerConflict(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fmg_config.json")

	a := NewManager(NewFileStore(path))
	require.NoError(t, a.Reload(ctx))

	b := NewManager(NewFileStore(path))
	require.NoError(t, b.Reload(ctx))

	_, err := a.Update(ctx, func(doc *document.Document) error {
		doc.PrimaryDNS = "10.0.0.1"
		return nil
	})
	require.NoError(t, err)

	_, err = b.Update(ctx, func(doc *document.Document) error {
		doc.PrimaryDNS = "10.0.0.2"
		return nil
	})
	require.ErrorIs(t, err, ErrConflict)

	// the rejected change is dropped and the snapshot now shows the winning write
	assert.Equal(t, "10.0.0.1", b.Snapshot().PrimaryDNS)
}

func TestManagerRecoversAfterOutsideWrite(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			daemon := NewManager(s)
			require.NoError(t, daemon.Reload(ctx))

			cli := NewManager(s)
			require.NoError(t, cli.Reload(ctx))

			_, err := cli.Update(ctx, func(doc *document.Document) error {
				doc.LocalAccounts = append(doc.LocalAccounts, document.LocalAccount{
					Username:  "cliuser",
					Profile:   document.ReadOnlyProfile,
					PortGrant: document.EmptyGrant(),
				})

				return nil
			})
			require.NoError(t, err)

			setDNS := func(doc *document.Document) error {
				doc.SecondaryDNS = "9.9.9.9"
				return nil
			}

			_, err = daemon.Update(ctx, setDNS)
			require.ErrorIs(t, err, ErrConflict)

			_, err = daemon.Update(ctx, setDNS)
			require.NoError(t, err)

			_, err = daemon.Update(ctx, func(doc *document.Document) error {
				doc.PrimaryDNS = "1.1.1.1"
				return nil
			})
			require.NoError(t, err)

			snap := daemon.Snapshot()
			_, found := snap.FindAccount("cliuser")
			assert.True(t, found)
			assert.Equal(t, "9.9.9.9", snap.SecondaryDNS)
			assert.Equal(t, "1.1.1.1", snap.PrimaryDNS)
		})
	}
}

func TestManagerRefresh(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			daemon := NewManager(s)
			require.NoError(t, daemon.Reload(ctx))

			before := daemon.Snapshot()
			require.NoError(t, daemon.Refresh(ctx))
			assert.Same(t, before, daemon.Snapshot(), "unchanged store keeps the snapshot")

			cli := NewManager(s)
			require.NoError(t, cli.Reload(ctx))

			_, err := cli.Update(ctx, func(doc *document.Document) error {
				doc.PrimaryDNS = "10.1.1.1"
				return nil
			})
			require.NoError(t, err)

			require.NoError(t, daemon.Refresh(ctx))
			assert.Equal(t, "10.1.1.1", daemon.Snapshot().PrimaryDNS)

			_, err = daemon.Update(ctx, func(doc *document.Document) error {
				doc.SecondaryDNS = "10.2.2.2"
				return nil
			})
			require.NoError(t, err)
		})
	}
}

func TestManagerWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "fmg_config.json")

	daemon := NewManager(NewFileStore(path))
	require.NoError(t, daemon.Reload(ctx))

	done := make(chan struct{})

	go func() {
		daemon.Watch(ctx, 10*time.Millisecond)
		close(done)
	}()

	cli := NewManager(NewFileStore(path))
	require.NoError(t, cli.Reload(ctx))

	_, err := cli.Update(ctx, func(doc *document.Document) error {
		doc.PrimaryDNS = "10.3.3.3"
		return nil
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return daemon.Snapshot().PrimaryDNS == "10.3.3.3"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

// failingStore loads fine but never saves.
type failingStore struct{}

func (failingStore) Load(context.Context) ([]byte, string, error) {
	raw, err := document.Encode(document.Default())
	return raw, "1", err
}

func (failingStore) Save(context.Context, []byte, string) (string, error) {
	return "", fmt.Errorf("%w: %w", ErrSaveFailed, errors.New("disk full"))
}

func TestManagerSaveFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	m := NewManager(failingStore{})
	require.NoError(t, m.Reload(ctx))

	doc, err := m.Update(ctx, func(doc *document.Document) error {
		doc.SecondaryDNS = "9.9.9.9"
		return nil
	})
	require.ErrorIs(t, err, ErrSaveFailed)
	require.NotNil(t, doc)
	assert.Equal(t, "9.9.9.9", m.Snapshot().SecondaryDNS)
}

func TestManagerSerialisesConcurrentUpdates(t *testing.T) {
	ctx := context.Background()

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			m := NewManager(s)
			require.NoError(t, m.Reload(ctx))

			const writers = 20

			var wg sync.WaitGroup

			errs := make(chan error, writers)

			for i := range writers {
				wg.Add(1)

				go func() {
					defer wg.Done()

					_, err := m.Update(ctx, func(doc *document.Document) error {
						doc.LocalAccounts = append(doc.LocalAccounts, document.LocalAccount{
							Username:  fmt.Sprintf("user%02d", i),
							Profile:   document.ReadOnlyProfile,
							PortGrant: document.EmptyGrant(),
						})

						return nil
					})
					errs <- err
				}()
			}

			wg.Wait()
			close(errs)

			for err := range errs {
				require.NoError(t, err)
			}

			fresh := NewManager(s)
			require.NoError(t, fresh.Reload(ctx))
			assert.Len(t, fresh.Snapshot().LocalAccounts, 2+writers)
		})
	}
}
