package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"sonerezh/internal/config"
	"sonerezh/internal/fsutil"
	"sonerezh/internal/models"
	"sonerezh/internal/repository"
	"sonerezh/internal/security"
	"sonerezh/internal/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCoreConfig = `# Sonerezh
[server]
port = 8080

[security]
cipher_seed = "1234567890123456789012345678901234567890"
salt = "abcdefghijabcdefghijabcdefghijabcdefghij"
`

// recordingAuditor keeps the actions it was asked to log.
type recordingAuditor struct {
	mu      sync.Mutex
	actions []string
}

func (a *recordingAuditor) Log(ctx context.Context, action string, actor string, resource string, details map[string]interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
}

type installerFixture struct {
	svc     *installerService
	prober  *prober
	cfg     *config.Config
	auditor *recordingAuditor
	dir     string
}

func newInstallerFixture(t *testing.T, locator fakeLocator) *installerFixture {
	t.Helper()
	dir := t.TempDir()
	corePath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(corePath, []byte(testCoreConfig), 0644))

	cfg, err := config.LoadConfig(corePath)
	require.NoError(t, err)
	require.NoError(t, cfg.ParseAndValidate())

	p := NewProber(newTestConverter(locator), cfg.Installer.ConfigDir, cfg.Path)
	auditor := &recordingAuditor{}
	svc := NewInstallerService(cfg, p, security.NewKeyRewriter(cfg.Path), auditor)

	return &installerFixture{svc: svc, prober: p, cfg: cfg, auditor: auditor, dir: dir}
}

func (f *installerFixture) sqliteRequest() models.InstallRequest {
	return models.InstallRequest{
		DB: models.InstallDatabase{
			Datasource: models.DatasourceSQLite,
			Database:   filepath.Join(f.dir, "sonerezh.db"),
		},
		User: models.InstallUser{
			Username:        "admin",
			Email:           "admin@example.org",
			Password:        "correct horse",
			ConfirmPassword: "correct horse",
		},
	}
}

// assertNothingLeft checks that a failed run left no configuration artifact behind.
func (f *installerFixture) assertNothingLeft(t *testing.T) {
	t.Helper()
	assert.False(t, f.cfg.IsInstalled(), "database config must not exist")
	assert.False(t, fsutil.FileExists(f.cfg.PendingDatabaseConfigPath()), "staged config must be discarded")
	assert.False(t, fsutil.FileExists(f.cfg.LockPath()), "install lock must be released")
}

func openInstalled(t *testing.T, cfg *config.Config) *repository.Repository {
	t.Helper()
	dbCfg, err := config.LoadDatabaseConfig(cfg.DatabaseConfigPath())
	require.NoError(t, err)
	repo, err := repository.Open(context.Background(), *dbCfg, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestInstall_Success(t *testing.T) {
	f := newInstallerFixture(t, fakeLocator{"ffmpeg": "/usr/bin/ffmpeg"})
	ctx := context.Background()

	result := f.svc.Install(ctx, f.sqliteRequest())

	require.True(t, result.Success, result.Message)
	assert.Equal(t, MsgInstallSuccessful, result.Message)
	assert.Equal(t, "/songs/import", result.Redirect)
	assert.Empty(t, result.FieldErrors)

	assert.True(t, f.cfg.IsInstalled())
	assert.False(t, fsutil.FileExists(f.cfg.PendingDatabaseConfigPath()))
	assert.False(t, fsutil.FileExists(f.cfg.LockPath()))

	dbCfg, err := config.LoadDatabaseConfig(f.cfg.DatabaseConfigPath())
	require.NoError(t, err)
	assert.Equal(t, "utf8", dbCfg.Encoding)
	assert.False(t, dbCfg.Persistent)

	repo := openInstalled(t, f.cfg)
	admins, err := repo.CountUsers(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, 1, admins)
	users, err := repo.CountUsers(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, users)
	settings, err := repo.CountSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, settings)

	user, err := repo.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, repository.CheckPassword(user, "correct horse"))

	st, err := repo.GetSetting(ctx)
	require.NoError(t, err)
	assert.True(t, st.EnableAutoConv, "auto-conversion follows the converter probe")
	assert.Equal(t, models.DefaultConvertFrom, st.ConvertFrom)
	assert.Equal(t, models.DefaultQuality, st.Quality)

	assert.Contains(t, f.auditor.actions, "install.complete")
}

func TestInstall_AutoConversionDisabledWithoutConverter(t *testing.T) {
	f := newInstallerFixture(t, fakeLocator{})
	req := f.sqliteRequest()
	req.Setting = models.InstallSetting{ConvertTo: "ogg", Quality: 192}

	result := f.svc.Install(context.Background(), req)
	require.True(t, result.Success, result.Message)

	st, err := openInstalled(t, f.cfg).GetSetting(context.Background())
	require.NoError(t, err)
	assert.False(t, st.EnableAutoConv)
	assert.Equal(t, "ogg", st.ConvertTo)
	assert.Equal(t, 192, st.Quality)
}

func TestInstall_WrongDatasource(t *testing.T) {
	for _, ds := range []models.Datasource{"", "oracle", "Database/Mysql", "SQLITE"} {
		f := newInstallerFixture(t, fakeLocator{})
		req := f.sqliteRequest()
		req.DB.Datasource = ds

		result := f.svc.Install(context.Background(), req)

		assert.False(t, result.Success)
		assert.Equal(t, MsgWrongDatasource, result.Message)
		assert.Equal(t, string(shared.ErrInvalidInput), result.Kind)
		f.assertNothingLeft(t)
	}
}

func TestInstall_ConnectionFailure(t *testing.T) {
	t.Run("sqlite in a missing directory", func(t *testing.T) {
		f := newInstallerFixture(t, fakeLocator{})
		req := f.sqliteRequest()
		req.DB.Database = filepath.Join(f.dir, "no", "such", "dir", "sonerezh.db")

		result := f.svc.Install(context.Background(), req)

		assert.False(t, result.Success)
		assert.Equal(t, MsgConnectionFailed, result.Message)
		assert.Equal(t, string(shared.ErrConnectionFailure), result.Kind)
		f.assertNothingLeft(t)
	})

	t.Run("unreachable server", func(t *testing.T) {
		f := newInstallerFixture(t, fakeLocator{})
		var seen config.DatabaseConfig
		f.svc.open = func(ctx context.Context, cfg config.DatabaseConfig, timeout time.Duration) (*repository.Repository, error) {
			seen = cfg
			return nil, errors.New("dial tcp 10.0.0.1:3306: i/o timeout")
		}
		req := f.sqliteRequest()
		req.DB = models.InstallDatabase{
			Datasource: models.DatasourceMySQL,
			Host:       "10.0.0.1",
			Login:      "sonerezh",
			Password:   "secret",
			Database:   "sonerezh",
		}

		result := f.svc.Install(context.Background(), req)

		assert.Equal(t, MsgConnectionFailed, result.Message)
		assert.Equal(t, "utf8", seen.Encoding, "connection uses the staged file")
		assert.Equal(t, "10.0.0.1", seen.Host)
		f.assertNothingLeft(t)
	})
}

func TestInstall_SchemaFailureRollsBack(t *testing.T) {
	f := newInstallerFixture(t, fakeLocator{})
	req := f.sqliteRequest()

	legacy, err := repository.Open(context.Background(), config.DatabaseConfig{
		Datasource: models.DatasourceSQLite,
		Database:   req.DB.Database,
	}, time.Second)
	require.NoError(t, err)
	_, err = legacy.DB.Exec("CREATE TABLE users (legacy TEXT)")
	require.NoError(t, err)
	require.NoError(t, legacy.Close())

	result := f.svc.Install(context.Background(), req)

	assert.False(t, result.Success)
	assert.Equal(t, MsgSchemaFailed, result.Message)
	assert.Equal(t, string(shared.ErrSchemaFailure), result.Kind)
	f.assertNothingLeft(t)
}

func TestInstall_PasswordMismatch(t *testing.T) {
	f := newInstallerFixture(t, fakeLocator{})
	req := f.sqliteRequest()
	req.User.ConfirmPassword = "battery staple"

	result := f.svc.Install(context.Background(), req)

	assert.False(t, result.Success)
	assert.Equal(t, MsgSaveFailed, result.Message)
	assert.Equal(t, string(shared.ErrInvalidInput), result.Kind)
	assert.Equal(t, []string{MsgPasswordMismatch}, result.FieldErrors["password"])
	f.assertNothingLeft(t)

	repo, err := repository.Open(context.Background(), config.DatabaseConfig{
		Datasource: models.DatasourceSQLite,
		Database:   req.DB.Database,
	}, time.Second)
	require.NoError(t, err)
	defer repo.Close()
	count, err := repo.CountUsers(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, count, "no user is created on mismatch")

	// A corrected submission succeeds against the same database.
	req.User.ConfirmPassword = req.User.Password
	result = f.svc.Install(context.Background(), req)
	assert.True(t, result.Success, result.Message)
}

func TestInstall_MissingCredentials(t *testing.T) {
	f := newInstallerFixture(t, fakeLocator{})
	req := f.sqliteRequest()
	req.User = models.InstallUser{Username: "  "}

	result := f.svc.Install(context.Background(), req)

	assert.False(t, result.Success)
	assert.Equal(t, []string{MsgUsernameRequired}, result.FieldErrors["username"])
	assert.Equal(t, []string{MsgPasswordRequired}, result.FieldErrors["password"])
	f.assertNothingLeft(t)
}

func TestInstall_PersistenceFailure(t *testing.T) {
	f := newInstallerFixture(t, fakeLocator{})
	req := f.sqliteRequest()

	existing, err := repository.Open(context.Background(), config.DatabaseConfig{
		Datasource: models.DatasourceSQLite,
		Database:   req.DB.Database,
	}, time.Second)
	require.NoError(t, err)
	require.NoError(t, existing.ApplySchema(context.Background()))
	_, err = existing.CreateUser(context.Background(), &repository.UserCreateArgs{Username: "admin", Password: "x", Role: models.RoleAdmin})
	require.NoError(t, err)
	require.NoError(t, existing.Close())

	result := f.svc.Install(context.Background(), req)

	assert.False(t, result.Success)
	assert.Equal(t, MsgSaveFailed, result.Message)
	assert.Equal(t, string(shared.ErrPersistenceFailure), result.Kind)
	f.assertNothingLeft(t)
}

func TestInstall_Guards(t *testing.T) {
	t.Run("already installed", func(t *testing.T) {
		f := newInstallerFixture(t, fakeLocator{})
		require.NoError(t, os.WriteFile(f.cfg.DatabaseConfigPath(), []byte("[default]\n"), 0600))

		result := f.svc.Install(context.Background(), f.sqliteRequest())

		assert.Equal(t, MsgAlreadyInstalled, result.Message)
		assert.False(t, fsutil.FileExists(f.cfg.LockPath()))
	})

	t.Run("lock held", func(t *testing.T) {
		f := newInstallerFixture(t, fakeLocator{})
		require.NoError(t, os.WriteFile(f.cfg.LockPath(), []byte("01HZZZZZZZZZZZZZZZZZZZZZZZ\n"), 0600))

		result := f.svc.Install(context.Background(), f.sqliteRequest())

		assert.Equal(t, MsgInstallInProgress, result.Message)
		assert.Equal(t, string(shared.ErrResourceUnavailable), result.Kind)
		assert.True(t, fsutil.FileExists(f.cfg.LockPath()), "a foreign lock is left alone")
		assert.False(t, f.cfg.IsInstalled())
	})

	t.Run("missing requirements", func(t *testing.T) {
		f := newInstallerFixture(t, fakeLocator{})
		f.prober.imageCheck = func() error { return errors.New("no codecs") }

		result := f.svc.Install(context.Background(), f.sqliteRequest())

		assert.Equal(t, MsgMissingRequirements, result.Message)
		f.assertNothingLeft(t)
	})

	t.Run("driver unavailable", func(t *testing.T) {
		f := newInstallerFixture(t, fakeLocator{})
		f.prober.drivers = func() []string { return []string{"sqlite"} }
		req := f.sqliteRequest()
		req.DB.Datasource = models.DatasourcePostgres

		result := f.svc.Install(context.Background(), req)

		assert.Equal(t, MsgDriverUnavailable, result.Message)
		f.assertNothingLeft(t)
	})
}

func TestPreparePage_RotatesKeysOnEveryCall(t *testing.T) {
	f := newInstallerFixture(t, fakeLocator{})
	keys := security.NewKeyRewriter(f.cfg.Path)
	initial, err := keys.Current()
	require.NoError(t, err)

	first := f.svc.PreparePage(context.Background())
	require.True(t, first.KeysReset)
	afterFirst, err := keys.Current()
	require.NoError(t, err)

	second := f.svc.PreparePage(context.Background())
	require.True(t, second.KeysReset)
	afterSecond, err := keys.Current()
	require.NoError(t, err)

	assert.NotEqual(t, initial, afterFirst)
	assert.NotEqual(t, afterFirst, afterSecond)
	assert.Len(t, afterSecond.CipherSeed, security.KeyLength)
	assert.Len(t, afterSecond.Salt, security.KeyLength)
	assert.NotEmpty(t, first.Report.Checks)
	assert.Equal(t, []string{"security.keys.rotate", "security.keys.rotate"}, f.auditor.actions)
}

func TestPreparePage_RotateOnce(t *testing.T) {
	f := newInstallerFixture(t, fakeLocator{})
	f.cfg.Security.RotateOnce = true
	before, err := os.ReadFile(f.cfg.Path)
	require.NoError(t, err)

	page := f.svc.PreparePage(context.Background())

	assert.False(t, page.KeysReset)
	after, err := os.ReadFile(f.cfg.Path)
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after))

	// An empty pair is still filled in.
	require.NoError(t, os.WriteFile(f.cfg.Path, []byte("[security]\ncipher_seed = \"\"\nsalt = \"\"\n"), 0644))
	page = f.svc.PreparePage(context.Background())
	assert.True(t, page.KeysReset)
	current, err := security.NewKeyRewriter(f.cfg.Path).Current()
	require.NoError(t, err)
	assert.False(t, current.Empty())
}

func TestPreparePage_CoreNotWritable(t *testing.T) {
	f := newInstallerFixture(t, fakeLocator{})
	f.prober.writable = func(path string) bool { return path != f.cfg.Path }
	before, err := os.ReadFile(f.cfg.Path)
	require.NoError(t, err)

	page := f.svc.PreparePage(context.Background())

	assert.False(t, page.KeysReset)
	assert.True(t, page.Report.MissingRequirements)
	after, err := os.ReadFile(f.cfg.Path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Empty(t, f.auditor.actions)
}

func TestInfoService(t *testing.T) {
	start := time.Now()
	installed := false
	info := NewInfoService("1.2.0", start, func() bool { return installed }).GetInfo()
	assert.Equal(t, "1.2.0", info.Version)
	assert.Equal(t, start, info.UptimeSince)
	assert.False(t, info.Installed)
}

func TestInstall_CommitFailureRemovesSeededRows(t *testing.T) {
	f := newInstallerFixture(t, fakeLocator{})
	ctx := context.Background()

	// A directory in place of database.toml makes the final rename fail.
	blocker := f.cfg.DatabaseConfigPath()
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "keep"), 0755))

	req := f.sqliteRequest()
	result := f.svc.Install(ctx, req)

	assert.False(t, result.Success)
	assert.Equal(t, MsgWriteConfigFailed, result.Message)
	assert.Equal(t, string(shared.ErrResourceUnavailable), result.Kind)
	assert.False(t, fsutil.FileExists(f.cfg.PendingDatabaseConfigPath()))
	assert.False(t, fsutil.FileExists(f.cfg.LockPath()))

	repo, err := repository.Open(ctx, config.DatabaseConfig{Datasource: models.DatasourceSQLite, Database: req.DB.Database}, 5*time.Second)
	require.NoError(t, err)
	users, err := repo.CountUsers(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, users, "the administrator is removed again")
	settings, err := repo.CountSettings(ctx)
	require.NoError(t, err)
	assert.Zero(t, settings)
	repo.Close()

	// Once the path is free the same submission goes through.
	require.NoError(t, os.RemoveAll(blocker))
	result = f.svc.Install(ctx, req)
	require.True(t, result.Success, result.Message)
	assert.True(t, f.cfg.IsInstalled())
}

func TestFailure_Kind(t *testing.T) {
	result := failure(shared.ErrConnectionFailure, MsgConnectionFailed)
	assert.False(t, result.Success)
	assert.Equal(t, "connection failure", result.Kind)

	assert.Empty(t, failure(shared.ErrInstallLocked, MsgInstallInProgress).Kind, "only installer error kinds are reported")
}
