package config

import (
	"time"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/logger"
)

const (
	// StoreDriverFile keeps the configuration document in a JSON file.
	StoreDriverFile = "file"
	// StoreDriverDB keeps the configuration document in the settings table.
	StoreDriverDB = "db"

	// DBEngineMySQL selects the gorm mysql driver.
	DBEngineMySQL = "mysql"
	// DBEnginePostgres selects the gorm postgres driver.
	DBEnginePostgres = "postgres"
	// DBEngineSQLite selects the pure go sqlite driver.
	DBEngineSQLite = "sqlite"

	// DefaultDocumentPath is used when store.path is empty.
	DefaultDocumentPath = "fmg_config.json"
	// DefaultAppName names the logger when log.appName is empty.
	DefaultAppName = "gofmg-admin"
	// DefaultSessionExpiry is used when webserver.session.expiryTime is empty.
	DefaultSessionExpiry = 8 * time.Hour
	// DefaultRefreshInterval is used when store.refreshInterval is empty.
	DefaultRefreshInterval = 30 * time.Second

	defaultBindTimeout  = 5 * time.Second
	defaultProbeTimeout = 2 * time.Second
	defaultTotalTimeout = 15 * time.Second
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	Title     string
	Log       logger.Log
	Webserver Webserver
	Store     Store
	DB        DB
	Directory Directory
	Audit     Audit
}

// Webserver implement webserver settings.
type Webserver struct {
	Port         int     // listening port for the webserver
	ShutDownTime int     // wait time for shutdown
	URL          string  // base url for the webserver
	Session      Session // session settings
}

// Store selects where the configuration document lives.
type Store struct {
	Driver string // file or db
	Path   string // document path for the file driver

	// RefreshInterval is how often the daemon looks for changes written by other
	// processes. Negative disables polling.
	RefreshInterval time.Duration
}

// DB holds the database configuration settings.
type DB struct {
	Engine   string // mysql, postgres or sqlite
	Extras   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string // database name, file name for sqlite
}

// Directory holds the timeouts of directory bind attempts and reachability probes.
type Directory struct {
	BindTimeout  time.Duration // per server dial and operation timeout
	ProbeTimeout time.Duration // tcp reachability probe timeout
	TotalTimeout time.Duration // budget of one authenticate call across all servers
}

// SetDefaults fills unset timeouts.
func (d *Directory) SetDefaults() {
	if d.BindTimeout <= 0 {
		d.BindTimeout = defaultBindTimeout
	}

	if d.ProbeTimeout <= 0 {
		d.ProbeTimeout = defaultProbeTimeout
	}

	if d.TotalTimeout <= 0 {
		d.TotalTimeout = defaultTotalTimeout
	}
}

// Audit configures the audit trail file.
type Audit struct {
	Enabled    bool
	Path       string
	File       string
	MaxSize    int
	MaxBackups int
	MaxAge     int
}
