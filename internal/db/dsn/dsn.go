// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/config"
)

// Create builds the Data Source Name of the configured engine in the form its gorm driver expects.
func Create(dbCfg *config.DB) string {
	switch dbCfg.Engine {
	case config.DBEngineSQLite:
		return dbCfg.Name
	case config.DBEnginePostgres:
		out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
			dbCfg.Host,
			dbCfg.Port,
			dbCfg.User,
			dbCfg.Password,
			dbCfg.Name,
		)

		if dbCfg.Extras != "" {
			out += " " + dbCfg.Extras
		}

		return out
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			dbCfg.User,
			dbCfg.Password,
			dbCfg.Host,
			dbCfg.Port,
			dbCfg.Name,
			dbCfg.Extras,
		)
	}
}

// URI builds a postgres connection URI, as used by the session storage.
func URI(dbCfg *config.DB) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(dbCfg.User, dbCfg.Password),
		Host:     net.JoinHostPort(dbCfg.Host, strconv.Itoa(dbCfg.Port)),
		Path:     "/" + dbCfg.Name,
		RawQuery: dbCfg.Extras,
	}

	return u.String()
}
