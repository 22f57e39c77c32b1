// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix of environment variables overriding single config keys,
	// e.g. GOFMG_ADMIN_WEBSERVER_PORT.
	EnvPrefix = "GOFMG_ADMIN"

	// EnvConfigJSON holds a JSON document merged over the file based configuration.
	EnvConfigJSON = "GOFMG_ADMIN_CONFIG_JSON"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var c Config

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigName("main")
	v.SetConfigType("toml")
	v.AddConfigPath(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	if configAsJSON := os.Getenv(EnvConfigJSON); configAsJSON != "" {
		var err error
		if c, err = decodeAndMergeConfig(c, configAsJSON); err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	if err := json.Unmarshal([]byte(configAsJSON), &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read config json from env")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer

	if err := toml.NewEncoder(&buffer).Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the settings the daemon can not start without
// and fills in defaults for the optional ones.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = 5 // set default of 5 seconds
	}

	if c.Webserver.Session.ExpiryTime == 0 {
		c.Webserver.Session.ExpiryTime = DefaultSessionExpiry
	}

	switch c.Store.Driver {
	case "":
		c.Store.Driver = StoreDriverFile
	case StoreDriverFile, StoreDriverDB:
	default:
		return errors.Wrapf(ErrUnknownStoreDriver, "%s: %q", invalidErrMessage, c.Store.Driver)
	}

	if c.Store.Driver == StoreDriverFile && c.Store.Path == "" {
		c.Store.Path = DefaultDocumentPath
	}

	if c.Store.RefreshInterval == 0 {
		c.Store.RefreshInterval = DefaultRefreshInterval
	}

	if c.Store.Driver == StoreDriverDB {
		switch c.DB.Engine {
		case DBEngineMySQL, DBEnginePostgres, DBEngineSQLite:
		default:
			return errors.Wrapf(ErrUnknownDBEngine, "%s: %q", invalidErrMessage, c.DB.Engine)
		}
	}

	c.Directory.SetDefaults()

	if c.Log.LogLevel == "" {
		c.Log.LogLevel = "info"
	}

	if c.Log.AppName == "" {
		c.Log.AppName = DefaultAppName
	}

	if c.Log.ServiceName == "" {
		c.Log.ServiceName = DefaultAppName
	}

	return nil
}
