package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrUnknownStoreDriver error if config store.driver is neither file nor db.
	ErrUnknownStoreDriver = errors.New("toml config store.driver is unknown")

	// ErrUnknownDBEngine error if config db.engine is not supported.
	ErrUnknownDBEngine = errors.New("toml config db.engine is unknown")
)
