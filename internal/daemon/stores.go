package daemon

import (
	"github.com/gofiber/fiber/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/config"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/db"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/db/dsn"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/store"
)

const sessionTable = "sessions"

// openDocumentStore selects the file or database backend of the configuration document.
func openDocumentStore(cfg *config.Config) (store.Store, error) {
	if cfg.Store.Driver != config.StoreDriverDB {
		log.Info().Str("path", cfg.Store.Path).Msg("configuration document kept in file")

		return store.NewFileStore(cfg.Store.Path), nil
	}

	gormDB, err := db.Open(&cfg.DB)
	if err != nil {
		return nil, err
	}

	log.Info().Str("engine", cfg.DB.Engine).Msg("configuration document kept in database")

	return store.NewDBStore(gormDB), nil
}

// openSessionStorage keeps sessions next to the document in mysql or postgres so they
// survive restarts. File and sqlite setups keep them in memory.
func openSessionStorage(cfg *config.Config) (fiber.Storage, error) {
	if cfg.Store.Driver != config.StoreDriverDB {
		return nil, nil //nolint:nilnil // nil selects the in-memory storage
	}

	switch cfg.DB.Engine {
	case config.DBEngineMySQL:
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.Create(&cfg.DB),
			Table:         sessionTable,
		}), nil
	case config.DBEnginePostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.URI(&cfg.DB),
			Table:         sessionTable,
		}), nil
	default:
		return nil, nil //nolint:nilnil // nil selects the in-memory storage
	}
}
