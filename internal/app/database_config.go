package app

import (
	"strings"

	"github.com/charlesng35/releasetrack/internal/database"
)

// ConnectionConfig converts DatabaseConfig to the database package representation.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(c.Driver)),
		Path:   strings.TrimSpace(c.Path),
		DSN:    strings.TrimSpace(c.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite", "sqlite3":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		applyAuth(&dbCfg, c.Postgres)
	case "mysql", "mariadb":
		dbCfg.Driver = "mysql"
		applyAuth(&dbCfg, c.MySQL)
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return dbCfg
}

func applyAuth(dbCfg *database.Config, auth DBAuthConfig) {
	dbCfg.Host = strings.TrimSpace(auth.Host)
	dbCfg.Port = auth.Port
	dbCfg.Name = strings.TrimSpace(auth.Database)
	dbCfg.User = strings.TrimSpace(auth.Username)
	dbCfg.Password = auth.Password
}
