package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sakif/ecoguardian/internal/config"
	"github.com/sakif/ecoguardian/internal/repository"
	"github.com/sakif/ecoguardian/internal/repository/memory"
	"github.com/sakif/ecoguardian/internal/repository/sqldb"
)

// OpenStore builds the store selected by cfg.Store. For a file-backed SQLite
// database the parent directory is created first; sqlite will not do it.
func OpenStore(cfg config.Config) (repository.Store, error) {
	if cfg.Store == config.StoreMemory {
		return memory.New(), nil
	}

	if cfg.DB.Driver == config.DriverSQLite && isFilePath(cfg.DB.DSN) {
		if err := os.MkdirAll(filepath.Dir(cfg.DB.DSN), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqldb.Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", cfg.DB.Driver, err)
	}
	return db, nil
}

func isFilePath(dsn string) bool {
	return dsn != "" && !strings.HasPrefix(dsn, ":memory:") && !strings.HasPrefix(dsn, "file:")
}
