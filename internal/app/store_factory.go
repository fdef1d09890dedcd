package app

import (
	"fmt"

	"github.com/shrimpsizemoose/undantag/internal/store"
	"github.com/shrimpsizemoose/undantag/internal/store/postgres"
	"github.com/shrimpsizemoose/undantag/internal/store/sqlite"
)

func NewStore(dsn, migrationsDir string) (store.ExceptionStore, error) {
	switch store.DetectDatabaseType(dsn) {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(dsn, migrationsDir)
	case store.DBTypeSQLite:
		return sqlite.NewSQLiteStore(dsn, migrationsDir)
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", dsn)
	}
}
