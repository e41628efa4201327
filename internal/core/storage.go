package core

import (
	"fmt"
	"os"

	"quotecore/internal/infra/recordstore/memory"
	"quotecore/internal/infra/recordstore/postgres"
	"quotecore/internal/infra/recordstore/sheet"
	"quotecore/internal/infra/recordstore/sqlite"
	"quotecore/pkg/domain"
)

// StorageDriver identifies a concrete record store implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSheet    StorageDriver = "sheet"    // xlsx workbook (default)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// OpenRecordStore selects a backend using environment variables.
// Defaults to the workbook driver when unset.
//
//	QUOTECORE_RECORD_DRIVER: memory|sheet|sqlite|postgres (default sheet)
//	QUOTECORE_SHEET_PATH: path to the xlsx workbook (default ./quotes.xlsx)
//	QUOTECORE_SQLITE_PATH: path to the sqlite file (default ./quotecore.db)
//	QUOTECORE_POSTGRES_DSN: postgres DSN when driver=postgres
func OpenRecordStore() (domain.RecordStore, error) {
	driver := os.Getenv("QUOTECORE_RECORD_DRIVER")
	if driver == "" {
		driver = string(StorageSheet)
	}
	switch StorageDriver(driver) {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSheet:
		return sheet.NewStore(os.Getenv("QUOTECORE_SHEET_PATH"))
	case StorageSQLite:
		return sqlite.NewStore(os.Getenv("QUOTECORE_SQLITE_PATH"))
	case StoragePostgres:
		return postgres.NewStore(os.Getenv("QUOTECORE_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown record store driver %s", driver)
	}
}
