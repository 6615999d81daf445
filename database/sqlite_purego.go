//go:build !cgo_sqlite

package database

import (
	_ "modernc.org/sqlite" // pure Go SQLite driver
)

const (
	sqliteDriverName = "sqlite"
	sqliteDriverType = "purego"
)
