package db

import (
	"strings"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open picks the dialect from the DSN: "file:" DSNs and ".db" paths use the
// pure-Go sqlite driver, anything else is treated as a MySQL DSN, e.g.
// app:apppass@tcp(127.0.0.1:3306)/groqchat?charset=utf8mb4&parseTime=true&loc=Local
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(Dialector(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

func Dialector(dsn string) gorm.Dialector {
	if IsSQLite(dsn) {
		return gormsqlite.Open(dsn)
	}
	return mysql.Open(dsn)
}

func IsSQLite(dsn string) bool {
	return strings.HasPrefix(dsn, "file:") || dsn == ":memory:" || strings.HasSuffix(dsn, ".db")
}
