package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) Name() string {
	return "mysql"
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

// DSN expects the driver's own format, e.g. user:pass@tcp(host:3306)/db.
func (d *MySQLDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	return query
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)
	return nil
}

func (d *MySQLDialect) SchemaQuery() string {
	return `
		CREATE TABLE IF NOT EXISTS games (
			id VARCHAR(64) PRIMARY KEY,
			doc LONGTEXT NOT NULL,
			version BIGINT NOT NULL,
			updated_at DATETIME(3) NOT NULL
		);
	`
}

func (d *MySQLDialect) LockSuffix() string {
	return " FOR UPDATE"
}

// IsConflict matches ER_LOCK_DEADLOCK and ER_LOCK_WAIT_TIMEOUT.
func (d *MySQLDialect) IsConflict(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == 1213 || me.Number == 1205
}

// IsDuplicate matches ER_DUP_ENTRY.
func (d *MySQLDialect) IsDuplicate(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) {
		return false
	}
	return me.Number == 1062
}
