package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func TestNewDialect(t *testing.T) {
	for name, want := range map[string]string{
		"sqlite":     "sqlite",
		"SQLite3":    "sqlite",
		"postgres":   "postgres",
		"postgresql": "postgres",
		"mysql":      "mysql",
	} {
		d, err := NewDialect(name)
		if err != nil {
			t.Fatalf("NewDialect(%q): %v", name, err)
		}
		if d.Name() != want {
			t.Fatalf("NewDialect(%q) = %s, want %s", name, d.Name(), want)
		}
	}
	if _, err := NewDialect("oracle"); err == nil {
		t.Fatal("expected error for unsupported database")
	}
}

func TestRewritePlaceholders(t *testing.T) {
	got := NewPostgresDialect().RewriteQuery("UPDATE games SET doc = ?, version = ? WHERE id = ? AND version = ?")
	want := "UPDATE games SET doc = $1, version = $2 WHERE id = $3 AND version = $4"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if q := NewMySQLDialect().RewriteQuery("SELECT ?"); q != "SELECT ?" {
		t.Fatalf("mysql should keep ? placeholders, got %q", q)
	}
}

func TestSQLiteDSN(t *testing.T) {
	d := NewSQLiteDialect()
	if got := d.DSN(DialectConfig{Path: "games.db"}); got != "games.db?_txlock=immediate&_busy_timeout=5000" {
		t.Fatalf("unexpected dsn %q", got)
	}
	if got := d.DSN(DialectConfig{Path: "file:games.db?cache=shared"}); got != "file:games.db?cache=shared&_txlock=immediate&_busy_timeout=5000" {
		t.Fatalf("unexpected dsn %q", got)
	}
}

func TestDialectErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		d         Dialect
		err       error
		conflict  bool
		duplicate bool
	}{
		{"pg serialization", NewPostgresDialect(), &pq.Error{Code: "40001"}, true, false},
		{"pg deadlock", NewPostgresDialect(), &pq.Error{Code: "40P01"}, true, false},
		{"pg unique", NewPostgresDialect(), &pq.Error{Code: "23505"}, false, true},
		{"mysql deadlock", NewMySQLDialect(), &mysql.MySQLError{Number: 1213}, true, false},
		{"mysql lock wait", NewMySQLDialect(), &mysql.MySQLError{Number: 1205}, true, false},
		{"mysql dup", NewMySQLDialect(), fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062}), false, true},
		{"sqlite busy", NewSQLiteDialect(), sqlite3.Error{Code: sqlite3.ErrBusy}, true, false},
		{"sqlite pk", NewSQLiteDialect(), sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}, false, true},
		{"plain error", NewPostgresDialect(), errors.New("connection reset"), false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.d.IsConflict(tc.err); got != tc.conflict {
				t.Fatalf("IsConflict = %v, want %v", got, tc.conflict)
			}
			if got := tc.d.IsDuplicate(tc.err); got != tc.duplicate {
				t.Fatalf("IsDuplicate = %v, want %v", got, tc.duplicate)
			}
		})
	}
}
