// Package database opens the Postgres database, provisions it and runs the goose migrations.
package database

import (
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/storage/database/migrations"
)

const (
	pingAttempts = 30
	pingBackoff  = 100 * time.Millisecond
)

func init() {
	goose.SetBaseFS(migrations.FS)
}

// dsn builds the connection URL of dbName, as the admin role when asked and configured.
func dsn(dbName string, admin bool, dc core.DatabaseConfig) string {
	role := url.UserPassword(dc.User, dc.Password)
	if admin && dc.AdminUser != "" {
		role = url.UserPassword(dc.AdminUser, dc.AdminPassword)
	}
	q := url.Values{"timezone": {"utc"}, "sslmode": {"require"}}
	if dc.DisableTLS {
		q.Set("sslmode", "disable")
	}
	u := url.URL{Scheme: dc.Engine, User: role, Host: dc.Address(), Path: dbName, RawQuery: q.Encode()}
	return u.String()
}

func connect(dbName string, admin bool, dc core.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open(dc.Engine, dsn(dbName, admin, dc))
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", dbName)
	}
	if err = ping(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Open connects to the application database and waits until it answers.
func Open(conf *core.Config) (*sqlx.DB, error) {
	return connect(conf.Database.Name, false, conf.Database)
}

// ping retries with a linear backoff while the server starts up.
func ping(db *sqlx.DB) error {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		time.Sleep(time.Duration(attempt) * pingBackoff)
	}
	return errors.Wrap(err, "DB ping timeout")
}

func exists(db *sqlx.DB, query, name string) (bool, error) {
	var found bool
	err := db.Get(&found, `SELECT EXISTS (`+query+`)`, name)
	return found, err
}

// CreateIfNotExist provisions the application role (as admin) and the application database (as that role).
func CreateIfNotExist(conf *core.Config) error {
	dc := conf.Database

	admin, err := connect("postgres", true, dc)
	if err != nil {
		return err
	}
	defer func() { _ = admin.Close() }()

	if dc.User != "" {
		found, err := exists(admin, `SELECT 1 FROM pg_roles WHERE rolname = $1`, dc.User)
		if err != nil {
			return errors.Wrap(err, "checking app user")
		}
		if !found {
			q := "CREATE USER " + pq.QuoteIdentifier(dc.User) + " CREATEDB ENCRYPTED PASSWORD " + pq.QuoteLiteral(dc.Password)
			if _, err = admin.Exec(q); err != nil {
				return errors.Wrap(err, "creating app user")
			}
		}
	}

	app, err := connect("postgres", false, dc)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	found, err := exists(app, `SELECT 1 FROM pg_database WHERE datname = $1`, dc.Name)
	if err != nil {
		return errors.Wrap(err, "checking database")
	}
	if !found {
		if _, err = app.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dc.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}

// Migrate applies every pending migration.
func Migrate(db *sqlx.DB) error {
	return errors.Wrap(RunMigration(db, "up"), "migrating database")
}

// RunMigration runs a goose command (up, up-to, down, down-to, redo, reset, status, version, fix) against db.
func RunMigration(db *sqlx.DB, command string, args ...string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	return goose.Run(command, db.DB, ".", args...)
}
