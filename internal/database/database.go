package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"entgo.io/ent/dialect/sql/schema"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite3"
)

// sqliteDriver is go-sqlite3 with lower() folding Unicode, not only ASCII.
// ent's case-insensitive predicates compare LOWER(column) with an argument
// lowered by strings.ToLower, so both sides must fold the same way.
const sqliteDriver = "sqlite3_unicode"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", unicodeLower, true)
		},
	})
}

func unicodeLower(v any) any {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		if s == nil {
			return nil
		}
		return strings.ToLower(string(s))
	default:
		return v
	}
}

// Config for database connection
type Config struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// Path is the SQLite DSN, e.g. "file:teamtask.db?_fk=1".
	Path string
}

// DSN returns the data source name for the configured driver.
func (c Config) DSN() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// DB is a connection pool paired with the SQL dialect its queries are built for.
type DB struct {
	*sqlx.DB
	Dialect string
}

// Open connects to the database described by cfg and verifies the connection.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*DB, error) {
	d, err := dialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	driverName := cfg.Driver
	if d == dialect.SQLite {
		driverName = sqliteDriver
	}
	raw, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db := sqlx.NewDb(raw, cfg.Driver)

	// Configure connection pool
	if d == dialect.SQLite {
		// In-memory databases vanish when their last connection closes.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("connected to database", zap.String("driver", cfg.Driver), zap.String("dialect", d))
	return &DB{DB: db, Dialect: d}, nil
}

// New wraps an existing pool. Used by tests that manage their own connection.
func New(db *sql.DB, driver string) (*DB, error) {
	d, err := dialectFor(driver)
	if err != nil {
		return nil, err
	}
	return &DB{DB: sqlx.NewDb(db, driver), Dialect: d}, nil
}

func dialectFor(driver string) (string, error) {
	switch driver {
	case DriverPostgres, DriverPgx:
		return dialect.Postgres, nil
	case DriverSQLite:
		return dialect.SQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Builder returns a SQL builder for the pool's dialect.
func (db *DB) Builder() *entsql.DialectBuilder {
	return entsql.Dialect(db.Dialect)
}

// Migrate creates or updates the schema.
func (db *DB) Migrate(ctx context.Context) error {
	m, err := schema.NewMigrate(
		entsql.OpenDB(db.Dialect, db.DB.DB),
		schema.WithForeignKeys(true),
		schema.WithDropIndex(true),
	)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("run migration: %w", err)
	}
	return nil
}

// WithTx runs fn inside a transaction, committing if it returns nil.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		return rollback(tx, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Helper function for transaction rollback
func rollback(tx *sqlx.Tx, err error) error {
	if rerr := tx.Rollback(); rerr != nil {
		err = fmt.Errorf("%w: %v", err, rerr)
	}
	return err
}
