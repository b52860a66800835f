package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/library/internal/entities"
)

// connectionParams are appended to every SQLite path. _txlock=immediate makes
// each transaction take the write lock on BEGIN, so two lifecycle transitions
// on the same book queue up behind the busy timeout instead of interleaving.
const connectionParams = "_foreign_keys=on&_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL"

// DriverName is the go-sqlite3 driver registered with library SQL functions.
const DriverName = "sqlite3_library"

// UnicodeLowerFunc lowercases its TEXT argument with full Unicode case
// mapping. The built-in LOWER only folds ASCII letters.
const UnicodeLowerFunc = "unicode_lower"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc(UnicodeLowerFunc, strings.ToLower, true)
		},
	})
}

// Dialector opens dbPath through DriverName.
func Dialector(dbPath string) gorm.Dialector {
	return sqlite.New(sqlite.Config{DriverName: DriverName, DSN: DSN(dbPath)})
}

type Database struct {
	DB     *gorm.DB
	logger *zap.Logger
}

// DSN returns the connection string used for dbPath.
func DSN(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + connectionParams
}

func NewDatabase(dbPath string, log *zap.Logger) (*Database, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := gorm.Open(Dialector(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("Database initialized", zap.String("path", dbPath))

	return &Database{DB: db, logger: log}, nil
}

// Migrate creates or updates the schema for all persisted entities.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entities.User{},
		&entities.Book{},
		&entities.Reservation{},
		&entities.Loan{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
