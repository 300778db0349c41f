package db

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/hashicorp/go-hclog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/amonks/discography/config"
	"github.com/amonks/discography/data"
	"github.com/amonks/discography/fsutil"
	"github.com/amonks/discography/logging"
)

var (
	// ErrNotFound is returned by lookups that match no row.
	ErrNotFound = errors.New("not found")

	// ErrLocked means another process holds the store file.
	ErrLocked = errors.New("database is locked by another process")
)

// DB is the music library's store. All access goes through one pooled
// connection, so the foreground and the import worker never write at the
// same time.
type DB struct {
	*gorm.DB

	log  hclog.Logger
	lock *flock.Flock
}

// models are migrated in dependency order.
var models = []any{
	&data.Artist{},
	&data.Album{},
	&data.Genre{},
	&data.IndexerData{},
	&data.Image{},
	&data.Result{},
	&data.MusicHistory{},
}

// Open returns a connection to a migrated database, creating the sqlite file
// if necessary. A sqlite file can only be opened by one process at a time.
func Open(cfg config.Database, log hclog.Logger) (*DB, error) {
	log = log.Named("db")

	var (
		dialector gorm.Dialector
		lock      *flock.Flock
	)
	switch cfg.Driver {
	case "sqlite":
		if err := fsutil.EnsureDir(filepath.Dir(cfg.Path)); err != nil {
			return nil, fmt.Errorf("error creating db directory: %w", err)
		}
		lock = flock.New(cfg.Path + ".lock")
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("error locking db file at '%s': %w", cfg.Path, err)
		}
		if !ok {
			return nil, fmt.Errorf("opening '%s': %w", cfg.Path, ErrLocked)
		}
		dialector = sqlite.Open(cfg.Path)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver '%s'", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: logging.Gorm(log)})
	if err != nil {
		unlock(lock)
		return nil, fmt.Errorf("error opening %s db: %w", cfg.Driver, err)
	}

	db, err := New(gdb, log)
	if err != nil {
		unlock(lock)
		return nil, err
	}
	db.lock = lock

	if err := db.AutoMigrate(models...); err != nil {
		db.Close()
		return nil, fmt.Errorf("error migrating db: %w", err)
	}

	return db, nil
}

// New wraps an already-open gorm handle without migrating it.
func New(gdb *gorm.DB, log hclog.Logger) (*DB, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("error getting connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return &DB{DB: gdb, log: log}, nil
}

// Close closes the connection pool and releases the file lock.
func (db *DB) Close() error {
	var errs []error
	if sqlDB, err := db.DB.DB(); err != nil {
		errs = append(errs, err)
	} else if err := sqlDB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing db: %w", err))
	}
	if db.lock != nil {
		if err := db.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("error releasing db lock: %w", err))
		}
	}
	return errors.Join(errs...)
}

func unlock(lock *flock.Flock) {
	if lock != nil {
		_ = lock.Unlock()
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
