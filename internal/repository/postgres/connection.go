package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dom/wedding-planner/internal/repository"
	"github.com/dom/wedding-planner/internal/repository/postgres/migrations"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// HandshakeSchemaVersion is the first migration carrying the entered-key
// columns.
const HandshakeSchemaVersion uint = 3

func NewConnection(databaseURL string, schemaVersion uint) (*gorm.DB, repository.Capabilities, error) {
	caps, err := Migrate(databaseURL, schemaVersion)
	if err != nil {
		return nil, repository.Capabilities{}, err
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, repository.Capabilities{}, err
	}

	return db, caps, nil
}

// Migrate applies the embedded migrations up to target (0 means latest) and
// reports what the resulting schema supports. It never migrates down.
func Migrate(databaseURL string, target uint) (repository.Capabilities, error) {
	src, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return repository.Capabilities{}, fmt.Errorf("load migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return repository.Capabilities{}, fmt.Errorf("init migrations: %w", err)
	}
	defer m.Close()

	current, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return repository.Capabilities{}, fmt.Errorf("read schema version: %w", err)
	}

	if target == 0 {
		err = m.Up()
	} else {
		if current > target {
			return repository.Capabilities{}, fmt.Errorf("schema is at version %d, refusing to migrate down to %d", current, target)
		}
		err = m.Migrate(target)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return repository.Capabilities{}, fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return repository.Capabilities{}, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return repository.Capabilities{}, fmt.Errorf("schema version %d is dirty", version)
	}

	return CapabilitiesFor(version), nil
}

func CapabilitiesFor(version uint) repository.Capabilities {
	return repository.Capabilities{
		SchemaVersion:   version,
		MutualHandshake: version >= HandshakeSchemaVersion,
	}
}

func NewRepositories(db *gorm.DB, caps repository.Capabilities) *repository.Repositories {
	return &repository.Repositories{
		User:          NewUserRepository(db, caps),
		Couple:        NewCoupleRepository(db, caps),
		CalendarEvent: NewCalendarEventRepository(db),
		Tx:            &transactor{db: db, caps: caps},
		Capabilities:  caps,
	}
}

type transactor struct {
	db   *gorm.DB
	caps repository.Capabilities
}

func (t *transactor) WithinTransaction(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx, t.caps))
	})
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return repository.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return repository.ErrConflict
	}
	return err
}
