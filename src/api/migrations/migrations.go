// Package migrations holds the versioned schema changes applied by cmd/migrate.
// Startup still calls data.EnsureSchema, so every migration must tolerate
// tables that already exist.
package migrations

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Migration struct {
	ID   string
	Up   func(tx *gorm.DB) error
	Down func(tx *gorm.DB) error
}

// State is one row of the status report.
type State struct {
	ID        string
	Applied   bool
	AppliedAt time.Time
}

type schemaMigration struct {
	ID        string `gorm:"primaryKey;size:191"`
	AppliedAt time.Time
}

func (schemaMigration) TableName() string {
	return "schema_migrations"
}

// contactMessageV1 freezes the contact_messages shape at the time of 0001.
type contactMessageV1 struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:120;not null"`
	Email     string `gorm:"size:320;not null"`
	Subject   string `gorm:"size:200;not null"`
	Message   string `gorm:"type:text;not null"`
	CreatedAt string `gorm:"size:64;not null"`
}

func (contactMessageV1) TableName() string {
	return "contact_messages"
}

// All lists every migration in apply order.
var All = []Migration{
	{
		ID: "0001_create_contact_messages_table",
		Up: func(tx *gorm.DB) error {
			if tx.Migrator().HasTable(&contactMessageV1{}) {
				return nil
			}
			return tx.Migrator().CreateTable(&contactMessageV1{})
		},
		Down: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&contactMessageV1{})
		},
	},
}

// Runner applies a fixed list of migrations against one database.
type Runner struct {
	db         *gorm.DB
	migrations []Migration
}

func NewRunner(db *gorm.DB, migrations []Migration) *Runner {
	return &Runner{db: db, migrations: migrations}
}

func (r *Runner) ensureTable(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&schemaMigration{}); err != nil {
		return fmt.Errorf("schema_migrations: %w", err)
	}
	return nil
}

func (r *Runner) applied(ctx context.Context) (map[string]time.Time, error) {
	var rows []schemaMigration
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	out := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		out[row.ID] = row.AppliedAt
	}
	return out, nil
}

// Up applies every pending migration in order, each inside its own
// transaction, and returns the IDs it applied.
func (r *Runner) Up(ctx context.Context) ([]string, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	done, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}

	var ran []string
	for _, m := range r.migrations {
		if _, ok := done[m.ID]; ok {
			continue
		}
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&schemaMigration{ID: m.ID, AppliedAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return ran, fmt.Errorf("migration %s up: %w", m.ID, err)
		}
		ran = append(ran, m.ID)
	}
	return ran, nil
}

// Down reverts the most recent steps applied migrations.
func (r *Runner) Down(ctx context.Context, steps int) ([]string, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	done, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}

	var reverted []string
	for i := len(r.migrations) - 1; i >= 0 && len(reverted) < steps; i-- {
		m := r.migrations[i]
		if _, ok := done[m.ID]; !ok {
			continue
		}
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := m.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&schemaMigration{ID: m.ID}).Error
		})
		if err != nil {
			return reverted, fmt.Errorf("migration %s down: %w", m.ID, err)
		}
		reverted = append(reverted, m.ID)
	}
	return reverted, nil
}

func (r *Runner) Status(ctx context.Context) ([]State, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	done, err := r.applied(ctx)
	if err != nil {
		return nil, err
	}

	states := make([]State, 0, len(r.migrations))
	for _, m := range r.migrations {
		at, ok := done[m.ID]
		states = append(states, State{ID: m.ID, Applied: ok, AppliedAt: at})
	}
	return states, nil
}
