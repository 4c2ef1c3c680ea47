// Package journal records dispatch outcomes for later analysis. It is
// write-only: nothing in the bot reads it back.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/prostogovorite/helpbot/bot/dispatch"
	"github.com/prostogovorite/helpbot/core/logger"
)

// Migrations holds the journal schema for golang-migrate.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the schema root inside Migrations.
const MigrationsDir = "migrations"

// Entry is one journal row.
type Entry struct {
	UserID    int64     `db:"user_id"`
	ChatID    int64     `db:"chat_id"`
	Kind      string    `db:"kind"`
	Topic     string    `db:"topic"`
	State     string    `db:"state"`
	Fallback  bool      `db:"fallback"`
	Unknown   bool      `db:"unknown"`
	CreatedAt time.Time `db:"created_at"`
}

// EntryFrom builds the row for a finished dispatch.
func EntryFrom(ev dispatch.Event, res dispatch.Result, at time.Time) Entry {
	e := Entry{
		Kind:      res.Kind,
		Topic:     res.Topic,
		State:     string(res.State),
		Fallback:  res.Fallback,
		Unknown:   res.Unknown,
		CreatedAt: at.UTC(),
	}
	if ev != nil {
		from := ev.From()
		e.UserID, e.ChatID = from.UserID, from.ChatID
		if e.Kind == "" {
			e.Kind = ev.Kind()
		}
	}
	return e
}

// Recorder stores journal entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Nop discards entries; used when the journal is disabled.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

type namedExecer interface {
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
}

const insertEntry = `INSERT INTO interactions (user_id, chat_id, kind, topic, state, fallback, unknown, created_at)
VALUES (:user_id, :chat_id, :kind, :topic, :state, :fallback, :unknown, :created_at)`

// Postgres writes entries to the interactions table.
type Postgres struct {
	db namedExecer
}

// NewPostgres wraps an open connection.
func NewPostgres(db *sqlx.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Record(ctx context.Context, e Entry) error {
	if p == nil || p.db == nil {
		return errors.New("journal: no database")
	}
	_, err := p.db.NamedExecContext(ctx, insertEntry, e)
	return err
}

// Write records e and logs a failure instead of returning it. Journal
// problems never reach the user.
func Write(ctx context.Context, r Recorder, e Entry) {
	if r == nil {
		return
	}
	start := time.Now()
	if err := r.Record(ctx, e); err != nil {
		logger.Warn(ctx, logger.CompJournal, "journal.write",
			slog.String("status", "fail"),
			slog.String("kind", e.Kind),
			slog.String("topic", e.Topic),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", err.Error()),
		)
		return
	}
	if logger.ShouldSampleDebug() {
		logger.Debug(ctx, logger.CompJournal, "journal.write",
			slog.String("status", "ok"),
			slog.String("kind", e.Kind),
			slog.Duration("duration", logger.Took(start)),
		)
	}
}
