package journal

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"

	"github.com/prostogovorite/helpbot/bot/dispatch"
)

type fakeExecer struct {
	query string
	arg   any
	err   error
}

func (f *fakeExecer) NamedExecContext(_ context.Context, query string, arg any) (sql.Result, error) {
	f.query, f.arg = query, arg
	return nil, f.err
}

func TestEntryFrom(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	ev := dispatch.TopicSelected{Sender: dispatch.Sender{UserID: 7, ChatID: 7}, Ref: dispatch.ByID("hotline")}
	res := dispatch.Result{Kind: "topic", State: dispatch.StateFailed, Topic: "hotline", Fallback: true}

	e := EntryFrom(ev, res, at)
	if e.UserID != 7 || e.ChatID != 7 || e.Kind != "topic" || e.Topic != "hotline" {
		t.Fatalf("entry = %+v", e)
	}
	if e.State != "failed" || !e.Fallback || e.Unknown {
		t.Fatalf("entry flags = %+v", e)
	}
	if e.CreatedAt.Location() != time.UTC || !e.CreatedAt.Equal(at) {
		t.Fatalf("created_at = %s", e.CreatedAt)
	}

	start := EntryFrom(dispatch.StartCommand{Sender: dispatch.Sender{UserID: 1, ChatID: 2}}, dispatch.Result{State: dispatch.StateResponded}, at)
	if start.Kind != "start" || start.ChatID != 2 {
		t.Fatalf("start entry = %+v", start)
	}
}

func TestPostgresRecord(t *testing.T) {
	ex := &fakeExecer{}
	p := &Postgres{db: ex}
	e := Entry{UserID: 1, Kind: "start", State: "responded"}
	if err := p.Record(context.Background(), e); err != nil {
		t.Fatalf("record: %v", err)
	}
	if !strings.Contains(ex.query, "INSERT INTO interactions") || !strings.Contains(ex.query, ":created_at") {
		t.Fatalf("query = %s", ex.query)
	}
	if got, ok := ex.arg.(Entry); !ok || got != e {
		t.Fatalf("arg = %#v", ex.arg)
	}

	ex.err = errors.New("conn reset")
	if err := p.Record(context.Background(), e); err == nil {
		t.Fatalf("expected error")
	}
	var nilRec *Postgres
	if err := nilRec.Record(context.Background(), e); err == nil {
		t.Fatalf("nil recorder must fail")
	}
}

type countingRecorder struct {
	n   int
	err error
}

func (c *countingRecorder) Record(context.Context, Entry) error {
	c.n++
	return c.err
}

func TestWriteSwallowsErrors(t *testing.T) {
	r := &countingRecorder{err: errors.New("down")}
	Write(context.Background(), r, Entry{Kind: "topic"})
	Write(context.Background(), nil, Entry{})
	Write(context.Background(), Nop{}, Entry{})
	if r.n != 1 {
		t.Fatalf("record calls = %d", r.n)
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	ups, err := fs.Glob(Migrations, MigrationsDir+"/*.up.sql")
	if err != nil || len(ups) == 0 {
		t.Fatalf("up migrations: %v %v", ups, err)
	}
	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		if _, err := fs.Stat(Migrations, down); err != nil {
			t.Fatalf("missing %s: %v", down, err)
		}
	}
	data, err := fs.ReadFile(Migrations, MigrationsDir+"/0001_interactions.up.sql")
	if err != nil || !strings.Contains(string(data), "CREATE TABLE IF NOT EXISTS interactions") {
		t.Fatalf("schema: %v", err)
	}
}
