package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	// Postgres driver, registered as "postgres".
	_ "github.com/lib/pq"

	"github.com/okian/shiftwatch/internal/domain/model"
)

// Connection pool settings.
const (
	pgMaxOpenConns    = 25
	pgMaxIdleConns    = 5
	pgConnMaxLifetime = 30 * time.Minute
)

// PGStore is a Postgres-backed Store. Dedup-key atomicity comes from a
// unique constraint on (ts, worker_id, workstation_id, event_type) together
// with ON CONFLICT DO NOTHING, so concurrent writers of the same key cannot
// race a duplicate into the table.
type PGStore struct {
	db *sql.DB
}

// OpenPostgres connects to dsn, verifies the connection, and ensures the
// schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*PGStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)
	db.SetConnMaxLifetime(pgConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PGStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPGStore wraps an existing connection. The schema is assumed to exist.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) ensureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS workers (
	worker_id TEXT PRIMARY KEY,
	name      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS workstations (
	station_id   TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	station_type TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS events (
	id             TEXT PRIMARY KEY,
	ts             TIMESTAMPTZ NOT NULL,
	worker_id      TEXT NOT NULL REFERENCES workers(worker_id),
	workstation_id TEXT NOT NULL REFERENCES workstations(station_id),
	event_type     TEXT NOT NULL,
	confidence     DOUBLE PRECISION NOT NULL,
	count          INTEGER NOT NULL DEFAULT 1,
	ingested_at    TIMESTAMPTZ NOT NULL,
	CONSTRAINT events_dedup_key UNIQUE (ts, worker_id, workstation_id, event_type)
);
CREATE INDEX IF NOT EXISTS idx_events_worker_ts  ON events (worker_id, ts);
CREATE INDEX IF NOT EXISTS idx_events_station_ts ON events (workstation_id, ts);
CREATE INDEX IF NOT EXISTS idx_events_ts         ON events (ts);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const eventColumns = "id, ts, worker_id, workstation_id, event_type, confidence, count, ingested_at"

func scanEvent(row interface{ Scan(...any) error }) (model.Event, error) {
	var e model.Event
	var typ string
	if err := row.Scan(&e.ID, &e.Timestamp, &e.WorkerID, &e.WorkstationID, &typ, &e.Confidence, &e.Count, &e.IngestedAt); err != nil {
		return model.Event{}, err
	}
	e.Type = model.EventType(typ)
	return e, nil
}

// FindEventByKey returns the stored event for key, or ErrNotFound.
func (s *PGStore) FindEventByKey(ctx context.Context, key model.EventKey) (model.Event, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE ts = $1 AND worker_id = $2 AND workstation_id = $3 AND event_type = $4",
		time.Unix(0, key.UnixNano).UTC(), key.WorkerID, key.WorkstationID, string(key.Type))
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrNotFound
	}
	if err != nil {
		return model.Event{}, fmt.Errorf("find event by key: %w", err)
	}
	return e, nil
}

// InsertEvent stores e, relying on the unique dedup constraint. On conflict
// the previously stored event is fetched and returned with created=false.
func (s *PGStore) InsertEvent(ctx context.Context, e model.Event) (model.Event, bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT ON CONSTRAINT events_dedup_key DO NOTHING`,
		e.ID, e.Timestamp.UTC(), e.WorkerID, e.WorkstationID, string(e.Type), e.Confidence, e.Count, e.IngestedAt.UTC())
	if err != nil {
		return model.Event{}, false, fmt.Errorf("insert event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.Event{}, false, fmt.Errorf("insert event: %w", err)
	}
	if affected == 0 {
		existing, err := s.FindEventByKey(ctx, e.Key())
		if err != nil {
			return model.Event{}, false, fmt.Errorf("insert event conflict lookup: %w", err)
		}
		return existing, false, nil
	}
	e.Timestamp = e.Timestamp.UTC()
	e.IngestedAt = e.IngestedAt.UTC()
	return e, true, nil
}

// ListEvents returns filtered events, most recent timestamp first.
func (s *PGStore) ListEvents(ctx context.Context, f EventFilter) ([]model.Event, error) {
	query := "SELECT " + eventColumns + " FROM events"
	args := []any{}
	argN := 1

	where := ""
	if f.WorkerID != "" {
		where = fmt.Sprintf(" WHERE worker_id = $%d", argN)
		args = append(args, f.WorkerID)
		argN++
	}
	if f.WorkstationID != "" {
		if where == "" {
			where = fmt.Sprintf(" WHERE workstation_id = $%d", argN)
		} else {
			where += fmt.Sprintf(" AND workstation_id = $%d", argN)
		}
		args = append(args, f.WorkstationID)
		argN++
	}
	query += where + " ORDER BY ts DESC"

	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argN)
		args = append(args, f.Limit)
		argN++
	}
	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argN)
		args = append(args, f.Offset)
	}

	return s.queryEvents(ctx, query, args...)
}

// EventsByWorker returns the worker's events, timestamp ascending.
func (s *PGStore) EventsByWorker(ctx context.Context, workerID string) ([]model.Event, error) {
	return s.queryEvents(ctx,
		"SELECT "+eventColumns+" FROM events WHERE worker_id = $1 ORDER BY ts ASC", workerID)
}

// EventsByStation returns the workstation's events, timestamp ascending.
func (s *PGStore) EventsByStation(ctx context.Context, stationID string) ([]model.Event, error) {
	return s.queryEvents(ctx,
		"SELECT "+eventColumns+" FROM events WHERE workstation_id = $1 ORDER BY ts ASC", stationID)
}

func (s *PGStore) queryEvents(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

// AddWorker registers a worker.
func (s *PGStore) AddWorker(ctx context.Context, w model.Worker) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO workers (worker_id, name) VALUES ($1, $2) ON CONFLICT (worker_id) DO NOTHING",
		w.WorkerID, w.Name)
	if err != nil {
		return fmt.Errorf("add worker: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrDuplicate
	}
	return nil
}

// AddWorkstation registers a workstation.
func (s *PGStore) AddWorkstation(ctx context.Context, st model.Workstation) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO workstations (station_id, name, station_type) VALUES ($1, $2, $3) ON CONFLICT (station_id) DO NOTHING",
		st.StationID, st.Name, st.StationType)
	if err != nil {
		return fmt.Errorf("add workstation: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrDuplicate
	}
	return nil
}

// WorkerExists reports whether the worker id is registered.
func (s *PGStore) WorkerExists(ctx context.Context, workerID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM workers WHERE worker_id = $1)", workerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("worker exists: %w", err)
	}
	return exists, nil
}

// WorkstationExists reports whether the workstation id is registered.
func (s *PGStore) WorkstationExists(ctx context.Context, stationID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM workstations WHERE station_id = $1)", stationID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("workstation exists: %w", err)
	}
	return exists, nil
}

// Workers returns all registered workers.
func (s *PGStore) Workers(ctx context.Context) ([]model.Worker, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT worker_id, name FROM workers ORDER BY worker_id")
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	defer rows.Close()

	out := []model.Worker{}
	for rows.Next() {
		var w model.Worker
		if err := rows.Scan(&w.WorkerID, &w.Name); err != nil {
			return nil, fmt.Errorf("scan worker: %w", err)
		}
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workers: %w", err)
	}
	return out, nil
}

// Workstations returns all registered workstations.
func (s *PGStore) Workstations(ctx context.Context) ([]model.Workstation, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT station_id, name, station_type FROM workstations ORDER BY station_id")
	if err != nil {
		return nil, fmt.Errorf("list workstations: %w", err)
	}
	defer rows.Close()

	out := []model.Workstation{}
	for rows.Next() {
		var st model.Workstation
		if err := rows.Scan(&st.StationID, &st.Name, &st.StationType); err != nil {
			return nil, fmt.Errorf("scan workstation: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workstations: %w", err)
	}
	return out, nil
}

func (s *PGStore) countRows(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// CountWorkers returns the number of registered workers.
func (s *PGStore) CountWorkers(ctx context.Context) (int, error) {
	return s.countRows(ctx, "workers")
}

// CountWorkstations returns the number of registered workstations.
func (s *PGStore) CountWorkstations(ctx context.Context) (int, error) {
	return s.countRows(ctx, "workstations")
}

// CountEvents returns the number of stored events.
func (s *PGStore) CountEvents(ctx context.Context) (int, error) {
	return s.countRows(ctx, "events")
}

// Clear removes all rows. Demo reset only.
func (s *PGStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "TRUNCATE events, workers, workstations"); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *PGStore) Close() error {
	return s.db.Close()
}
