// Package persistence provides the SQLite archive of the city's narrative feed
// and statistics history. Simulation state itself is never saved.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/civic-sim/internal/engine"
)

// DB wraps a SQLite connection for the archive.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seq INTEGER NOT NULL,
		tick INTEGER NOT NULL,
		at TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		meta_json TEXT NOT NULL DEFAULT '{}'
	);

	CREATE TABLE IF NOT EXISTS stats (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		day INTEGER NOT NULL,
		recorded_at TEXT NOT NULL,
		population INTEGER NOT NULL,
		avg_happiness REAL NOT NULL,
		avg_health REAL NOT NULL,
		protest_pct REAL NOT NULL,
		unemployment REAL NOT NULL,
		budget REAL NOT NULL,
		growth REAL NOT NULL,
		inflation REAL NOT NULL,
		births INTEGER NOT NULL,
		deaths INTEGER NOT NULL,
		marriages INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS city_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	CREATE INDEX IF NOT EXISTS idx_stats_tick ON stats(tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveEvents appends events to the archive.
func (db *DB) SaveEvents(events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range events {
		meta := []byte("{}")
		if len(e.Meta) > 0 {
			if meta, err = json.Marshal(e.Meta); err != nil {
				return fmt.Errorf("encode meta for event %d: %w", e.Seq, err)
			}
		}
		_, err := tx.Exec(
			"INSERT INTO events (seq, tick, at, description, category, meta_json) VALUES (?, ?, ?, ?, ?, ?)",
			e.Seq, e.Tick, e.Time.UTC().Format(time.RFC3339Nano), e.Description, e.Category, string(meta),
		)
		if err != nil {
			return fmt.Errorf("insert event %d: %w", e.Seq, err)
		}
	}

	return tx.Commit()
}

type eventRow struct {
	Seq         uint64 `db:"seq"`
	Tick        uint64 `db:"tick"`
	At          string `db:"at"`
	Description string `db:"description"`
	Category    string `db:"category"`
	MetaJSON    string `db:"meta_json"`
}

// RecentEvents returns the most recent N archived events, newest first.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var rows []eventRow
	err := db.conn.Select(&rows,
		"SELECT seq, tick, at, description, category, meta_json FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	events := make([]engine.Event, 0, len(rows))
	for _, r := range rows {
		e := engine.Event{Seq: r.Seq, Tick: r.Tick, Description: r.Description, Category: r.Category}
		e.Time, _ = time.Parse(time.RFC3339Nano, r.At)
		if r.MetaJSON != "" && r.MetaJSON != "{}" {
			if err := json.Unmarshal([]byte(r.MetaJSON), &e.Meta); err != nil {
				return nil, fmt.Errorf("decode meta for event %d: %w", r.Seq, err)
			}
		}
		events = append(events, e)
	}
	return events, nil
}

// StatsRow is one archived statistics sample.
type StatsRow struct {
	Tick         uint64  `db:"tick" json:"tick"`
	Day          int     `db:"day" json:"day"`
	RecordedAt   string  `db:"recorded_at" json:"recorded_at"`
	Population   int     `db:"population" json:"population"`
	AvgHappiness float64 `db:"avg_happiness" json:"avg_happiness"`
	AvgHealth    float64 `db:"avg_health" json:"avg_health"`
	ProtestPct   float64 `db:"protest_pct" json:"protest_pct"`
	Unemployment float64 `db:"unemployment" json:"unemployment"`
	Budget       float64 `db:"budget" json:"budget"`
	Growth       float64 `db:"growth" json:"growth"`
	Inflation    float64 `db:"inflation" json:"inflation"`
	Births       int     `db:"births" json:"births"`
	Deaths       int     `db:"deaths" json:"deaths"`
	Marriages    int     `db:"marriages" json:"marriages"`
}

// SaveStats appends a statistics sample.
func (db *DB) SaveStats(st engine.Stats) error {
	_, err := db.conn.NamedExec(`INSERT INTO stats
		(tick, day, recorded_at, population, avg_happiness, avg_health, protest_pct,
		 unemployment, budget, growth, inflation, births, deaths, marriages)
		VALUES (:tick, :day, :recorded_at, :population, :avg_happiness, :avg_health, :protest_pct,
		 :unemployment, :budget, :growth, :inflation, :births, :deaths, :marriages)`,
		StatsRow{
			Tick:         st.Tick,
			Day:          st.Day,
			RecordedAt:   time.Now().UTC().Format(time.RFC3339),
			Population:   st.Population,
			AvgHappiness: st.AvgHappiness,
			AvgHealth:    st.AvgHealth,
			ProtestPct:   st.ProtestPct,
			Unemployment: st.Unemployment,
			Budget:       st.Budget,
			Growth:       st.Growth,
			Inflation:    st.Inflation,
			Births:       st.Births,
			Deaths:       st.Deaths,
			Marriages:    st.Marriages,
		})
	return err
}

// StatsHistory returns up to limit samples, oldest first.
func (db *DB) StatsHistory(limit int) ([]StatsRow, error) {
	var rows []StatsRow
	err := db.conn.Select(&rows, `SELECT tick, day, recorded_at, population, avg_happiness, avg_health,
		protest_pct, unemployment, budget, growth, inflation, births, deaths, marriages
		FROM (SELECT * FROM stats ORDER BY id DESC LIMIT ?) ORDER BY tick ASC`, limit)
	return rows, err
}

// SaveMeta stores a key-value pair in city metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO city_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM city_meta WHERE key = ?", key)
	return value, err
}

// Archiver copies new events and a stats sample from a simulation into the DB.
// It is safe for concurrent use.
type Archiver struct {
	mu      sync.Mutex
	db      *DB
	lastSeq uint64
}

// NewArchiver creates an archiver that starts with the next event the simulation emits.
func NewArchiver(db *DB) *Archiver {
	return &Archiver{db: db}
}

// Archive saves every event emitted since the last call plus the current stats.
func (a *Archiver) Archive(sim *engine.Simulation) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	events := sim.EventsSince(a.lastSeq)
	if err := a.db.SaveEvents(events); err != nil {
		return fmt.Errorf("save events: %w", err)
	}
	if n := len(events); n > 0 {
		a.lastSeq = events[n-1].Seq
	}

	st := sim.Stats()
	if err := a.db.SaveStats(st); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	if err := a.db.SaveMeta("last_tick", strconv.FormatUint(st.Tick, 10)); err != nil {
		return fmt.Errorf("save meta: %w", err)
	}

	slog.Debug("archived", "events", len(events), "tick", st.Tick)
	return nil
}
