package storage

import (
	"database/sql"
	"fmt"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

type DB interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	Close() error
}

type Store struct{ db DB }

// UsageStats aggregates one category's command counts.
type UsageStats struct {
	Count    int
	Commands map[string]int
}

// TimeSeriesPoint is the number of commands in the bucket starting at Timestamp.
type TimeSeriesPoint struct {
	Timestamp int64
	Count     int
}

func OpenSQLite(dsn string) (DB, error) {
	return sql.Open("sqlite3", dsn)
}

func InitSchema(db DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS usage_events(
		chat_id INTEGER, user_id INTEGER, category TEXT, command TEXT, ts INTEGER
	)`)
	if err != nil {
		return err
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS usage_events_ts ON usage_events(ts)`)
	return err
}

func NewStore(db DB) *Store { return &Store{db: db} }

// RecordUsage logs one command invocation. Only the command name is stored.
func (s *Store) RecordUsage(chatID, userID int64, category, command string, ts int64) error {
	_, err := s.db.Exec(`INSERT INTO usage_events(chat_id,user_id,category,command,ts) VALUES(?,?,?,?,?)`,
		chatID, userID, category, command, ts)
	return err
}

// UsageStats groups events since the given unix time by category and command.
func (s *Store) UsageStats(since int64) (map[string]*UsageStats, error) {
	rows, err := s.db.Query(`SELECT category, command, COUNT(*) FROM usage_events WHERE ts>=? GROUP BY category, command`, since)
	if err != nil {
		return nil, fmt.Errorf("usage stats: %w", err)
	}
	defer rows.Close()
	out := map[string]*UsageStats{}
	for rows.Next() {
		var cat, cmd string
		var n int
		if err := rows.Scan(&cat, &cmd, &n); err != nil {
			return nil, fmt.Errorf("usage stats scan: %w", err)
		}
		st, ok := out[cat]
		if !ok {
			st = &UsageStats{Commands: map[string]int{}}
			out[cat] = st
		}
		st.Count += n
		st.Commands[cmd] += n
	}
	return out, rows.Err()
}

// UsageTimeSeries counts events since the given unix time per category in buckets of
// bucketSecs seconds, ascending.
func (s *Store) UsageTimeSeries(since, bucketSecs int64) (map[string][]TimeSeriesPoint, error) {
	if bucketSecs <= 0 {
		bucketSecs = 3600
	}
	rows, err := s.db.Query(`SELECT category, (ts / ?) * ? AS bucket, COUNT(*) FROM usage_events
		WHERE ts>=? GROUP BY category, bucket ORDER BY bucket ASC`, bucketSecs, bucketSecs, since)
	if err != nil {
		return nil, fmt.Errorf("usage series: %w", err)
	}
	defer rows.Close()
	out := map[string][]TimeSeriesPoint{}
	for rows.Next() {
		var cat string
		var p TimeSeriesPoint
		if err := rows.Scan(&cat, &p.Timestamp, &p.Count); err != nil {
			return nil, fmt.Errorf("usage series scan: %w", err)
		}
		out[cat] = append(out[cat], p)
	}
	return out, rows.Err()
}
