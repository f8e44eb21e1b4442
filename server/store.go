package main

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists accounts and lifetime stats in SQLite.
type Store struct {
	sql *sql.DB
}

// Account is one registered player.
type Account struct {
	ID      int64
	Name    string
	Hash    string
	Created time.Time
}

// PlayerStats are lifetime counters for one account.
type PlayerStats struct {
	AccountID int64
	Kills     int
	Deaths    int
	BestScore int
	Playtime  float64 // seconds
}

// RankedPlayer is one leaderboard row.
type RankedPlayer struct {
	Rank      int     `json:"rank"`
	Username  string  `json:"username"`
	Kills     int     `json:"kills"`
	Deaths    int     `json:"deaths"`
	BestScore int     `json:"best_score"`
	Playtime  float64 `json:"playtime"`
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS stats (
		account_id INTEGER PRIMARY KEY REFERENCES accounts(id),
		kills INTEGER NOT NULL DEFAULT 0,
		deaths INTEGER NOT NULL DEFAULT 0,
		best_score INTEGER NOT NULL DEFAULT 0,
		playtime REAL NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
}

// OpenStore opens or creates the database at path in WAL mode and applies
// the schema.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	setup := append([]string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	}, migrations...)
	for _, stmt := range setup {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, err
		}
	}
	return &Store{sql: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.sql.Close() }

// Setting returns the kv value for key, or "" when unset.
func (s *Store) Setting(key string) string {
	var v string
	if err := s.sql.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&v); err != nil {
		return ""
	}
	return v
}

// PutSetting upserts a kv value.
func (s *Store) PutSetting(key, value string) error {
	_, err := s.sql.Exec(
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	return err
}

// CreateAccount inserts an account and its zeroed stats row, returning the
// new account ID.
func (s *Store) CreateAccount(name, hash string) (int64, error) {
	res, err := s.sql.Exec("INSERT INTO accounts (name, hash) VALUES (?, ?)", name, hash)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	_, err = s.sql.Exec("INSERT INTO stats (account_id) VALUES (?)", id)
	return id, err
}

// AccountByName looks an account up by name; (nil, nil) when absent.
func (s *Store) AccountByName(name string) (*Account, error) {
	var a Account
	err := s.sql.QueryRow(
		"SELECT id, name, hash, created_at FROM accounts WHERE name = ?", name,
	).Scan(&a.ID, &a.Name, &a.Hash, &a.Created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// NameTaken reports whether an account name exists.
func (s *Store) NameTaken(name string) (bool, error) {
	var n int
	err := s.sql.QueryRow("SELECT COUNT(*) FROM accounts WHERE name = ?", name).Scan(&n)
	return n > 0, err
}

// StatsFor returns lifetime stats for an account; (nil, nil) when absent.
func (s *Store) StatsFor(accountID int64) (*PlayerStats, error) {
	var st PlayerStats
	err := s.sql.QueryRow(
		"SELECT account_id, kills, deaths, best_score, playtime FROM stats WHERE account_id = ?",
		accountID,
	).Scan(&st.AccountID, &st.Kills, &st.Deaths, &st.BestScore, &st.Playtime)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// AddKill bumps an account's kill counter.
func (s *Store) AddKill(accountID int64) error {
	_, err := s.sql.Exec("UPDATE stats SET kills = kills + 1 WHERE account_id = ?", accountID)
	return err
}

// AddDeath bumps an account's death counter.
func (s *Store) AddDeath(accountID int64) error {
	_, err := s.sql.Exec("UPDATE stats SET deaths = deaths + 1 WHERE account_id = ?", accountID)
	return err
}

// RaiseBestScore records score as the account's best if it beats the
// current one; lower scores are a no-op.
func (s *Store) RaiseBestScore(accountID int64, score int) error {
	_, err := s.sql.Exec(
		"UPDATE stats SET best_score = ? WHERE account_id = ? AND best_score < ?",
		score, accountID, score)
	return err
}

// AddPlaytime adds session playtime (seconds) to an account's total.
func (s *Store) AddPlaytime(accountID int64, seconds float64) error {
	_, err := s.sql.Exec("UPDATE stats SET playtime = playtime + ? WHERE account_id = ?", seconds, accountID)
	return err
}

// topOrderings whitelists the sortable leaderboard columns.
var topOrderings = map[string]string{
	"kills": "s.kills",
	"best":  "s.best_score",
	"kd":    "CASE WHEN s.deaths > 0 THEN CAST(s.kills AS REAL)/s.deaths ELSE s.kills END",
}

// TopPlayers returns up to limit accounts ranked by the given ordering;
// unknown orderings fall back to best score.
func (s *Store) TopPlayers(orderBy string, limit int) ([]RankedPlayer, error) {
	col, ok := topOrderings[orderBy]
	if !ok {
		col = "s.best_score"
	}
	rows, err := s.sql.Query(
		`SELECT a.name, s.kills, s.deaths, s.best_score, s.playtime
		 FROM stats s JOIN accounts a ON a.id = s.account_id
		 ORDER BY `+col+` DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var top []RankedPlayer
	for rows.Next() {
		var r RankedPlayer
		if err := rows.Scan(&r.Username, &r.Kills, &r.Deaths, &r.BestScore, &r.Playtime); err != nil {
			return nil, err
		}
		r.Rank = len(top) + 1
		top = append(top, r)
	}
	return top, rows.Err()
}
