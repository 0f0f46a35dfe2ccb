// Package sqlstore implements the relational durable backend: the
// same user and map data served over SQLite with auto-incrementing
// integer ids. It is an optional swap-in with its own data model and
// is never synchronized with the local key-value store.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Common errors for the relational backend.
var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMapNotFound        = errors.New("map not found")
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT UNIQUE NOT NULL,
	password TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS maps (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER,
	title TEXT NOT NULL,
	states TEXT NOT NULL,
	is_public BOOLEAN DEFAULT 0,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (user_id) REFERENCES users (id)
);
`

// UserRecord is a row in the users table.
type UserRecord struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// MapRecord is a row in the maps table. States are stored as a JSON
// array in a TEXT column. CreatorEmail is joined from users and may be
// empty when the owning user row is gone.
type MapRecord struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	Title        string    `json:"title"`
	States       []string  `json:"states"`
	IsPublic     bool      `json:"is_public"`
	CreatorEmail string    `json:"creator_email,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store is the SQLite-backed persistence layer.
type Store struct {
	db *sql.DB
}

// Open opens the SQLite file at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// The driver is not safe for concurrent writers over one file.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateUser inserts a new user and returns its id.
// Credentials are stored as-is, matching the local directory.
func (s *Store) CreateUser(ctx context.Context, email, password string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, password) VALUES (?, ?)`,
		email, password,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrEmailExists
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	return res.LastInsertId()
}

// Login verifies an email/password pair and returns the matching user.
func (s *Store) Login(ctx context.Context, email, password string) (*UserRecord, error) {
	var (
		u       UserRecord
		created string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM users WHERE email = ? AND password = ?`,
		email, password,
	).Scan(&u.ID, &u.Email, &created)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	u.CreatedAt = parseTimestamp(created)
	return &u, nil
}

// CreateMap inserts a new map row and returns its id.
func (s *Store) CreateMap(ctx context.Context, userID int64, title string, states []string, isPublic bool) (int64, error) {
	encoded, err := encodeStates(states)
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO maps (user_id, title, states, is_public) VALUES (?, ?, ?, ?)`,
		userID, title, encoded, boolToInt(isPublic),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create map: %w", err)
	}
	return res.LastInsertId()
}

// UpdateMap overwrites a map's title, states and visibility, bumping
// updated_at.
func (s *Store) UpdateMap(ctx context.Context, id int64, title string, states []string, isPublic bool) error {
	encoded, err := encodeStates(states)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE maps
		 SET title = ?, states = ?, is_public = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		title, encoded, boolToInt(isPublic), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update map: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update map: %w", err)
	}
	if affected == 0 {
		return ErrMapNotFound
	}
	return nil
}

// GetMap retrieves a map row with its creator's email joined in.
func (s *Store) GetMap(ctx context.Context, id int64) (*MapRecord, error) {
	var (
		m                MapRecord
		encoded          string
		created, updated string
		email            sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT m.id, m.user_id, m.title, m.states, m.is_public,
		        m.created_at, m.updated_at, u.email
		 FROM maps m
		 LEFT JOIN users u ON m.user_id = u.id
		 WHERE m.id = ?`,
		id,
	).Scan(&m.ID, &m.UserID, &m.Title, &encoded, &m.IsPublic, &created, &updated, &email)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMapNotFound
		}
		return nil, fmt.Errorf("failed to get map: %w", err)
	}

	m.CreatorEmail = email.String
	m.States = decodeStates(encoded)
	m.CreatedAt = parseTimestamp(created)
	m.UpdatedAt = parseTimestamp(updated)
	return &m, nil
}

// ListUserMaps returns a user's maps, most recently updated first.
func (s *Store) ListUserMaps(ctx context.Context, userID int64) ([]*MapRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, states, is_public, created_at, updated_at
		 FROM maps
		 WHERE user_id = ?
		 ORDER BY updated_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list maps: %w", err)
	}
	defer rows.Close()

	var maps []*MapRecord
	for rows.Next() {
		var (
			m                MapRecord
			encoded          string
			created, updated string
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.Title, &encoded, &m.IsPublic, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan map row: %w", err)
		}
		m.States = decodeStates(encoded)
		m.CreatedAt = parseTimestamp(created)
		m.UpdatedAt = parseTimestamp(updated)
		maps = append(maps, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list maps: %w", err)
	}
	return maps, nil
}

func encodeStates(states []string) (string, error) {
	if states == nil {
		states = []string{}
	}
	raw, err := json.Marshal(states)
	if err != nil {
		return "", fmt.Errorf("encode states: %w", err)
	}
	return string(raw), nil
}

// decodeStates fails soft: a malformed column reads as an empty list.
func decodeStates(encoded string) []string {
	var states []string
	if err := json.Unmarshal([]byte(encoded), &states); err != nil {
		return []string{}
	}
	return states
}

// parseTimestamp accepts both the SQLite CURRENT_TIMESTAMP text
// format and RFC 3339, which some drivers hand back for DATETIME
// columns. Unparseable values read as the zero time.
func parseTimestamp(value string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
