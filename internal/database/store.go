// Package database provides the storage layer for Areo.
//
// It implements the Store interface using SQLite in WAL mode. Two tables
// live here: the upstream tile cache shared by the viewer and the tile
// daemon, and the user's saved places. DBService is the entry point for
// all database operations.
package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaFS embed.FS

// ErrNotFound is returned when a tile or place does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for tile cache and place persistence.
type Store interface {
	// GetTile returns the cached tile for an expanded URL.
	GetTile(url string) (*Tile, error)
	// PutTile inserts or replaces a cached tile.
	PutTile(tile *Tile) error
	// TileStats summarizes the tile cache.
	TileStats() (*TileStats, error)
	// PruneTiles deletes tiles fetched before the given Unix-nanosecond
	// time and reports how many were removed.
	PruneTiles(before int64) (int64, error)

	// InsertPlace persists a saved place, assigning an id if it has none.
	InsertPlace(place *Place) error
	// ListPlaces returns every saved place ordered by name.
	ListPlaces() ([]*Place, error)
	// SearchPlaces matches name or note, case-insensitively.
	SearchPlaces(query string, limit int) ([]*Place, error)
	// DeletePlace removes a saved place.
	DeletePlace(id string) error

	// Close gracefully shuts down the database connection.
	Close() error
}

// ============================================================
// Domain Models
// ============================================================

// Tile is one cached upstream tile response.
type Tile struct {
	URL         string `json:"url"`
	Data        []byte `json:"-"`
	ContentType string `json:"content_type"`
	FetchedAt   int64  `json:"fetched_at"` // Unix nanoseconds
}

// TileStats holds aggregate figures for the tile cache.
type TileStats struct {
	Count  int   `json:"count"`
	Bytes  int64 `json:"bytes"`
	Oldest int64 `json:"oldest,omitempty"` // Unix nanoseconds
	Newest int64 `json:"newest,omitempty"`
}

// Place is a named camera position the user saved.
type Place struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Height    float64 `json:"height"`
	Note      string  `json:"note,omitempty"`
	CreatedAt int64   `json:"created_at"` // Unix nanoseconds
}

// ============================================================
// DBService Implementation
// ============================================================

// DBService implements the Store interface using SQLite.
// It manages the connection, prepared statements, and serializes
// writers through a read-write mutex.
type DBService struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string

	// Prepared statements for hot-path operations
	stmtGetTile     *sql.Stmt
	stmtPutTile     *sql.Stmt
	stmtInsertPlace *sql.Stmt
}

// NewDBService opens the database at path, initializes the schema,
// and prepares frequently-used statements.
//
// Use ":memory:" for an in-memory database (useful for testing).
func NewDBService(path string) (*DBService, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=ON&_cache_size=-64000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database at %s: %w", path, err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	svc := &DBService{
		db:   db,
		path: path,
	}

	if err := svc.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	if err := svc.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing statements: %w", err)
	}

	return svc, nil
}

// Path returns the location the service was opened with.
func (s *DBService) Path() string { return s.path }

func (s *DBService) initSchema() error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("reading embedded schema: %w", err)
	}

	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}

	return nil
}

func (s *DBService) prepareStatements() error {
	var err error

	s.stmtGetTile, err = s.db.Prepare(`
		SELECT url, data, content_type, fetched_at FROM tiles WHERE url = ?
	`)
	if err != nil {
		return fmt.Errorf("preparing GetTile: %w", err)
	}

	s.stmtPutTile, err = s.db.Prepare(`
		INSERT INTO tiles (url, data, content_type, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			data = excluded.data,
			content_type = excluded.content_type,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return fmt.Errorf("preparing PutTile: %w", err)
	}

	s.stmtInsertPlace, err = s.db.Prepare(`
		INSERT INTO places (place_id, name, longitude, latitude, height, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertPlace: %w", err)
	}

	return nil
}

// ============================================================
// Tile cache
// ============================================================

// GetTile returns the cached tile for url, or ErrNotFound.
func (s *DBService) GetTile(url string) (*Tile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t := &Tile{}
	err := s.stmtGetTile.QueryRow(url).Scan(&t.URL, &t.Data, &t.ContentType, &t.FetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("tile %s: %w", url, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading tile %s: %w", url, err)
	}
	return t, nil
}

// PutTile inserts or replaces a cached tile. A zero FetchedAt is stamped
// with the current time.
func (s *DBService) PutTile(tile *Tile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tile.FetchedAt == 0 {
		tile.FetchedAt = time.Now().UnixNano()
	}
	_, err := s.stmtPutTile.Exec(tile.URL, tile.Data, tile.ContentType, tile.FetchedAt)
	if err != nil {
		return fmt.Errorf("storing tile %s: %w", tile.URL, err)
	}
	return nil
}

// TileStats returns the number of cached tiles, their total size, and the
// fetch time range.
func (s *DBService) TileStats() (*TileStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &TileStats{}
	err := s.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(LENGTH(data)), 0),
			COALESCE(MIN(fetched_at), 0),
			COALESCE(MAX(fetched_at), 0)
		FROM tiles
	`).Scan(&stats.Count, &stats.Bytes, &stats.Oldest, &stats.Newest)
	if err != nil {
		return nil, fmt.Errorf("querying tile stats: %w", err)
	}
	return stats, nil
}

// PruneTiles deletes every tile fetched before the given time.
func (s *DBService) PruneTiles(before int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM tiles WHERE fetched_at < ?`, before)
	if err != nil {
		return 0, fmt.Errorf("pruning tiles: %w", err)
	}
	return res.RowsAffected()
}

// ============================================================
// Places
// ============================================================

// InsertPlace persists a place. An empty ID is filled with a new UUID and
// a zero CreatedAt with the current time.
func (s *DBService) InsertPlace(place *Place) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(place.Name) == "" {
		return errors.New("inserting place: empty name")
	}
	if place.ID == "" {
		place.ID = uuid.NewString()
	}
	if place.CreatedAt == 0 {
		place.CreatedAt = time.Now().UnixNano()
	}

	_, err := s.stmtInsertPlace.Exec(
		place.ID, place.Name, place.Longitude, place.Latitude,
		place.Height, place.Note, place.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting place %s: %w", place.ID, err)
	}
	return nil
}

// ListPlaces returns every saved place ordered by name.
func (s *DBService) ListPlaces() ([]*Place, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT place_id, name, longitude, latitude, height, note, created_at
		FROM places
		ORDER BY name COLLATE NOCASE ASC, created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing places: %w", err)
	}
	defer rows.Close()

	return scanPlaces(rows)
}

// SearchPlaces returns up to limit places whose name or note contains query.
func (s *DBService) SearchPlaces(query string, limit int) ([]*Place, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + escapeLike(query) + "%"

	rows, err := s.db.Query(`
		SELECT place_id, name, longitude, latitude, height, note, created_at
		FROM places
		WHERE name LIKE ? ESCAPE '\' OR note LIKE ? ESCAPE '\'
		ORDER BY name COLLATE NOCASE ASC
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching places for %q: %w", query, err)
	}
	defer rows.Close()

	return scanPlaces(rows)
}

// DeletePlace removes the place with the given id, or returns ErrNotFound.
func (s *DBService) DeletePlace(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM places WHERE place_id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting place %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting place %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("place %s: %w", id, ErrNotFound)
	}
	return nil
}

// Close closes all prepared statements and the underlying connection.
func (s *DBService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, stmt := range []*sql.Stmt{s.stmtGetTile, s.stmtPutTile, s.stmtInsertPlace} {
		if stmt != nil {
			stmt.Close()
		}
	}

	return s.db.Close()
}

// ============================================================
// Scan Helpers
// ============================================================

func scanPlaces(rows *sql.Rows) ([]*Place, error) {
	var places []*Place
	for rows.Next() {
		p := &Place{}
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Longitude, &p.Latitude,
			&p.Height, &p.Note, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning place row: %w", err)
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
