package state

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"

	dbutil "github.com/llehouerou/roomdj/internal/db"
)

const (
	appName    = "roomdj"
	dbFileName = "roomdj.db"
)

// Store is the SQLite-backed room repository.
type Store struct {
	db *sql.DB
}

// Open opens the store at path, creating the file and schema if needed.
// An empty path uses the XDG data directory.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	if path != dbutil.MemoryPath {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(err, "create data directory")
		}
	}

	db, err := dbutil.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// DefaultPath returns the database location under the XDG data directory.
func DefaultPath() (string, error) {
	path, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	return path, errors.Wrap(err, "resolve data file")
}

// Load returns the saved state of a room.
func (s *Store) Load(ctx context.Context, roomID string) (*RoomState, error) {
	st, err := getRoom(ctx, s.db, roomID)
	return st, errors.Wrapf(err, "load room %s", roomID)
}

// Save replaces the saved state of a room.
func (s *Store) Save(ctx context.Context, roomID string, st RoomState) error {
	return errors.Wrapf(saveRoom(ctx, s.db, roomID, st), "save room %s", roomID)
}

func (s *Store) Close() error {
	return s.db.Close()
}
