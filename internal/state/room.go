package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"

	dbutil "github.com/llehouerou/roomdj/internal/db"
	"github.com/llehouerou/roomdj/internal/playback"
	"github.com/llehouerou/roomdj/internal/playlist"
)

func getRoom(ctx context.Context, db *sql.DB, roomID string) (*RoomState, error) {
	var (
		player         playback.Player
		votes, history string
	)
	row := db.QueryRowContext(ctx, `
		SELECT current_index, playing, started, skip_votes, previous_tracks
		FROM rooms WHERE room_id = ?
	`, roomID)
	err := row.Scan(&player.CurrentIndex, &player.Playing, &player.Started, &votes, &history)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultRoomState(), nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(votes), &player.SkipVotes); err != nil {
		return nil, errors.Wrap(err, "decode skip votes")
	}
	if err := json.Unmarshal([]byte(history), &player.PreviousTracks); err != nil {
		return nil, errors.Wrap(err, "decode previous tracks")
	}

	rows, err := db.QueryContext(ctx, `
		SELECT video_id, title, requested_by, requested_at
		FROM room_songs
		WHERE room_id = ?
		ORDER BY position
	`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	songs := []playlist.Song{}
	for rows.Next() {
		var s playlist.Song
		var requestedBy sql.NullString
		var requestedAt sql.NullInt64

		if err := rows.Scan(&s.ID, &s.Title, &requestedBy, &requestedAt); err != nil {
			return nil, err
		}

		s.RequestedBy = dbutil.NullStringValue(requestedBy)
		if ms := dbutil.NullInt64Value(requestedAt); ms != 0 {
			s.RequestedAt = time.UnixMilli(ms)
		}
		songs = append(songs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &RoomState{Player: player, Songs: songs}, nil
}

func saveRoom(ctx context.Context, sqlDB *sql.DB, roomID string, st RoomState) error {
	votes, err := encodeList(st.Player.SkipVotes)
	if err != nil {
		return errors.Wrap(err, "encode skip votes")
	}
	history, err := encodeList(st.Player.PreviousTracks)
	if err != nil {
		return errors.Wrap(err, "encode previous tracks")
	}

	return dbutil.WithTx(ctx, sqlDB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rooms (room_id, current_index, playing, started, skip_votes, previous_tracks, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(room_id) DO UPDATE SET
				current_index = excluded.current_index,
				playing = excluded.playing,
				started = excluded.started,
				skip_votes = excluded.skip_votes,
				previous_tracks = excluded.previous_tracks,
				updated_at = excluded.updated_at
		`, roomID, st.Player.CurrentIndex, st.Player.Playing, st.Player.Started, votes, history, time.Now().UnixMilli())
		if err != nil {
			return err
		}

		// Clear existing playlist
		if _, err := tx.ExecContext(ctx, `DELETE FROM room_songs WHERE room_id = ?`, roomID); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO room_songs (room_id, position, video_id, title, requested_by, requested_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, s := range st.Songs {
			var requestedBy, requestedAt any
			if s.RequestedBy != "" {
				requestedBy = s.RequestedBy
			}
			if !s.RequestedAt.IsZero() {
				requestedAt = s.RequestedAt.UnixMilli()
			}
			_, err = stmt.ExecContext(ctx, roomID, i, s.ID, s.Title, requestedBy, requestedAt)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// encodeList stores nil slices as empty JSON arrays.
func encodeList[T any](items []T) (string, error) {
	if items == nil {
		items = []T{}
	}
	b, err := json.Marshal(items)
	return string(b), err
}
