// Package db provides the persistence layer used by the application. It
// wraps a SQLite database and exposes helper methods for user accounts,
// per-user OAuth tokens, saved songs and share links. Callers are
// expected to open a single DB instance using New and reuse it for all
// operations.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/oauth2"
)

// DB wraps a sql.DB connection and exposes helper methods for the
// application's persistence layer.
type DB struct {
	*sql.DB
}

// New opens the SQLite database located at path. If the file does not
// exist it is created along with the required schema.
func New(path string) (*DB, error) {
	d, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tokens (user_id INTEGER PRIMARY KEY, token TEXT NOT NULL)`,
		`CREATE TABLE IF NOT EXISTS saved_songs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			track_id TEXT NOT NULL,
			song_name TEXT NOT NULL,
			artist_name TEXT NOT NULL,
			album_name TEXT,
			song_link TEXT NOT NULL,
			uri TEXT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(user_id)
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_saved_user_uri ON saved_songs(user_id, uri)`,
		`CREATE TABLE IF NOT EXISTS shares (id TEXT PRIMARY KEY, track_id TEXT, song_name TEXT, artist_name TEXT, song_link TEXT)`,
	}
	// Errors here likely mean the database file is not writable.
	for _, s := range stmts {
		if _, err := d.Exec(s); err != nil {
			d.Close()
			return nil, fmt.Errorf("init db: %w", err)
		}
	}
	return &DB{d}, nil
}

// CreateUser inserts a new account and returns its ID. The caller is
// responsible for hashing the password; the plain text never reaches
// this layer.
func (db *DB) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	res, err := db.ExecContext(ctx, `INSERT INTO users(username, password_hash) VALUES(?, ?)`, username, passwordHash)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// User is one registered account.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

// GetUserByUsername looks up an account for login. sql.ErrNoRows is
// returned when the username is unknown.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := db.QueryRowContext(ctx, `SELECT user_id, username, password_hash FROM users WHERE username=?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// SaveToken persists the OAuth token for the given user. If a token
// already exists it is replaced, so a refreshed credential fully
// supersedes the expired one.
func (db *DB) SaveToken(ctx context.Context, userID int64, token *oauth2.Token) error {
	b, err := json.Marshal(token)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO tokens(user_id, token) VALUES(?, ?) ON CONFLICT(user_id) DO UPDATE SET token=excluded.token`, userID, string(b))
	return err
}

// GetToken retrieves the OAuth token stored for userID. The returned
// token includes the refresh token if one was originally saved.
func (db *DB) GetToken(ctx context.Context, userID int64) (*oauth2.Token, error) {
	var data string
	if err := db.QueryRowContext(ctx, `SELECT token FROM tokens WHERE user_id=?`, userID).Scan(&data); err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(data), &tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// SavedSong is a track a user stored on their account.
type SavedSong struct {
	ID         int64  `json:"id"`
	TrackID    string `json:"track_id"`
	SongName   string `json:"song_name"`
	ArtistName string `json:"artist_name"`
	AlbumName  string `json:"album_name,omitempty"`
	SongLink   string `json:"song_link"`
	URI        string `json:"uri"`
}

// SaveSong stores a track on the user's account. Saving the same URI
// twice is ignored so the list stays free of duplicates.
func (db *DB) SaveSong(ctx context.Context, userID int64, s SavedSong) error {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO saved_songs(user_id, track_id, song_name, artist_name, album_name, song_link, uri) VALUES(?,?,?,?,?,?,?)`,
		userID, s.TrackID, s.SongName, s.ArtistName, s.AlbumName, s.SongLink, s.URI)
	return err
}

// ListSavedSongs retrieves the user's saved songs, most recent first.
func (db *DB) ListSavedSongs(ctx context.Context, userID int64) ([]SavedSong, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, track_id, song_name, artist_name, album_name, song_link, uri FROM saved_songs WHERE user_id=? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var songs []SavedSong
	for rows.Next() {
		var s SavedSong
		var album sql.NullString
		if err := rows.Scan(&s.ID, &s.TrackID, &s.SongName, &s.ArtistName, &album, &s.SongLink, &s.URI); err != nil {
			return nil, err
		}
		s.AlbumName = album.String
		songs = append(songs, s)
	}
	return songs, rows.Err()
}

// DeleteSavedSong removes one saved song. sql.ErrNoRows is returned
// when the song does not exist for that user so callers can respond
// with a 404.
func (db *DB) DeleteSavedSong(ctx context.Context, userID, songID int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM saved_songs WHERE id=? AND user_id=?`, songID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ShareTrack holds information about a track shared with a unique link.
type ShareTrack struct {
	TrackID    string `json:"track_id"`
	SongName   string `json:"song_name"`
	ArtistName string `json:"artist_name"`
	SongLink   string `json:"song_link"`
}

// CreateShareTrack stores the track metadata under a fresh ID so anyone
// with the link can view it. The ID is returned for URL construction.
func (db *DB) CreateShareTrack(ctx context.Context, s ShareTrack) (string, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx, `INSERT INTO shares(id, track_id, song_name, artist_name, song_link) VALUES(?,?,?,?,?)`,
		id, s.TrackID, s.SongName, s.ArtistName, s.SongLink)
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetShareTrack looks up the track referenced by a share ID.
// sql.ErrNoRows is returned if the ID does not exist.
func (db *DB) GetShareTrack(ctx context.Context, id string) (ShareTrack, error) {
	var st ShareTrack
	err := db.QueryRowContext(ctx, `SELECT track_id, song_name, artist_name, song_link FROM shares WHERE id=?`, id).
		Scan(&st.TrackID, &st.SongName, &st.ArtistName, &st.SongLink)
	if err != nil {
		return ShareTrack{}, err
	}
	return st, nil
}
