package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestCreateAndGetUser(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	id, err := d.CreateUser(ctx, "alice", "hash-a")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	u, err := d.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if u.ID != id || u.Username != "alice" || u.PasswordHash != "hash-a" {
		t.Errorf("user = %+v", u)
	}

	if _, err := d.CreateUser(ctx, "alice", "hash-b"); err == nil {
		t.Error("expected duplicate username to fail")
	}
	if _, err := d.GetUserByUsername(ctx, "nobody"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("unknown user error = %v, want sql.ErrNoRows", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	userID, err := d.CreateUser(ctx, "alice", "h")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	tok := &oauth2.Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour).Round(time.Second),
	}
	if err := d.SaveToken(ctx, userID, tok); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	got, err := d.GetToken(ctx, userID)
	if err != nil {
		t.Fatalf("GetToken: %v", err)
	}
	if got.AccessToken != "access-1" || got.RefreshToken != "refresh-1" {
		t.Errorf("token = %+v", got)
	}
	if !got.Valid() {
		t.Error("restored token should still be valid")
	}

	// A refreshed token fully replaces the stored one.
	tok.AccessToken = "access-2"
	if err := d.SaveToken(ctx, userID, tok); err != nil {
		t.Fatalf("SaveToken replace: %v", err)
	}
	got, err = d.GetToken(ctx, userID)
	if err != nil {
		t.Fatalf("GetToken after replace: %v", err)
	}
	if got.AccessToken != "access-2" {
		t.Errorf("access token = %q, want the replacement", got.AccessToken)
	}

	if _, err := d.GetToken(ctx, userID+1); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing token error = %v, want sql.ErrNoRows", err)
	}
}

func TestSavedSongs(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	userID, _ := d.CreateUser(ctx, "alice", "h")
	otherID, _ := d.CreateUser(ctx, "bobby", "h")

	song := SavedSong{
		TrackID:    "t1",
		SongName:   "Song One",
		ArtistName: "Artist",
		AlbumName:  "Album",
		SongLink:   "https://open.spotify.com/track/t1",
		URI:        "spotify:track:t1",
	}
	if err := d.SaveSong(ctx, userID, song); err != nil {
		t.Fatalf("SaveSong: %v", err)
	}
	// Saving the same URI again is a no-op.
	if err := d.SaveSong(ctx, userID, song); err != nil {
		t.Fatalf("duplicate SaveSong: %v", err)
	}
	song2 := song
	song2.TrackID, song2.URI, song2.SongName = "t2", "spotify:track:t2", "Song Two"
	song2.AlbumName = ""
	if err := d.SaveSong(ctx, userID, song2); err != nil {
		t.Fatalf("SaveSong second: %v", err)
	}

	songs, err := d.ListSavedSongs(ctx, userID)
	if err != nil {
		t.Fatalf("ListSavedSongs: %v", err)
	}
	if len(songs) != 2 {
		t.Fatalf("expected 2 saved songs, got %d", len(songs))
	}
	if songs[0].SongName != "Song Two" {
		t.Errorf("expected most recent first, got %q", songs[0].SongName)
	}
	if songs[0].AlbumName != "" {
		t.Errorf("empty album should stay empty, got %q", songs[0].AlbumName)
	}

	other, err := d.ListSavedSongs(ctx, otherID)
	if err != nil {
		t.Fatalf("ListSavedSongs other user: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("saved songs leaked across users: %+v", other)
	}

	if err := d.DeleteSavedSong(ctx, userID, songs[0].ID); err != nil {
		t.Fatalf("DeleteSavedSong: %v", err)
	}
	if err := d.DeleteSavedSong(ctx, userID, songs[0].ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("deleting twice = %v, want sql.ErrNoRows", err)
	}
	if err := d.DeleteSavedSong(ctx, otherID, songs[1].ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("cross-user delete = %v, want sql.ErrNoRows", err)
	}
}

func TestShareTrack(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	st := ShareTrack{TrackID: "t1", SongName: "Song", ArtistName: "Artist", SongLink: "https://link"}
	id, err := d.CreateShareTrack(ctx, st)
	if err != nil {
		t.Fatalf("CreateShareTrack: %v", err)
	}
	if id == "" {
		t.Fatal("share ID is empty")
	}
	other, err := d.CreateShareTrack(ctx, st)
	if err != nil {
		t.Fatalf("second CreateShareTrack: %v", err)
	}
	if other == id {
		t.Error("share IDs must be unique per share")
	}

	got, err := d.GetShareTrack(ctx, id)
	if err != nil {
		t.Fatalf("GetShareTrack: %v", err)
	}
	if got != st {
		t.Errorf("share = %+v, want %+v", got, st)
	}

	if _, err := d.GetShareTrack(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing share error = %v, want sql.ErrNoRows", err)
	}
}
