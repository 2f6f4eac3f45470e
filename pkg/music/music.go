// Package music defines the data shapes and interfaces shared by the
// recommendation pipeline. The rest of the application depends on this
// package rather than on the Spotify client directly, which keeps the
// orchestration logic testable with in-memory fakes.
//
// Track is the canonical output unit of the pipeline: every field is
// either populated or explicitly absent. A missing album cover is the
// empty string and an unknown popularity is a nil pointer, never a
// lookup error surfaced to the caller.
package music

import (
	"context"
	"errors"
)

// Track is a normalized catalog item. Instances are immutable once
// constructed by the catalog layer.
type Track struct {
	Title      string `json:"song_name"`
	Artist     string `json:"artist_name"`
	Album      string `json:"album_name,omitempty"`
	Link       string `json:"song_link"`
	CoverImage string `json:"album_cover,omitempty"`
	Popularity *int   `json:"popularity,omitempty"`
	URI        string `json:"uri"`
	ID         string `json:"id"`
}

// Playlist identifies one catalog playlist returned by a text search.
type Playlist struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Owner string `json:"owner,omitempty"`
	Link  string `json:"link,omitempty"`
}

// Sentinel errors returned by Catalog implementations and the
// recommendation flows. Callers match with errors.Is.
var (
	// ErrNoPlaylistFound indicates a playlist search matched nothing.
	ErrNoPlaylistFound = errors.New("no playlist found")
	// ErrTrackNotFound indicates a track search matched nothing.
	ErrTrackNotFound = errors.New("no tracks found")
	// ErrNoTracks indicates a playlist or recommendation result
	// contained zero usable tracks.
	ErrNoTracks = errors.New("no tracks available")
)

// Catalog exposes the search and recommendation operations the pipeline
// needs from the music service. All methods require the implementation
// to hold a valid credential; acquiring and refreshing it is the
// implementation's concern.
type Catalog interface {
	// SearchPlaylists returns up to limit playlists matching the query.
	// An empty slice with a nil error is a valid outcome.
	SearchPlaylists(ctx context.Context, query string, limit int) ([]Playlist, error)

	// PlaylistTracks lists up to limit tracks from the playlist,
	// normalized to Track. Items with missing cover art or popularity
	// are retained with those fields absent.
	PlaylistTracks(ctx context.Context, playlistID string, limit int) ([]Track, error)

	// SearchTrack resolves a free-text description to the single best
	// matching track. ErrTrackNotFound is returned when nothing matches.
	SearchTrack(ctx context.Context, query string) (Track, error)

	// Recommendations returns up to limit tracks related to the seed
	// track. ErrNoTracks is returned when the recommender yields none.
	Recommendations(ctx context.Context, seedTrackID string, limit int) ([]Track, error)

	// Genres lists the catalog's available genre seeds.
	Genres(ctx context.Context) ([]string, error)
}
