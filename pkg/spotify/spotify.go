// Package spotify wraps the official Spotify client library providing
// the catalog operations used by the recommendation pipeline. Search,
// playlist listing and seed-based recommendations run under a
// service-level credential obtained from the credential manager;
// user-scoped playlist operations run under the session user's token.
//
// The wrapped library does not accept a context, so cancellation is
// checked explicitly before each call. A fresh session is built from
// the current token on every call which keeps token refresh entirely
// inside the credential manager.
package spotify

import (
	"context"
	"fmt"

	libspotify "github.com/zmb3/spotify"
	"golang.org/x/oauth2"

	"MusicMate-Go/pkg/music"
)

// CredentialSource supplies a valid service-level token. Implemented by
// credentials.Manager.
type CredentialSource interface {
	Service(ctx context.Context) (*oauth2.Token, error)
}

// session defines the subset of the spotify.Client used for catalog
// browsing. It allows the concrete client to be replaced in tests.
type session interface {
	SearchOpt(query string, t libspotify.SearchType, opt *libspotify.Options) (*libspotify.SearchResult, error)
	GetPlaylistTracksOpt(playlistID libspotify.ID, opt *libspotify.Options, fields string) (*libspotify.PlaylistTrackPage, error)
	GetRecommendations(seeds libspotify.Seeds, attrs *libspotify.TrackAttributes, opt *libspotify.Options) (*libspotify.Recommendations, error)
	GetTracks(ids ...libspotify.ID) ([]*libspotify.FullTrack, error)
	GetAvailableGenreSeeds() ([]string, error)
}

// Client implements music.Catalog against the Spotify Web API.
type Client struct {
	creds      CredentialSource
	newSession func(tok *oauth2.Token) session
}

// Compile-time interface check ensuring Client satisfies the generic
// music.Catalog interface used by the rest of the application.
var _ music.Catalog = (*Client)(nil)

// New returns a Client drawing service tokens from creds.
func New(creds CredentialSource) *Client {
	return &Client{
		creds: creds,
		newSession: func(tok *oauth2.Token) session {
			c := libspotify.Authenticator{}.NewClient(tok)
			return &c
		},
	}
}

// session builds an API session from the current service token. The
// cancellation check happens here so every catalog method honours the
// caller's context before issuing a request.
func (c *Client) session(ctx context.Context) (session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tok, err := c.creds.Service(ctx)
	if err != nil {
		return nil, err
	}
	return c.newSession(tok), nil
}

// SearchPlaylists runs a free-text search over the playlist index and
// returns up to limit hits. An empty result is returned as an empty
// slice, not an error; the caller decides whether that is a failure.
func (c *Client) SearchPlaylists(ctx context.Context, query string, limit int) ([]music.Playlist, error) {
	sess, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	results, err := sess.SearchOpt(query, libspotify.SearchTypePlaylist, &libspotify.Options{Limit: &limit})
	if err != nil {
		return nil, err
	}
	if results.Playlists == nil {
		return nil, nil
	}
	playlists := make([]music.Playlist, 0, len(results.Playlists.Playlists))
	for _, p := range results.Playlists.Playlists {
		playlists = append(playlists, music.Playlist{
			ID:    string(p.ID),
			Name:  p.Name,
			Owner: p.Owner.DisplayName,
			Link:  p.ExternalURLs["spotify"],
		})
	}
	return playlists, nil
}

// PlaylistTracks fetches up to limit tracks from one playlist,
// normalized to music.Track. Entries without a usable track object
// (removed or local-only items) are skipped; missing cover art or
// popularity never drops a track.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID string, limit int) ([]music.Track, error) {
	sess, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	page, err := sess.GetPlaylistTracksOpt(libspotify.ID(playlistID), &libspotify.Options{Limit: &limit}, "")
	if err != nil {
		return nil, err
	}
	tracks := make([]music.Track, 0, len(page.Tracks))
	for _, item := range page.Tracks {
		if item.Track.ID == "" && item.Track.Name == "" {
			continue
		}
		tracks = append(tracks, trackFromFull(item.Track))
	}
	return tracks, nil
}

// SearchTrack resolves query to the single best matching track.
func (c *Client) SearchTrack(ctx context.Context, query string) (music.Track, error) {
	sess, err := c.session(ctx)
	if err != nil {
		return music.Track{}, err
	}
	one := 1
	results, err := sess.SearchOpt(query, libspotify.SearchTypeTrack, &libspotify.Options{Limit: &one})
	if err != nil {
		return music.Track{}, err
	}
	if results.Tracks == nil || len(results.Tracks.Tracks) == 0 {
		return music.Track{}, music.ErrTrackNotFound
	}
	return trackFromFull(results.Tracks.Tracks[0]), nil
}

// Recommendations returns up to limit tracks related to the seed track.
// The recommendation endpoint only yields simplified tracks, so the
// result is re-fetched through the track endpoint to recover album and
// cover data. If that enrichment fails the simplified tracks are
// returned with those fields absent rather than failing the flow.
func (c *Client) Recommendations(ctx context.Context, seedTrackID string, limit int) ([]music.Track, error) {
	sess, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	seeds := libspotify.Seeds{Tracks: []libspotify.ID{libspotify.ID(seedTrackID)}}
	recs, err := sess.GetRecommendations(seeds, nil, &libspotify.Options{Limit: &limit})
	if err != nil {
		return nil, err
	}
	if len(recs.Tracks) == 0 {
		return nil, fmt.Errorf("%w: recommender returned nothing for seed %s", music.ErrNoTracks, seedTrackID)
	}
	ids := make([]libspotify.ID, len(recs.Tracks))
	for i, t := range recs.Tracks {
		ids[i] = t.ID
	}
	full, err := sess.GetTracks(ids...)
	if err == nil {
		tracks := make([]music.Track, 0, len(full))
		for _, t := range full {
			if t == nil {
				continue
			}
			tracks = append(tracks, trackFromFull(*t))
		}
		if len(tracks) > 0 {
			return tracks, nil
		}
	}
	tracks := make([]music.Track, len(recs.Tracks))
	for i, t := range recs.Tracks {
		tracks[i] = trackFromSimple(t)
	}
	return tracks, nil
}

// Genres lists the available genre seeds used to populate the
// recommendation forms.
func (c *Client) Genres(ctx context.Context) ([]string, error) {
	sess, err := c.session(ctx)
	if err != nil {
		return nil, err
	}
	return sess.GetAvailableGenreSeeds()
}

// trackFromFull normalizes a full track object. Popularity is always
// present on full tracks; cover art may be absent and stays empty.
func trackFromFull(t libspotify.FullTrack) music.Track {
	popularity := t.Popularity
	track := music.Track{
		Title:      t.Name,
		Album:      t.Album.Name,
		Link:       t.ExternalURLs["spotify"],
		Popularity: &popularity,
		URI:        string(t.URI),
		ID:         string(t.ID),
	}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	if len(t.Album.Images) > 0 {
		track.CoverImage = t.Album.Images[0].URL
	}
	return track
}

// trackFromSimple normalizes a simplified track object. Album, cover
// and popularity are not part of the simplified shape and stay absent.
func trackFromSimple(t libspotify.SimpleTrack) music.Track {
	track := music.Track{
		Title: t.Name,
		Link:  t.ExternalURLs["spotify"],
		URI:   string(t.URI),
		ID:    string(t.ID),
	}
	if len(t.Artists) > 0 {
		track.Artist = t.Artists[0].Name
	}
	return track
}
