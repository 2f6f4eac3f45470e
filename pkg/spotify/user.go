// User-scoped Spotify operations. These run under the token minted for
// one user by the OAuth callback, not the service credential, and are
// used by the saved-songs surface to list and modify the user's own
// playlists. Callers must refresh the token through the credential
// manager before constructing a UserClient.
package spotify

import (
	"context"

	libspotify "github.com/zmb3/spotify"
	"golang.org/x/oauth2"

	"MusicMate-Go/pkg/music"
)

// userSession is the subset of the spotify.Client needed for operations
// on the current user's library.
type userSession interface {
	CurrentUser() (*libspotify.PrivateUser, error)
	CurrentUsersPlaylists() (*libspotify.SimplePlaylistPage, error)
	CreatePlaylistForUser(userID, playlistName, description string, public bool) (*libspotify.FullPlaylist, error)
	AddTracksToPlaylist(playlistID libspotify.ID, trackIDs ...libspotify.ID) (string, error)
}

// UserClient performs catalog operations on behalf of one user.
type UserClient struct {
	session userSession
}

// NewUserClient builds a client from an already-refreshed user token.
func NewUserClient(tok *oauth2.Token) *UserClient {
	c := libspotify.Authenticator{}.NewClient(tok)
	return &UserClient{session: &c}
}

// CurrentUserID returns the catalog user ID behind the token.
func (u *UserClient) CurrentUserID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	user, err := u.session.CurrentUser()
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// Playlists lists the user's own playlists.
func (u *UserClient) Playlists(ctx context.Context) ([]music.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	page, err := u.session.CurrentUsersPlaylists()
	if err != nil {
		return nil, err
	}
	playlists := make([]music.Playlist, 0, len(page.Playlists))
	for _, p := range page.Playlists {
		playlists = append(playlists, music.Playlist{
			ID:    string(p.ID),
			Name:  p.Name,
			Owner: p.Owner.DisplayName,
			Link:  p.ExternalURLs["spotify"],
		})
	}
	return playlists, nil
}

// CreatePlaylist creates a playlist on the user's account and returns
// its catalog identity.
func (u *UserClient) CreatePlaylist(ctx context.Context, name, description string, public bool) (music.Playlist, error) {
	if err := ctx.Err(); err != nil {
		return music.Playlist{}, err
	}
	userID, err := u.CurrentUserID(ctx)
	if err != nil {
		return music.Playlist{}, err
	}
	created, err := u.session.CreatePlaylistForUser(userID, name, description, public)
	if err != nil {
		return music.Playlist{}, err
	}
	return music.Playlist{
		ID:    string(created.ID),
		Name:  created.Name,
		Owner: created.Owner.DisplayName,
		Link:  created.ExternalURLs["spotify"],
	}, nil
}

// AddToPlaylist appends one track to the given playlist.
func (u *UserClient) AddToPlaylist(ctx context.Context, playlistID, trackID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := u.session.AddTracksToPlaylist(libspotify.ID(playlistID), libspotify.ID(trackID))
	return err
}
