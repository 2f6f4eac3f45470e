// Package handlers contains the HTTP handlers for MusicMate-Go. The
// Application struct bundles the dependencies the handlers need: the
// recommendation pipeline, the credential manager, the catalog, the
// database and the cookie signing key. Collaborators are held as
// interfaces so tests can substitute in-memory fakes.

package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"MusicMate-Go/pkg/db"
	"MusicMate-Go/pkg/music"
	"MusicMate-Go/pkg/spotify"
	"MusicMate-Go/pkg/weather"
)

// RecommendService is the slice of the recommendation pipeline the
// handlers consume.
type RecommendService interface {
	ByActivity(ctx context.Context, location, activity, genre string) ([]music.Track, weather.Report, error)
	ByMood(ctx context.Context, mood, genre string) ([]music.Track, error)
	BySimilar(ctx context.Context, description string) ([]music.Track, error)
}

// CredentialManager covers the credential operations the session layer
// needs: starting the authorization flow, completing it, and keeping
// stored tokens fresh.
type CredentialManager interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	RefreshIfExpired(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error)
}

// UserCatalog exposes the playlist operations performed with a
// user-scoped token.
type UserCatalog interface {
	Playlists(ctx context.Context) ([]music.Playlist, error)
	CreatePlaylist(ctx context.Context, name, description string, public bool) (music.Playlist, error)
	AddToPlaylist(ctx context.Context, playlistID, trackID string) error
}

// Application holds the methods for routes.
type Application struct {
	Recommender RecommendService
	Credentials CredentialManager
	Catalog     music.Catalog
	DB          *db.DB
	SignKey     []byte
	Log         *logrus.Logger

	// NewUserCatalog builds the user-scoped catalog client from a
	// refreshed token. Tests replace it with a fake.
	NewUserCatalog func(tok *oauth2.Token) UserCatalog
}

func (app *Application) logger() *logrus.Logger {
	if app.Log != nil {
		return app.Log
	}
	return logrus.StandardLogger()
}

// userCatalog resolves the constructor, defaulting to the real Spotify
// user client.
func (app *Application) userCatalog(tok *oauth2.Token) UserCatalog {
	if app.NewUserCatalog != nil {
		return app.NewUserCatalog(tok)
	}
	return spotify.NewUserClient(tok)
}

// Home displays the landing page with the three recommendation forms.
func (app *Application) Home(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, `
		<h1>Welcome to MusicMate!</h1>
		<p>Match songs to your day, your mood, or a track you love.</p>
		<ul>
			<li><a href="/match/day">Match the day</a></li>
			<li><a href="/match/mood">Match the mood</a></li>
			<li><a href="/match/song">Match the song</a></li>
		</ul>
	`)
}

// GenresJSON lists the catalog's genre seeds. The endpoint works for
// anonymous visitors because it only needs the service credential.
func (app *Application) GenresJSON(w http.ResponseWriter, r *http.Request) {
	genres, err := app.Catalog.Genres(r.Context())
	if err != nil {
		app.logger().WithError(err).Error("genre listing failed")
		respondJSONError(w, http.StatusBadGateway, "failed to load genres")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"genres": genres})
}
