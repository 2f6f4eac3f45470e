// Command web initializes the MusicMate-Go application and starts the
// HTTP server. Configuration is provided via environment variables for
// the Spotify, weather and OpenAI credentials and the database
// location. The server listens on port 4000 and serves both a minimal
// HTML surface and a JSON API.

package main

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	libspotify "github.com/zmb3/spotify"
	"golang.org/x/oauth2"

	"MusicMate-Go/pkg/credentials"
	"MusicMate-Go/pkg/db"
	"MusicMate-Go/pkg/handlers"
	"MusicMate-Go/pkg/openai"
	"MusicMate-Go/pkg/recommend"
	"MusicMate-Go/pkg/spotify"
	"MusicMate-Go/pkg/weather"
)

// main configures application dependencies and starts the HTTP server.
func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	// Spotify credentials are required for every catalog call; without
	// them the application cannot run.
	clientID := os.Getenv("SPOTIFY_CLIENT_ID")
	clientSecret := os.Getenv("SPOTIFY_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		log.Fatal("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set")
	}
	// SPOTIFY_REDIRECT_URL must match the callback configured in the
	// Spotify developer dashboard. When unset we fall back to the local
	// development address.
	redirectURL := os.Getenv("SPOTIFY_REDIRECT_URL")
	if redirectURL == "" {
		redirectURL = "http://localhost:4000/callback"
	}
	signingKey := os.Getenv("SIGNING_KEY")
	if signingKey == "" {
		log.Fatal("SIGNING_KEY must be set")
	}
	weatherKey := os.Getenv("WEATHER_API_KEY")
	if weatherKey == "" {
		log.Fatal("WEATHER_API_KEY must be set")
	}
	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey == "" {
		log.Fatal("OPENAI_API_KEY must be set")
	}

	// The credential manager owns both the cached service token used
	// for catalog browsing and the per-user tokens minted by the OAuth
	// callback.
	creds := credentials.New(clientID, clientSecret, redirectURL,
		oauth2.Endpoint{AuthURL: libspotify.AuthURL, TokenURL: libspotify.TokenURL},
		[]string{
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-public",
			"playlist-modify-private",
			"user-read-private",
		})

	catalog := spotify.New(creds)
	rec := recommend.New(catalog,
		&weather.Client{Key: weatherKey},
		&openai.Client{Key: openaiKey, Model: os.Getenv("OPENAI_MODEL")},
		log)

	// DATABASE_PATH allows the SQLite file to be customised. It
	// defaults to a file named musicmate.db in the working directory.
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "musicmate.db"
	}
	database, err := db.New(dbPath)
	if err != nil {
		log.Fatalf("db init: %v", err)
	}
	defer database.Close()

	app := &handlers.Application{
		Recommender: rec,
		Credentials: creds,
		Catalog:     catalog,
		DB:          database,
		SignKey:     []byte(signingKey),
		Log:         log,
	}

	handler := routes(app)

	log.Info("listening on :4000")
	if err := http.ListenAndServe(":4000", handler); err != nil {
		log.Fatalf("http server error: %v", err)
	}
}

// routes builds the full handler stack: the route table wrapped in the
// metrics and security-header middleware.
func routes(app *handlers.Application) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", app.Home)
	mux.HandleFunc("/api/register", app.Register)
	mux.HandleFunc("/api/login", app.Login)
	mux.HandleFunc("/logout", app.Logout)
	mux.HandleFunc("/spotify/login", app.SpotifyLogin)
	mux.HandleFunc("/callback", app.SpotifyCallback)
	mux.HandleFunc("/api/genres", app.GenresJSON)
	mux.HandleFunc("/api/match/day", app.MatchDayJSON)
	mux.HandleFunc("/api/match/mood", app.MatchMoodJSON)
	mux.HandleFunc("/api/match/song", app.MatchSongJSON)
	mux.HandleFunc("/api/saved-songs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			app.SaveSong(w, r)
		} else {
			app.SavedSongsJSON(w, r)
		}
	})
	mux.HandleFunc("/api/saved-songs/", app.DeleteSavedSong)
	mux.HandleFunc("/api/playlists", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			app.CreatePlaylist(w, r)
		} else {
			app.PlaylistsJSON(w, r)
		}
	})
	mux.HandleFunc("/api/playlists/tracks", app.AddToPlaylist)
	mux.HandleFunc("/api/shares", app.CreateShare)
	mux.HandleFunc("/share/", app.ViewShare)
	mux.Handle("/metrics", promhttp.Handler())

	return handlers.SecurityHeaders(handlers.Metrics(mux))
}
