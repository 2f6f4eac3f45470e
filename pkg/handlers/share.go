// Share endpoints. A saved or recommended track can be published under
// a short non-guessable ID so anyone with the link can view it without
// authentication.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"MusicMate-Go/pkg/db"
)

// CreateShare stores the track metadata under a fresh share ID and
// returns the full URL.
func (app *Application) CreateShare(w http.ResponseWriter, r *http.Request) {
	if _, ok := app.requireUser(w, r); !ok {
		return
	}
	var req struct {
		TrackID    string `json:"track_id"`
		SongName   string `json:"song_name"`
		ArtistName string `json:"artist_name"`
		SongLink   string `json:"song_link"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.TrackID == "" || req.SongName == "" || req.ArtistName == "" {
		respondJSONError(w, http.StatusBadRequest, "track_id, song_name and artist_name are required")
		return
	}
	id, err := app.DB.CreateShareTrack(r.Context(), db.ShareTrack{
		TrackID:    req.TrackID,
		SongName:   req.SongName,
		ArtistName: req.ArtistName,
		SongLink:   req.SongLink,
	})
	if err != nil {
		http.Error(w, "failed to store share", http.StatusInternalServerError)
		return
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"url": fmt.Sprintf("%s://%s/share/%s", scheme, r.Host, id),
	})
}

// ViewShare renders a minimal page for a shared track so the link can
// be embedded in social previews.
func (app *Application) ViewShare(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/share/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	st, err := app.DB.GetShareTrack(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, "failed to load share", http.StatusInternalServerError)
		return
	}
	fmt.Fprintf(w, `<h1>%s</h1><p>By: %s</p><p><a href="%s">Listen on Spotify</a></p>`,
		html.EscapeString(st.SongName), html.EscapeString(st.ArtistName), html.EscapeString(st.SongLink))
}
