// Saved-song endpoints: save a recommended track to the account, list
// the saved collection and remove entries. These touch only the local
// database, never the catalog.

package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"MusicMate-Go/pkg/db"
)

// SaveSong stores one recommended track on the current account.
func (app *Application) SaveSong(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		TrackID    string `json:"track_id"`
		SongName   string `json:"song_name"`
		ArtistName string `json:"artist_name"`
		AlbumName  string `json:"album_name"`
		SongLink   string `json:"song_link"`
		URI        string `json:"uri"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SongName == "" || req.ArtistName == "" || req.URI == "" {
		respondJSONError(w, http.StatusBadRequest, "song_name, artist_name and uri are required")
		return
	}
	err := app.DB.SaveSong(r.Context(), userID, db.SavedSong{
		TrackID:    req.TrackID,
		SongName:   req.SongName,
		ArtistName: req.ArtistName,
		AlbumName:  req.AlbumName,
		SongLink:   req.SongLink,
		URI:        req.URI,
	})
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "song failed to save, please try again")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "song saved successfully"})
}

// SavedSongsJSON lists the account's saved songs, most recent first.
func (app *Application) SavedSongsJSON(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	songs, err := app.DB.ListSavedSongs(r.Context(), userID)
	if err != nil {
		http.Error(w, "failed to load saved songs", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"saved_songs": songs})
}

// DeleteSavedSong removes one saved song by its row ID, taken from the
// trailing path segment. Only DELETE is accepted; GET and HEAD are not
// CSRF-checked, so a destructive action must never be reachable through
// them.
func (app *Application) DeleteSavedSong(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.Header().Set("Allow", http.MethodDelete)
		respondJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/api/saved-songs/")
	songID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid song id")
		return
	}
	if err := app.DB.DeleteSavedSong(r.Context(), userID, songID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondJSONError(w, http.StatusNotFound, "song not found")
			return
		}
		respondJSONError(w, http.StatusInternalServerError, "failed to delete song")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "song deleted successfully"})
}
