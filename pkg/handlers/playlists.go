// Playlist endpoints backed by the user's own Spotify account. Every
// handler refreshes the stored credential before building the
// user-scoped client, per the credential manager's contract.

package handlers

import (
	"net/http"
)

// PlaylistsJSON lists the user's Spotify playlists.
func (app *Application) PlaylistsJSON(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	tok, ok := app.userToken(w, r, userID)
	if !ok {
		return
	}
	playlists, err := app.userCatalog(tok).Playlists(r.Context())
	if err != nil {
		app.logger().WithError(err).Error("playlist listing failed")
		respondJSONError(w, http.StatusBadGateway, "failed to load playlists")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"playlists": playlists})
}

// CreatePlaylist creates a playlist on the user's Spotify account.
func (app *Application) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Public      bool   `json:"public"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		respondJSONError(w, http.StatusBadRequest, "name is required")
		return
	}
	tok, ok := app.userToken(w, r, userID)
	if !ok {
		return
	}
	created, err := app.userCatalog(tok).CreatePlaylist(r.Context(), req.Name, req.Description, req.Public)
	if err != nil {
		app.logger().WithError(err).Error("playlist creation failed")
		respondJSONError(w, http.StatusBadGateway, "failed to create playlist")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"message":  "playlist created successfully",
		"playlist": created,
	})
}

// AddToPlaylist adds one track to a playlist on the user's account.
func (app *Application) AddToPlaylist(w http.ResponseWriter, r *http.Request) {
	userID, ok := app.requireUser(w, r)
	if !ok {
		return
	}
	var req struct {
		PlaylistID string `json:"playlist_id"`
		TrackID    string `json:"track_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.PlaylistID == "" || req.TrackID == "" {
		respondJSONError(w, http.StatusBadRequest, "playlist_id and track_id are required")
		return
	}
	tok, ok := app.userToken(w, r, userID)
	if !ok {
		return
	}
	if err := app.userCatalog(tok).AddToPlaylist(r.Context(), req.PlaylistID, req.TrackID); err != nil {
		app.logger().WithError(err).Error("add to playlist failed")
		respondJSONError(w, http.StatusBadGateway, "failed to add song to playlist")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "success", "message": "song added to playlist"})
}
