// Recommendation endpoints. Each wraps one pipeline flow, decoding the
// request, mapping the pipeline's sentinel errors onto user-facing
// statuses and recording the outcome in the flow metrics. Failures are
// terminal for the request; the user retries with a new one.

package handlers

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"MusicMate-Go/pkg/music"
	"MusicMate-Go/pkg/recommend"
	"MusicMate-Go/pkg/weather"
)

// respondFlowError translates pipeline failures into responses. Soft
// failures (nothing matched) are 404s with a retry message; upstream
// collaborator failures are 502s.
func (app *Application) respondFlowError(w http.ResponseWriter, flow string, err error) {
	app.logger().WithFields(logrus.Fields{"flow": flow}).WithError(err).Info("recommendation failed")
	switch {
	case errors.Is(err, recommend.ErrEmptyMood):
		respondJSONError(w, http.StatusBadRequest, "please tell us how you are feeling")
	case errors.Is(err, music.ErrNoPlaylistFound),
		errors.Is(err, music.ErrNoTracks),
		errors.Is(err, music.ErrTrackNotFound):
		respondJSONError(w, http.StatusNotFound, "no tracks found, please try again")
	case errors.Is(err, weather.ErrUnavailable):
		respondJSONError(w, http.StatusBadGateway, "could not look up the weather for that location")
	case errors.Is(err, recommend.ErrGeneration):
		respondJSONError(w, http.StatusBadGateway, "failed to get song recommendations, please try again")
	default:
		respondJSONError(w, http.StatusInternalServerError, "failed to get song recommendations, please try again")
	}
}

// MatchDayJSON recommends songs for an activity under the caller's
// current weather.
func (app *Application) MatchDayJSON(w http.ResponseWriter, r *http.Request) {
	if _, ok := app.requireUser(w, r); !ok {
		return
	}
	var req struct {
		City     string `json:"city"`
		Activity string `json:"activity"`
		Genre    string `json:"genre"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.City == "" || req.Activity == "" {
		respondJSONError(w, http.StatusBadRequest, "city and activity are required")
		return
	}
	tracks, report, err := app.Recommender.ByActivity(r.Context(), req.City, req.Activity, req.Genre)
	observeFlow("activity", err)
	if err != nil {
		app.respondFlowError(w, "activity", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"songs":    tracks,
		"weather":  report,
		"city":     report.Location,
		"activity": req.Activity,
	})
}

// MatchMoodJSON recommends songs for a free-text mood.
func (app *Application) MatchMoodJSON(w http.ResponseWriter, r *http.Request) {
	if _, ok := app.requireUser(w, r); !ok {
		return
	}
	var req struct {
		Mood  string `json:"mood"`
		Genre string `json:"genre"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	tracks, err := app.Recommender.ByMood(r.Context(), req.Mood, req.Genre)
	observeFlow("mood", err)
	if err != nil {
		app.respondFlowError(w, "mood", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"songs": tracks,
		"mood":  req.Mood,
	})
}

// MatchSongJSON recommends songs similar to a reference track.
func (app *Application) MatchSongJSON(w http.ResponseWriter, r *http.Request) {
	if _, ok := app.requireUser(w, r); !ok {
		return
	}
	var req struct {
		Song string `json:"song"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Song == "" {
		respondJSONError(w, http.StatusBadRequest, "song is required")
		return
	}
	tracks, err := app.Recommender.BySimilar(r.Context(), req.Song)
	observeFlow("similar", err)
	if err != nil {
		app.respondFlowError(w, "similar", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"songs":         tracks,
		"original_song": req.Song,
	})
}
