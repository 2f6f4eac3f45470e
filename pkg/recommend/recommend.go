// Package recommend implements the recommendation pipeline: a signal
// describing the user's context (weather plus activity, a mood, or a
// reference track) is turned into catalog search terms, the catalog is
// queried, and the candidate tracks are narrowed to a small randomized
// set.
//
// The pipeline is a strictly sequential chain of blocking calls. Any
// stage failure aborts the flow for that request; nothing is retried.
// Randomness comes from a single injectable source so tests can pin the
// playlist pick and the track sample.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"MusicMate-Go/pkg/music"
	"MusicMate-Go/pkg/weather"
)

var (
	// ErrGeneration indicates the text-generation call failed.
	ErrGeneration = errors.New("query generation failed")
	// ErrEmptyMood indicates the mood signal was blank.
	ErrEmptyMood = errors.New("mood must not be empty")
)

// querySystemPrompt is the fixed instruction sent with every synthesis
// request. The response is used verbatim as search text, so the prompt
// asks for a short list of phrases rather than prose.
const querySystemPrompt = "You are a spotify genius that specializes in finding the right playlist " +
	"based off some information. Generate a list of 3 - 5 words or short phrases to use in the " +
	"Spotify API search function to search for a playlist based on the given information."

// Signal is the context driving a recommendation. It is a closed set:
// only the types in this package implement it.
type Signal interface {
	userPrompt() string
}

// WeatherSignal combines resolved conditions with the user's planned
// activity. Produced once per activity-flow invocation.
type WeatherSignal struct {
	Report   weather.Report
	Activity string
}

func (s WeatherSignal) userPrompt() string {
	return fmt.Sprintf("The weather is %.0f degrees and %s and the activity is %s.",
		s.Report.TempF, s.Report.Condition, s.Activity)
}

// MoodSignal is a free-text mood. No external call is needed to
// produce it.
type MoodSignal struct {
	Mood string
}

func (s MoodSignal) userPrompt() string {
	return fmt.Sprintf("I am feeling %s.", s.Mood)
}

// WeatherLookup resolves a location to current conditions.
type WeatherLookup interface {
	Current(ctx context.Context, location string) (weather.Report, error)
}

// Generator produces a text completion from a system instruction and
// one user message.
type Generator interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Recommender composes the signal providers, query synthesis, catalog
// search and sampling into the three end-to-end flows.
type Recommender struct {
	Catalog   music.Catalog
	Weather   WeatherLookup
	Generator Generator
	Log       *logrus.Logger

	// SampleSize bounds every externally visible track set.
	SampleSize int
	// PlaylistLimit is how many playlist search hits the random pick
	// draws from.
	PlaylistLimit int
	// TrackLimit is how many tracks are pulled from the chosen playlist
	// before sampling.
	TrackLimit int

	// Rand drives both the playlist pick and the track sample. Tests
	// inject a seeded source; when nil a time-seeded one is created on
	// first use.
	Rand *rand.Rand
	mu   sync.Mutex
}

// New returns a Recommender with the default bounds: 6 sampled tracks,
// 5 playlist candidates, 20 pooled tracks.
func New(catalog music.Catalog, w WeatherLookup, g Generator, log *logrus.Logger) *Recommender {
	return &Recommender{
		Catalog:       catalog,
		Weather:       w,
		Generator:     g,
		Log:           log,
		SampleSize:    6,
		PlaylistLimit: 5,
		TrackLimit:    20,
	}
}

func (r *Recommender) logger() *logrus.Logger {
	if r.Log != nil {
		return r.Log
	}
	return logrus.StandardLogger()
}

// ByActivity recommends tracks for an activity under the current
// weather at location. The flow is weather lookup, query synthesis,
// playlist search, random playlist pick, track listing, sample. A
// failed weather lookup aborts before any catalog call is issued.
func (r *Recommender) ByActivity(ctx context.Context, location, activity, genre string) ([]music.Track, weather.Report, error) {
	report, err := r.Weather.Current(ctx, location)
	if err != nil {
		r.logger().WithFields(logrus.Fields{"flow": "activity", "location": location}).
			WithError(err).Info("weather lookup failed")
		return nil, weather.Report{}, err
	}
	intent, err := r.synthesize(ctx, WeatherSignal{Report: report, Activity: activity})
	if err != nil {
		return nil, weather.Report{}, err
	}
	tracks, err := r.fromPlaylists(ctx, intent, genre)
	if err != nil {
		return nil, weather.Report{}, err
	}
	r.logger().WithFields(logrus.Fields{"flow": "activity", "genre": genre, "tracks": len(tracks)}).
		Info("recommendation complete")
	return tracks, report, nil
}

// ByMood recommends tracks for a free-text mood. The mood is valid when
// non-empty; an empty pool after playlist selection is a soft failure,
// the same policy ByActivity applies.
func (r *Recommender) ByMood(ctx context.Context, mood, genre string) ([]music.Track, error) {
	if strings.TrimSpace(mood) == "" {
		return nil, ErrEmptyMood
	}
	intent, err := r.synthesize(ctx, MoodSignal{Mood: mood})
	if err != nil {
		return nil, err
	}
	tracks, err := r.fromPlaylists(ctx, intent, genre)
	if err != nil {
		return nil, err
	}
	r.logger().WithFields(logrus.Fields{"flow": "mood", "genre": genre, "tracks": len(tracks)}).
		Info("recommendation complete")
	return tracks, nil
}

// BySimilar resolves the description to the top catalog hit and returns
// the catalog's own recommendations seeded by it. The recommender
// already bounds its output, so no extra sampling stage runs.
func (r *Recommender) BySimilar(ctx context.Context, description string) ([]music.Track, error) {
	seed, err := r.Catalog.SearchTrack(ctx, description)
	if err != nil {
		return nil, err
	}
	tracks, err := r.Catalog.Recommendations(ctx, seed.ID, r.SampleSize)
	if err != nil {
		return nil, err
	}
	r.logger().WithFields(logrus.Fields{"flow": "similar", "seed": seed.ID, "tracks": len(tracks)}).
		Info("recommendation complete")
	return tracks, nil
}

// synthesize turns a signal into free-form search text. The response is
// not parsed or validated; whatever comes back feeds the catalog query.
func (r *Recommender) synthesize(ctx context.Context, sig Signal) (string, error) {
	text, err := r.Generator.Complete(ctx, querySystemPrompt, sig.userPrompt())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return text, nil
}

// fromPlaylists is the shared tail of the activity and mood flows:
// search playlists with the genre-prefixed intent, pick one uniformly
// at random among the hits, list its tracks and sample. The random pick
// deliberately trades relevance ranking for variety across repeated
// requests.
func (r *Recommender) fromPlaylists(ctx context.Context, intent, genre string) ([]music.Track, error) {
	query := strings.TrimSpace(genre + " " + strings.Join(strings.Fields(intent), " "))
	playlists, err := r.Catalog.SearchPlaylists(ctx, query, r.PlaylistLimit)
	if err != nil {
		return nil, err
	}
	if len(playlists) == 0 {
		return nil, music.ErrNoPlaylistFound
	}
	pick := playlists[r.intn(len(playlists))]
	pool, err := r.Catalog.PlaylistTracks(ctx, pick.ID, r.TrackLimit)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: playlist %s is empty", music.ErrNoTracks, pick.ID)
	}
	return r.sample(pool), nil
}

func (r *Recommender) rng() *rand.Rand {
	if r.Rand == nil {
		r.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return r.Rand
}

// intn draws under the mutex; requests may run concurrently and
// rand.Rand is not safe for concurrent use.
func (r *Recommender) intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng().Intn(n)
}

func (r *Recommender) sample(pool []music.Track) []music.Track {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Sample(pool, r.SampleSize, r.rng())
}
