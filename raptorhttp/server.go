// Package raptorhttp exposes a raptor.Timetable over HTTP: a single
// journey-query endpoint, a batch endpoint backed by batchquery, and a
// GeoJSON rendering of the best journey in a Pareto frontier.
package raptorhttp

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/transitkit/raptor"
	"github.com/transitkit/raptor/batchquery"
	"github.com/transitkit/raptor/geoexport"
	"github.com/transitkit/raptor/gtfsfeed"
)

// Config holds the pieces of raptorhttp's ambient configuration that
// come from the CLI's flags rather than from the Timetable itself.
type Config struct {
	// Addr is the listen address passed to http.ListenAndServe, e.g.
	// ":8080". Empty defaults to the PORT environment variable (and
	// then to 8080), mirroring the teacher example's own fallback.
	Addr string

	// AllowedOrigins lists the CORS origins browsers are allowed to
	// call this service from. Empty defaults to no cross-origin access
	// at all, not a wildcard: AllowCredentials is always on (batch
	// clients may carry cookies/auth headers), and rs/cors refuses to
	// pair a wildcard origin with credentials, so a real origin list is
	// required to enable cross-origin access.
	AllowedOrigins []string
}

// addr resolves the listen address: cfg.Addr if set, else $PORT
// prefixed with ":", else ":8080" — the same fallback chain
// KhalidEchchahid-transit-app/backend/main.go uses.
func (cfg Config) addr() string {
	if cfg.Addr != "" {
		return cfg.Addr
	}
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}

// Server wraps a gtfsfeed.Timetable with chi routes for journey
// queries. It holds no request-scoped state: tt is read-only and safe
// for the concurrent queries chi's default server dispatches.
type Server struct {
	tt *gtfsfeed.Timetable
}

// NewServer builds the chi router for tt. Callers embed it in their
// own http.Server, or call Serve to run it directly the way the
// teacher's main.go does.
func NewServer(tt *gtfsfeed.Timetable, cfg Config) http.Handler {
	s := &Server{tt: tt}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Get("/health", s.handleHealth)
	r.Get("/journeys", s.handleJourneys)
	r.Post("/journeys/batch", s.handleBatch)

	return r
}

// Serve builds the router for tt and blocks serving it on cfg's
// listen address, logging the resolved address first the way the
// teacher's main.go logs its port before calling ListenAndServe.
func Serve(tt *gtfsfeed.Timetable, cfg Config) error {
	addr := cfg.addr()
	log.Printf("raptorhttp: listening on %s", addr)
	return http.ListenAndServe(addr, NewServer(tt, cfg))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// handleJourneys serves GET /journeys?origin=&destination=&depart=&kMax=
// and, with format=geojson, renders the best (last, i.e. earliest
// arrival, using the most transfers) journey on the Pareto frontier
// as a GeoJSON FeatureCollection instead of raw JSON.
func (s *Server) handleJourneys(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	originID := q.Get("origin")
	destinationID := q.Get("destination")
	if originID == "" || destinationID == "" {
		http.Error(w, "origin and destination are required", http.StatusBadRequest)
		return
	}

	depart, err := parseTime(q.Get("depart"))
	if err != nil {
		http.Error(w, "invalid depart: "+err.Error(), http.StatusBadRequest)
		return
	}
	kMax := parseKMax(q.Get("kMax"))

	journeys, err := raptor.QueryByID(s.tt, kMax, depart, originID, destinationID, raptor.Options{})
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	if q.Get("format") == "geojson" {
		if len(journeys) == 0 {
			http.Error(w, "no journey found", http.StatusNotFound)
			return
		}
		fc, err := geoexport.Journey[string, string, string](s.tt, journeys[len(journeys)-1])
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		json.NewEncoder(w).Encode(fc)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(journeys)
}

// handleBatch serves POST /journeys/batch: a JSON array of
// batchquery.Request bodies, each resolved independently and returned
// in the same order. One request's unknown stop does not fail the rest
// of the batch; its entry carries only an "error" string and no
// "journeys" field.
func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	requests, err := batchquery.Parse(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	type result struct {
		Journeys []raptor.Journey[string, string, string] `json:"journeys,omitempty"`
		Error    string                                    `json:"error,omitempty"`
	}

	results := make([]result, len(requests))
	for i, req := range requests {
		journeys, err := raptor.QueryByID(s.tt, req.KMax, raptor.Time(req.Depart), req.Origin, req.Destination, raptor.Options{})
		if err != nil {
			results[i] = result{Error: err.Error()}
			continue
		}
		results[i] = result{Journeys: journeys}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}

func parseTime(s string) (raptor.Time, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return raptor.Time(v), nil
}

func parseKMax(s string) int {
	const defaultKMax = 6
	if s == "" {
		return defaultKMax
	}
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return defaultKMax
	}
	return v
}
